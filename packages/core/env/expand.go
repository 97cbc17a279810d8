package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// Expand replaces ${VAR} and ${VAR:-default} with values from the process
// environment. Unset variables without a default are left in place and
// reported through warn when it is non-nil.
func Expand(s string, warn func(format string, args ...any)) string {
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]

		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		if hasDefault {
			return def
		}
		if warn != nil {
			warn("unresolved variable: %s", name)
		}
		return match
	})
}

// MustExpand is Expand that fails on the first unresolved variable
func MustExpand(s string) (string, error) {
	var missing []string
	out := Expand(s, func(format string, args ...any) {
		missing = append(missing, fmt.Sprint(args...))
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
