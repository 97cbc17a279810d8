package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDotEnv parses a .env file and returns key-value pairs.
// Supports: KEY=value, export KEY=value, KEY="quoted value",
// KEY='single quoted', # comments and trailing " # comments" on unquoted
// values. Double-quoted values expand \n and \t.
// Note: This does NOT export to the OS environment. Use LoadAndExportDotEnv
// when later lookups and ${VAR} expansion must see the values.
func LoadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%s:%d: expected KEY=value", path, lineNo)
		}

		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("%s:%d: invalid key %q", path, lineNo, key)
		}

		result[key] = parseValue(strings.TrimSpace(value))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return result, nil
}

func parseValue(value string) string {
	if len(value) >= 2 {
		switch {
		case value[0] == '"' && value[len(value)-1] == '"':
			r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`)
			return r.Replace(value[1 : len(value)-1])
		case value[0] == '\'' && value[len(value)-1] == '\'':
			return value[1 : len(value)-1]
		}
	}

	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return value
}

// LoadAndExportDotEnv parses a .env file, returns key-value pairs,
// and exports them to the OS environment.
// Variables are only exported if not already set in the OS environment, so
// the real environment always wins over the file.
func LoadAndExportDotEnv(path string) (map[string]string, error) {
	vars, err := LoadDotEnv(path)
	if err != nil {
		return nil, err
	}
	if _, err := export(vars, nil); err != nil {
		return nil, err
	}
	return vars, nil
}

// export sets every variable that is unset or was set by an earlier export
// listed in owned, and returns the keys it set.
func export(vars map[string]string, owned map[string]bool) ([]string, error) {
	var keys []string
	for k, v := range vars {
		if _, ok := os.LookupEnv(k); ok && !owned[k] {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return keys, fmt.Errorf("export %s: %w", k, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Reloader exports a .env file and can re-read it later, replacing the
// values it exported before. Variables set outside the file are never
// touched.
type Reloader struct {
	path  string
	owned map[string]bool
}

func NewReloader(path string) *Reloader {
	return &Reloader{path: path, owned: make(map[string]bool)}
}

func (r *Reloader) Path() string {
	return r.path
}

// Load reads the file and exports it. Keys removed from the file since the
// last Load are unset.
func (r *Reloader) Load() error {
	vars, err := LoadDotEnv(r.path)
	if err != nil {
		return err
	}

	for k := range r.owned {
		if _, ok := vars[k]; !ok {
			_ = os.Unsetenv(k)
			delete(r.owned, k)
		}
	}

	keys, err := export(vars, r.owned)
	for _, k := range keys {
		r.owned[k] = true
	}
	return err
}
