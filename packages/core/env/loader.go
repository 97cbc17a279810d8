package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the variable, or def when it is unset or empty
func String(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// Bool accepts true/1/yes and false/0/no in any case
func Bool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

func Int(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func Float(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

// Duration parses Go durations ("10s", "1m"); a bare integer is taken as
// milliseconds.
func Duration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

// List splits a comma-separated variable, dropping empty items
func List(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Set reports whether the variable is present and non-empty
func Set(key string) bool {
	return os.Getenv(key) != ""
}
