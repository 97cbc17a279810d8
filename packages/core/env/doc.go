// Package env reads settings from the process environment.
//
// It provides:
//   - .env file loading, optionally exported into the process environment
//   - typed lookups with defaults (String, Bool, Int, Float, Duration)
//   - ${VAR} and ${VAR:-default} expansion for config file contents
package env
