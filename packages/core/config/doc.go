// Package config loads fitcheck settings from a YAML or JSON file.
//
// The first file found in the working directory is used:
//   - .fitcheck.yaml
//   - fitcheck.yaml
//   - .fitcheck.yml
//   - fitcheck.yml
//   - .fitcheck.config.json
//   - fitcheck.config.json
//
// ${VAR} and ${VAR:-default} references are expanded from the environment
// before parsing. Values left unset fall back to DefaultConfig.
package config
