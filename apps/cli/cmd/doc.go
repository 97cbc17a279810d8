// Package cmd implements the fitcheck CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the FitTogether API test suite
//   - mock: Serve an in-memory FitTogether API for local runs
//   - history: List and inspect stored runs
//   - version: Show version information
//   - completion: Generate shell completion scripts
//
// Settings come from defaults, then a config file, then environment
// variables (optionally loaded from a .env file), then flags.
package cmd
