package cmd

import (
	"errors"
	"fmt"
)

// Exit codes for the fitcheck CLI
const (
	// ExitSuccess indicates all tests passed
	ExitSuccess = 0

	// ExitTestFailure indicates a failed, aborted or interrupted run, or a
	// command that failed while running
	ExitTestFailure = 1

	// ExitConfigError indicates an unreadable config or env file, or
	// settings that do not validate
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries the process exit code for a command failure. A nil Err
// exits quietly; the command already reported what happened.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...any) error {
	return &ExitError{Code: ExitConfigError, Err: fmt.Errorf(format, args...)}
}

func failure(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitTestFailure, Err: err}
}

// exitCode maps a command error to the process exit code. Commands wrap
// their own failures in ExitError; anything else comes from cobra's
// argument and command parsing.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsageError
}
