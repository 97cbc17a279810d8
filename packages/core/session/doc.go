// Package session holds the state threaded through a single fitcheck run.
//
// A Session carries the base URL, the bearer token, the identifiers produced
// by earlier test cases (user id, challenge id) and the pass/fail counters.
// It is owned by exactly one run and is never shared between goroutines.
package session
