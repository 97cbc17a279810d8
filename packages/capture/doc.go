// Package capture extracts values from JSON response bodies so later test
// cases can reuse them.
//
// The suite captures the bearer token, user id and challenge id this way
// and stores them on the session. Identifiers are required: a null or empty
// value fails the case the same way a missing field does.
package capture
