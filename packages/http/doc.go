// Package http provides the HTTP client used by fitcheck test cases.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts (10s by default)
//   - Redirect, TLS and proxy handling
//   - Optional request pacing and transport-level retries
//   - An Adapter that resolves endpoints against the session base URL
//     and attaches the bearer token for authenticated calls
//
// Transport failures are reported as errors matching ErrNoResponse so callers
// can tell "no response" apart from a non-2xx response.
package http
