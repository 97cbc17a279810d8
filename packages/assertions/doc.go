// Package assertions classifies API responses for fitcheck test cases.
//
// A response passes when it was received, carries the expected status code
// and satisfies every Check. Supported checks:
//   - Field presence (Exists)
//   - Value equality (Equals)
//   - JSON type checks (IsArray, IsType)
//   - Numeric ranges (Between)
//   - JSON Schema validation (MatchesSchema)
//
// Failures are reported as typed errors: ErrNoResponse from the http package,
// *StatusError, *MalformedBodyError, *MissingFieldsError and *AssertionError.
// DetailFor turns any of them into the human-readable detail of a test case.
package assertions
