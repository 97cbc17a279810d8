package assertions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/tidwall/gjson"
)

const (
	// DetailNoResponse is reported when the call produced no response
	DetailNoResponse = "No response"
	// DetailUnknown is reported when an error body carries no detail field
	DetailUnknown = "Unknown error"
)

// StatusError is a response whose status code was not the expected one
type StatusError struct {
	StatusCode int
	Expected   int
	// Detail is the error body's "detail" field, empty when absent
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("status %d, expected %d", e.StatusCode, e.Expected)
	}
	return fmt.Sprintf("status %d, expected %d: %s", e.StatusCode, e.Expected, e.Detail)
}

// MalformedBodyError is a response with the expected status whose body is
// not valid JSON
type MalformedBodyError struct {
	StatusCode int
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("status %d with a body that is not valid JSON", e.StatusCode)
}

// MissingFieldsError is a valid response lacking expected fields
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// AssertionError is a valid response whose values failed a check
type AssertionError struct {
	Failures []*Result
}

func (e *AssertionError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Subject, f.Message))
	}
	return strings.Join(msgs, "; ")
}

// Outcome is the classified result of one call
type Outcome struct {
	Response *http.Response
	Body     gjson.Result
	Results  []*Result
	Err      error
}

func (o *Outcome) Passed() bool {
	return o.Err == nil
}

func (o *Outcome) Detail() string {
	return DetailFor(o.Err)
}

// String returns the body value at path as a string, empty when absent
func (o *Outcome) String(path string) string {
	return o.Body.Get(path).String()
}

// Classify turns an adapter result into an Outcome. Success requires a
// response, the expected status code and every check passing. Exists
// failures are reported together as a *MissingFieldsError; they take
// precedence over value failures.
func Classify(resp *http.Response, err error, expectedStatus int, checks ...Check) *Outcome {
	o := &Outcome{Response: resp}
	if err != nil {
		o.Err = err
		return o
	}
	if resp == nil {
		o.Err = http.ErrNoResponse
		return o
	}

	evaluator := NewEvaluator(resp)
	o.Body = evaluator.Body()

	if resp.StatusCode != expectedStatus {
		o.Err = &StatusError{
			StatusCode: resp.StatusCode,
			Expected:   expectedStatus,
			Detail:     o.Body.Get("detail").String(),
		}
		return o
	}

	if !o.Body.Exists() {
		o.Err = &MalformedBodyError{StatusCode: resp.StatusCode}
		return o
	}

	o.Results = make([]*Result, len(checks))
	var missing []string
	var failures []*Result
	for i, c := range checks {
		r := evaluator.Evaluate(c)
		o.Results[i] = r
		if r.Passed {
			continue
		}
		if c.Operator == OpExists {
			missing = append(missing, r.Subject)
		} else {
			failures = append(failures, r)
		}
	}

	switch {
	case len(missing) > 0:
		o.Err = &MissingFieldsError{Fields: missing}
	case len(failures) > 0:
		o.Err = &AssertionError{Failures: failures}
	}
	return o
}

// DetailFor maps an error to the detail string recorded for a failed case
func DetailFor(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, http.ErrNoResponse) {
		return DetailNoResponse
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Detail == "" {
			return DetailUnknown
		}
		return statusErr.Detail
	}

	var malformed *MalformedBodyError
	if errors.As(err, &malformed) {
		return DetailUnknown
	}

	return err.Error()
}
