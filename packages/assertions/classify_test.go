package assertions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Success(t *testing.T) {
	resp := jsonResponse(200, `{"access_token": "tok", "user_id": "u1"}`)
	o := Classify(resp, nil, 200, Fields("access_token", "user_id")...)

	assert.True(t, o.Passed())
	assert.Empty(t, o.Detail())
	assert.Equal(t, "tok", o.String("access_token"))
	assert.Len(t, o.Results, 2)
}

func TestClassify_NoResponse(t *testing.T) {
	err := &http.NoResponseError{Err: errors.New("dial tcp: connection refused")}
	o := Classify(nil, err, 200)

	assert.False(t, o.Passed())
	assert.Equal(t, "No response", o.Detail())
	assert.ErrorIs(t, o.Err, http.ErrNoResponse)
}

func TestClassify_NilResponseWithoutError(t *testing.T) {
	o := Classify(nil, nil, 200)
	assert.Equal(t, "No response", o.Detail())
}

func TestClassify_StatusErrorWithDetail(t *testing.T) {
	resp := jsonResponse(400, `{"detail": "Email already registered"}`)
	o := Classify(resp, nil, 200, Exists("access_token"))

	require.False(t, o.Passed())
	var statusErr *StatusError
	require.True(t, errors.As(o.Err, &statusErr))
	assert.Equal(t, 400, statusErr.StatusCode)
	assert.Equal(t, "Email already registered", o.Detail())
	assert.Nil(t, o.Results, "checks are not evaluated for the wrong status")
}

func TestClassify_StatusErrorWithoutDetail(t *testing.T) {
	o := Classify(jsonResponse(500, `{"error": "boom"}`), nil, 200)
	assert.Equal(t, "Unknown error", o.Detail())

	o = Classify(&http.Response{StatusCode: 502, Body: []byte("Bad Gateway")}, nil, 200)
	assert.Equal(t, "Unknown error", o.Detail())
}

func TestClassify_StatusErrorStructuredDetail(t *testing.T) {
	resp := jsonResponse(422, `{"detail": [{"loc": ["body", "email"], "msg": "field required"}]}`)
	o := Classify(resp, nil, 200)

	assert.Contains(t, o.Detail(), "field required")
}

func TestClassify_MalformedBody(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Body: []byte("not json")}
	o := Classify(resp, nil, 200, Exists("status"))

	var malformed *MalformedBodyError
	assert.True(t, errors.As(o.Err, &malformed))
	assert.Equal(t, "Unknown error", o.Detail())
}

func TestClassify_MissingFields(t *testing.T) {
	resp := jsonResponse(200, `{"user_id": "u1"}`)
	o := Classify(resp, nil, 200, Fields("user_id", "email", "full_name")...)

	var missing *MissingFieldsError
	require.True(t, errors.As(o.Err, &missing))
	assert.Equal(t, []string{"email", "full_name"}, missing.Fields)
	assert.Equal(t, "missing fields: email, full_name", o.Detail())
}

func TestClassify_MissingFieldsTakePrecedence(t *testing.T) {
	resp := jsonResponse(200, `{"value": 8500}`)
	o := Classify(resp, nil, 200, Exists("progress_id"), Between("value", 0, 100))

	var missing *MissingFieldsError
	assert.True(t, errors.As(o.Err, &missing))
}

func TestClassify_AssertionError(t *testing.T) {
	resp := jsonResponse(200, `{"status": "degraded"}`)
	o := Classify(resp, nil, 200, Equals("status", "healthy"))

	var assertErr *AssertionError
	require.True(t, errors.As(o.Err, &assertErr))
	assert.Len(t, assertErr.Failures, 1)
	assert.Equal(t, "status: expected healthy, got degraded", o.Detail())
}

func TestDetailFor(t *testing.T) {
	assert.Equal(t, "", DetailFor(nil))
	assert.Equal(t, "No response", DetailFor(fmt.Errorf("wrapped: %w", http.ErrNoResponse)))
	assert.Equal(t, "boom", DetailFor(errors.New("boom")))
}
