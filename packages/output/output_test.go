package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun(f Formatter, abort bool) {
	f.RunStarted(&runner.RunInfo{ID: "run-1", BaseURL: "http://api.test", StartedAt: time.Now()})
	f.CaseRecorded(&runner.CaseResult{Name: "Health Check", Step: "Health Check", Passed: true, Detail: "Status: healthy",
		Method: "GET", Endpoint: "api/health", StatusCode: 200, Duration: 12 * time.Millisecond})
	f.CaseRecorded(&runner.CaseResult{Name: "User Registration", Step: "User Registration", Passed: false, Detail: "Email already registered",
		Method: "POST", Endpoint: "api/auth/register", StatusCode: 400})

	s := &runner.Summary{RunID: "run-1", BaseURL: "http://api.test", Run: 2, Passed: 1, Duration: 40 * time.Millisecond}
	if abort {
		f.RunAborted(&runner.Step{Name: "User Registration", Critical: true, Abort: "User registration failed"})
		s.Aborted = true
		s.AbortedAt = "User Registration"
	}
	f.RunFinished(s)
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", FormatConsole, FormatJSON, FormatJUnit, FormatTAP} {
		f, err := New(format, Options{Writer: &bytes.Buffer{}, NoColor: true})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("html", Options{})
	assert.Error(t, err)
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	sampleRun(f, true)

	out := buf.String()
	assert.Contains(t, out, "Starting FitTogether API test suite http://api.test")
	assert.Contains(t, out, "✓ Health Check - PASSED\n   Details: Status: healthy\n")
	assert.Contains(t, out, "✗ User Registration - FAILED: Email already registered\n")
	assert.Contains(t, out, "✗ User registration failed - stopping tests")
	assert.Contains(t, out, "Test Results: 1/2 tests passed")
	assert.Contains(t, out, "1 test(s) failed. Check the details above.")
	assert.NotContains(t, out, "api/health", "call details are verbose only")
}

func TestConsoleFormatter_AllPassed(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.RunFinished(&runner.Summary{Run: 3, Passed: 3})

	assert.Contains(t, buf.String(), "Test Results: 3/3 tests passed")
	assert.Contains(t, buf.String(), "All tests passed! Backend is working correctly.")
}

func TestConsoleFormatter_VerboseAndQuiet(t *testing.T) {
	var buf bytes.Buffer
	sampleRun(NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true)), false)
	assert.Contains(t, buf.String(), "(GET api/health -> 200, 12ms)")
	assert.Contains(t, buf.String(), "Run: run-1")

	buf.Reset()
	sampleRun(NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithQuiet(true)), false)
	assert.NotContains(t, buf.String(), "Health Check - PASSED")
	assert.Contains(t, buf.String(), "User Registration - FAILED")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	sampleRun(f, true)
	require.NoError(t, f.Flush(40*time.Millisecond))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, "http://api.test", out.BaseURL)
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Failed)
	assert.True(t, out.Summary.Aborted)
	assert.Equal(t, "User Registration", out.Summary.AbortedAt)
	require.Len(t, out.Tests, 2)
	assert.Equal(t, "Email already registered", out.Tests[1].Detail)
	assert.Equal(t, float64(12), out.Tests[0].Duration)
}

func TestJSONFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatError(errors.New("step panicked"))
	require.NoError(t, f.Flush(0))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "step panicked", out.Error)
	assert.NotNil(t, out.Tests)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	sampleRun(f, true)
	require.NoError(t, f.Flush(40*time.Millisecond))

	assert.Contains(t, buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`)

	var out JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Tests)
	assert.Equal(t, 1, out.Failures)
	require.Len(t, out.TestSuites, 1)

	suite := out.TestSuites[0]
	assert.Equal(t, "run-1", suite.ID)
	require.Len(t, suite.TestCases, 2)
	assert.Nil(t, suite.TestCases[0].Failure)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "Email already registered", suite.TestCases[1].Failure.Message)
	assert.Contains(t, suite.Properties, JUnitProperty{Name: "abortedAt", Value: "User Registration"})
}

func TestJUnitFormatter_ErrorAfterRun(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	sampleRun(f, false)
	f.FormatError(errors.New("boom"))
	require.NoError(t, f.Flush(0))

	var out JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.TestSuites, 1)
	assert.Equal(t, 1, out.Errors)
	assert.Equal(t, 3, out.TestSuites[0].Tests)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	sampleRun(f, true)
	require.NoError(t, f.Flush(0))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "TAP version 13\n# http://api.test run run-1\n"))
	assert.Contains(t, out, "ok 1 - Health Check\n")
	assert.Contains(t, out, "not ok 2 - User Registration\n  ---\n")
	assert.Contains(t, out, "  message: Email already registered\n")
	assert.Contains(t, out, "  endpoint: POST api/auth/register\n  status: 400\n  ...\n")
	assert.Contains(t, out, "Bail out! User registration failed\n")
	assert.True(t, strings.HasSuffix(out, "1..2\n"))
}

func TestTAPFormatter_QuotesDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.RunStarted(&runner.RunInfo{ID: "run-2", BaseURL: "http://api.test"})
	f.CaseRecorded(&runner.CaseResult{Name: "Log Progress", Detail: "missing fields: value"})

	out := buf.String()
	assert.Contains(t, out, "missing fields: value")
	assert.NotContains(t, out, "message: missing fields: value\n", "a bare colon must be quoted")
}
