package runner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/session"
	fhttp "github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	started  *RunInfo
	cases    []*CaseResult
	aborted  []string
	finished *Summary
}

func (l *eventLog) RunStarted(info *RunInfo)   { l.started = info }
func (l *eventLog) CaseRecorded(c *CaseResult) { l.cases = append(l.cases, c) }
func (l *eventLog) RunAborted(step *Step)      { l.aborted = append(l.aborted, step.Name) }
func (l *eventLog) RunFinished(s *Summary)     { l.finished = s }

func passing(name string) Step {
	return Step{Name: name, Run: func(ctx context.Context, s *State) bool {
		s.Record(name, true, "")
		return true
	}}
}

func failing(name string, critical bool) Step {
	return Step{Name: name, Critical: critical, Abort: name + " failed", Run: func(ctx context.Context, s *State) bool {
		s.Record(name, false, "boom")
		return false
	}}
}

func newTestRunner(t *testing.T, baseURL string) (*Runner, *eventLog) {
	t.Helper()
	log := &eventLog{}
	adapter := fhttp.NewAdapter(fhttp.NewClient(), session.New(baseURL))
	return NewRunner(adapter, WithReporter(log)), log
}

func TestRunner_AllPass(t *testing.T) {
	r, log := newTestRunner(t, "http://example.invalid")

	summary, err := r.Run(context.Background(), []Step{passing("A"), passing("B"), passing("C")})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Run)
	assert.Equal(t, 3, summary.Passed)
	assert.True(t, summary.AllPassed())
	assert.True(t, summary.Success())
	assert.False(t, summary.Aborted)
	assert.NotEmpty(t, summary.RunID)

	require.NotNil(t, log.started)
	assert.Equal(t, summary.RunID, log.started.ID)
	assert.Equal(t, 3, log.started.Steps)
	assert.Len(t, log.cases, 3)
	assert.Same(t, summary, log.finished)
}

func TestRunner_CriticalFailureAborts(t *testing.T) {
	r, log := newTestRunner(t, "http://example.invalid")
	ran := false
	after := Step{Name: "After", Run: func(ctx context.Context, s *State) bool {
		ran = true
		return true
	}}

	summary, err := r.Run(context.Background(), []Step{passing("A"), failing("B", true), after})
	require.NoError(t, err)

	assert.False(t, ran, "steps after a critical failure must not run")
	assert.True(t, summary.Aborted)
	assert.Equal(t, "B", summary.AbortedAt)
	assert.Equal(t, 2, summary.Run)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, []string{"B"}, log.aborted)
	assert.NotNil(t, log.finished, "aborted runs are still summarized")
}

func TestRunner_BestEffortFailureContinues(t *testing.T) {
	r, log := newTestRunner(t, "http://example.invalid")

	summary, err := r.Run(context.Background(), []Step{failing("A", false), passing("B")})
	require.NoError(t, err)

	assert.False(t, summary.Aborted)
	assert.Equal(t, 2, summary.Run)
	assert.Equal(t, 1, summary.Passed)
	assert.False(t, summary.AllPassed())
	assert.Empty(t, log.aborted)
}

func TestRunner_StepRecordingSeveralCases(t *testing.T) {
	r, _ := newTestRunner(t, "http://example.invalid")
	multi := Step{Name: "Multi", Run: func(ctx context.Context, s *State) bool {
		s.Record("First", true, "")
		s.Record("Second", true, "detail")
		return true
	}}

	summary, err := r.Run(context.Background(), []Step{multi})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Run)
	require.Len(t, summary.Cases, 2)
	assert.Equal(t, "Multi", summary.Cases[1].Step)
	assert.Equal(t, "detail", summary.Cases[1].Detail)
}

func TestRunner_PanicBecomesError(t *testing.T) {
	r, log := newTestRunner(t, "http://example.invalid")
	bad := Step{Name: "Bad", Run: func(ctx context.Context, s *State) bool {
		var m map[string]int
		m["x"] = 1
		return true
	}}

	summary, err := r.Run(context.Background(), []Step{passing("A"), bad, passing("C")})
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "Bad", panicErr.Step)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Equal(t, 1, summary.Run)
	assert.NotNil(t, log.finished)
}

func TestRunner_MissingRunFunc(t *testing.T) {
	r, _ := newTestRunner(t, "http://example.invalid")

	_, err := r.Run(context.Background(), []Step{{Name: "Empty"}})
	assert.Error(t, err)
}

func TestRunner_CancelledContextStops(t *testing.T) {
	r, _ := newTestRunner(t, "http://example.invalid")
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := Step{Name: "A", Run: func(ctx context.Context, s *State) bool {
		s.Record("A", true, "")
		cancel()
		return true
	}}

	summary, err := r.Run(ctx, []Step{cancelling, passing("B")})
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Run)
	assert.False(t, summary.Success())
}

func TestRunner_CancelDuringCriticalCall(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	r, log := newTestRunner(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	critical := Step{Name: "Health Check", Critical: true, Abort: "Health check failed", Run: func(ctx context.Context, s *State) bool {
		_, err := s.Call(ctx, fhttp.Call{Method: "GET", Endpoint: "api/health"})
		s.Record("Health Check", err == nil, "No response")
		return err == nil
	}}

	summary, err := r.Run(ctx, []Step{critical, passing("B")})
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.False(t, summary.Aborted)
	assert.Empty(t, summary.AbortedAt)
	assert.Zero(t, summary.Run, "an interrupted call is not a failed case")
	assert.Empty(t, log.cases)
	assert.Empty(t, log.aborted)
	assert.False(t, summary.Success())
}

func TestState_CallAttachesToRecordedCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	r, log := newTestRunner(t, server.URL)
	step := Step{Name: "Call", Run: func(ctx context.Context, s *State) bool {
		_, err := s.Call(ctx, fhttp.Call{Method: "POST", Endpoint: "api/things", Body: map[string]string{"a": "b"}})
		s.Record("Call", err == nil, "")
		s.Record("No call", true, "")
		return err == nil
	}}

	_, err := r.Run(context.Background(), []Step{step})
	require.NoError(t, err)

	require.Len(t, log.cases, 2)
	assert.Equal(t, "POST", log.cases[0].Method)
	assert.Equal(t, "api/things", log.cases[0].Endpoint)
	assert.Equal(t, http.StatusCreated, log.cases[0].StatusCode)
	assert.Empty(t, log.cases[1].Method, "a call is attached to one case only")
}

func TestRecorder_UpdatesSession(t *testing.T) {
	sess := session.New("http://example.invalid")
	rec := NewRecorder(sess)

	rec.Record("a", true, "")
	rec.Record("b", false, "nope")

	assert.Equal(t, 2, sess.TestsRun)
	assert.Equal(t, 1, sess.TestsPassed)

	s := rec.Summary()
	assert.Equal(t, 2, s.Run)
	assert.Equal(t, 1, s.Passed)
	assert.Len(t, s.Cases, 2)
}

func TestState_Warnf(t *testing.T) {
	var warnings []string
	adapter := fhttp.NewAdapter(nil, session.New("http://example.invalid"))
	r := NewRunner(adapter, WithWarnings(func(format string, args ...any) {
		warnings = append(warnings, format)
	}))

	_, err := r.Run(context.Background(), []Step{{Name: "W", Run: func(ctx context.Context, s *State) bool {
		s.Warnf("careful")
		return true
	}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"careful"}, warnings)
}
