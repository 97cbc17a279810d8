package runner

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/session"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
)

type lastCall struct {
	method     string
	endpoint   string
	statusCode int
	duration   time.Duration
}

// State is what a step sees while it runs: the adapter, the session and the
// result logger. Calls made through State are attached to the next case the
// step records.
type State struct {
	Adapter  *http.Adapter
	Session  *session.Session
	recorder *Recorder
	last     *lastCall

	// interrupted is set once a call of the current step fails because
	// the run's context was cancelled
	interrupted bool
}

func (s *State) Call(ctx context.Context, call http.Call) (*http.Response, error) {
	start := time.Now()
	resp, err := s.Adapter.Do(ctx, call)
	if err != nil && ctx.Err() != nil {
		s.interrupted = true
	}

	s.last = &lastCall{
		method:   call.Method,
		endpoint: call.Endpoint,
		duration: time.Since(start),
	}
	if resp != nil {
		s.last.statusCode = resp.StatusCode
		s.last.duration = resp.Duration
	}
	return resp, err
}

// Record logs a case, attaching the most recent call made by the step.
// Once a call of the step was interrupted by cancellation nothing is
// recorded and Record returns nil.
func (s *State) Record(name string, passed bool, detail string) *CaseResult {
	if s.interrupted {
		s.last = nil
		return nil
	}
	c := &CaseResult{Name: name, Passed: passed, Detail: detail}
	if s.last != nil {
		c.Method = s.last.method
		c.Endpoint = s.last.endpoint
		c.StatusCode = s.last.statusCode
		c.Duration = s.last.duration
		s.last = nil
	}
	s.recorder.RecordCase(c)
	return c
}

// Warnf reports a problem that does not change a case outcome
func (s *State) Warnf(format string, args ...any) {
	if s.recorder.warnf != nil {
		s.recorder.warnf(format, args...)
	}
}
