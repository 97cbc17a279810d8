package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/session"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/google/uuid"
)

// Step is one entry of the ordered test list. A step may record several
// cases; its return value is what decides whether a critical step aborts
// the run.
type Step struct {
	Name     string
	Critical bool
	// Abort is shown when this step stops the run
	Abort string
	Run   func(ctx context.Context, s *State) bool
}

// RunInfo describes a run as it starts
type RunInfo struct {
	ID        string
	BaseURL   string
	StartedAt time.Time
	Steps     int
}

type Summary struct {
	RunID      string
	BaseURL    string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Run        int
	Passed     int
	Aborted    bool
	AbortedAt  string
	Cancelled  bool
	Cases      []*CaseResult
}

func (s *Summary) Failed() int {
	return s.Run - s.Passed
}

// AllPassed reports whether every executed case passed
func (s *Summary) AllPassed() bool {
	return s.Passed == s.Run
}

// Success is the run verdict: every case passed and nothing stopped early
func (s *Summary) Success() bool {
	return s.AllPassed() && !s.Aborted && !s.Cancelled
}

// PanicError is returned when a step panics
type PanicError struct {
	Step  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step %q panicked: %v", e.Step, e.Value)
}

type Runner struct {
	adapter   *http.Adapter
	reporters []Reporter
	warnf     func(format string, args ...any)
	now       func() time.Time
}

type Option func(*Runner)

func WithReporter(r Reporter) Option {
	return func(rn *Runner) {
		if r != nil {
			rn.reporters = append(rn.reporters, r)
		}
	}
}

func WithWarnings(fn func(format string, args ...any)) Option {
	return func(rn *Runner) {
		rn.warnf = fn
	}
}

func NewRunner(adapter *http.Adapter, opts ...Option) *Runner {
	r := &Runner{
		adapter: adapter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Session() *session.Session {
	return r.adapter.Session()
}

// Run executes steps in order and returns the summary. A failed critical
// step aborts the run. A cancelled context stops it before the next step,
// and a step interrupted mid-call counts as cancelled, not failed. Either
// way a summary is produced. The error is non-nil only when a
// step panicked.
func (r *Runner) Run(ctx context.Context, steps []Step) (*Summary, error) {
	sess := r.adapter.Session()
	recorder := NewRecorder(sess, r.reporters...)
	recorder.now = r.now
	recorder.warnf = r.warnf

	info := &RunInfo{
		ID:        uuid.NewString(),
		BaseURL:   sess.BaseURL,
		StartedAt: r.now(),
		Steps:     len(steps),
	}
	for _, rep := range r.reporters {
		rep.RunStarted(info)
	}

	state := &State{
		Adapter:  r.adapter,
		Session:  sess,
		recorder: recorder,
	}

	var runErr error
	aborted := ""
	cancelled := false

	for i := range steps {
		step := &steps[i]
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		recorder.step = step.Name
		ok, err := r.runStep(ctx, step, state)
		if err != nil {
			runErr = err
			break
		}
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if !ok && step.Critical {
			aborted = step.Name
			for _, rep := range r.reporters {
				rep.RunAborted(step)
			}
			break
		}
	}

	summary := recorder.Summary()
	summary.RunID = info.ID
	summary.StartedAt = info.StartedAt
	summary.FinishedAt = r.now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	summary.Aborted = aborted != ""
	summary.AbortedAt = aborted
	summary.Cancelled = cancelled

	for _, rep := range r.reporters {
		rep.RunFinished(summary)
	}

	return summary, runErr
}

func (r *Runner) runStep(ctx context.Context, step *Step, state *State) (ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Step: step.Name, Value: v, Stack: debug.Stack()}
		}
	}()

	state.last = nil
	state.interrupted = false
	if step.Run == nil {
		return false, fmt.Errorf("step %q has no run function", step.Name)
	}
	return step.Run(ctx, state), nil
}
