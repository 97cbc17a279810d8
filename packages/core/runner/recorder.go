package runner

import (
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/session"
)

// CaseResult is the outcome of one recorded test case
type CaseResult struct {
	Name       string
	Step       string
	Passed     bool
	Detail     string
	Method     string
	Endpoint   string
	StatusCode int
	Duration   time.Duration
	Timestamp  time.Time
}

// Reporter receives run events as they happen
type Reporter interface {
	RunStarted(info *RunInfo)
	CaseRecorded(c *CaseResult)
	RunAborted(step *Step)
	RunFinished(s *Summary)
}

// Recorder is the result logger shared by every step of a run
type Recorder struct {
	session   *session.Session
	reporters []Reporter
	cases     []*CaseResult
	step      string
	now       func() time.Time
	warnf     func(format string, args ...any)
}

func NewRecorder(sess *session.Session, reporters ...Reporter) *Recorder {
	return &Recorder{
		session:   sess,
		reporters: reporters,
		now:       time.Now,
	}
}

// Record logs one case outcome. It always increments TestsRun and
// increments TestsPassed when passed.
func (r *Recorder) Record(name string, passed bool, detail string) *CaseResult {
	c := &CaseResult{Name: name, Passed: passed, Detail: detail}
	r.RecordCase(c)
	return c
}

func (r *Recorder) RecordCase(c *CaseResult) {
	if c.Step == "" {
		c.Step = r.step
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = r.now()
	}
	r.session.Record(c.Passed)
	r.cases = append(r.cases, c)
	for _, rep := range r.reporters {
		rep.CaseRecorded(c)
	}
}

// Summary reports the counters recorded so far
func (r *Recorder) Summary() *Summary {
	return &Summary{
		BaseURL: r.session.BaseURL,
		Run:     r.session.TestsRun,
		Passed:  r.session.TestsPassed,
		Cases:   r.cases,
	}
}
