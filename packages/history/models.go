package history

import (
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

// Record is a stored run
type Record struct {
	ID          string       `json:"id"`
	BaseURL     string       `json:"baseUrl"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Run         int          `json:"run"`
	Passed      int          `json:"passed"`
	Aborted     bool         `json:"aborted"`
	AbortedStep string       `json:"abortedStep,omitempty"`
	Cases       []CaseRecord `json:"cases"`
}

// CaseRecord is one test case of a stored run
type CaseRecord struct {
	Name       string  `json:"name"`
	Step       string  `json:"step,omitempty"`
	Passed     bool    `json:"passed"`
	Detail     string  `json:"detail,omitempty"`
	StatusCode int     `json:"statusCode,omitempty"`
	DurationMs float64 `json:"durationMs"`
}

// Failed returns the number of failed cases
func (r *Record) Failed() int {
	return r.Run - r.Passed
}

// FromSummary converts a finished run
func FromSummary(s *runner.Summary) *Record {
	rec := &Record{
		ID:          s.RunID,
		BaseURL:     s.BaseURL,
		StartedAt:   s.StartedAt.UTC(),
		FinishedAt:  s.FinishedAt.UTC(),
		Run:         s.Run,
		Passed:      s.Passed,
		Aborted:     s.Aborted,
		AbortedStep: s.AbortedAt,
		Cases:       make([]CaseRecord, 0, len(s.Cases)),
	}
	for _, c := range s.Cases {
		rec.Cases = append(rec.Cases, CaseRecord{
			Name:       c.Name,
			Step:       c.Step,
			Passed:     c.Passed,
			Detail:     c.Detail,
			StatusCode: c.StatusCode,
			DurationMs: float64(c.Duration.Microseconds()) / 1000,
		})
	}
	return rec
}

// Stats aggregates stored runs for one base URL
type Stats struct {
	TotalRuns       int     `json:"totalRuns"`
	SuccessfulRuns  int     `json:"successfulRuns"`
	AbortedRuns     int     `json:"abortedRuns"`
	AveragePassRate float64 `json:"averagePassRate"`
	SuccessRate     float64 `json:"successRate"`
}
