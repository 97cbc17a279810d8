// Package notify posts run results to chat webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when tests fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when tests pass
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and when a later run
	// passes again
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a --notify-on value
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch n := NotifyOn(s); n {
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return n, nil
	case "":
		return NotifyFailure, nil
	default:
		return "", fmt.Errorf("invalid notify-on value %q (expected always, failure, success or recovery)", s)
	}
}

// RunSummary represents the summary of a test run for notifications
type RunSummary struct {
	RunID         string        `json:"run_id"`
	BaseURL       string        `json:"base_url"`
	TotalTests    int           `json:"total_tests"`
	PassedTests   int           `json:"passed_tests"`
	FailedTests   int           `json:"failed_tests"`
	Duration      time.Duration `json:"duration"`
	Aborted       bool          `json:"aborted,omitempty"`
	AbortedAt     string        `json:"aborted_at,omitempty"`
	FailedResults []FailedTest  `json:"failed_results,omitempty"`
	IsRecovery    bool          `json:"is_recovery,omitempty"`
}

// FailedTest represents a failed test for notifications
type FailedTest struct {
	Name   string `json:"name"`
	Step   string `json:"step,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// FromSummary converts a runner summary
func FromSummary(s *runner.Summary) *RunSummary {
	rs := &RunSummary{
		RunID:       s.RunID,
		BaseURL:     s.BaseURL,
		TotalTests:  s.Run,
		PassedTests: s.Passed,
		FailedTests: s.Failed(),
		Duration:    s.Duration,
		Aborted:     s.Aborted,
		AbortedAt:   s.AbortedAt,
	}
	for _, c := range s.Cases {
		if !c.Passed {
			rs.FailedResults = append(rs.FailedResults, FailedTest{Name: c.Name, Step: c.Step, Detail: c.Detail})
		}
	}
	return rs
}

// Success reports whether the run counts as passing
func (s *RunSummary) Success() bool {
	return s.FailedTests == 0 && !s.Aborted
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about test results
	Notify(ctx context.Context, summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager manages multiple notifiers
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true, // Assume success initially
	}
}

// AddNotifier adds a notifier to the manager
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// ShouldNotify applies the policy to a run and updates the recovery state
func (m *Manager) ShouldNotify(summary *RunSummary) bool {
	shouldNotify := false
	currentSuccess := summary.Success()

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess
	return shouldNotify
}

// Notify sends notifications based on the configured policy. Every notifier
// is tried; their errors are joined.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) error {
	if !m.ShouldNotify(summary) {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
