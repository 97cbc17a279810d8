// Package runner executes an ordered list of test steps against a live API.
//
// Steps run one at a time. Each step records one or more test cases through
// the Recorder, which updates the session counters and forwards every case
// to the configured reporters as soon as it is recorded. A failed critical
// step aborts the run; best-effort steps never do.
package runner
