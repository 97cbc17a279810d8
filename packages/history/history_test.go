package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

func newSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func record(id string, finished time.Time, run, passed int, aborted bool) *Record {
	return &Record{
		ID:         id,
		BaseURL:    "http://localhost:8001",
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: finished,
		Run:        run,
		Passed:     passed,
		Aborted:    aborted,
		Cases: []CaseRecord{
			{Name: "Health Check", Passed: true, StatusCode: 200, DurationMs: 1.5},
		},
	}
}

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		in     string
		driver string
		dsn    string
	}{
		{"sqlite://runs.db", "sqlite3", "runs.db"},
		{"sqlite:./runs.db", "sqlite3", "./runs.db"},
		{"postgres://u:p@localhost:5432/fit", "postgres", "postgres://u:p@localhost:5432/fit"},
		{"postgresql://localhost/fit", "postgres", "postgresql://localhost/fit"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			driver, dsn, err := parseConnectionString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestParseConnectionString_Invalid(t *testing.T) {
	_, _, err := parseConnectionString("mysql://localhost/fit")
	assert.Error(t, err)

	_, _, err = parseConnectionString("  ")
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	repo, err := Open("sqlite://" + filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer repo.Close()

	_, ok := repo.(*SQLiteRepository)
	assert.True(t, ok)
}

func TestSQLite_SaveAndGet(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := record("run-1", now, 5, 4, true)
	rec.AbortedStep = "Join Challenge"
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", got.BaseURL)
	assert.Equal(t, 5, got.Run)
	assert.Equal(t, 4, got.Passed)
	assert.Equal(t, 1, got.Failed())
	assert.True(t, got.Aborted)
	assert.Equal(t, "Join Challenge", got.AbortedStep)
	assert.True(t, now.Equal(got.FinishedAt))
	require.Len(t, got.Cases, 1)
	assert.Equal(t, 200, got.Cases[0].StatusCode)
}

func TestSQLite_GetUnknown(t *testing.T) {
	repo := newSQLite(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_SaveDuplicateID(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Save(ctx, record("run-1", now, 1, 1, false)))
	assert.Error(t, repo.Save(ctx, record("run-1", now, 1, 1, false)))
}

func TestSQLite_RecentNewestFirst(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, record("old", base, 13, 13, false)))
	require.NoError(t, repo.Save(ctx, record("new", base.Add(2*time.Hour), 13, 12, false)))
	require.NoError(t, repo.Save(ctx, record("mid", base.Add(time.Hour), 4, 3, true)))

	recs, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "new", recs[0].ID)
	assert.Equal(t, "mid", recs[1].ID)
}

func TestSQLite_Stats(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Save(ctx, record("a", base, 10, 10, false)))
	require.NoError(t, repo.Save(ctx, record("b", base.Add(time.Minute), 10, 5, false)))
	require.NoError(t, repo.Save(ctx, record("c", base.Add(2*time.Minute), 4, 3, true)))

	stats, err := repo.Stats(ctx, "http://localhost:8001")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessfulRuns)
	assert.Equal(t, 1, stats.AbortedRuns)
	assert.InDelta(t, 33.33, stats.SuccessRate, 0.01)
	assert.InDelta(t, 75.0, stats.AveragePassRate, 0.01)
}

func TestSQLite_StatsEmpty(t *testing.T) {
	repo := newSQLite(t)

	stats, err := repo.Stats(context.Background(), "http://nowhere")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRuns)
	assert.Zero(t, stats.SuccessRate)
}

func TestFromSummary(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &runner.Summary{
		RunID:      "abc",
		BaseURL:    "http://api",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Run:        2,
		Passed:     1,
		Cases: []*runner.CaseResult{
			{Name: "Health Check", Passed: true, StatusCode: 200, Duration: 1500 * time.Microsecond},
			{Name: "User Registration", Detail: "Email already registered", StatusCode: 400},
		},
	}

	rec := FromSummary(s)
	assert.Equal(t, "abc", rec.ID)
	assert.Equal(t, 1, rec.Failed())
	require.Len(t, rec.Cases, 2)
	assert.InDelta(t, 1.5, rec.Cases[0].DurationMs, 0.001)
	assert.Equal(t, "Email already registered", rec.Cases[1].Detail)
}
