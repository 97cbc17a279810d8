package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/fitcheck/packages/history"
	"github.com/abdul-hamid-achik/fitcheck/packages/mock"
	"github.com/abdul-hamid-achik/fitcheck/packages/notify"
)

func testSettings(baseURL string) *settings {
	return &settings{
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		ValidateSSL:     true,
		FollowRedirects: true,
		Headers:         map[string]string{},
		Output:          "console",
		NoColor:         true,
		NotifyOn:        notify.NotifyFailure,
	}
}

func mockAPI(t *testing.T, opts ...mock.Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mock.NewServer(opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSuite_Console(t *testing.T) {
	srv := mockAPI(t)
	var stdout, stderr bytes.Buffer

	summary, err := runSuite(context.Background(), testSettings(srv.URL), nil, &stdout, &stderr)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.True(t, summary.Success())
	assert.NoError(t, verdict(summary, nil))
	assert.Contains(t, stdout.String(), "Starting FitTogether API test suite "+srv.URL)
	assert.Contains(t, stdout.String(), "✓ Health Check - PASSED")
	assert.Contains(t, stdout.String(), "Test Results: 13/13 tests passed")
	assert.Contains(t, stdout.String(), "All tests passed! Backend is working correctly.")
}

func TestRunSuite_AbortedRunFailsVerdict(t *testing.T) {
	srv := mockAPI(t, mock.WithUnhealthy())
	var stdout, stderr bytes.Buffer

	summary, err := runSuite(context.Background(), testSettings(srv.URL), nil, &stdout, &stderr)
	require.NoError(t, err)

	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.Run)
	assert.Contains(t, stdout.String(), "Health check failed - stopping tests")
	assert.Equal(t, ExitTestFailure, exitCode(verdict(summary, nil)))
}

func TestRunSuite_JSONToFile(t *testing.T) {
	srv := mockAPI(t)
	s := testSettings(srv.URL)
	s.Output = "json"
	s.OutputFile = filepath.Join(t.TempDir(), "report.json")
	var stdout, stderr bytes.Buffer

	_, err := runSuite(context.Background(), s, nil, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(s.OutputFile)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, srv.URL, report["baseUrl"])
}

func TestRunSuite_MetricsAndHistory(t *testing.T) {
	srv := mockAPI(t)
	dir := t.TempDir()
	s := testSettings(srv.URL)
	s.Metrics = []string{"json", "prometheus"}
	s.MetricsFile = filepath.Join(dir, "metrics.json")
	s.History = "sqlite://" + filepath.Join(dir, "history.db")
	var stdout, stderr bytes.Buffer

	summary, err := runSuite(context.Background(), s, nil, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, stderr.String())

	assert.FileExists(t, filepath.Join(dir, "metrics.json"))
	prom, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "fitcheck_tests_total")

	repo, err := history.Open(s.History)
	require.NoError(t, err)
	defer repo.Close()
	rec, err := repo.Get(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 13, rec.Passed)
}

func TestRunSuite_HistoryFailureIsWarning(t *testing.T) {
	srv := mockAPI(t)
	s := testSettings(srv.URL)
	s.History = "mysql://localhost/fit"
	var stdout, stderr bytes.Buffer

	summary, err := runSuite(context.Background(), s, nil, &stdout, &stderr)
	require.NoError(t, err)
	assert.True(t, summary.Success())
	assert.Contains(t, stderr.String(), "warning: failed to save run history")
}

func TestRunSuite_NotifiesOnFailure(t *testing.T) {
	api := mockAPI(t, mock.WithFault(mock.RouteLeaderboard, mock.Fault{Status: http.StatusInternalServerError, Detail: "boom"}))

	var hits atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	s := testSettings(api.URL)
	s.Notify = []string{"slack"}
	s.SlackWebhook = hook.URL
	var stdout, stderr bytes.Buffer

	summary, err := runSuite(context.Background(), s, newNotifyManager(s), &stdout, &stderr)
	require.NoError(t, err)
	assert.False(t, summary.Success())
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, stdout.String(), "✗ Get Leaderboard - FAILED: boom")
}

func TestRunSuite_CancelledContext(t *testing.T) {
	srv := mockAPI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer

	summary, err := runSuite(ctx, testSettings(srv.URL), nil, &stdout, &stderr)
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, ExitTestFailure, exitCode(verdict(summary, nil)))
}

func TestRunSuite_DataDogNeedsKey(t *testing.T) {
	s := testSettings("http://localhost:1")
	s.Metrics = []string{"datadog"}

	_, err := runSuite(context.Background(), s, nil, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestPrintPlan(t *testing.T) {
	var out bytes.Buffer
	s := testSettings("http://localhost:8001")

	printPlan(&out, s)
	assert.Contains(t, out.String(), "Would run against http://localhost:8001")
	assert.Contains(t, out.String(), " 1. Health Check")
	assert.Contains(t, out.String(), "critical")
	assert.Contains(t, out.String(), "best-effort")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitTestFailure, exitCode(failure(assert.AnError)))
	assert.Equal(t, ExitConfigError, exitCode(configError("bad")))
	assert.Equal(t, ExitUsageError, exitCode(assert.AnError))
	assert.Nil(t, failure(nil))
}

func TestParseFault(t *testing.T) {
	route, f, err := parseFault(`join_challenge=404:"Challenge not found"`)
	require.NoError(t, err)
	assert.Equal(t, "join_challenge", route)
	assert.Equal(t, 404, f.Status)
	assert.Equal(t, "Challenge not found", f.Detail)

	_, f, err = parseFault("health=503")
	require.NoError(t, err)
	assert.Equal(t, 503, f.Status)

	for _, bad := range []string{"health", "=500", "health=abc", "health=42"} {
		_, _, err := parseFault(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsWatchedFile(t *testing.T) {
	s := &settings{EnvFile: ".env.staging", ConfigPath: "conf/custom.yaml"}

	assert.True(t, isWatchedFile("fitcheck.yaml", s))
	assert.True(t, isWatchedFile(".env.staging", s))
	assert.True(t, isWatchedFile("conf/custom.yaml", s))
	assert.False(t, isWatchedFile("main.go", s))
	assert.Len(t, watchDirs(s), 2)
}
