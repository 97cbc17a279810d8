package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/fitcheck/packages/core/session"
	"github.com/abdul-hamid-achik/fitcheck/packages/export/metrics"
	"github.com/abdul-hamid-achik/fitcheck/packages/history"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/abdul-hamid-achik/fitcheck/packages/notify"
	"github.com/abdul-hamid-achik/fitcheck/packages/output"
	"github.com/abdul-hamid-achik/fitcheck/packages/suite"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the FitTogether API test suite",
	Long: `Run the ordered FitTogether API test suite against a deployment.

The run registers a fresh user, logs in, creates and joins a challenge,
logs progress and reads it back. Health, registration, login, user info,
challenge creation and joining must pass for the run to continue.

Each run creates its own user and challenge. Runs are not isolated from each
other: two runs started in the same second against one deployment collide on
the registration email.

Examples:
  fitcheck run
  fitcheck run --base-url http://localhost:8001
  fitcheck run --env-file .env.staging -o junit --output-file report.xml
  fitcheck run --history sqlite://fitcheck.db --metrics json,prometheus
  fitcheck run --notify slack --notify-on recovery --watch`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	historySaveTimeout = 10 * time.Second
)

func init() {
	addRunFlags(runCmd.Flags())
}

func runCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	if s.DryRun {
		printPlan(cmd.OutOrStdout(), s)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := newNotifyManager(s)

	if s.Watch {
		return watchAndRun(ctx, cmd, s, notifier)
	}

	summary, err := runSuite(ctx, s, notifier, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return verdict(summary, err)
}

// verdict turns a finished run into the command result
func verdict(summary *runner.Summary, err error) error {
	if err != nil {
		return failure(err)
	}
	if summary == nil || !summary.Success() {
		return &ExitError{Code: ExitTestFailure}
	}
	return nil
}

func printPlan(w io.Writer, s *settings) {
	bold := color.New(color.Bold).SprintFunc()
	if s.NoColor {
		bold = fmt.Sprint
	}

	fmt.Fprintf(w, "%s %s\n", bold("Would run against"), s)
	for i, step := range suite.New(suite.NewFixtures(time.Now())).Steps() {
		tag := "best-effort"
		if step.Critical {
			tag = "critical"
		}
		fmt.Fprintf(w, "  %2d. %-24s %s\n", i+1, step.Name, tag)
	}
}

// runSuite executes one complete run and hands the summary to every sink:
// formatter, metrics, history and notifications. Sink failures are
// warnings; only a broken run is an error.
func runSuite(ctx context.Context, s *settings, notifier *notify.Manager, stdout, stderr io.Writer) (*runner.Summary, error) {
	warnf := func(format string, args ...any) {
		fmt.Fprintf(stderr, "warning: "+format+"\n", args...)
	}

	out := stdout
	if s.OutputFile != "" {
		f, err := os.Create(s.OutputFile)
		if err != nil {
			return nil, configError("cannot create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	formatter, err := output.New(s.Output, output.Options{
		Writer:  out,
		Verbose: s.Verbose,
		Quiet:   s.Quiet,
		NoColor: s.NoColor || s.OutputFile != "",
	})
	if err != nil {
		return nil, configError("%w", err)
	}
	if s.Output == output.FormatConsole && s.Verbose > 0 {
		formatter.FormatHeader(version)
	}

	collector, closeMetrics, err := newMetricsCollector(s, stdout)
	if err != nil {
		return nil, configError("%w", err)
	}
	defer closeMetrics()

	opts := []runner.Option{
		runner.WithReporter(formatter),
		runner.WithWarnings(warnf),
	}
	if collector != nil {
		opts = append(opts, runner.WithReporter(collector))
	}

	client := http.NewClient(clientOptions(s, stderr)...)
	adapter := http.NewAdapter(client, session.New(s.BaseURL))
	r := runner.NewRunner(adapter, opts...)

	summary, runErr := r.Run(ctx, suite.New(suite.NewFixtures(time.Now())).Steps())
	if runErr != nil {
		formatter.FormatError(runErr)
	}

	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(summary.Duration); err != nil {
			warnf("error writing output: %v", err)
		}
	}

	if collector != nil {
		if err := collector.Flush(); err != nil {
			warnf("failed to export metrics: %v", err)
		}
	}

	if s.History != "" {
		if err := saveHistory(ctx, s.History, summary); err != nil {
			warnf("failed to save run history: %v", err)
		}
	}

	if notifier != nil {
		if err := notifier.Notify(context.WithoutCancel(ctx), notify.FromSummary(summary)); err != nil {
			warnf("failed to send notification: %v", err)
		}
	}

	return summary, runErr
}

func clientOptions(s *settings, stderr io.Writer) []http.ClientOption {
	opts := []http.ClientOption{
		http.WithTimeout(s.Timeout),
		http.WithValidateSSL(s.ValidateSSL),
		http.WithFollowRedirects(s.FollowRedirects),
		http.WithDefaultHeaders(s.Headers),
	}
	if s.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(s.MaxRedirects))
	}
	if s.Retries > 0 {
		opts = append(opts, http.WithRetries(s.Retries, s.RetryDelay))
	}
	if s.Rate > 0 {
		opts = append(opts, http.WithRateLimit(s.Rate))
	}
	if s.Proxy != "" {
		opts = append(opts, http.WithProxy(s.Proxy))
	}
	if s.Verbose >= 2 {
		opts = append(opts, http.WithLogger(func(format string, args ...any) {
			fmt.Fprintf(stderr, format+"\n", args...)
		}))
	}
	return opts
}

// newMetricsCollector builds the collector for the requested formats. The
// returned close func is always safe to call.
func newMetricsCollector(s *settings, stdout io.Writer) (*metrics.Collector, func(), error) {
	noop := func() {}
	if len(s.Metrics) == 0 {
		return nil, noop, nil
	}

	var exporters []metrics.Exporter
	for _, format := range s.Metrics {
		path := metricsPath(s.MetricsFile, format, len(s.Metrics))
		switch format {
		case "json":
			opts := []metrics.JSONOption{metrics.WithJSONWriter(stdout)}
			if path != "" {
				opts = []metrics.JSONOption{metrics.WithJSONFile(path)}
			}
			exporters = append(exporters, metrics.NewJSONExporter(opts...))

		case "prometheus":
			opts := []metrics.PrometheusOption{metrics.WithPrometheusWriter(stdout)}
			if path != "" {
				opts = []metrics.PrometheusOption{metrics.WithPrometheusFile(path)}
			}
			exporters = append(exporters, metrics.NewPrometheusExporter(opts...))

		case "datadog":
			if s.DataDogAPIKey == "" {
				return nil, noop, fmt.Errorf("--datadog-api-key is required when using --metrics datadog")
			}
			opts := []metrics.DataDogOption{
				metrics.WithDataDogAPIKey(s.DataDogAPIKey),
				metrics.WithDataDogSite(s.DataDogSite),
			}
			if len(s.DataDogTags) > 0 {
				opts = append(opts, metrics.WithDataDogTags(s.DataDogTags))
			}
			exporters = append(exporters, metrics.NewDataDogExporter(opts...))
		}
	}

	collector := metrics.NewCollector(exporters...)
	return collector, func() { _ = collector.Close() }, nil
}

// metricsPath gives each format its own file when several share
// --metrics-file: report.json becomes report.json and report.prom.
func metricsPath(file, format string, formats int) string {
	if file == "" || format == "datadog" {
		return ""
	}
	if formats == 1 {
		return file
	}
	ext := ".json"
	if format == "prometheus" {
		ext = ".prom"
	}
	return strings.TrimSuffix(file, filepath.Ext(file)) + ext
}

func saveHistory(ctx context.Context, connStr string, summary *runner.Summary) error {
	repo, err := history.Open(connStr)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()
	return repo.Save(ctx, history.FromSummary(summary))
}

func newNotifyManager(s *settings) *notify.Manager {
	if len(s.Notify) == 0 {
		return nil
	}

	var notifiers []notify.Notifier
	for _, service := range s.Notify {
		switch service {
		case "slack":
			var opts []notify.SlackOption
			if s.SlackChannel != "" {
				opts = append(opts, notify.WithSlackChannel(s.SlackChannel))
			}
			notifiers = append(notifiers, notify.NewSlackNotifier(s.SlackWebhook, opts...))
		}
	}
	return notify.NewManager(s.NotifyOn, notifiers...)
}
