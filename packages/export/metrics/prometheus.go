package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

const promPrefix = "fitcheck"

// PrometheusExporter writes metrics in the Prometheus text exposition
// format, for a textfile collector or a pushgateway
type PrometheusExporter struct {
	writer   io.Writer
	filePath string
}

// PrometheusOption is a functional option for PrometheusExporter
type PrometheusOption func(*PrometheusExporter)

// WithPrometheusWriter sets the output writer for Prometheus metrics
func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.writer = w
	}
}

// WithPrometheusFile writes the exposition to path on every export
func WithPrometheusFile(path string) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.filePath = path
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter
func NewPrometheusExporter(opts ...PrometheusOption) *PrometheusExporter {
	p := &PrometheusExporter{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Export exports aggregated metrics
func (p *PrometheusExporter) Export(metrics *AggregateMetrics) error {
	var buf bytes.Buffer
	writeMetrics(&buf, metrics, time.Now().UnixMilli())

	if p.filePath != "" {
		if err := os.WriteFile(p.filePath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if p.writer != nil {
		if _, err := p.writer.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// ExportSingle is a no-op; the exposition is written once per run
func (p *PrometheusExporter) ExportSingle(metric *TestMetrics) error {
	return nil
}

func writeMetrics(w io.Writer, m *AggregateMetrics, now int64) {
	run := ""
	if m.RunID != "" {
		run = fmt.Sprintf("run_id=\"%s\"", sanitizeLabel(m.RunID))
	}
	labels := func(extra ...string) string {
		parts := make([]string, 0, len(extra)+1)
		if run != "" {
			parts = append(parts, run)
		}
		parts = append(parts, extra...)
		if len(parts) == 0 {
			return ""
		}
		return "{" + strings.Join(parts, ",") + "}"
	}

	counter := func(name, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s_%s %s\n", promPrefix, name, help)
		fmt.Fprintf(w, "# TYPE %s_%s counter\n", promPrefix, name)
		fmt.Fprintf(w, "%s_%s%s %d %d\n", promPrefix, name, labels(), value, now)
		fmt.Fprintln(w)
	}

	counter("tests_total", "Total number of test cases recorded", m.TotalRequests)
	counter("tests_passed_total", "Total number of passed test cases", m.SuccessCount)
	counter("tests_failed_total", "Total number of failed test cases", m.FailureCount)

	aborted := 0
	if m.Aborted {
		aborted = 1
	}
	fmt.Fprintf(w, "# HELP %s_run_aborted Whether a critical step stopped the run\n", promPrefix)
	fmt.Fprintf(w, "# TYPE %s_run_aborted gauge\n", promPrefix)
	fmt.Fprintf(w, "%s_run_aborted%s %d %d\n", promPrefix, labels(), aborted, now)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_request_duration_ms Request duration in milliseconds\n", promPrefix)
	fmt.Fprintf(w, "# TYPE %s_request_duration_ms gauge\n", promPrefix)
	quantiles := []struct {
		name  string
		value float64
	}{
		{"min", m.MinDurationMs},
		{"max", m.MaxDurationMs},
		{"avg", m.AvgDurationMs},
		{"0.50", m.P50DurationMs},
		{"0.95", m.P95DurationMs},
		{"0.99", m.P99DurationMs},
	}
	for _, q := range quantiles {
		fmt.Fprintf(w, "%s_request_duration_ms%s %.2f %d\n", promPrefix, labels(fmt.Sprintf("quantile=\"%s\"", q.name)), q.value, now)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_requests_by_status_total Requests by HTTP status code\n", promPrefix)
	fmt.Fprintf(w, "# TYPE %s_requests_by_status_total counter\n", promPrefix)

	// Sort status codes for consistent output
	codes := make([]int, 0, len(m.StatusCodes))
	for code := range m.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "%s_requests_by_status_total%s %d %d\n", promPrefix, labels(fmt.Sprintf("status=\"%d\"", code)), m.StatusCodes[code], now)
	}
	fmt.Fprintln(w)

	if len(m.ByTest) == 0 {
		return
	}

	names := make([]string, 0, len(m.ByTest))
	for name := range m.ByTest {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "# HELP %s_test_passed Whether the test case passed\n", promPrefix)
	fmt.Fprintf(w, "# TYPE %s_test_passed gauge\n", promPrefix)
	for _, name := range names {
		ta := m.ByTest[name]
		passed := 0
		if ta.FailureCount == 0 {
			passed = 1
		}
		fmt.Fprintf(w, "%s_test_passed%s %d %d\n", promPrefix, labels(fmt.Sprintf("test=\"%s\"", sanitizeLabel(name))), passed, now)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_test_duration_avg_ms Average request duration per test\n", promPrefix)
	fmt.Fprintf(w, "# TYPE %s_test_duration_avg_ms gauge\n", promPrefix)
	for _, name := range names {
		ta := m.ByTest[name]
		fmt.Fprintf(w, "%s_test_duration_avg_ms%s %.2f %d\n", promPrefix, labels(fmt.Sprintf("test=\"%s\"", sanitizeLabel(name))), ta.AvgDurationMs, now)
	}
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// Close closes the exporter
func (p *PrometheusExporter) Close() error {
	return nil
}
