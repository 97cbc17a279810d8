// Package metrics records per-case timings of a run and exports them as
// JSON, Prometheus text exposition or DataDog series.
package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

// histogram bounds in microseconds
const (
	minTrackable = 1
	maxTrackable = 60_000_000
	sigFigs      = 3
)

// TestMetrics is one recorded test case
type TestMetrics struct {
	TestName      string    `json:"test_name"`
	Step          string    `json:"step,omitempty"`
	RequestMethod string    `json:"request_method,omitempty"`
	Endpoint      string    `json:"endpoint,omitempty"`
	StatusCode    int       `json:"status_code"`
	DurationMs    float64   `json:"duration_ms"`
	Passed        bool      `json:"passed"`
	Detail        string    `json:"detail,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// AggregateMetrics summarizes a run
type AggregateMetrics struct {
	RunID           string                    `json:"run_id,omitempty"`
	BaseURL         string                    `json:"base_url,omitempty"`
	Aborted         bool                      `json:"aborted"`
	AbortedAt       string                    `json:"aborted_at,omitempty"`
	TotalRequests   int64                     `json:"total_requests"`
	SuccessCount    int64                     `json:"success_count"`
	FailureCount    int64                     `json:"failure_count"`
	TotalDurationMs float64                   `json:"total_duration_ms"`
	MinDurationMs   float64                   `json:"min_duration_ms"`
	MaxDurationMs   float64                   `json:"max_duration_ms"`
	AvgDurationMs   float64                   `json:"avg_duration_ms"`
	P50DurationMs   float64                   `json:"p50_duration_ms"`
	P95DurationMs   float64                   `json:"p95_duration_ms"`
	P99DurationMs   float64                   `json:"p99_duration_ms"`
	StatusCodes     map[int]int64             `json:"status_codes"`
	ByTest          map[string]*TestAggregate `json:"by_test"`
}

// TestAggregate represents aggregated metrics for a single test
type TestAggregate struct {
	Name          string  `json:"name"`
	TotalRequests int64   `json:"total_requests"`
	SuccessCount  int64   `json:"success_count"`
	FailureCount  int64   `json:"failure_count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	MinDurationMs float64 `json:"min_duration_ms"`
	MaxDurationMs float64 `json:"max_duration_ms"`
}

// Exporter is the interface for metrics exporters
type Exporter interface {
	// Export exports metrics to the target destination
	Export(metrics *AggregateMetrics) error

	// ExportSingle exports a single test metric
	ExportSingle(metric *TestMetrics) error

	// Close closes the exporter and flushes any buffered data
	Close() error
}

// Collector gathers metrics from a run. It is a runner.Reporter, so it can
// be attached to the runner directly.
type Collector struct {
	metrics   []*TestMetrics
	aggregate *AggregateMetrics
	histogram *hdrhistogram.Histogram
	exporters []Exporter
}

// NewCollector creates a new metrics collector
func NewCollector(exporters ...Exporter) *Collector {
	c := &Collector{exporters: exporters}
	c.reset()
	return c
}

func (c *Collector) reset() {
	c.metrics = make([]*TestMetrics, 0)
	c.histogram = hdrhistogram.New(minTrackable, maxTrackable, sigFigs)
	c.aggregate = &AggregateMetrics{
		StatusCodes: make(map[int]int64),
		ByTest:      make(map[string]*TestAggregate),
	}
}

func (c *Collector) RunStarted(info *runner.RunInfo) {
	c.reset()
	c.aggregate.RunID = info.ID
	c.aggregate.BaseURL = info.BaseURL
}

func (c *Collector) CaseRecorded(rc *runner.CaseResult) {
	c.Record(&TestMetrics{
		TestName:      rc.Name,
		Step:          rc.Step,
		RequestMethod: rc.Method,
		Endpoint:      rc.Endpoint,
		StatusCode:    rc.StatusCode,
		DurationMs:    float64(rc.Duration.Microseconds()) / 1000,
		Passed:        rc.Passed,
		Detail:        rc.Detail,
		Timestamp:     rc.Timestamp,
	})
}

func (c *Collector) RunAborted(step *runner.Step) {
	c.aggregate.Aborted = true
	c.aggregate.AbortedAt = step.Name
}

func (c *Collector) RunFinished(s *runner.Summary) {}

// Record records a test metric
func (c *Collector) Record(m *TestMetrics) {
	c.metrics = append(c.metrics, m)
	c.updateAggregate(m)

	for _, exp := range c.exporters {
		_ = exp.ExportSingle(m)
	}
}

func (c *Collector) updateAggregate(m *TestMetrics) {
	c.aggregate.TotalRequests++
	c.aggregate.TotalDurationMs += m.DurationMs

	if m.Passed {
		c.aggregate.SuccessCount++
	} else {
		c.aggregate.FailureCount++
	}

	if c.aggregate.TotalRequests == 1 {
		c.aggregate.MinDurationMs = m.DurationMs
		c.aggregate.MaxDurationMs = m.DurationMs
	} else {
		if m.DurationMs < c.aggregate.MinDurationMs {
			c.aggregate.MinDurationMs = m.DurationMs
		}
		if m.DurationMs > c.aggregate.MaxDurationMs {
			c.aggregate.MaxDurationMs = m.DurationMs
		}
	}

	c.aggregate.AvgDurationMs = c.aggregate.TotalDurationMs / float64(c.aggregate.TotalRequests)

	// Cases that never reached the server carry no latency
	if m.StatusCode != 0 {
		c.aggregate.StatusCodes[m.StatusCode]++
		us := int64(m.DurationMs * 1000)
		if us < minTrackable {
			us = minTrackable
		}
		_ = c.histogram.RecordValue(us)
	}

	if _, ok := c.aggregate.ByTest[m.TestName]; !ok {
		c.aggregate.ByTest[m.TestName] = &TestAggregate{
			Name:          m.TestName,
			MinDurationMs: m.DurationMs,
			MaxDurationMs: m.DurationMs,
		}
	}

	ta := c.aggregate.ByTest[m.TestName]
	ta.TotalRequests++
	if m.Passed {
		ta.SuccessCount++
	} else {
		ta.FailureCount++
	}
	if m.DurationMs < ta.MinDurationMs {
		ta.MinDurationMs = m.DurationMs
	}
	if m.DurationMs > ta.MaxDurationMs {
		ta.MaxDurationMs = m.DurationMs
	}
	ta.AvgDurationMs = (ta.AvgDurationMs*float64(ta.TotalRequests-1) + m.DurationMs) / float64(ta.TotalRequests)
}

// GetAggregate returns the aggregated metrics with percentiles filled in
func (c *Collector) GetAggregate() *AggregateMetrics {
	if c.histogram.TotalCount() > 0 {
		c.aggregate.P50DurationMs = float64(c.histogram.ValueAtQuantile(50)) / 1000
		c.aggregate.P95DurationMs = float64(c.histogram.ValueAtQuantile(95)) / 1000
		c.aggregate.P99DurationMs = float64(c.histogram.ValueAtQuantile(99)) / 1000
	}
	return c.aggregate
}

// Metrics returns every recorded case metric
func (c *Collector) Metrics() []*TestMetrics {
	return c.metrics
}

// Flush exports all aggregated metrics
func (c *Collector) Flush() error {
	aggregate := c.GetAggregate()
	for _, exp := range c.exporters {
		if err := exp.Export(aggregate); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all exporters
func (c *Collector) Close() error {
	for _, exp := range c.exporters {
		if err := exp.Close(); err != nil {
			return err
		}
	}
	return nil
}
