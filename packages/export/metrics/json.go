package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// JSONExporter writes one JSON document per run
type JSONExporter struct {
	writer   io.Writer
	filePath string
	results  []*TestMetrics
	started  time.Time
}

type JSONOption func(*JSONExporter)

func WithJSONWriter(w io.Writer) JSONOption {
	return func(j *JSONExporter) { j.writer = w }
}

func WithJSONFile(path string) JSONOption {
	return func(j *JSONExporter) { j.filePath = path }
}

func NewJSONExporter(opts ...JSONOption) *JSONExporter {
	j := &JSONExporter{started: time.Now()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JSONMetricsOutput is the document written by JSONExporter
type JSONMetricsOutput struct {
	Metadata    JSONMetadata      `json:"metadata"`
	Summary     *AggregateMetrics `json:"summary"`
	TestResults []*TestMetrics    `json:"test_results"`
}

type JSONMetadata struct {
	Tool        string `json:"tool"`
	GeneratedAt string `json:"generated_at"`
	StartTime   string `json:"start_time"`
	Duration    string `json:"duration"`
}

func (j *JSONExporter) Export(agg *AggregateMetrics) error {
	now := time.Now()
	results := j.results
	if results == nil {
		results = []*TestMetrics{}
	}

	data, err := json.MarshalIndent(JSONMetricsOutput{
		Metadata: JSONMetadata{
			Tool:        "fitcheck",
			GeneratedAt: now.Format(time.RFC3339),
			StartTime:   j.started.Format(time.RFC3339),
			Duration:    now.Sub(j.started).Round(time.Millisecond).String(),
		},
		Summary:     agg,
		TestResults: results,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	data = append(data, '\n')

	if j.filePath != "" {
		if err := os.WriteFile(j.filePath, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", j.filePath, err)
		}
	}
	if j.writer != nil {
		if _, err := j.writer.Write(data); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (j *JSONExporter) ExportSingle(m *TestMetrics) error {
	j.results = append(j.results, m)
	return nil
}

// Close resets the exporter for the next run in watch mode
func (j *JSONExporter) Close() error {
	j.results = nil
	j.started = time.Now()
	return nil
}
