package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DataDogExporter posts the run aggregate to the DataDog series intake
type DataDogExporter struct {
	apiKey   string
	site     string
	endpoint string
	tags     []string
	client   *http.Client
}

type DataDogOption func(*DataDogExporter)

func WithDataDogAPIKey(apiKey string) DataDogOption {
	return func(d *DataDogExporter) { d.apiKey = apiKey }
}

// WithDataDogSite selects the intake region, e.g. "datadoghq.eu"
func WithDataDogSite(site string) DataDogOption {
	return func(d *DataDogExporter) { d.site = site }
}

func WithDataDogTags(tags []string) DataDogOption {
	return func(d *DataDogExporter) { d.tags = tags }
}

// WithDataDogEndpoint replaces the intake URL derived from the site
func WithDataDogEndpoint(url string) DataDogOption {
	return func(d *DataDogExporter) { d.endpoint = url }
}

// NewDataDogExporter falls back to DD_API_KEY when no key is given
func NewDataDogExporter(opts ...DataDogOption) *DataDogExporter {
	d := &DataDogExporter{
		site:   "datadoghq.com",
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.apiKey == "" {
		d.apiKey = os.Getenv("DD_API_KEY")
	}
	return d
}

type datadogMetric struct {
	Metric string   `json:"metric"`
	Type   string   `json:"type"`
	Points [][]any  `json:"points"`
	Tags   []string `json:"tags,omitempty"`
}

type datadogPayload struct {
	Series []datadogMetric `json:"series"`
}

// seriesBuilder stamps every point with one timestamp and the run tags
type seriesBuilder struct {
	ts     float64
	tags   []string
	series []datadogMetric
}

func (b *seriesBuilder) add(kind, name string, value float64, extra ...string) {
	tags := b.tags
	if len(extra) > 0 {
		tags = append(append([]string{}, extra...), b.tags...)
	}
	b.series = append(b.series, datadogMetric{
		Metric: "fitcheck." + name,
		Type:   kind,
		Points: [][]any{{b.ts, value}},
		Tags:   tags,
	})
}

func (d *DataDogExporter) Export(agg *AggregateMetrics) error {
	if d.apiKey == "" {
		return fmt.Errorf("datadog: API key not configured")
	}

	b := &seriesBuilder{ts: float64(time.Now().Unix())}
	if agg.BaseURL != "" {
		b.tags = append(b.tags, "base_url:"+agg.BaseURL)
	}
	if agg.RunID != "" {
		b.tags = append(b.tags, "run_id:"+agg.RunID)
	}
	b.tags = append(b.tags, d.tags...)

	b.add("count", "tests.total", float64(agg.TotalRequests))
	b.add("count", "tests.passed", float64(agg.SuccessCount))
	b.add("count", "tests.failed", float64(agg.FailureCount))
	aborted := 0.0
	if agg.Aborted {
		aborted = 1
	}
	b.add("gauge", "run.aborted", aborted)

	b.add("gauge", "duration.avg", agg.AvgDurationMs)
	b.add("gauge", "duration.min", agg.MinDurationMs)
	b.add("gauge", "duration.max", agg.MaxDurationMs)
	for name, v := range map[string]float64{"p50": agg.P50DurationMs, "p95": agg.P95DurationMs, "p99": agg.P99DurationMs} {
		if v > 0 {
			b.add("gauge", "duration."+name, v)
		}
	}

	for code, n := range agg.StatusCodes {
		b.add("count", "requests.by_status", float64(n), fmt.Sprintf("status:%d", code))
	}
	for name, ta := range agg.ByTest {
		b.add("count", "test.failures", float64(ta.FailureCount), "test:"+name)
		b.add("gauge", "test.duration.avg", ta.AvgDurationMs, "test:"+name)
	}

	return d.post(context.Background(), datadogPayload{Series: b.series})
}

func (d *DataDogExporter) ExportSingle(*TestMetrics) error { return nil }

func (d *DataDogExporter) post(ctx context.Context, payload datadogPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("datadog: encode series: %w", err)
	}

	url := d.endpoint
	if url == "" {
		url = "https://api." + d.site + "/api/v1/series"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("datadog: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("datadog: send series: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("datadog: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (d *DataDogExporter) Close() error { return nil }
