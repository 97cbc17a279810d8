package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId,omitempty"`
	BaseURL  string      `json:"baseUrl,omitempty"`
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Error    string      `json:"error,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total     int    `json:"total"`
	Passed    int    `json:"passed"`
	Failed    int    `json:"failed"`
	AllPassed bool   `json:"allPassed"`
	Aborted   bool   `json:"aborted"`
	AbortedAt string `json:"abortedAt,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// JSONTest represents a single test case result
type JSONTest struct {
	Name       string  `json:"name"`
	Step       string  `json:"step,omitempty"`
	Passed     bool    `json:"passed"`
	Detail     string  `json:"detail,omitempty"`
	Method     string  `json:"method,omitempty"`
	Endpoint   string  `json:"endpoint,omitempty"`
	StatusCode int     `json:"statusCode,omitempty"`
	Duration   float64 `json:"duration"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	output  JSONOutput
	results []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) RunStarted(info *runner.RunInfo) {
	f.output.RunID = info.ID
	f.output.BaseURL = info.BaseURL
}

func (f *JSONFormatter) CaseRecorded(c *runner.CaseResult) {
	f.results = append(f.results, JSONTest{
		Name:       c.Name,
		Step:       c.Step,
		Passed:     c.Passed,
		Detail:     c.Detail,
		Method:     c.Method,
		Endpoint:   c.Endpoint,
		StatusCode: c.StatusCode,
		Duration:   float64(c.Duration.Milliseconds()),
	})
}

func (f *JSONFormatter) RunAborted(step *runner.Step) {
	// Recorded in the summary
}

func (f *JSONFormatter) RunFinished(s *runner.Summary) {
	f.output.Summary = JSONSummary{
		Total:     s.Run,
		Passed:    s.Passed,
		Failed:    s.Failed(),
		AllPassed: s.AllPassed(),
		Aborted:   s.Aborted,
		AbortedAt: s.AbortedAt,
		Cancelled: s.Cancelled,
	}
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Error = err.Error()
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	output := f.output
	output.Tests = f.results
	output.Duration = float64(totalDuration.Milliseconds())
	output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(output)

	f.output = JSONOutput{}
	f.results = make([]JSONTest, 0)
	return err
}
