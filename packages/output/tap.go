package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

// TAPFormatter streams TAP 13. Points are written as cases are recorded and
// the plan trails them, since the number of cases is only known once the
// run stops.
type TAPFormatter struct {
	writer io.Writer
	n      int
}

// tapDiagnostic is the YAML block under a failed point
type tapDiagnostic struct {
	Message    string `yaml:"message"`
	Severity   string `yaml:"severity,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	Status     int    `yaml:"status,omitempty"`
	DurationMs int64  `yaml:"duration_ms,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) { f.writer = w }
}

func (f *TAPFormatter) RunStarted(info *runner.RunInfo) {
	f.n = 0
	fmt.Fprintln(f.writer, "TAP version 13")
	fmt.Fprintf(f.writer, "# %s run %s\n", info.BaseURL, info.ID)
}

func (f *TAPFormatter) CaseRecorded(c *runner.CaseResult) {
	f.n++
	if c.Passed {
		fmt.Fprintf(f.writer, "ok %d - %s\n", f.n, c.Name)
		return
	}

	fmt.Fprintf(f.writer, "not ok %d - %s\n", f.n, c.Name)
	d := tapDiagnostic{Message: c.Detail, Status: c.StatusCode, DurationMs: c.Duration.Milliseconds()}
	if c.Method != "" {
		d.Endpoint = c.Method + " " + c.Endpoint
	}
	f.diagnostic(d)
}

func (f *TAPFormatter) RunAborted(step *runner.Step) {
	reason := step.Abort
	if reason == "" {
		reason = step.Name + " failed"
	}
	fmt.Fprintf(f.writer, "Bail out! %s\n", reason)
}

func (f *TAPFormatter) RunFinished(s *runner.Summary) {}

func (f *TAPFormatter) FormatError(err error) {
	f.n++
	fmt.Fprintf(f.writer, "not ok %d - run\n", f.n)
	f.diagnostic(tapDiagnostic{Message: err.Error(), Severity: "error"})
}

func (f *TAPFormatter) FormatHeader(version string) {}

// Flush writes the trailing plan
func (f *TAPFormatter) Flush(time.Duration) error {
	_, err := fmt.Fprintf(f.writer, "1..%d\n", f.n)
	return err
}

func (f *TAPFormatter) diagnostic(d tapDiagnostic) {
	data, err := yaml.Marshal(d)
	if err != nil {
		fmt.Fprintf(f.writer, "  # %s\n", d.Message)
		return
	}
	fmt.Fprintln(f.writer, "  ---")
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(f.writer, "  %s\n", line)
	}
	fmt.Fprintln(f.writer, "  ...")
}
