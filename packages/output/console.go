package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
	"github.com/fatih/color"
)

const ruleWidth = 60

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	quiet   bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

// WithQuiet hides passing cases; failures and the summary are always shown
func WithQuiet(q bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.quiet = q
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) RunStarted(info *runner.RunInfo) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold("Starting FitTogether API test suite"), cyan(info.BaseURL))
	if f.verbose {
		fmt.Fprintf(f.writer, "Run: %s\n", info.ID)
	}
	fmt.Fprintln(f.writer, strings.Repeat("=", ruleWidth))
}

func (f *ConsoleFormatter) CaseRecorded(c *runner.CaseResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if c.Passed {
		if f.quiet {
			return
		}
		fmt.Fprintf(f.writer, "%s %s - PASSED", green("✓"), c.Name)
	} else {
		fmt.Fprintf(f.writer, "%s %s - FAILED: %s", red("✗"), c.Name, c.Detail)
	}
	if f.verbose && c.Method != "" {
		fmt.Fprintf(f.writer, " %s", cyan(fmt.Sprintf("(%s %s -> %d, %dms)", c.Method, c.Endpoint, c.StatusCode, c.Duration.Milliseconds())))
	}
	fmt.Fprintln(f.writer)

	if c.Passed && c.Detail != "" {
		fmt.Fprintf(f.writer, "   Details: %s\n", c.Detail)
	}
}

func (f *ConsoleFormatter) RunAborted(step *runner.Step) {
	red := color.New(color.FgRed).SprintFunc()
	msg := step.Abort
	if msg == "" {
		msg = step.Name + " failed"
	}
	fmt.Fprintf(f.writer, "%s\n", red("✗ "+msg+" - stopping tests"))
}

func (f *ConsoleFormatter) RunFinished(s *runner.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", strings.Repeat("=", ruleWidth))
	fmt.Fprintf(f.writer, "%s\n", bold(fmt.Sprintf("Test Results: %d/%d tests passed", s.Passed, s.Run)))

	switch {
	case s.Cancelled:
		fmt.Fprintf(f.writer, "%s\n", yellow("Run cancelled before all tests ran."))
	case s.AllPassed():
		fmt.Fprintf(f.writer, "%s\n", green("All tests passed! Backend is working correctly."))
	default:
		fmt.Fprintf(f.writer, "%s\n", yellow(fmt.Sprintf("%d test(s) failed. Check the details above.", s.Failed())))
	}
	fmt.Fprintf(f.writer, "Time:  %dms\n", s.Duration.Milliseconds())
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("fitcheck"), version)
}
