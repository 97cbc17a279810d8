package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatJUnit   = "junit"
	FormatTAP     = "tap"
)

// Formatter interface for all output formatters
type Formatter interface {
	runner.Reporter
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Options are shared by every format; console-only fields are ignored by
// the others.
type Options struct {
	Writer  io.Writer
	Verbose int
	Quiet   bool
	NoColor bool
}

// New returns the formatter for the named format
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case "", FormatConsole:
		consoleOpts := []ConsoleOption{
			WithVerbose(opts.Verbose > 0),
			WithQuiet(opts.Quiet),
			WithNoColor(opts.NoColor),
		}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case FormatJSON:
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case FormatJUnit:
		var junitOpts []JUnitOption
		if opts.Writer != nil {
			junitOpts = append(junitOpts, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(junitOpts...), nil
	case FormatTAP:
		var tapOpts []TAPOption
		if opts.Writer != nil {
			tapOpts = append(tapOpts, TAPWithWriter(opts.Writer))
		}
		return NewTAPFormatter(tapOpts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected console, json, junit or tap)", format)
	}
}
