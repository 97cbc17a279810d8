package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/runner"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite is one run of the suite
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	ID         string          `xml:"id,attr,omitempty"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitTestCase represents a single test case
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents a test failure
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a test error
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitFormatter formats test results as JUnit XML
type JUnitFormatter struct {
	writer     io.Writer
	current    *JUnitTestSuite
	testSuites []JUnitTestSuite
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:     os.Stdout,
		testSuites: make([]JUnitTestSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) RunStarted(info *runner.RunInfo) {
	f.current = &JUnitTestSuite{
		Name:       "FitTogether API",
		ID:         info.ID,
		Timestamp:  info.StartedAt.Format(time.RFC3339),
		Properties: []JUnitProperty{{Name: "baseUrl", Value: info.BaseURL}},
		TestCases:  make([]JUnitTestCase, 0),
	}
}

func (f *JUnitFormatter) suite() *JUnitTestSuite {
	if f.current == nil {
		f.RunStarted(&runner.RunInfo{StartedAt: time.Now()})
	}
	return f.current
}

func (f *JUnitFormatter) CaseRecorded(c *runner.CaseResult) {
	suite := f.suite()
	tc := JUnitTestCase{
		Name:      c.Name,
		ClassName: c.Step,
		Time:      c.Duration.Seconds(),
	}
	if !c.Passed {
		suite.Failures++
		tc.Failure = &JUnitFailure{
			Message: c.Detail,
			Type:    "AssertionError",
		}
		if c.Method != "" {
			tc.Failure.Content = fmt.Sprintf("%s %s -> %d", c.Method, c.Endpoint, c.StatusCode)
		}
	}
	suite.Tests++
	suite.TestCases = append(suite.TestCases, tc)
}

func (f *JUnitFormatter) RunAborted(step *runner.Step) {
	suite := f.suite()
	suite.Properties = append(suite.Properties, JUnitProperty{Name: "abortedAt", Value: step.Name})
}

func (f *JUnitFormatter) RunFinished(s *runner.Summary) {
	suite := f.suite()
	suite.Time = s.Duration.Seconds()
	f.testSuites = append(f.testSuites, *suite)
	f.current = nil
}

// FormatError adds an errored case to the current run, or to the last
// finished one
func (f *JUnitFormatter) FormatError(err error) {
	var suite *JUnitTestSuite
	switch {
	case f.current != nil:
		suite = f.current
	case len(f.testSuites) > 0:
		suite = &f.testSuites[len(f.testSuites)-1]
	default:
		suite = f.suite()
	}
	suite.Errors++
	suite.Tests++
	suite.TestCases = append(suite.TestCases, JUnitTestCase{
		Name:      "run",
		ClassName: "fitcheck",
		Error: &JUnitError{
			Message: err.Error(),
			Type:    "Error",
		},
	})
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	if f.current != nil {
		f.testSuites = append(f.testSuites, *f.current)
		f.current = nil
	}

	var totalTests, totalFailures, totalErrors int
	for _, suite := range f.testSuites {
		totalTests += suite.Tests
		totalFailures += suite.Failures
		totalErrors += suite.Errors
	}

	suites := JUnitTestSuites{
		Name:       "fitcheck",
		Tests:      totalTests,
		Failures:   totalFailures,
		Errors:     totalErrors,
		Time:       totalDuration.Seconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: f.testSuites,
	}
	f.testSuites = make([]JUnitTestSuite, 0)

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}
