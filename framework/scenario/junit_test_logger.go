package scenario

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/employee-demo/employee-contract-tests/framework"
	o "github.com/employee-demo/employee-contract-tests/framework/opt"
)

// JUnitTestLogger writes a JUnit XML report when EndLog is called, with one test suite per
// top-level scope.
type JUnitTestLogger struct {
	filePath   string
	properties map[string]string
	testIDs    []TestID // in the order the tests started
	tests      map[string]jUnitTestStatus
	lock       sync.Mutex
}

type jUnitTestStatus struct {
	failures   []error
	skipped    o.Maybe[string]
	output     string
	properties map[string]string
	startTime  time.Time
	duration   time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	Properties  []jUnitXMLProperty   `xml:"properties>property,omitempty"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitTestLogger creates a JUnitTestLogger. The properties, along with the filter patterns,
// are written into each test suite's properties element.
func NewJUnitTestLogger(
	filePath string,
	properties map[string]string,
	filters RegexFilters,
) *JUnitTestLogger {
	allProperties := map[string]string{
		"tests.filter.mustMatch":    filters.MustMatch.String(),
		"tests.filter.mustNotMatch": filters.MustNotMatch.String(),
	}
	for k, v := range properties {
		allProperties[k] = v
	}
	return &JUnitTestLogger{
		filePath:   filePath,
		properties: allProperties,
		tests:      make(map[string]jUnitTestStatus),
	}
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.testIDs = append(j.testIDs, id)
	j.tests[id.String()] = jUnitTestStatus{
		startTime: time.Now(),
	}
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.failures = append(status.failures, err)
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.output = debugOutput.ToString("")
	status.properties = result.Properties
	status.duration = time.Since(status.startTime)
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.skipped = o.Some(reason)
	j.tests[id.String()] = status
}

// EndLog writes the report. Properties set on a scenario with T.SetProperty, such as the id of
// its fixture employee, are written under its test case.
func (j *JUnitTestLogger) EndLog(results Results) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	var doc jUnitXMLDocument
	for _, topLevelID := range getTopLevelIDs(j.testIDs) {
		doc.Suites = append(doc.Suites, j.makeSuite(topLevelID))
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')

	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) makeSuite(topLevelID string) jUnitXMLTestSuite {
	suite := jUnitXMLTestSuite{
		Name:       fmt.Sprintf("Employee API contract tests: %s", topLevelID),
		Properties: jUnitProperties(j.properties),
	}
	var total time.Duration
	for _, testID := range j.testIDs {
		if len(testID) == 0 || testID[0] != topLevelID {
			continue
		}
		status := j.tests[testID.String()]
		suite.Tests++
		if len(status.failures) != 0 {
			suite.Failures++
		}
		total += status.duration
		suite.TestCases = append(suite.TestCases, jUnitXMLTestCase{
			Classname:   topLevelID,
			Name:        testID.String(),
			Time:        jUnitDurationString(status.duration),
			Properties:  jUnitProperties(status.properties),
			SkipMessage: jUnitSkipMessage(status),
			Failure:     jUnitFailure(status),
		})
	}
	suite.Time = jUnitDurationString(total)
	return suite
}

func jUnitProperties(properties map[string]string) []jUnitXMLProperty {
	if len(properties) == 0 {
		return nil
	}
	names := maps.Keys(properties)
	slices.Sort(names)
	ret := make([]jUnitXMLProperty, 0, len(names))
	for _, name := range names {
		ret = append(ret, jUnitXMLProperty{Name: name, Value: properties[name]})
	}
	return ret
}

func jUnitSkipMessage(status jUnitTestStatus) *jUnitXMLSkipMessage {
	reason, skipped := status.skipped.Get()
	if !skipped {
		return nil
	}
	return &jUnitXMLSkipMessage{Message: reason}
}

func jUnitFailure(status jUnitTestStatus) *jUnitXMLFailure {
	if len(status.failures) == 0 {
		return nil
	}
	messages := make([]string, 0, len(status.failures))
	for _, e := range status.failures {
		message := e.Error()
		if es, ok := e.(ErrorWithStacktrace); ok {
			message += "\n  Stacktrace:"
			for _, s := range es.Stacktrace {
				message += "\n    " + s.String()
			}
		}
		messages = append(messages, message)
	}
	return &jUnitXMLFailure{
		Message:  strings.Join(messages, "\n"),
		Contents: status.output,
	}
}

func getTopLevelIDs(allIDs []TestID) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, testID := range allIDs {
		if len(testID) != 0 && !seen[testID[0]] {
			ret = append(ret, testID[0])
			seen[testID[0]] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
