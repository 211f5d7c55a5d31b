package scenario

import (
	"bytes"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/framework"
)

type finishedTest struct {
	id     TestID
	result TestResult
	output framework.CapturedOutput
}

type recordingTestLogger struct {
	started  []TestID
	errors   []error
	finished []finishedTest
	skipped  []TestID
	ended    bool
}

func (r *recordingTestLogger) TestStarted(id TestID)          { r.started = append(r.started, id) }
func (r *recordingTestLogger) TestError(id TestID, err error) { r.errors = append(r.errors, err) }
func (r *recordingTestLogger) TestFinished(id TestID, result TestResult, output framework.CapturedOutput) {
	r.finished = append(r.finished, finishedTest{id, result, output})
}
func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	r.skipped = append(r.skipped, id)
}
func (r *recordingTestLogger) EndLog(Results) error {
	r.ended = true
	return nil
}

func TestConsoleTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}
	results := Run(TestConfiguration{TestLogger: logger}, func(st *T) {
		st.Run("good", func(st *T) {
			st.Debug("hidden because the test passed")
		})
		st.Run("bad", func(st *T) {
			st.Debug("shown because the test failed")
			st.Errorf("expected status 201, got 500")
		})
		st.Run("skipped", func(st *T) {
			st.SkipWithReason("not today")
		})
	})
	require.NoError(t, logger.EndLog(results))

	out := buf.String()
	assert.Contains(t, out, "[good]")
	assert.Contains(t, out, "expected status 201, got 500")
	assert.Contains(t, out, "FAILED: bad")
	assert.Contains(t, out, "shown because the test failed")
	assert.NotContains(t, out, "hidden because the test passed")
	assert.Contains(t, out, "SKIPPED: skipped (not today)")
	assert.Contains(t, out, "FAILED TESTS (1):")
}

func TestMultiTestLogger(t *testing.T) {
	l1, l2 := &recordingTestLogger{}, &recordingTestLogger{}
	multi := &MultiTestLogger{Loggers: []TestLogger{l1, l2}}
	results := Run(TestConfiguration{TestLogger: multi}, func(st *T) {
		st.Run("a", func(st *T) { st.Errorf("x") })
		st.Run("b", func(st *T) { st.Skip() })
	})
	require.NoError(t, multi.EndLog(results))
	for _, l := range []*recordingTestLogger{l1, l2} {
		assert.Equal(t, []TestID{{"a"}, {"b"}}, l.started)
		assert.Len(t, l.errors, 1)
		assert.Len(t, l.finished, 1)
		assert.Equal(t, []TestID{{"b"}}, l.skipped)
		assert.True(t, l.ended)
	}
}

type failingEndLogger struct{ recordingTestLogger }

func (f *failingEndLogger) EndLog(Results) error { return errors.New("disk full") }

func TestMultiTestLoggerReturnsFirstEndLogError(t *testing.T) {
	ok := &recordingTestLogger{}
	multi := &MultiTestLogger{Loggers: []TestLogger{&failingEndLogger{}, ok}}
	assert.EqualError(t, multi.EndLog(Results{}), "disk full")
	assert.True(t, ok.ended)
}

func TestJUnitTestLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("ignored"))
	logger := NewJUnitTestLogger(path, map[string]string{"tests.target.url": "http://localhost:8080"}, filters)

	results := Run(TestConfiguration{TestLogger: logger, Filter: filters.Match}, func(st *T) {
		st.Run("employee", func(st *T) {
			st.Run("create employee", func(st *T) {})
			st.Run("update employee", func(st *T) {
				st.SetProperty("fixture.id", "7")
				st.Debug("PUT /api/employees/1")
				st.Errorf("expected 200")
			})
			st.Run("delete employee", func(st *T) { st.SkipWithReason("no") })
			st.Run("ignored", func(st *T) {})
		})
	})
	require.NoError(t, logger.EndLog(results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc jUnitXMLDocument
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Suites, 1)
	suite := doc.Suites[0]
	assert.Equal(t, "Employee API contract tests: employee", suite.Name)
	assert.Equal(t, 4, suite.Tests)
	assert.Equal(t, 1, suite.Failures)

	var propertyNames []string
	for _, p := range suite.Properties {
		propertyNames = append(propertyNames, p.Name)
	}
	assert.Equal(t, []string{"tests.filter.mustMatch", "tests.filter.mustNotMatch", "tests.target.url"}, propertyNames)

	byName := make(map[string]jUnitXMLTestCase)
	for _, tc := range suite.TestCases {
		byName[tc.Name] = tc
	}
	require.Contains(t, byName, "employee/update employee")
	failure := byName["employee/update employee"].Failure
	require.NotNil(t, failure)
	assert.Contains(t, failure.Message, "expected 200")
	assert.Contains(t, failure.Contents, "PUT /api/employees/1")
	assert.Equal(t, []jUnitXMLProperty{{Name: "fixture.id", Value: "7"}}, byName["employee/update employee"].Properties)
	assert.Len(t, byName["employee/create employee"].Properties, 0)
	require.NotNil(t, byName["employee/delete employee"].SkipMessage)
	assert.Equal(t, "no", byName["employee/delete employee"].SkipMessage.Message)
	assert.NotContains(t, byName, "employee/ignored")
}
