package scenario

import "strings"

// Results is the outcome of a test run. Skipped tests appear in neither list.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

// TestResult is the outcome of one test scope.
type TestResult struct {
	TestID     TestID
	Errors     []error
	Properties map[string]string
}

// OK returns true if nothing failed.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// FailedIDs returns the IDs of all failed tests, omitting the root scope.
func (r Results) FailedIDs() []TestID {
	var ret []TestID
	for _, f := range r.Failures {
		if len(f.TestID) != 0 {
			ret = append(ret, f.TestID)
		}
	}
	return ret
}

// TestID is the path of names from the root scope down to a test.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a new TestID with name appended; t is not modified.
func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}
