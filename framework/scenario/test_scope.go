package scenario

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/employee-demo/employee-contract-tests/framework"
)

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test scope. It is very similar to Go's testing.T type, and satisfies the
// TestingT interfaces of testify and of go-test-helpers' matchers.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperFns   []string
	properties  map[string]string
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter is an optional function for determining which tests to run based on their names.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// Context is an optional value of any type defined by the application which can be accessed
	// from tests.
	Context interface{}
}

// Run starts a top-level test scope.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) TestResult {
	t.guard(func() { action(t) })

	// Cleanups run before the result is recorded, so that a failing teardown is attributed
	// to the scope that registered it.
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.guard(t.cleanups[i])
	}
	t.cleanups = nil

	result := TestResult{TestID: t.id, Errors: t.errors, Properties: t.properties}
	if t.failed && !t.skipped {
		t.env.results.Failures = append(t.env.results.Failures, result)
	}
	if !t.skipped {
		t.env.results.Tests = append(t.env.results.Tests, result)
	}
	return result
}

// guard runs fn, converting a FailNow/Skip panic or an unexpected panic into the state of t.
func (t *T) guard(fn func()) {
	defer func() {
		r := recover()
		if r == nil || t.skipped {
			return
		}
		t.failed = true
		var addError error
		if _, ok := r.(*T); ok {
			if len(t.errors) == 0 {
				addError = errors.New("test failed with no failure message")
			}
		} else {
			addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
		}
		if addError != nil {
			t.errors = append(t.errors, addError)
			t.env.config.TestLogger.TestError(t.id, addError)
		}
	}()
	fn()
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest in its own scope.
//
// This is equivalent to Go's testing.T.Run.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		return
	}
	t.env.config.TestLogger.TestStarted(id)
	child := &T{
		id:  id,
		env: t.env,
	}
	t.debugLogger.Attach(&child.debugLogger)
	result := child.run(action)
	t.debugLogger.Detach(&child.debugLogger)
	if child.skipped {
		t.env.config.TestLogger.TestSkipped(id, child.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, result, child.debugLogger.Output())
	}
}

// Failed returns true if the test has failed so far.
func (t *T) Failed() bool { return t.failed }

// Errorf reports a test failure. It is equivalent to Go's testing.T.Errorf. It does not cause the
// test to terminate, but adds the failure message to the output and marks the test as failed.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)

	stacktrace := getStacktrace(false, t.helperFns)
	err = transformError(err, stacktrace)

	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
func (t *T) FailNow() {
	panic(t)
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger instance for writing output for this test scope.
//
// The output that is captured for a test is passed to TestLogger.TestFinished at the end of the
// test, and the runner decides whether to display it based on command-line options. Output
// written to a parent scope while a subtest is running goes to the subtest.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason. Unlike a Go defer statement, Defer can be used from within helper
// functions. Cleanups run in reverse order of registration; an assertion failure inside a
// cleanup fails the scope that registered it without preventing the other cleanups.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// SetProperty attaches a value to the result of this test scope, replacing any earlier value
// with the same name. The JUnit report lists it under the test case.
func (t *T) SetProperty(name, value string) {
	if t.properties == nil {
		t.properties = make(map[string]string)
	}
	t.properties[name] = value
}

// Context returns the application-defined context value, if any, that was specified in the
// TestConfiguration.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Helper marks the function that calls it as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	if f := runtime.FuncForPC(pc); f != nil {
		t.helperFns = append(t.helperFns, f.Name())
	}
}
