// Package scenario contains a test runner that is similar to Go's testing package, but is run
// as regular application code rather than under "go test", so that the suite can be pointed at
// any deployment from the command line. It adds BDD-style features with per-scenario hooks,
// name-based filtering, captured debug output, and console and JUnit reporting.
package scenario
