// Package harness provides HTTP access to the API under test: request execution against a base
// URL with the headers the API expects, typed status errors, and a readiness prober that waits
// for a slow-starting service with a fixed retry budget.
package harness
