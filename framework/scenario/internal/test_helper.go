// Package internal contains test helpers for the scenario package. They have to live in a
// separate package so that stacktrace filtering can tell them apart from the runner's own code.
package internal

// RunAction calls action.
//
//go:noinline
func RunAction(action func()) {
	action()
}
