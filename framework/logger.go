package framework

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const capturedTimeFormat = "15:04:05.000"

// Logger is the minimal logging interface used throughout the suite. The standard library's
// *log.Logger satisfies it.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type discardLogger struct{}

func (discardLogger) Println(...interface{})        {}
func (discardLogger) Printf(string, ...interface{}) {}

// NullLogger returns a Logger that discards all output.
func NullLogger() Logger { return discardLogger{} }

// CapturedMessage is one line of output recorded by a CapturingLogger.
type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is the output recorded for a scenario scope.
type CapturedOutput []CapturedMessage

// CapturingLogger records output for a scenario scope so that it can be shown only when the
// scenario fails, or always if verbose output was requested.
//
// While a child scope is attached, messages sent to the parent are delivered to the child
// instead; a child also starts out with a copy of whatever the parent had already captured.
// That way the output of a Before hook that ran in an enclosing scope is visible in the
// report for each scenario.
type CapturingLogger struct {
	lines    []CapturedMessage
	children []*CapturingLogger
	mu       sync.Mutex
}

func (l *CapturingLogger) Println(args ...interface{}) {
	l.add(strings.TrimRight(fmt.Sprintln(args...), "\r\n"))
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.add(fmt.Sprintf(message, args...))
}

func (l *CapturingLogger) add(text string) {
	l.deliver(CapturedMessage{Time: time.Now(), Message: text})
}

func (l *CapturingLogger) deliver(m CapturedMessage) {
	l.mu.Lock()
	if len(l.children) == 0 {
		l.lines = append(l.lines, m)
		l.mu.Unlock()
		return
	}
	targets := append([]*CapturingLogger(nil), l.children...)
	l.mu.Unlock()
	for _, c := range targets {
		c.deliver(m)
	}
}

// Output returns a copy of everything captured so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(CapturedOutput(nil), l.lines...)
}

// Attach starts redirecting this logger's output to child.
func (l *CapturingLogger) Attach(child *CapturingLogger) {
	l.mu.Lock()
	l.children = append(l.children, child)
	inherited := append([]CapturedMessage(nil), l.lines...)
	l.mu.Unlock()

	child.mu.Lock()
	child.lines = append(inherited, child.lines...)
	child.mu.Unlock()
}

// Detach undoes Attach.
func (l *CapturingLogger) Detach(child *CapturingLogger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.children {
		if c == child {
			l.children = append(l.children[:i], l.children[i+1:]...)
			return
		}
	}
}

// ToString formats the output with a prefix and a timestamp on each line.
func (output CapturedOutput) ToString(prefix string) string {
	lines := make([]string, 0, len(output))
	for _, m := range output {
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, m.Time.Format(capturedTimeFormat), m.Message))
	}
	return strings.Join(lines, "\n")
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix returns a Logger that prepends prefix to every message.
func LoggerWithPrefix(base Logger, prefix string) Logger {
	if base == nil {
		base = NullLogger()
	}
	return prefixedLogger{base: base, prefix: prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}
