package scenario

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// ErrorWithStacktrace is a test failure annotated with the location in the test code where it
// was reported.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo
}

// StacktraceInfo is one frame of an ErrorWithStacktrace.
type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

func (e ErrorWithStacktrace) Error() string { return e.Message }

func (s StacktraceInfo) String() string {
	packageName := strings.TrimPrefix(s.Package, rootPackageName()+"/")
	return fmt.Sprintf("%s.%s (%s:%d)", packageName, s.Function, s.FileName, s.Line)
}

var testifyTracePrefix = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)

// transformError attaches our own stacktrace to an error, and removes the "Error Trace" block
// that testify puts at the start of its failure messages.
func transformError(err error, stacktrace []StacktraceInfo) error {
	message := err.Error()
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(testifyTracePrefix.ReplaceAllLiteralString(message, ""))
	}
	if len(stacktrace) == 0 {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: stacktrace}
}

func currentPackageName() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	packageName, _ := splitFunctionName(f.Name())
	return packageName
}

// rootPackageName is the module path, assuming a three-component "host/owner/repo" path.
func rootPackageName() string {
	parts := strings.Split(currentPackageName(), "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "/")
}

// getStacktrace returns the frames of the caller's stack, stopping at the top-level Run. Frames
// from this package are left out unless includeRunnerFrames is true, and so are functions that
// called T.Helper.
func getStacktrace(includeRunnerFrames bool, helperFns []string) []StacktraceInfo {
	var frames []StacktraceInfo
	thisPackage := currentPackageName()
	for skip := 1; ; skip++ {
		pc, file, line, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		f := runtime.FuncForPC(pc)
		if f == nil {
			break
		}
		fullName := f.Name()
		packageName, functionName := splitFunctionName(fullName)

		if packageName == thisPackage && functionName == "Run" {
			break
		}
		if packageName == thisPackage && !includeRunnerFrames {
			continue
		}
		if isHelper(fullName, helperFns) {
			continue
		}
		frames = append(frames, StacktraceInfo{
			FileName: file[strings.LastIndex(file, "/")+1:],
			Package:  packageName,
			Function: functionName,
			Line:     line,
		})
	}
	return frames
}

func isHelper(fullName string, helperFns []string) bool {
	for _, h := range helperFns {
		if h == fullName {
			return true
		}
	}
	return false
}

func splitFunctionName(fullName string) (packageName, functionName string) {
	lastSlash := strings.LastIndex(fullName, "/")
	firstDotAfterSlash := strings.Index(fullName[lastSlash+1:], ".")
	packageName = fullName[:lastSlash+firstDotAfterSlash+1]
	functionName = fullName[len(packageName)+1:]
	return packageName, functionName
}
