package errs

import (
	"fmt"
	"runtime"
	"strings"
)

// Source is an opaque debugging token attached to elements and errors for
// attribution, typically the call site in user configuration code (see
// spec.md §3 "Source"). It is deliberately an interface rather than a
// concrete struct so that non-reflective sources (a field name, a
// constructor parameter position) can share the same trail as call-site
// frames.
type Source interface {
	fmt.Stringer
}

// CallerSource captures a single frame of the call stack.
type CallerSource struct {
	File     string
	Line     int
	Function string
}

func (s CallerSource) String() string {
	if s.Function == "" {
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s (%s:%d)", s.Function, s.File, s.Line)
}

// modulePrefixes lists the import path prefixes considered "internal to the
// container's own machinery". CaptureCaller walks past frames matching any
// of these so the recorded Source points at user configuration code, not at
// the Bind/Install plumbing that got it there.
var modulePrefixes = []string{
	"github.com/kestrelgraph/injector.",
	"github.com/kestrelgraph/injector/",
}

// CaptureCaller walks the call stack starting skip frames up from its own
// caller and returns the first frame that isn't part of the container's own
// machinery.
func CaptureCaller(skip int) CallerSource {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !isInternalFrame(frame.Function) {
			return CallerSource{File: frame.File, Line: frame.Line, Function: frame.Function}
		}
		if !more {
			break
		}
	}

	return CallerSource{File: "unknown", Line: 0}
}

func isInternalFrame(function string) bool {
	for _, prefix := range modulePrefixes {
		if strings.HasPrefix(function, prefix) {
			return true
		}
	}
	return false
}

// StringSource wraps an arbitrary label (a field name, a dependency
// position) as a Source so it can be pushed onto a trail alongside
// CallerSources.
type StringSource string

func (s StringSource) String() string { return string(s) }
