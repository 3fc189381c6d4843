// Package callframe stamps handlers with the source location that declared them.
package callframe

import (
	"fmt"
	"runtime"
	"strings"
)

// modulePrefix identifies frames that belong to this module's own packages.
const modulePrefix = "github.com/getmockd/mockwire/"

// Get returns "file:line" of the first caller outside this module's
// non-test code, or an empty string when no such frame exists.
func Get() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !internal(frame) {
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		if !more {
			return ""
		}
	}
}

func internal(frame runtime.Frame) bool {
	if frame.Function == "" {
		return true
	}
	if strings.HasSuffix(frame.File, "_test.go") {
		return false
	}
	return strings.HasPrefix(frame.Function, modulePrefix) || strings.HasPrefix(frame.Function, "runtime.")
}
