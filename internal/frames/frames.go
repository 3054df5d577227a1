// Package frames captures the call sites that create IR nodes.
//
// Capturing costs a stack walk per node, so it only happens when the IR_DEBUG
// setting is on. The setting is read once and cached.
package frames

import (
	"path"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/born-ml/irgraph/internal/config"
)

// maxDepth bounds the number of frames recorded per node.
const maxDepth = 32

// SourceLocation is one captured stack frame.
type SourceLocation struct {
	Function string
	File     string
	Line     int
}

// String renders the location as function@basename:line.
func (l SourceLocation) String() string {
	return l.Function + "@" + path.Base(l.File) + ":" + strconv.Itoa(l.Line)
}

var (
	enabledOnce sync.Once
	enabled     atomic.Bool
)

// Enabled reports whether frame capture is on.
func Enabled() bool {
	enabledOnce.Do(func() {
		enabled.Store(config.Global().Debug)
	})
	return enabled.Load()
}

// SetEnabled forces frame capture on or off and returns the previous state.
func SetEnabled(on bool) bool {
	prev := Enabled()
	enabled.Store(on)
	return prev
}

// Capture returns the caller's stack, innermost frame first, or nil when
// capture is disabled. skip is the number of frames above Capture's caller to
// omit.
func Capture(skip int) []SourceLocation {
	if !Enabled() {
		return nil
	}
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	iter := runtime.CallersFrames(pcs[:n])
	locs := make([]SourceLocation, 0, n)
	for {
		f, more := iter.Next()
		locs = append(locs, SourceLocation{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return locs
}

// Short renders only the innermost frame, or "" when there is none.
func Short(locs []SourceLocation) string {
	if len(locs) == 0 {
		return ""
	}
	return locs[0].String()
}
