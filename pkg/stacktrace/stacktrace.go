// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package stacktrace captures Go call stacks and turns them into report
// frames tagged as application or library code, each with a window of
// surrounding source lines.
package stacktrace

import (
	"runtime"
	"strings"
)

const maxDepth = 64

// RawFrame is a single call site as resolved from the runtime.
type RawFrame struct {
	File     string
	Line     int
	Function string
	Class    string
}

// Capture records the stack of the calling goroutine. skip=0 starts at
// the caller of Capture.
func Capture(skip int) []RawFrame {
	pc := make([]uintptr, maxDepth)
	// +2 skips runtime.Callers and Capture.
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return nil
	}
	return FromPCs(pc[:n])
}

// FromPCs resolves program counters, e.g. those stored by an error type
// that records its own stack.
func FromPCs(pcs []uintptr) []RawFrame {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	out := make([]RawFrame, 0, len(pcs))
	for {
		fr, more := frames.Next()
		class, fn := splitFunction(fr.Function)
		out = append(out, RawFrame{
			File:     fr.File,
			Line:     fr.Line,
			Function: fn,
			Class:    class,
		})
		if !more {
			break
		}
	}
	return out
}

// TrimPanic drops the frames belonging to the panic machinery so the
// first remaining frame is the site that panicked. Frames are returned
// unchanged when no panic frame is present.
func TrimPanic(frames []RawFrame) []RawFrame {
	for i, fr := range frames {
		if fr.Class == "" && fr.Function == "runtime.gopanic" {
			rest := frames[i+1:]
			// Runtime-raised panics (nil dereference, bounds checks) pass
			// through helpers before reaching gopanic.
			for len(rest) > 0 && isPanicHelper(rest[0].Function) {
				rest = rest[1:]
			}
			return rest
		}
	}
	return frames
}

func isPanicHelper(fn string) bool {
	return fn == "runtime.sigpanic" ||
		strings.HasPrefix(fn, "runtime.panic") ||
		strings.HasPrefix(fn, "runtime.goPanic")
}

// splitFunction separates a fully qualified Go function name into the
// receiver ("pkg.(*T)") and the remaining name. Plain functions keep
// their package qualifier and have no class.
//
//	github.com/a/pkg.(*T).Method.func1 -> "pkg.(*T)", "Method.func1"
//	github.com/a/pkg.helper            -> "", "pkg.helper"
func splitFunction(name string) (class, fn string) {
	if name == "" {
		return "", ""
	}
	rest := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		rest = name[i+1:]
	}

	open := strings.Index(rest, ".(")
	if open < 0 {
		return "", rest
	}
	end := strings.Index(rest[open:], ").")
	if end < 0 {
		return "", rest
	}
	end += open
	return rest[:end+1], rest[end+2:]
}
