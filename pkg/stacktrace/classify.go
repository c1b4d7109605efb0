// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package stacktrace

import (
	"strings"

	"github.com/afterbug/afterbug-go/internal/source"
)

const (
	contextLinesBefore = 10
	contextWindow      = 20
)

// Frame is a classified stack frame as it appears on the wire.
type Frame struct {
	Line      int      `json:"line"`
	File      string   `json:"file"`
	Class     string   `json:"class"`
	Function  string   `json:"function"`
	InApp     bool     `json:"in_app"`
	Context   []string `json:"context"`
	LineStart int      `json:"line_start"`
}

// SourceReader supplies the lines of a source file.
type SourceReader interface {
	Lines(path string) ([]string, error)
}

var defaultReader = source.NewReader(0)

// DefaultSourceReader returns the process-wide cached file reader.
func DefaultSourceReader() SourceReader {
	return defaultReader
}

// Classify tags every raw frame as application code when its file begins
// with one of applicationPaths (first match wins) and attaches the source
// context window around its line. A nil reader uses DefaultSourceReader.
func Classify(raw []RawFrame, applicationPaths []string, reader SourceReader) []Frame {
	if reader == nil {
		reader = defaultReader
	}
	frames := make([]Frame, 0, len(raw))
	for _, r := range raw {
		f := Frame{
			Line:     r.Line,
			File:     r.File,
			Class:    r.Class,
			Function: r.Function,
			InApp:    IsApplication(r.File, applicationPaths),
		}
		if r.Line > 0 && r.File != "" {
			if lines, err := reader.Lines(r.File); err == nil {
				f.Context, f.LineStart = Window(lines, r.Line)
			}
		}
		frames = append(frames, f)
	}
	return frames
}

// IsApplication reports whether file lies under one of the prefixes.
func IsApplication(file string, applicationPaths []string) bool {
	if file == "" {
		return false
	}
	for _, p := range applicationPaths {
		if strings.HasPrefix(file, p) {
			return true
		}
	}
	return false
}

// Window returns up to 20 lines starting 10 lines above line (clipped at
// the start of the file) and the 1-based number of the first returned
// line. Empty lines become a single space. A line outside the file yields
// no context and a start of 0.
func Window(lines []string, line int) ([]string, int) {
	if line <= 0 || line > len(lines) {
		return nil, 0
	}
	start := line - contextLinesBefore
	if start < 1 {
		start = 1
	}
	end := start - 1 + contextWindow
	if end > len(lines) {
		end = len(lines)
	}

	out := make([]string, 0, end-start+1)
	for _, l := range lines[start-1 : end] {
		if l == "" {
			l = " "
		}
		out = append(out, l)
	}
	return out, start
}

// CountApplication returns how many frames are application frames.
func CountApplication(frames []Frame) int {
	n := 0
	for _, f := range frames {
		if f.InApp {
			n++
		}
	}
	return n
}
