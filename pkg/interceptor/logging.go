// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package interceptor

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/afterbug/afterbug-go/pkg/failure"
	"github.com/afterbug/afterbug-go/pkg/stacktrace"
)

// LogHandler returns an slog.Handler that routes records at or above
// minLevel through the runtime-error hook before passing them to next. Log
// levels map to severity codes with failure.CodeForLevel. A nil next
// discards records after capture. A nil minLevel means slog.LevelWarn.
//
// Records logged while the handle is capturing, such as the reporter's own
// delivery failures reaching slog through log.Default, are passed to next
// without being captured.
func (h *Handle) LogHandler(next slog.Handler, minLevel slog.Leveler) slog.Handler {
	if minLevel == nil {
		minLevel = slog.LevelWarn
	}
	return &logHandler{h: h, next: next, min: minLevel}
}

type logHandler struct {
	h    *Handle
	next slog.Handler
	min  slog.Leveler
}

func (l *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= l.min.Level() {
		return true
	}
	return l.next != nil && l.next.Enabled(ctx, level)
}

func (l *logHandler) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level >= l.min.Level() && l.h.capturing.Load() == 0 {
		var file string
		var line int
		var frames []stacktrace.RawFrame
		if rec.PC != 0 {
			fr, _ := runtime.CallersFrames([]uintptr{rec.PC}).Next()
			file, line = fr.File, fr.Line
			frames = stacktrace.FromPCs([]uintptr{rec.PC})
		}
		l.h.handleError(ctx, failure.CodeForLevel(rec.Level), rec.Message, file, line, frames)
	}

	if l.next == nil || !l.next.Enabled(ctx, rec.Level) {
		return nil
	}
	return l.next.Handle(ctx, rec)
}

func (l *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if l.next == nil {
		return l
	}
	return &logHandler{h: l.h, next: l.next.WithAttrs(attrs), min: l.min}
}

func (l *logHandler) WithGroup(name string) slog.Handler {
	if l.next == nil {
		return l
	}
	return &logHandler{h: l.h, next: l.next.WithGroup(name), min: l.min}
}
