// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package failure defines the normalized representation of every failure
// the reporter can capture: runtime errors raised through the error hook,
// Go errors, and panic values.
package failure

import (
	"errors"
	"fmt"

	"github.com/afterbug/afterbug-go/pkg/stacktrace"
)

// Event is a captured failure. Cause links form the causal chain, most
// recent first. An Event is not modified after it has been captured.
type Event struct {
	Kind     Kind
	Type     string
	Message  string
	Code     int
	Severity Code // zero when the failure carries no severity
	File     string
	Line     int
	Frames   []stacktrace.RawFrame
	Cause    *Event
}

// Error implements error so an Event can be handed to CatchException
// directly.
func (e *Event) Error() string {
	if e.Message == "" {
		return e.Type
	}
	return e.Type + ": " + e.Message
}

// Unwrap returns the cause.
func (e *Event) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Chain returns the event followed by each of its causes.
func (e *Event) Chain() []*Event {
	var out []*Event
	for link := e; link != nil; link = link.Cause {
		out = append(out, link)
	}
	return out
}

// Level is the report level: the classified severity when one is set,
// otherwise error.
func (e *Event) Level() string {
	if e.Severity != 0 {
		return Classify(e.Severity).Level()
	}
	return LevelError
}

// NewError builds the event for a runtime error reported with a
// severity code.
func NewError(code Code, message, file string, line int) *Event {
	kind := Classify(code)
	return &Event{
		Kind:     kind,
		Type:     kind.String(),
		Message:  message,
		Code:     int(code),
		Severity: code,
		File:     file,
		Line:     line,
	}
}

// stackTracer is implemented by errors that record the program counters
// of their creation site.
type stackTracer interface {
	Callers() []uintptr
}

// FromError converts err and its causes into an Event. An *Event is
// returned as is. When err carries no stack of its own, the stack of the
// caller is used; skip=0 is the caller of FromError.
func FromError(err error, skip int) *Event {
	if err == nil {
		return nil
	}
	if ev, ok := err.(*Event); ok {
		return ev
	}
	ev := fromError(err)
	if len(ev.Frames) == 0 {
		ev.Frames = stacktrace.Capture(skip + 1)
		ev.locate()
	}
	return ev
}

// FromPanic converts a recovered panic value into an Event. When called
// from a deferred function the frames of the panic machinery are dropped
// so the event points at the panic site.
func FromPanic(v any, skip int) *Event {
	var ev *Event
	switch t := v.(type) {
	case *Event:
		return t
	case error:
		ev = fromError(t)
	default:
		ev = &Event{Kind: KindException, Type: "panic", Message: fmt.Sprint(v)}
	}
	if len(ev.Frames) == 0 {
		ev.Frames = stacktrace.TrimPanic(stacktrace.Capture(skip + 1))
		ev.locate()
	}
	return ev
}

func fromError(err error) *Event {
	ev := &Event{
		Kind:    KindException,
		Type:    TypeName(err),
		Message: err.Error(),
	}
	if st, ok := err.(stackTracer); ok {
		ev.Frames = stacktrace.FromPCs(st.Callers())
		ev.locate()
	}
	if cause := unwrapOne(err); cause != nil {
		if ce, ok := cause.(*Event); ok {
			ev.Cause = ce
		} else {
			ev.Cause = fromError(cause)
		}
	}
	return ev
}

func (e *Event) locate() {
	if e.File == "" && len(e.Frames) > 0 {
		e.File = e.Frames[0].File
		e.Line = e.Frames[0].Line
	}
}

// unwrapOne follows a single causal link. Joined errors contribute their
// first member.
func unwrapOne(err error) error {
	if next := errors.Unwrap(err); next != nil {
		return next
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range multi.Unwrap() {
			if e != nil {
				return e
			}
		}
	}
	return nil
}

// typeNamer lets an error choose the type reported for it.
type typeNamer interface {
	TypeName() string
}

// TypeName returns the reported type of err: its TypeName method when it
// has one, otherwise its dynamic Go type.
func TypeName(err error) string {
	if tn, ok := err.(typeNamer); ok {
		if name := tn.TypeName(); name != "" {
			return name
		}
	}
	if ev, ok := err.(*Event); ok {
		return ev.Type
	}
	return fmt.Sprintf("%T", err)
}
