// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package interceptor installs the hooks that turn runtime errors, panics
// and abnormal termination into reports, making sure each distinct
// failure is reported once.
//
// Go has no global error or exception handler, so the three interception
// points are explicit:
//
//   - runtime errors: [Handle.HandleError], or log records through
//     [Handle.LogHandler]
//   - uncaught exceptions: defer [Handle.Recover] at the top of a
//     goroutine, or call [Handle.HandleException]
//   - termination: defer [Handle.Shutdown] first in main, so it runs last
//
// A panic that escapes to Shutdown after Recover already reported it is
// recognized by its restatement and not reported again.
package interceptor

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/afterbug/afterbug-go/pkg/failure"
	"github.com/afterbug/afterbug-go/pkg/stacktrace"
)

// State is the lifecycle state of an interceptor.
type State int32

const (
	StateUninstalled State = iota
	StateInstalled
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateCapturing:
		return "capturing"
	default:
		return "uninstalled"
	}
}

// Reporter receives every failure to report. *client.Client implements
// it. Capture must not panic.
type Reporter interface {
	Capture(ctx context.Context, ev *failure.Event)
}

// ErrorHook handles a runtime error. It returns true when it handled the
// condition itself.
type ErrorHook func(code failure.Code, message, file string, line int) bool

// ExceptionHook handles an uncaught failure.
type ExceptionHook func(ev *failure.Event)

// RestatementFunc reports whether pending, observed at termination, is
// the runtime restating lastHandled rather than a new failure.
type RestatementFunc func(pending, lastHandled *failure.Event) bool

// Restatement prefixes recognized by IsRestatement.
const (
	UncaughtPrefix     = "Uncaught "
	NoStackFramePrefix = "Exception thrown without a stack frame"
)

// IsRestatement is the default RestatementFunc. A pending error restates
// the last handled failure when it is an E_ERROR reading
// "Uncaught <type>: <message>" for that failure, or an E_CORE_ERROR
// reading "Exception thrown without a stack frame".
func IsRestatement(pending, lastHandled *failure.Event) bool {
	if pending == nil || lastHandled == nil {
		return false
	}
	switch pending.Severity {
	case failure.CodeCoreError:
		return strings.HasPrefix(pending.Message, NoStackFramePrefix)
	case failure.CodeError:
		return strings.HasPrefix(pending.Message, Restate(lastHandled))
	default:
		return false
	}
}

// Restate returns the termination message for an uncaught failure.
func Restate(ev *failure.Event) string {
	return UncaughtPrefix + ev.Type + ": " + ev.Message
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithPreviousErrorHook chains hook after the runtime-error hook. Its
// return value becomes the hook's return value.
func WithPreviousErrorHook(hook ErrorHook) Option {
	return func(i *Interceptor) {
		i.prevError = hook
	}
}

// WithPreviousExceptionHook chains hook after the uncaught-exception
// hook. When set, Recover does not re-panic; hook decides what happens
// next.
func WithPreviousExceptionHook(hook ExceptionHook) Option {
	return func(i *Interceptor) {
		i.prevException = hook
	}
}

// WithRestatement replaces IsRestatement.
func WithRestatement(fn RestatementFunc) Option {
	return func(i *Interceptor) {
		if fn != nil {
			i.restated = fn
		}
	}
}

// WithContext sets the context captures made outside a request use.
func WithContext(ctx context.Context) Option {
	return func(i *Interceptor) {
		if ctx != nil {
			i.ctx = ctx
		}
	}
}

// Interceptor owns the hooks of one reporter.
type Interceptor struct {
	reporter      Reporter
	prevError     ErrorHook
	prevException ExceptionHook
	restated      RestatementFunc
	ctx           context.Context

	once   sync.Once
	handle atomic.Pointer[Handle]
}

// New creates an uninstalled interceptor for r.
func New(r Reporter, opts ...Option) *Interceptor {
	i := &Interceptor{
		reporter: r,
		restated: IsRestatement,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install activates the hooks and returns their handle. Later calls
// return the same handle.
func (i *Interceptor) Install() *Handle {
	i.once.Do(func() {
		i.handle.Store(&Handle{i: i})
	})
	return i.handle.Load()
}

// State returns the interceptor's lifecycle state.
func (i *Interceptor) State() State {
	h := i.handle.Load()
	if h == nil {
		return StateUninstalled
	}
	return h.State()
}

var (
	processMu     sync.Mutex
	processHandle *Handle
)

// Install installs an interceptor for r the first time it is called in
// the process. Every later call returns the first handle and ignores its
// arguments.
func Install(r Reporter, opts ...Option) *Handle {
	processMu.Lock()
	defer processMu.Unlock()
	if processHandle == nil {
		processHandle = New(r, opts...).Install()
	}
	return processHandle
}

// Handle is an installed interceptor.
type Handle struct {
	i         *Interceptor
	capturing atomic.Int32

	mu          sync.Mutex
	lastHandled *failure.Event
	lastError   *pendingError

	shutdown sync.Once
}

type pendingError struct {
	ev       *failure.Event
	reported bool
}

// State returns StateCapturing while a capture is in progress and
// StateInstalled otherwise.
func (h *Handle) State() State {
	if h.capturing.Load() > 0 {
		return StateCapturing
	}
	return StateInstalled
}

// LastHandled returns the failure most recently passed to the
// uncaught-exception hook.
func (h *Handle) LastHandled() *failure.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastHandled
}

// capture hands ev to the reporter. Nothing escapes it.
func (h *Handle) capture(ctx context.Context, ev *failure.Event) {
	h.capturing.Add(1)
	defer h.capturing.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("AfterBug Error: capture failed: %v", r)
		}
	}()

	if ctx == nil {
		ctx = h.i.ctx
	}
	h.i.reporter.Capture(ctx, ev)
}

// HandleError is the runtime-error hook. It reports the error, then
// calls the previous error hook with the same arguments and returns its
// result. Without a previous hook it returns false.
func (h *Handle) HandleError(code failure.Code, message, file string, line int) bool {
	return h.handleError(h.i.ctx, code, message, file, line, stacktrace.Capture(1))
}

func (h *Handle) handleError(ctx context.Context, code failure.Code, message, file string, line int, frames []stacktrace.RawFrame) bool {
	ev := failure.NewError(code, message, file, line)
	ev.Frames = frames
	h.capture(ctx, ev)

	handled := false
	if h.i.prevError != nil {
		handled = h.i.prevError(code, message, file, line)
	}
	if !handled {
		// The runtime keeps unhandled errors as its last error. This one
		// was reported already.
		h.mu.Lock()
		h.lastError = &pendingError{ev: ev, reported: true}
		h.mu.Unlock()
	}
	return handled
}

// RecordLastError records an error the host could not route through
// HandleError, such as a fatal condition detected by a supervisor. The
// termination hook decides whether to report it.
func (h *Handle) RecordLastError(code failure.Code, message, file string, line int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = &pendingError{ev: failure.NewError(code, message, file, line)}
}

// HandleException is the uncaught-exception hook. It records ev as the
// last handled failure, reports it and calls the previous exception
// hook.
func (h *Handle) HandleException(ev *failure.Event) {
	h.HandleExceptionContext(h.i.ctx, ev)
}

// HandleExceptionContext is HandleException with a capture context.
func (h *Handle) HandleExceptionContext(ctx context.Context, ev *failure.Event) {
	if ev == nil {
		return
	}
	h.mu.Lock()
	h.lastHandled = ev
	h.mu.Unlock()

	h.capture(ctx, ev)

	if h.i.prevException != nil {
		h.i.prevException(ev)
	}
}

// Recover reports a panic in progress. It must be deferred directly.
// Without a previous exception hook the panic continues after it has
// been reported, so the process still crashes.
//
//	go func() {
//	    defer h.Recover()
//	    work()
//	}()
func (h *Handle) Recover() {
	r := recover()
	if r == nil {
		return
	}
	h.HandleException(failure.FromPanic(r, 0))
	if h.i.prevException == nil {
		panic(r)
	}
}

// Go runs fn in a new goroutine under Recover.
func (h *Handle) Go(fn func()) {
	go func() {
		defer h.Recover()
		fn()
	}()
}

// Shutdown is the termination hook. It must be deferred directly, first
// in main, so it runs after every other deferred call. It inspects the
// panic in progress, or else the last pending error, and reports it
// unless it restates a failure that was already reported. A panic in
// progress continues afterwards. Only the first call has any effect.
func (h *Handle) Shutdown() {
	r := recover()
	h.shutdown.Do(func() {
		h.terminate(r)
	})
	if r != nil {
		panic(r)
	}
}

func (h *Handle) terminate(r any) {
	var pending, report *failure.Event
	if r != nil {
		ev := failure.FromPanic(r, 0)
		pending = failure.NewError(failure.CodeError, Restate(ev), ev.File, ev.Line)
		report = ev
	} else {
		h.mu.Lock()
		last := h.lastError
		h.mu.Unlock()
		if last == nil || last.reported {
			return
		}
		pending = last.ev
		report = last.ev
	}

	if h.i.restated(pending, h.LastHandled()) {
		return
	}
	if !pending.Severity.IsFatal() {
		return
	}

	h.mu.Lock()
	if h.lastError != nil && h.lastError.ev == pending {
		h.lastError.reported = true
	}
	h.mu.Unlock()
	h.capture(h.i.ctx, report)
}
