// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package middleware reports failures of HTTP handlers together with the
// request that caused them.
package middleware

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/afterbug/afterbug-go/pkg/failure"
	"github.com/afterbug/afterbug-go/pkg/request"
)

// Reporter receives captured failures. *client.Client implements it.
type Reporter interface {
	Capture(ctx context.Context, ev *failure.Event)
}

// Option configures the middleware.
type Option func(*options)

type options struct {
	session func(*http.Request) map[string]any
}

// WithSession supplies the session data attached to reports.
func WithSession(fn func(*http.Request) map[string]any) Option {
	return func(o *options) {
		o.session = fn
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// bind attaches the request adapter to the request context.
func bind(r *http.Request, o options) *http.Request {
	var adapterOpts []request.Option
	if body, err := request.BufferBody(r); err == nil && body != nil {
		adapterOpts = append(adapterOpts, request.WithBody(body))
	}
	if o.session != nil {
		adapterOpts = append(adapterOpts, request.WithSession(o.session(r)))
	}
	ctx := request.NewContext(r.Context(), request.FromHTTP(r, adapterOpts...))
	return r.WithContext(ctx)
}

// Bind is middleware that attaches the request to its context, so errors
// reported with the request context carry the request.
func Bind(opts ...Option) mux.MiddlewareFunc {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, bind(r, o))
		})
	}
}

// Recovery is middleware that recovers from panics, reports them with the
// request, and answers 500 when the handler has not written a response.
// http.ErrAbortHandler is passed through unreported.
func Recovery(rep Reporter, opts ...Option) mux.MiddlewareFunc {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = bind(r, o)
			wrapped := &responseWriter{ResponseWriter: w}

			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				log.Printf("panic recovered: %v", err)
				rep.Capture(r.Context(), failure.FromPanic(err, 0))

				if wrapped.wroteHeader {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`))
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to record whether a response
// was started.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		rw.wroteHeader = true
		f.Flush()
	}
}

// Hijack implements http.Hijacker for WebSocket support.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		rw.wroteHeader = true
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap returns the underlying writer for http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
