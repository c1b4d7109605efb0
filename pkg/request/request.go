// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package request adapts an inbound request into the data attached to a
// report: cookies, session, headers, server variables and request
// metadata.
package request

import "context"

// Request is the inbound request a failure happened under.
type Request interface {
	Cookies() map[string]any
	Session() map[string]any
	Headers() map[string]any
	Server() map[string]any
	// MetaData returns url, method, params, clientIp and userAgent when
	// known.
	MetaData() map[string]any
	// IP returns the caller's network address, or "" when unknown.
	IP() string
}

// LoopbackIP is reported by Null.
const LoopbackIP = "127.0.0.1"

// Null is the request used when no inbound request exists, such as a
// command-line process.
type Null struct{}

func (Null) Cookies() map[string]any  { return map[string]any{} }
func (Null) Session() map[string]any  { return map[string]any{} }
func (Null) Headers() map[string]any  { return map[string]any{} }
func (Null) Server() map[string]any   { return map[string]any{} }
func (Null) MetaData() map[string]any { return map[string]any{} }
func (Null) IP() string               { return LoopbackIP }

type contextKey struct{}

// NewContext returns a copy of ctx carrying req.
func NewContext(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, contextKey{}, req)
}

// FromContext returns the request stored in ctx, if any.
func FromContext(ctx context.Context) (Request, bool) {
	if ctx == nil {
		return nil, false
	}
	req, ok := ctx.Value(contextKey{}).(Request)
	return req, ok && req != nil
}
