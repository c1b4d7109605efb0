// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// MaxBodyBytes bounds how much of a request body is kept for params.
const MaxBodyBytes = 64 << 10

// HTTP adapts a *http.Request.
type HTTP struct {
	req     *http.Request
	body    []byte
	session map[string]any
}

// Option configures an HTTP adapter.
type Option func(*HTTP)

// WithSession attaches session data, which net/http has no notion of.
func WithSession(session map[string]any) Option {
	return func(h *HTTP) {
		h.session = session
	}
}

// WithBody supplies the request body used to derive params. See
// BufferBody for reading it without consuming the request.
func WithBody(body []byte) Option {
	return func(h *HTTP) {
		h.body = body
	}
}

// FromHTTP creates an adapter for r.
func FromHTTP(r *http.Request, opts ...Option) *HTTP {
	h := &HTTP{req: r}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BufferBody reads up to MaxBodyBytes of r's body and replaces r.Body so
// handlers still see the complete, unread body.
func BufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(head), r.Body),
		Closer: r.Body,
	}
	return head, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Cookies returns cookie values by name.
func (h *HTTP) Cookies() map[string]any {
	out := make(map[string]any)
	for _, c := range h.req.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

// Session returns the session data given with WithSession.
func (h *HTTP) Session() map[string]any {
	out := make(map[string]any, len(h.session))
	for k, v := range h.session {
		out[k] = v
	}
	return out
}

// Headers returns single-valued headers as strings and repeated headers
// as lists.
func (h *HTTP) Headers() map[string]any {
	out := make(map[string]any, len(h.req.Header))
	for name, values := range h.req.Header {
		out[name] = headerValue(values)
	}
	return out
}

func headerValue(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}

// Server returns CGI-style server variables for the request.
func (h *HTTP) Server() map[string]any {
	r := h.req
	out := map[string]any{
		"REQUEST_METHOD":  r.Method,
		"REQUEST_URI":     requestURI(r),
		"QUERY_STRING":    r.URL.RawQuery,
		"SERVER_PROTOCOL": r.Proto,
		"SERVER_NAME":     hostOnly(r.Host),
		"REMOTE_ADDR":     r.RemoteAddr,
	}
	if r.TLS != nil {
		out["HTTPS"] = "on"
	}
	if port := portOf(r.Host); port != "" {
		out["SERVER_PORT"] = port
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		out["CONTENT_TYPE"] = ct
	}
	if r.ContentLength > 0 {
		out["CONTENT_LENGTH"] = strconv.FormatInt(r.ContentLength, 10)
	}
	for name, values := range r.Header {
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		out[key] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		out["HTTP_HOST"] = r.Host
	}
	return out
}

// IP returns the first X-Forwarded-For address, falling back to the
// remote address without its port.
func (h *HTTP) IP() string {
	if fwd := h.req.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if h.req.RemoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(h.req.RemoteAddr); err == nil {
		return host
	}
	return h.req.RemoteAddr
}

// MetaData returns the request summary attached to reports.
func (h *HTTP) MetaData() map[string]any {
	r := h.req
	data := map[string]any{
		"url":    h.currentURL(),
		"method": r.Method,
	}

	var params any
	if p := h.params(); p != nil {
		params = p
	}
	data["params"] = params

	if ip := h.IP(); ip != "" {
		data["clientIp"] = ip
	}
	if ua := r.UserAgent(); ua != "" {
		data["userAgent"] = ua
	}
	if vars := mux.Vars(r); len(vars) > 0 {
		route := make(map[string]any, len(vars))
		for k, v := range vars {
			route[k] = v
		}
		data["route"] = route
	}
	return data
}

func (h *HTTP) currentURL() string {
	r := h.req
	scheme := "http://"
	if r.TLS != nil ||
		strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") ||
		portOf(r.Host) == "443" {
		scheme = "https://"
	}
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	return scheme + host + requestURI(r)
}

func (h *HTTP) params() map[string]any {
	if len(h.req.PostForm) > 0 {
		return valuesToMap(h.req.PostForm)
	}
	return ParseInput(h.req.Header.Get("Content-Type"), h.req.Method, h.body)
}

// ParseInput decodes a request body into params: JSON objects for
// application/json, query-string encoding for form posts and PUT
// requests. It returns nil when nothing can be decoded.
func ParseInput(contentType, method string, body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "application/json") {
		var out map[string]any
		if err := json.Unmarshal(body, &out); err != nil || len(out) == 0 {
			return nil
		}
		return out
	}

	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.EqualFold(method, http.MethodPut) {
		values, err := url.ParseQuery(string(body))
		if err != nil || len(values) == 0 {
			return nil
		}
		return valuesToMap(values)
	}
	return nil
}

func valuesToMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = headerValue(v)
	}
	return out
}

func requestURI(r *http.Request) string {
	return r.URL.RequestURI()
}

func hostOnly(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}

func portOf(hostport string) string {
	if _, port, err := net.SplitHostPort(hostport); err == nil {
		return port
	}
	return ""
}
