// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package callbacks implements the enrichment chain run against the
// reporting context before each report is built, and the standard
// enrichers registered by default.
package callbacks

import (
	"os"
	"sync"

	"github.com/afterbug/afterbug-go/pkg/config"
)

// Callback enriches the reporting context. It must not panic; a panic
// propagates to the caller of Run.
type Callback func(cfg *config.Config)

// Chain is an ordered list of callbacks. It is safe for concurrent use.
type Chain struct {
	mu        sync.RWMutex
	callbacks []Callback
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Register appends fn. Nil callbacks are ignored.
func (c *Chain) Register(fn Callback) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Len returns the number of registered callbacks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.callbacks)
}

// Run invokes every callback once, in registration order, with the same
// cfg. Callbacks registered while Run is in progress take effect on the
// next run.
func (c *Chain) Run(cfg *config.Config) {
	c.mu.RLock()
	snapshot := make([]Callback, len(c.callbacks))
	copy(snapshot, c.callbacks)
	c.mu.RUnlock()

	for _, fn := range snapshot {
		fn(cfg)
	}
}

// hostname is replaced in tests.
var hostname = os.Hostname

// HostName records the machine host name under device.hostname.
func HostName(cfg *config.Config) {
	name, err := hostname()
	if err != nil || name == "" {
		return
	}
	cfg.SetMetaData(map[string]any{
		"device": map[string]any{
			"hostname": name,
		},
	})
}

// HTTP records cookies, session, headers and request metadata of the
// inbound request under request.
func HTTP(cfg *config.Config) {
	req := cfg.Request()
	cfg.SetMetaData(map[string]any{
		"request": map[string]any{
			"cookies": req.Cookies(),
			"session": req.Session(),
			"headers": req.Headers(),
			"meta":    req.MetaData(),
		},
	})
}

// RequestUser identifies the user by the inbound request's client IP.
// The value is stored only when id is an allowed user attribute.
func RequestUser(cfg *config.Config) {
	ip := cfg.Request().IP()
	if ip == "" {
		return
	}
	cfg.SetUser(map[string]any{"id": ip})
}

// Defaults returns the standard enrichers in registration order.
func Defaults() []Callback {
	return []Callback{HTTP, RequestUser, HostName}
}
