// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides the AfterBug reporting client.
//
// A Client owns the reporting context (API key, environment, SDK identity,
// user and metadata), an ordered chain of enrichment callbacks, and the
// dispatcher that delivers each report to the collector.
//
// # Getting Started
//
// Create a client with the default enrichers registered:
//
//	c, err := client.Make("your-api-key")
//
// Report an error:
//
//	c.CatchException(ctx, err)
//
// CatchException never returns an error and never panics. Delivery
// failures are written to the client's logger as a single line.
//
// # Configuration Options
//
// The client can be configured with functional options:
//
//	c, err := client.New("your-api-key",
//	    client.WithEnvironment("production"),
//	    client.WithApplicationPaths("/srv/app"),
//	    client.WithTimeout(5 * time.Second),
//	)
//
// Options that set an invalid value make New return a
// *config.ConfigurationError. When the API key is empty, the value of
// AFTERBUG_API_KEY is used.
//
// # Callbacks
//
// Callbacks enrich the reporting context before each report is built:
//
//	c.RegisterCallback(func(cfg *config.Config) {
//	    cfg.SetUser(map[string]any{"id": currentUserID()})
//	})
//
// Callbacks run on a per-capture copy of the context, in registration
// order, so enrichment never leaks from one report into the next.
//
// # Requests
//
// Bind the inbound request to a capture through its context:
//
//	ctx := request.NewContext(r.Context(), request.FromHTTP(r))
//	c.CatchException(ctx, err)
//
// The middleware package does this for every request it serves.
package client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/afterbug/afterbug-go/pkg/callbacks"
	"github.com/afterbug/afterbug-go/pkg/config"
	"github.com/afterbug/afterbug-go/pkg/failure"
	"github.com/afterbug/afterbug-go/pkg/report"
	"github.com/afterbug/afterbug-go/pkg/request"
	"github.com/afterbug/afterbug-go/pkg/stacktrace"
)

// Client reports failures to AfterBug.
//
// The Client is safe for concurrent use by multiple goroutines.
type Client struct {
	cfg        *config.Config
	chain      *callbacks.Chain
	endpoint   string
	httpClient Doer
	timeout    time.Duration
	logger     *log.Logger
	metrics    *Metrics
	validate   bool
	reader     stacktrace.SourceReader
}

// Option configures a [Client]. Options are passed to [New] to customize
// client behavior.
type Option func(*Client) error

// New creates a client for apiKey. No callbacks are registered; see
// [Make] for a client with the default enrichers.
//
// By default, the client uses:
//   - environment "local"
//   - the collector at [config.Endpoint]
//   - a 10-second delivery timeout
//   - [log.Default] as the local side channel
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv(config.APIKeyEnv)
	}

	c := &Client{
		cfg:        config.New(apiKey),
		chain:      callbacks.NewChain(),
		endpoint:   config.Endpoint,
		httpClient: http.DefaultClient,
		timeout:    config.DefaultTimeout,
		logger:     log.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Make creates a client and registers the default callbacks.
func Make(apiKey string, opts ...Option) (*Client, error) {
	c, err := New(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	c.RegisterDefaultCallbacks()
	return c, nil
}

// WithEnvironment sets the environment name reported with every failure.
func WithEnvironment(env string) Option {
	return func(c *Client) error {
		c.cfg.SetEnvironment(env)
		return nil
	}
}

// WithApplicationPaths sets the path prefixes that mark stack frames as
// application code.
func WithApplicationPaths(paths ...string) Option {
	return func(c *Client) error {
		return c.cfg.SetApplicationPaths(paths)
	}
}

// WithUserAttributes sets the allow-list of user fields.
func WithUserAttributes(attrs ...string) Option {
	return func(c *Client) error {
		return c.cfg.SetUserAttributes(attrs)
	}
}

// WithExcludeExceptions sets the failure types that are never reported.
func WithExcludeExceptions(types ...string) Option {
	return func(c *Client) error {
		c.cfg.SetExcludeExceptions(types)
		return nil
	}
}

// WithSDK overrides the notifier identity, for wrappers built on this
// library.
func WithSDK(name, version string) Option {
	return func(c *Client) error {
		return c.cfg.SetSDK(config.SDK{Name: name, Version: version})
	}
}

// WithEndpoint sets the collector base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) error {
		if endpoint == "" {
			return &config.ConfigurationError{Field: "endpoint", Message: "is empty"}
		}
		c.endpoint = strings.TrimSuffix(endpoint, "/")
		return nil
	}
}

// WithHTTPClient sets the transport used for delivery.
func WithHTTPClient(hc Doer) Option {
	return func(c *Client) error {
		if hc == nil {
			return &config.ConfigurationError{Field: "http client", Message: "is nil"}
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout bounds each delivery.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return &config.ConfigurationError{Field: "timeout", Message: "must be positive"}
		}
		c.timeout = d
		return nil
	}
}

// WithRequest sets the request enrichers read from when a capture has
// none bound to its context.
func WithRequest(req request.Request) Option {
	return func(c *Client) error {
		c.cfg.SetRequest(req)
		return nil
	}
}

// WithLogger replaces the local side channel.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return &config.ConfigurationError{Field: "logger", Message: "is nil"}
		}
		c.logger = l
		return nil
	}
}

// WithMetrics records delivery outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithValidation checks every report against the wire schema before
// delivery. Invalid reports are logged and skipped.
func WithValidation() Option {
	return func(c *Client) error {
		c.validate = true
		return nil
	}
}

// WithSourceReader sets where source context for stack frames is read
// from.
func WithSourceReader(r stacktrace.SourceReader) Option {
	return func(c *Client) error {
		c.reader = r
		return nil
	}
}

// WithConfigFile applies settings from an HJSON, JSON or YAML file.
// Options after it override the file.
func WithConfigFile(path string) Option {
	return func(c *Client) error {
		f, err := config.NewLoader().LoadWithDefaults(context.Background(), path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		if err := f.Apply(c.cfg); err != nil {
			return err
		}
		timeout, err := f.TimeoutDuration()
		if err != nil {
			return err
		}
		c.timeout = timeout
		c.endpoint = strings.TrimSuffix(f.Endpoint, "/")
		return nil
	}
}

// Config returns the reporting context. Changes made through it apply
// to later captures.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// Endpoint returns the collector base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SetAPIKey replaces the API key.
func (c *Client) SetAPIKey(key string) *Client {
	c.cfg.SetAPIKey(key)
	return c
}

// SetEnvironment sets the environment name.
func (c *Client) SetEnvironment(env string) *Client {
	c.cfg.SetEnvironment(env)
	return c
}

// SetApplicationPaths sets the application path prefixes.
func (c *Client) SetApplicationPaths(paths ...string) error {
	return c.cfg.SetApplicationPaths(paths)
}

// SetUserAttributes sets the allow-list of user fields.
func (c *Client) SetUserAttributes(attrs ...string) error {
	return c.cfg.SetUserAttributes(attrs)
}

// SetExcludeExceptions sets the failure types that are never reported.
func (c *Client) SetExcludeExceptions(types ...string) *Client {
	c.cfg.SetExcludeExceptions(types)
	return c
}

// SetSDK overrides the notifier identity.
func (c *Client) SetSDK(name, version string) error {
	return c.cfg.SetSDK(config.SDK{Name: name, Version: version})
}

// SetUser merges the allowed fields of user into the reporting context.
func (c *Client) SetUser(user map[string]any) *Client {
	c.cfg.SetUser(user)
	return c
}

// SetMetaData deep-merges meta into the reporting context.
func (c *Client) SetMetaData(meta map[string]any) *Client {
	c.cfg.SetMetaData(meta)
	return c
}

// RegisterCallback appends fn to the enrichment chain.
func (c *Client) RegisterCallback(fn callbacks.Callback) *Client {
	c.chain.Register(fn)
	return c
}

// RegisterDefaultCallbacks registers the request, request-user and host
// name enrichers, in that order.
func (c *Client) RegisterDefaultCallbacks() *Client {
	for _, fn := range callbacks.Defaults() {
		c.chain.Register(fn)
	}
	return c
}

// CatchException reports err and its causes. Errors without a stack of
// their own are located at the caller.
func (c *Client) CatchException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	c.Capture(ctx, failure.FromError(err, 1))
}

// Capture enriches, formats and delivers ev. It never panics: a failure
// while building the report skips it.
func (c *Client) Capture(ctx context.Context, ev *failure.Event) {
	if ev == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("AfterBug Error: Couldn't build report. %v", r)
			c.metrics.skip(SkipPanic)
		}
	}()

	if c.excluded(ev) {
		c.metrics.skip(SkipExcluded)
		return
	}

	cfg := c.cfg.Clone()
	if req, ok := request.FromContext(ctx); ok {
		cfg.SetRequest(req)
	}
	c.chain.Run(cfg)

	r := report.Format(ev, cfg, c.reader)
	c.send(ctx, cfg, r)
}

func (c *Client) excluded(ev *failure.Event) bool {
	for _, link := range ev.Chain() {
		if c.cfg.IsExcluded(link.Type) {
			return true
		}
	}
	return false
}
