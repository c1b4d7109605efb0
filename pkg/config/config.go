// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config holds the reporting context attached to every report
// (API key, environment, SDK identity, application paths, user and
// metadata) and loads it from HJSON, JSON or YAML files.
package config

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/afterbug/afterbug-go/internal/merge"
	"github.com/afterbug/afterbug-go/pkg/request"
)

// Endpoint is the default collector URL.
const Endpoint = "https://notify.afterbug.net"

// DefaultEnvironment is reported when no environment is set.
const DefaultEnvironment = "local"

// APIKeyEnv names the environment variable consulted when a client is
// created without an API key.
const APIKeyEnv = "AFTERBUG_API_KEY"

// SDK identifies the notifier library in reports.
type SDK struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DefaultSDK is the identity of this library.
var DefaultSDK = SDK{Name: "AfterBug Go", Version: "1.0.0"}

// DefaultUserAttributes are the user fields kept by SetUser by default.
var DefaultUserAttributes = []string{"id", "name", "email"}

// ConfigurationError reports an invalid setting. It is returned when the
// setting is applied, never when a failure is captured.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("afterbug: invalid %s: %s", e.Field, e.Message)
}

// Config is the reporting context. All methods are safe for concurrent
// use; getters return copies.
type Config struct {
	mu                sync.RWMutex
	apiKey            string
	environment       string
	sdk               SDK
	applicationPaths  []string
	userAttributes    []string
	excludeExceptions []string
	user              map[string]any
	metaData          map[string]any
	request           request.Request
}

// New creates a context for apiKey with default settings.
func New(apiKey string) *Config {
	return &Config{
		apiKey:         apiKey,
		sdk:            DefaultSDK,
		userAttributes: slices.Clone(DefaultUserAttributes),
		user:           map[string]any{},
		metaData:       map[string]any{},
		request:        request.Null{},
	}
}

// APIKey returns the API key.
func (c *Config) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// SetAPIKey replaces the API key.
func (c *Config) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// SetSDK replaces the notifier identity. The name is required.
func (c *Config) SetSDK(sdk SDK) error {
	if strings.TrimSpace(sdk.Name) == "" {
		return &ConfigurationError{Field: "sdk", Message: "name is required"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sdk = sdk
	return nil
}

// SDK returns the notifier identity.
func (c *Config) SDK() SDK {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sdk
}

// SetEnvironment sets the environment name. An empty name restores the
// default.
func (c *Config) SetEnvironment(env string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.environment = env
}

// Environment returns the environment name, "local" when unset.
func (c *Config) Environment() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.environment == "" {
		return DefaultEnvironment
	}
	return c.environment
}

// SetApplicationPaths sets the path prefixes that mark a stack frame as
// application code. Empty prefixes are rejected.
func (c *Config) SetApplicationPaths(paths []string) error {
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return &ConfigurationError{
				Field:   "application_paths",
				Message: fmt.Sprintf("entry %d is empty", i),
			}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applicationPaths = slices.Clone(paths)
	return nil
}

// ApplicationPaths returns the application path prefixes in order.
func (c *Config) ApplicationPaths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.applicationPaths)
}

// SetUserAttributes sets the allow-list of user fields. User data already
// stored is filtered to the new list.
func (c *Config) SetUserAttributes(attrs []string) error {
	seen := make(map[string]bool, len(attrs))
	for i, a := range attrs {
		if strings.TrimSpace(a) == "" {
			return &ConfigurationError{
				Field:   "user_attributes",
				Message: fmt.Sprintf("entry %d is empty", i),
			}
		}
		if seen[a] {
			return &ConfigurationError{
				Field:   "user_attributes",
				Message: fmt.Sprintf("duplicate attribute %q", a),
			}
		}
		seen[a] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.userAttributes = slices.Clone(attrs)
	for k := range c.user {
		if !seen[k] {
			delete(c.user, k)
		}
	}
	return nil
}

// UserAttributes returns the allow-list of user fields.
func (c *Config) UserAttributes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.userAttributes)
}

// SetUser merges the allowed fields of user into the stored user data.
// Fields outside the allow-list are dropped.
func (c *Config) SetUser(user map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		c.user = make(map[string]any)
	}
	for k, v := range user {
		if slices.Contains(c.userAttributes, k) {
			c.user[k] = merge.Normalize(v)
		}
	}
}

// User returns a copy of the user data.
func (c *Config) User() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return merge.Copy(c.user)
}

// SetMetaData deep-merges meta into the stored metadata. Writes to a path
// that already holds a value coalesce into a list instead of overwriting.
func (c *Config) SetMetaData(meta map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metaData = merge.Deep(c.metaData, meta)
}

// MetaData returns a copy of the metadata.
func (c *Config) MetaData() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return merge.Copy(c.metaData)
}

// SetExcludeExceptions sets the failure types that are never reported.
func (c *Config) SetExcludeExceptions(types []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.excludeExceptions = slices.Clone(types)
}

// ExcludeExceptions returns the excluded failure types.
func (c *Config) ExcludeExceptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.excludeExceptions)
}

// IsExcluded reports whether failures of the given type are excluded.
func (c *Config) IsExcluded(typeName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.excludeExceptions, typeName)
}

// SetRequest sets the inbound request enrichers read from. A nil request
// restores request.Null.
func (c *Config) SetRequest(req request.Request) {
	if req == nil {
		req = request.Null{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = req
}

// Request returns the inbound request.
func (c *Config) Request() request.Request {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.request
}

// Clone returns an independent copy of the context.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Config{
		apiKey:            c.apiKey,
		environment:       c.environment,
		sdk:               c.sdk,
		applicationPaths:  slices.Clone(c.applicationPaths),
		userAttributes:    slices.Clone(c.userAttributes),
		excludeExceptions: slices.Clone(c.excludeExceptions),
		user:              merge.Copy(c.user),
		metaData:          merge.Copy(c.metaData),
		request:           c.request,
	}
}
