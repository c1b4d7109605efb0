// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 10 * time.Second

// File is the on-disk client configuration.
type File struct {
	APIKey            string   `json:"api_key" yaml:"api_key"`
	Environment       string   `json:"environment" yaml:"environment"`
	Endpoint          string   `json:"endpoint" yaml:"endpoint"`
	Timeout           string   `json:"timeout" yaml:"timeout"`
	ApplicationPaths  []string `json:"application_paths" yaml:"application_paths"`
	UserAttributes    []string `json:"user_attributes" yaml:"user_attributes"`
	ExcludeExceptions []string `json:"exclude_exceptions" yaml:"exclude_exceptions"`
	SDK               *SDK     `json:"sdk" yaml:"sdk"`
}

// TimeoutDuration parses Timeout, returning DefaultTimeout when unset.
func (f *File) TimeoutDuration() (time.Duration, error) {
	if f.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parse timeout: %w", err)
	}
	return d, nil
}

// Apply copies the file settings onto c. Unset fields leave c unchanged.
func (f *File) Apply(c *Config) error {
	if f.APIKey != "" {
		c.SetAPIKey(f.APIKey)
	}
	if f.Environment != "" {
		c.SetEnvironment(f.Environment)
	}
	if f.ApplicationPaths != nil {
		if err := c.SetApplicationPaths(f.ApplicationPaths); err != nil {
			return err
		}
	}
	if f.UserAttributes != nil {
		if err := c.SetUserAttributes(f.UserAttributes); err != nil {
			return err
		}
	}
	if f.ExcludeExceptions != nil {
		c.SetExcludeExceptions(f.ExcludeExceptions)
	}
	if f.SDK != nil {
		if err := c.SetSDK(*f.SDK); err != nil {
			return err
		}
	}
	return nil
}

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration at path. Files ending in .yaml
// or .yml are YAML; anything else is parsed as HJSON, which also accepts
// plain JSON.
func (l *Loader) Load(ctx context.Context, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		// Parse HJSON to intermediate map
		var raw map[string]interface{}
		if err := hjson.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse hjson: %w", err)
		}

		// Convert to JSON and unmarshal to struct (for type safety)
		jsonData, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("convert to json: %w", err)
		}
		if err := json.Unmarshal(jsonData, &f); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	return &f, nil
}

// LoadWithDefaults loads config with default values applied and
// validates it.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*File, error) {
	f, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	applyDefaults(f)
	if err := NewValidator().Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// FindConfig searches dir for afterbug.hjson, afterbug.json, afterbug.yaml
// and afterbug.yml, in that order.
func (l *Loader) FindConfig(dir string) (string, error) {
	candidates := []string{
		"afterbug.hjson",
		"afterbug.json",
		"afterbug.yaml",
		"afterbug.yml",
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found in %s (looked for %s)", dir, strings.Join(candidates, ", "))
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(f *File) {
	if f.Environment == "" {
		f.Environment = DefaultEnvironment
	}
	if f.Endpoint == "" {
		f.Endpoint = Endpoint
	}
	if f.Timeout == "" {
		f.Timeout = DefaultTimeout.String()
	}
	if f.UserAttributes == nil {
		f.UserAttributes = append([]string(nil), DefaultUserAttributes...)
	}
}
