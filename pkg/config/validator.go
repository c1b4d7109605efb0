// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator validates configuration files.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(f *File) error {
	errs := &ValidationError{}

	v.validateEndpoint(f, errs)
	v.validateTimeout(f, errs)
	v.validatePaths(f, errs)
	v.validateUserAttributes(f, errs)
	v.validateSDK(f, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateEndpoint(f *File, errs *ValidationError) {
	if f.Endpoint == "" {
		return
	}
	u, err := url.Parse(f.Endpoint)
	if err != nil {
		errs.Add("endpoint", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("endpoint", "scheme must be http or https")
	}
	if u.Host == "" {
		errs.Add("endpoint", "host is required")
	}
}

func (v *Validator) validateTimeout(f *File, errs *ValidationError) {
	if f.Timeout == "" {
		return
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		errs.Add("timeout", fmt.Sprintf("invalid duration %q", f.Timeout))
		return
	}
	if d <= 0 {
		errs.Add("timeout", "must be positive")
	}
}

func (v *Validator) validatePaths(f *File, errs *ValidationError) {
	for i, p := range f.ApplicationPaths {
		if strings.TrimSpace(p) == "" {
			errs.Add(fmt.Sprintf("application_paths[%d]", i), "is empty")
		}
	}
}

func (v *Validator) validateUserAttributes(f *File, errs *ValidationError) {
	seen := make(map[string]bool)
	for i, a := range f.UserAttributes {
		field := fmt.Sprintf("user_attributes[%d]", i)
		if strings.TrimSpace(a) == "" {
			errs.Add(field, "is empty")
			continue
		}
		if seen[a] {
			errs.Add(field, fmt.Sprintf("duplicate attribute %q", a))
		}
		seen[a] = true
	}
}

func (v *Validator) validateSDK(f *File, errs *ValidationError) {
	if f.SDK != nil && strings.TrimSpace(f.SDK.Name) == "" {
		errs.Add("sdk.name", "is required")
	}
}
