// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate_ValidConfig(t *testing.T) {
	f := &File{
		APIKey:           "k1",
		Endpoint:         "https://notify.afterbug.net",
		Timeout:          "5s",
		ApplicationPaths: []string{"/srv/app"},
		UserAttributes:   []string{"id", "email"},
		SDK:              &SDK{Name: "AfterBug Go"},
	}

	assert.NoError(t, NewValidator().Validate(f))
	assert.NoError(t, NewValidator().Validate(&File{}))
}

func TestValidator_Validate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		file        *File
		errContains string
	}{
		{"bad scheme", &File{Endpoint: "ftp://host"}, "endpoint: scheme must be http or https"},
		{"no host", &File{Endpoint: "http://"}, "endpoint: host is required"},
		{"bad timeout", &File{Timeout: "soon"}, `timeout: invalid duration "soon"`},
		{"zero timeout", &File{Timeout: "0s"}, "timeout: must be positive"},
		{"empty path", &File{ApplicationPaths: []string{"/a", ""}}, "application_paths[1]: is empty"},
		{"empty attribute", &File{UserAttributes: []string{""}}, "user_attributes[0]: is empty"},
		{"duplicate attribute", &File{UserAttributes: []string{"id", "id"}}, `user_attributes[1]: duplicate attribute "id"`},
		{"sdk name", &File{SDK: &SDK{Version: "1"}}, "sdk.name: is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().Validate(tt.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidationError_Joins(t *testing.T) {
	errs := &ValidationError{}
	assert.True(t, errs.IsEmpty())

	errs.Add("a", "one")
	errs.Add("b", "two")
	assert.False(t, errs.IsEmpty())
	assert.Equal(t, "a: one; b: two", errs.Error())
}
