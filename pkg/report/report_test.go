// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afterbug/afterbug-go/pkg/config"
	"github.com/afterbug/afterbug-go/pkg/failure"
	"github.com/afterbug/afterbug-go/pkg/stacktrace"
)

type fakeReader map[string][]string

func (f fakeReader) Lines(path string) ([]string, error) {
	lines, ok := f[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return lines, nil
}

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func chainOf(n int) *failure.Event {
	var ev *failure.Event
	for i := n - 1; i >= 0; i-- {
		ev = &failure.Event{
			Kind:    failure.KindException,
			Type:    fmt.Sprintf("Err%d", i),
			Message: fmt.Sprintf("link %d", i),
			Code:    i,
			File:    fmt.Sprintf("/app/src/f%d.go", i),
			Line:    10 + i,
			Cause:   ev,
		}
	}
	return ev
}

func TestFormat_ChainOrdering(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("links=%d", n), func(t *testing.T) {
			r := Format(chainOf(n), config.New("k1"), fakeReader{})

			require.Len(t, r.Events.Exceptions, n)
			for i, ex := range r.Events.Exceptions {
				assert.Equal(t, fmt.Sprintf("Err%d", i), ex.Type)
				assert.Equal(t, fmt.Sprintf("link %d", i), ex.Message)
				assert.Equal(t, 10+i, ex.Line)
			}

			assert.Equal(t, "Err0", r.Title)
			assert.Equal(t, "link 0", r.Message)
			assert.Equal(t, Summary{File: "/app/src/f0.go", Line: 10, Code: 0}, r.Exception)
		})
	}
}

func TestFormat_ContextFields(t *testing.T) {
	cfg := config.New("k1")
	cfg.SetEnvironment("production")
	cfg.SetUser(map[string]any{"id": 7})
	cfg.SetMetaData(map[string]any{"device": map[string]any{"hostname": "web-1"}})

	r := Format(chainOf(1), cfg, fakeReader{})

	assert.Equal(t, "go", r.Platform)
	assert.Equal(t, "production", r.Environment)
	assert.Equal(t, map[string]any{"id": 7}, r.Events.User)
	assert.Equal(t, map[string]any{"device": map[string]any{"hostname": "web-1"}}, r.Events.MetaData)
	assert.Equal(t, config.DefaultSDK, r.Events.SDK)
}

func TestFormat_DoesNotMutateContext(t *testing.T) {
	cfg := config.New("k1")
	cfg.SetMetaData(map[string]any{"a": 1})

	r := Format(chainOf(1), cfg, fakeReader{})
	r.Events.MetaData["a"] = 2
	r.Events.User["id"] = "x"

	assert.Equal(t, map[string]any{"a": 1}, cfg.MetaData())
	assert.Empty(t, cfg.User())
}

func TestFormat_Level(t *testing.T) {
	tests := []struct {
		name  string
		ev    *failure.Event
		level string
		code  string
	}{
		{"exception", &failure.Event{Kind: failure.KindException, Type: "E", Code: 3}, "error", "3"},
		{"notice", failure.NewError(failure.CodeUserNotice, "n", "a.go", 1), "info", "E_USER_NOTICE"},
		{"warning", failure.NewError(failure.CodeWarning, "w", "a.go", 1), "warning", "E_WARNING"},
		{"fatal", failure.NewError(failure.CodeError, "f", "a.go", 1), "fatal", "E_ERROR"},
		{"deprecated", failure.NewError(failure.CodeDeprecated, "d", "a.go", 1), "error", "E_DEPRECATED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Format(tt.ev, config.New("k1"), fakeReader{})
			assert.Equal(t, tt.level, r.Level)
			assert.Equal(t, tt.code, r.Events.Exceptions[0].Code)
		})
	}
}

func TestFormat_StackTraces(t *testing.T) {
	cfg := config.New("k1")
	require.NoError(t, cfg.SetApplicationPaths([]string{"/app/src"}))
	reader := fakeReader{"/app/src/a.go": numbered(30)}

	ev := &failure.Event{
		Kind:    failure.KindException,
		Type:    "RuntimeError",
		Message: "boom",
		File:    "/app/src/a.go",
		Line:    15,
		Frames: []stacktrace.RawFrame{
			{File: "/app/src/a.go", Line: 15, Function: "handle", Class: "main.(*Server)"},
			{File: "/vendor/b.go", Line: 3, Function: "lib.Call"},
		},
	}

	r := Format(ev, cfg, reader)
	ex := r.Events.Exceptions[0]
	require.Len(t, ex.StackTraces, 2)
	assert.Equal(t, 1, ex.CountIsApplication)

	first := ex.StackTraces[0]
	assert.True(t, first.InApp)
	assert.Equal(t, "main.(*Server)", first.Class)
	assert.Equal(t, 5, first.LineStart)
	assert.Len(t, first.Context, 20)

	second := ex.StackTraces[1]
	assert.False(t, second.InApp)
	assert.Nil(t, second.Context)
	assert.Equal(t, 0, second.LineStart)
}

func TestFormat_FrameFromLocationWhenNoStack(t *testing.T) {
	ev := &failure.Event{Type: "RuntimeError", Message: "boom", File: "app.go", Line: 42}

	r := Format(ev, config.New("k1"), fakeReader{})
	require.Len(t, r.Events.Exceptions[0].StackTraces, 1)
	assert.Equal(t, "app.go", r.Events.Exceptions[0].StackTraces[0].File)
	assert.Equal(t, 42, r.Events.Exceptions[0].StackTraces[0].Line)
}

func TestFormat_Nil(t *testing.T) {
	assert.Nil(t, Format(nil, config.New("k1"), nil))
}

func TestEncode_CanonicalAndValid(t *testing.T) {
	ev := failure.NewError(failure.CodeWarning, "careful", "/app/src/a.go", 15)
	r := Format(ev, config.New("k1"), fakeReader{"/app/src/a.go": numbered(30)})

	data, err := Encode(r)
	require.NoError(t, err)
	require.NoError(t, Validate(data))

	// Canonical form sorts keys and carries no insignificant whitespace.
	assert.True(t, bytes.HasPrefix(data, []byte(`{"environment":"local","events":{`)))
	assert.NotContains(t, string(data), "\n")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Warning", decoded["title"])
	assert.Equal(t, "warning", decoded["level"])
	events := decoded["events"].(map[string]any)
	assert.Equal(t, map[string]any{}, events["meta_data"])
	assert.Equal(t, map[string]any{}, events["user"])
}

func TestEncode_Deterministic(t *testing.T) {
	cfg := config.New("k1")
	cfg.SetMetaData(map[string]any{"z": 1, "a": map[string]any{"y": 2, "b": 3}})

	first, err := Encode(Format(chainOf(2), cfg, fakeReader{}))
	require.NoError(t, err)
	second, err := Encode(Format(chainOf(2), cfg, fakeReader{}))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate_Rejects(t *testing.T) {
	assert.Error(t, Validate([]byte(`{"title":"x"}`)))

	data, err := Encode(Format(chainOf(1), config.New("k1"), fakeReader{}))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["level"] = "panic"
	bad, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Error(t, Validate(bad))
}

func TestSchema_ReturnsCopy(t *testing.T) {
	s := Schema()
	s[0] = 'x'
	assert.Equal(t, byte('{'), Schema()[0])
}
