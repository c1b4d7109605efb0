// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeep_DisjointKeys(t *testing.T) {
	dst := map[string]any{"device": map[string]any{"hostname": "a"}}
	Deep(dst, map[string]any{"device": map[string]any{"os": "linux"}})

	assert.Equal(t, map[string]any{
		"device": map[string]any{"hostname": "a", "os": "linux"},
	}, dst)
}

func TestDeep_CollidingLeafCoalesces(t *testing.T) {
	dst := map[string]any{}
	Deep(dst, map[string]any{"device": map[string]any{"hostname": "a"}})
	Deep(dst, map[string]any{"device": map[string]any{"hostname": "b"}})

	assert.Equal(t, map[string]any{
		"device": map[string]any{"hostname": []any{"a", "b"}},
	}, dst)

	Deep(dst, map[string]any{"device": map[string]any{"hostname": "c"}})
	assert.Equal(t, []any{"a", "b", "c"}, dst["device"].(map[string]any)["hostname"])
}

func TestDeep_ListsConcatenate(t *testing.T) {
	dst := Deep(nil, map[string]any{"tags": []string{"x"}})
	Deep(dst, map[string]any{"tags": []string{"x", "y"}})
	assert.Equal(t, []any{"x", "x", "y"}, dst["tags"])

	Deep(dst, map[string]any{"tags": "z"})
	assert.Equal(t, []any{"x", "x", "y", "z"}, dst["tags"])
}

func TestDeep_MapAndScalarCoalesce(t *testing.T) {
	dst := Deep(nil, map[string]any{"k": map[string]any{"a": 1}})
	Deep(dst, map[string]any{"k": 2})

	assert.Equal(t, []any{map[string]any{"a": 1}, 2}, dst["k"])
}

func TestDeep_DoesNotAliasSource(t *testing.T) {
	src := map[string]any{"request": map[string]any{"headers": map[string][]string{"Accept": {"*/*"}}}}
	dst := Deep(nil, src)

	src["request"].(map[string]any)["headers"].(map[string][]string)["Accept"][0] = "changed"

	headers := dst["request"].(map[string]any)["headers"].(map[string]any)
	assert.Equal(t, []any{"*/*"}, headers["Accept"])
}

func TestCopy(t *testing.T) {
	assert.Nil(t, Copy(nil))

	orig := map[string]any{"a": map[string]any{"b": []any{1}}}
	cp := Copy(orig)
	cp["a"].(map[string]any)["b"] = "x"

	assert.Equal(t, []any{1}, orig["a"].(map[string]any)["b"])
}
