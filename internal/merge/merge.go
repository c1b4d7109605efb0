// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package merge implements the recursive metadata merge used by the
// reporting context.
//
// Merging never overwrites a leaf. When two writes land on the same path:
//
//   - two maps are merged key by key
//   - anything else coalesces into a list holding the existing value(s)
//     followed by the new value(s)
//
// So merging {"a": 1} into {"a": 2} gives {"a": [2, 1]}, and merging
// {"a": 3} into that gives {"a": [2, 1, 3]}.
package merge

// Deep merges src into dst and returns dst. A nil dst is allocated.
// Values taken from src are normalized and copied, so later mutation of
// src does not leak into dst.
func Deep(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		v = Normalize(v)
		existing, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		dst[k] = combine(existing, v)
	}
	return dst
}

func combine(existing, incoming any) any {
	em, eok := existing.(map[string]any)
	im, iok := incoming.(map[string]any)
	if eok && iok {
		return Deep(em, im)
	}

	out := asList(existing)
	return append(out, asList(incoming)...)
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		out := make([]any, len(l))
		copy(out, l)
		return out
	}
	return []any{v}
}

// Normalize converts the container shapes commonly produced by request
// adapters (string maps, header maps, string slices) into map[string]any
// and []any, recursively, returning a fresh copy. Other values are
// returned unchanged.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = vv
		}
		return out
	case map[string][]string:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = Normalize(vv)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = vv
		}
		return out
	default:
		return v
	}
}

// Copy returns a deep copy of m.
func Copy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Normalize(m).(map[string]any)
}
