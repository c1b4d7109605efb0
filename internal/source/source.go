// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package source reads source files line by line for stack frame context.
package source

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

const defaultMaxFiles = 128

// Reader returns the lines of source files, caching recently read files.
// It is safe for concurrent use.
type Reader struct {
	mu       sync.Mutex
	files    map[string][]string
	order    []string
	maxFiles int
}

// NewReader creates a reader that caches up to maxFiles files.
// A non-positive maxFiles uses the default.
func NewReader(maxFiles int) *Reader {
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	return &Reader{
		files:    make(map[string][]string),
		maxFiles: maxFiles,
	}
}

// Lines returns every line of the named file without line terminators.
func (r *Reader) Lines(path string) ([]string, error) {
	r.mu.Lock()
	if lines, ok := r.files[path]; ok {
		r.mu.Unlock()
		return lines, nil
	}
	r.mu.Unlock()

	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[path]; !ok {
		if len(r.order) >= r.maxFiles {
			oldest := r.order[0]
			r.order = r.order[1:]
			delete(r.files, oldest)
		}
		r.order = append(r.order, path)
	}
	r.files[path] = lines
	return lines, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return lines, nil
}
