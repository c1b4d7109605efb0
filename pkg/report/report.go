// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package report builds the wire document delivered to the collector.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gowebpki/jcs"

	"github.com/afterbug/afterbug-go/pkg/config"
	"github.com/afterbug/afterbug-go/pkg/failure"
	"github.com/afterbug/afterbug-go/pkg/stacktrace"
)

// Platform is reported for every report built by this library.
const Platform = "go"

// Report is the document POSTed to the collector.
type Report struct {
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	Exception   Summary `json:"exception"`
	Platform    string  `json:"platform"`
	Environment string  `json:"environment"`
	Level       string  `json:"level"`
	Events      Events  `json:"events"`
}

// Summary locates the originating failure.
type Summary struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Code int    `json:"code"`
}

// Events carries the exception chain and the reporting context.
type Events struct {
	Exceptions []Exception    `json:"exceptions"`
	MetaData   map[string]any `json:"meta_data"`
	User       map[string]any `json:"user"`
	SDK        config.SDK     `json:"sdk"`
}

// Exception is one link of the causal chain.
type Exception struct {
	Type               string             `json:"type"`
	Message            string             `json:"message"`
	File               string             `json:"file"`
	Line               int                `json:"line"`
	Code               string             `json:"code"`
	CountIsApplication int                `json:"count_is_application"`
	StackTraces        []stacktrace.Frame `json:"stack_traces"`
}

// Format builds the report for ev and its causes, most recent first. The
// top-level fields always describe ev itself. Format only reads cfg. A nil
// reader uses stacktrace.DefaultSourceReader.
func Format(ev *failure.Event, cfg *config.Config, reader stacktrace.SourceReader) *Report {
	if ev == nil {
		return nil
	}

	paths := cfg.ApplicationPaths()
	chain := ev.Chain()
	exceptions := make([]Exception, 0, len(chain))
	for _, link := range chain {
		exceptions = append(exceptions, formatLink(link, paths, reader))
	}

	meta := cfg.MetaData()
	if meta == nil {
		meta = map[string]any{}
	}
	user := cfg.User()
	if user == nil {
		user = map[string]any{}
	}

	return &Report{
		Title:   ev.Type,
		Message: ev.Message,
		Exception: Summary{
			File: ev.File,
			Line: ev.Line,
			Code: ev.Code,
		},
		Platform:    Platform,
		Environment: cfg.Environment(),
		Level:       ev.Level(),
		Events: Events{
			Exceptions: exceptions,
			MetaData:   meta,
			User:       user,
			SDK:        cfg.SDK(),
		},
	}
}

func formatLink(link *failure.Event, paths []string, reader stacktrace.SourceReader) Exception {
	raw := link.Frames
	if len(raw) == 0 && link.File != "" {
		raw = []stacktrace.RawFrame{{File: link.File, Line: link.Line}}
	}
	frames := stacktrace.Classify(raw, paths, reader)

	return Exception{
		Type:               link.Type,
		Message:            link.Message,
		File:               link.File,
		Line:               link.Line,
		Code:               entryCode(link),
		CountIsApplication: stacktrace.CountApplication(frames),
		StackTraces:        frames,
	}
}

// entryCode is the symbolic severity name for runtime errors and the
// numeric code otherwise.
func entryCode(link *failure.Event) string {
	if link.Severity != 0 {
		return link.Severity.String()
	}
	return strconv.Itoa(link.Code)
}

// Encode serializes r as canonical JSON (RFC 8785), so identical reports
// always produce identical bodies.
func Encode(r *Report) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	return canonical, nil
}
