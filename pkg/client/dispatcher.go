// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/afterbug/afterbug-go/pkg/config"
	"github.com/afterbug/afterbug-go/pkg/report"
)

// Delivery headers.
const (
	TokenHeader    = "AfterBug-Token"
	ReportIDHeader = "AfterBug-Report-Id"
)

// maxErrorBody bounds how much of a rejected response is kept.
const maxErrorBody = 4 << 10

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeliveryError is a report the collector rejected.
type DeliveryError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("collector returned status %d: %s", e.StatusCode, e.Body)
}

// send encodes r and delivers it once with the credentials and identity of
// the capture's context. Failures are logged and dropped.
func (c *Client) send(ctx context.Context, cfg *config.Config, r *report.Report) {
	body, err := report.Encode(r)
	if err != nil {
		c.logger.Printf("AfterBug Error: Couldn't encode report. %v", err)
		c.metrics.skip(SkipInvalid)
		return
	}
	if c.validate {
		if err := report.Validate(body); err != nil {
			c.logger.Printf("AfterBug Error: Invalid report. %v", err)
			c.metrics.skip(SkipInvalid)
			return
		}
	}

	if err := c.deliver(ctx, cfg.APIKey(), cfg.SDK(), body); err != nil {
		c.logger.Printf("AfterBug Error: Couldn't notify. %v", err)
		c.metrics.failed()
		return
	}
	c.metrics.sent()
}

// deliver performs a single POST of body to the collector.
func (c *Client) deliver(ctx context.Context, apiKey string, sdk config.SDK, body []byte) error {
	// A report still goes out when the failing request was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", strings.TrimSpace(sdk.Name+" "+sdk.Version))
	req.Header.Set(TokenHeader, apiKey)
	req.Header.Set(ReportIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
