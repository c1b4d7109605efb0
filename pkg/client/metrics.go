// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Reasons a report was skipped.
const (
	SkipExcluded = "excluded"
	SkipInvalid  = "invalid"
	SkipPanic    = "panic"
)

// Metrics counts delivery outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Sent    prometheus.Counter
	Failed  prometheus.Counter
	Skipped *prometheus.CounterVec
}

// NewMetrics creates the delivery counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "afterbug_reports_sent_total",
			Help: "Reports accepted by the collector.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "afterbug_reports_failed_total",
			Help: "Reports that could not be delivered.",
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "afterbug_reports_skipped_total",
			Help: "Captured failures that were not reported.",
		}, []string{"reason"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, col := range []prometheus.Collector{m.Sent, m.Failed, m.Skipped} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) sent() {
	if m != nil {
		m.Sent.Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.Failed.Inc()
	}
}

func (m *Metrics) skip(reason string) {
	if m != nil {
		m.Skipped.WithLabelValues(reason).Inc()
	}
}
