// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metrics holds the Prometheus instruments for the editing
// service. All operations are thread-safe via Prometheus's internal
// locking.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tabular"

// Metrics holds all Prometheus instruments. Initialize once at startup
// via Init().
type Metrics struct {
	// UploadsTotal counts file uploads. Labels: status (success, error)
	UploadsTotal *prometheus.CounterVec

	// MutationsTotal counts applied mutations. Labels: operation
	// (update_cell, add_row, delete_row, bulk_update, find_replace,
	// bulk_delete, delete_column, cleanup_duplicates)
	MutationsTotal *prometheus.CounterVec

	// UndosTotal counts undo requests. Labels: outcome (applied, empty)
	UndosTotal *prometheus.CounterVec

	// ChatRequestsTotal counts AI chat turns. Labels: status (success,
	// disabled, error)
	ChatRequestsTotal *prometheus.CounterVec

	// ActiveSessions tracks live editing sessions.
	ActiveSessions prometheus.GaugeFunc
}

// Init registers all instruments on the default registry. The
// sessionCount callback feeds the ActiveSessions gauge. Panics if
// called twice.
func Init(sessionCount func() float64) *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "uploads_total",
				Help:      "Total file uploads by status",
			},
			[]string{"status"},
		),
		MutationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "mutations_total",
				Help:      "Total applied mutations by operation",
			},
			[]string{"operation"},
		),
		UndosTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "undos_total",
				Help:      "Total undo requests by outcome",
			},
			[]string{"outcome"},
		),
		ChatRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "chat_requests_total",
				Help:      "Total AI chat turns by status",
			},
			[]string{"status"},
		),
		ActiveSessions: promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_sessions",
				Help:      "Live editing sessions",
			},
			sessionCount,
		),
	}
}
