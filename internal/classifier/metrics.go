// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// PROMETHEUS METRICS
// =============================================================================

var (
	// backendCalls counts backend attempts.
	// Labels: backend (local, remote), outcome (success, error, timeout, parse_error, unavailable)
	backendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "classifier",
		Name:      "backend_calls_total",
		Help:      "Slow-path backend attempts by outcome",
	}, []string{"backend", "outcome"})

	// backendLatency measures backend call latency.
	// Labels: backend, outcome
	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assistroute",
		Subsystem: "classifier",
		Name:      "backend_latency_seconds",
		Help:      "Slow-path backend call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
	}, []string{"backend", "outcome"})

	// slowPathResults counts how the slow path resolved.
	// Labels: source (cache, model, fallback)
	slowPathResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "classifier",
		Name:      "results_total",
		Help:      "Slow-path classifications by source",
	}, []string{"source"})

	// coalesced counts callers that shared another caller's backend call.
	coalesced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "classifier",
		Name:      "coalesced_total",
		Help:      "Cache misses served by an in-flight identical request",
	})
)

func recordBackend(backend, outcome string, seconds float64) {
	backendCalls.WithLabelValues(backend, outcome).Inc()
	if outcome != outcomeUnavailable {
		backendLatency.WithLabelValues(backend, outcome).Observe(seconds)
	}
}
