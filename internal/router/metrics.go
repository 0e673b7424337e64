// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
// PROMETHEUS METRICS
// ============================================================================

var (
	// routeDecisions counts routing decisions.
	// Labels: rule (decision-table row), source (pattern, cache, model, fallback, disabled)
	routeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "router",
		Name:      "decisions_total",
		Help:      "Routing decisions by decision rule and classification source",
	}, []string{"rule", "source"})

	// routeLatency measures end-to-end routing latency.
	// Labels: source
	routeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assistroute",
		Subsystem: "router",
		Name:      "latency_seconds",
		Help:      "Time to produce a routing decision",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"source"})

	// routeModel counts decisions per model tier.
	// Labels: tier (small, large)
	routeModel = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "router",
		Name:      "model_tier_total",
		Help:      "Routing decisions by model tier",
	}, []string{"tier"})
)

func recordMetrics(d RoutingDecision, seconds float64) {
	routeDecisions.WithLabelValues(d.Rule, string(d.Source)).Inc()
	routeLatency.WithLabelValues(string(d.Source)).Observe(seconds)
	tier := "large"
	if d.UseSmallModel {
		tier = "small"
	}
	routeModel.WithLabelValues(tier).Inc()
}
