// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookups counts cache lookups.
	// Labels: result (hit, miss, expired)
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "classification_cache",
		Name:      "lookups_total",
		Help:      "Classification cache lookups by result",
	}, []string{"result"})

	// evictions counts removed entries.
	// Labels: reason (expired, capacity)
	evictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistroute",
		Subsystem: "classification_cache",
		Name:      "evictions_total",
		Help:      "Classification cache evictions by reason",
	}, []string{"reason"})
)
