// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the routing cascade over HTTP.
//
// # Endpoints
//
//   - POST /v1/route     - Route a message; returns the decision and visible tools
//   - POST /v1/classify  - Classify a message without deciding
//   - GET  /v1/tools     - Tool catalog and named groups
//   - GET  /health       - Health check (probes the local backend)
//   - GET  /stats        - Session counters, cache stats, 24h ledger summary
//   - POST /cache/clear  - Clear the classification cache
//   - GET  /metrics      - Prometheus metrics
//
// Requests pass through recovery, security header, logging and optional
// per-client rate limiting middleware.
//
// # Usage
//
//	srv := server.NewServer("127.0.0.1:8787", r).
//		WithCache(classificationCache).
//		WithLedger(ledger).
//		WithRateLimiter(server.DefaultRateLimiter())
//	if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
//		return err
//	}
package server
