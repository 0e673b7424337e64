// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"fmt"
	"sync"
)

// ============================================================================
// SESSION STATISTICS
// ============================================================================

// SessionStats tracks cumulative routing statistics for a process.
// All methods are safe for concurrent use.
type SessionStats struct {
	mu sync.RWMutex

	// TotalQueries is the number of routed queries.
	TotalQueries int `json:"total_queries"`
	// PatternHits is the number of queries classified by the fast path.
	PatternHits int `json:"pattern_hits"`
	// CacheHits is the number of queries served from the classification cache.
	CacheHits int `json:"cache_hits"`
	// ModelCalls is the number of queries classified by a backend.
	ModelCalls int `json:"model_calls"`
	// Fallbacks is the number of queries that got the safe default.
	Fallbacks int `json:"fallbacks"`
	// Disabled is the number of queries routed while routing was off.
	Disabled int `json:"disabled"`
	// SmallModel is the number of queries sent to the small model.
	SmallModel int `json:"small_model"`
	// ByCategory counts queries per category.
	ByCategory map[Category]int `json:"by_category"`
}

// NewSessionStats creates a new SessionStats instance.
func NewSessionStats() *SessionStats {
	return &SessionStats{ByCategory: make(map[Category]int)}
}

// RecordDecision updates the counters with one decision.
func (s *SessionStats) RecordDecision(d RoutingDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalQueries++
	if d.UseSmallModel {
		s.SmallModel++
	}
	if s.ByCategory == nil {
		s.ByCategory = make(map[Category]int)
	}
	s.ByCategory[d.Classification.Category]++

	switch d.Source {
	case SourcePattern:
		s.PatternHits++
	case SourceCache:
		s.CacheHits++
	case SourceModel:
		s.ModelCalls++
	case SourceFallback:
		s.Fallbacks++
	case SourceDisabled:
		s.Disabled++
	}
}

// Summary returns a human-readable summary of the session statistics.
func (s *SessionStats) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.TotalQueries == 0 {
		return "No queries routed yet"
	}

	pct := func(n int) float64 {
		return float64(n) / float64(s.TotalQueries) * 100
	}

	return fmt.Sprintf(
		"Routing Stats: %d queries (%.0f%% pattern, %.0f%% cache, %.0f%% model, %.0f%% fallback) | %.0f%% small model",
		s.TotalQueries,
		pct(s.PatternHits),
		pct(s.CacheHits),
		pct(s.ModelCalls),
		pct(s.Fallbacks),
		pct(s.SmallModel),
	)
}

// Reset clears all counters.
func (s *SessionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalQueries = 0
	s.PatternHits = 0
	s.CacheHits = 0
	s.ModelCalls = 0
	s.Fallbacks = 0
	s.Disabled = 0
	s.SmallModel = 0
	s.ByCategory = make(map[Category]int)
}

// GetStats returns a copy of the current statistics (thread-safe snapshot).
func (s *SessionStats) GetStats() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCat := make(map[Category]int, len(s.ByCategory))
	for k, v := range s.ByCategory {
		byCat[k] = v
	}

	return SessionStats{
		TotalQueries: s.TotalQueries,
		PatternHits:  s.PatternHits,
		CacheHits:    s.CacheHits,
		ModelCalls:   s.ModelCalls,
		Fallbacks:    s.Fallbacks,
		Disabled:     s.Disabled,
		SmallModel:   s.SmallModel,
		ByCategory:   byCat,
	}
}

// FastPathPercent returns the share of queries that never reached a backend.
// Returns 0 if no queries have been routed.
func (s *SessionStats) FastPathPercent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.PatternHits+s.CacheHits) / float64(s.TotalQueries) * 100
}
