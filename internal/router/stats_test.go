// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"strings"
	"testing"
)

func TestSessionStats(t *testing.T) {
	s := NewSessionStats()
	if s.Summary() != "No queries routed yet" {
		t.Errorf("empty Summary = %q", s.Summary())
	}

	s.RecordDecision(RoutingDecision{Source: SourcePattern, UseSmallModel: true, Classification: cls(ComplexitySimple, CategoryGreeting, 1)})
	s.RecordDecision(RoutingDecision{Source: SourceCache, Classification: cls(ComplexityComplex, CategoryResearch, 1)})
	s.RecordDecision(RoutingDecision{Source: SourceModel, Classification: cls(ComplexityComplex, CategoryResearch, 1)})
	s.RecordDecision(RoutingDecision{Source: SourceFallback, Classification: DefaultClassification()})

	snap := s.GetStats()
	if snap.TotalQueries != 4 || snap.PatternHits != 1 || snap.CacheHits != 1 || snap.ModelCalls != 1 || snap.Fallbacks != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.SmallModel != 1 {
		t.Errorf("SmallModel = %d, want 1", snap.SmallModel)
	}
	if snap.ByCategory[CategoryResearch] != 2 {
		t.Errorf("ByCategory[research] = %d, want 2", snap.ByCategory[CategoryResearch])
	}
	if got := s.FastPathPercent(); got != 50 {
		t.Errorf("FastPathPercent = %v, want 50", got)
	}
	if !strings.Contains(s.Summary(), "4 queries") {
		t.Errorf("Summary = %q", s.Summary())
	}

	snap.ByCategory[CategoryResearch] = 100
	if s.GetStats().ByCategory[CategoryResearch] != 2 {
		t.Error("snapshot shares ByCategory with live stats")
	}

	s.Reset()
	if s.GetStats().TotalQueries != 0 {
		t.Error("Reset did not clear TotalQueries")
	}
}
