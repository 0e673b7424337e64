// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates ledger entries recorded since a point in time.
type Summary struct {
	Since      time.Time      `json:"since"`
	Total      int            `json:"total"`
	SmallModel int            `json:"small_model"`
	BySource   map[string]int `json:"by_source"`
	ByRule     map[string]int `json:"by_rule"`
	ByCategory map[string]int `json:"by_category"`
	AvgLatency time.Duration  `json:"avg_latency"`
	MaxLatency time.Duration  `json:"max_latency"`
}

// SmallModelShare returns the fraction of turns answered by the small model.
func (s Summary) SmallModelShare() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.SmallModel) / float64(s.Total)
}

// Summary aggregates entries recorded at or after since.
func (l *Ledger) Summary(ctx context.Context, since time.Time) (Summary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{
		Since:      since,
		BySource:   make(map[string]int),
		ByRule:     make(map[string]int),
		ByCategory: make(map[string]int),
	}
	if l.closed {
		return s, ErrClosed
	}

	var avgUs, maxUs float64
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(small_model), 0),
		        COALESCE(AVG(latency_us), 0), COALESCE(MAX(latency_us), 0)
		 FROM routing_decisions WHERE recorded_at >= ?`, since.UnixMicro(),
	).Scan(&s.Total, &s.SmallModel, &avgUs, &maxUs)
	if err != nil {
		return s, fmt.Errorf("failed to summarize decisions: %w", err)
	}
	s.AvgLatency = time.Duration(avgUs) * time.Microsecond
	s.MaxLatency = time.Duration(maxUs) * time.Microsecond

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"source", s.BySource},
		{"rule", s.ByRule},
		{"category", s.ByCategory},
	}
	for _, g := range groups {
		if err := l.countBy(ctx, g.column, since, g.into); err != nil {
			return s, err
		}
	}
	return s, nil
}

// countBy fills into with per-value counts. column is one of the fixed
// names above, never user input.
func (l *Ledger) countBy(ctx context.Context, column string, since time.Time, into map[string]int) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM routing_decisions WHERE recorded_at >= ? GROUP BY `+column,
		since.UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to group decisions by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s group: %w", column, err)
		}
		into[key] = count
	}
	return rows.Err()
}

// String renders a plain-text report.
func (s Summary) String() string {
	if s.Total == 0 {
		return "No routed turns recorded."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d turns since %s\n", s.Total, s.Since.Format(time.RFC3339))
	fmt.Fprintf(&b, "Small model: %d (%.0f%%)\n", s.SmallModel, s.SmallModelShare()*100)
	fmt.Fprintf(&b, "Latency: avg %s, max %s\n", s.AvgLatency.Round(time.Microsecond), s.MaxLatency.Round(time.Microsecond))
	writeCounts(&b, "By source", s.BySource)
	writeCounts(&b, "By rule", s.ByRule)
	writeCounts(&b, "By category", s.ByCategory)
	return strings.TrimRight(b.String(), "\n")
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Highest count first, then by name.
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-20s %d\n", k, counts[k])
	}
}
