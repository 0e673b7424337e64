// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/assistroute/internal/router"
)

// ErrClosed is returned by operations on a closed ledger.
var ErrClosed = errors.New("telemetry ledger is closed")

// =============================================================================
// LEDGER
// =============================================================================

// Entry is one recorded routing decision.
type Entry struct {
	ID         string        `json:"id"`
	Time       time.Time     `json:"time"`
	Source     string        `json:"source"`
	Rule       string        `json:"rule"`
	Category   string        `json:"category"`
	Complexity string        `json:"complexity"`
	Confidence float64       `json:"confidence"`
	Model      string        `json:"model"`
	SmallModel bool          `json:"small_model"`
	Latency    time.Duration `json:"latency"`
	// ToolCount is -1 when every tool was visible.
	ToolCount int `json:"tool_count"`
}

// Ledger persists routing decisions to SQLite. It implements
// router.Recorder and is safe for concurrent use.
type Ledger struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
	now    func() time.Time
}

// Open opens (or creates) the ledger database at path.
// Use ":memory:" for an in-memory ledger.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("telemetry: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS routing_decisions (
			id          TEXT PRIMARY KEY,
			recorded_at INTEGER NOT NULL,
			source      TEXT NOT NULL,
			rule        TEXT NOT NULL,
			category    TEXT NOT NULL,
			complexity  TEXT NOT NULL,
			confidence  REAL NOT NULL,
			model       TEXT NOT NULL,
			small_model INTEGER NOT NULL,
			latency_us  INTEGER NOT NULL,
			tool_count  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routing_decisions_time ON routing_decisions(recorded_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// RecordDecision appends d to the ledger.
func (l *Ledger) RecordDecision(ctx context.Context, d router.RoutingDecision, latency time.Duration) error {
	return l.Append(ctx, EntryFromDecision(d, l.now(), latency))
}

// Append writes one entry. A duplicate id is an error.
func (l *Ledger) Append(ctx context.Context, e Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO routing_decisions
			(id, recorded_at, source, rule, category, complexity, confidence, model, small_model, latency_us, tool_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixMicro(), e.Source, e.Rule, e.Category, e.Complexity,
		e.Confidence, e.Model, boolToInt(e.SmallModel), e.Latency.Microseconds(), e.ToolCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record decision %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, recorded_at, source, rule, category, complexity, confidence, model, small_model, latency_us, tool_count
		 FROM routing_decisions ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			at, latUs int64
			small     int
		)
		if err := rows.Scan(&e.ID, &at, &e.Source, &e.Rule, &e.Category, &e.Complexity,
			&e.Confidence, &e.Model, &small, &latUs, &e.ToolCount); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		e.Time = time.UnixMicro(at)
		e.SmallModel = small != 0
		e.Latency = time.Duration(latUs) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes entries recorded before t and returns how many
// were removed.
func (l *Ledger) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}

	res, err := l.db.ExecContext(ctx, `DELETE FROM routing_decisions WHERE recorded_at < ?`, t.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("failed to prune decisions: %w", err)
	}
	return res.RowsAffected()
}

// EntryFromDecision converts a decision into a ledger entry. The query
// text is not part of a decision and is never stored.
func EntryFromDecision(d router.RoutingDecision, at time.Time, latency time.Duration) Entry {
	count := -1
	if d.ToolSubset != nil {
		count = d.ToolSubset.Len()
	}
	return Entry{
		ID:         d.ID,
		Time:       at,
		Source:     string(d.Source),
		Rule:       d.Rule,
		Category:   string(d.Classification.Category),
		Complexity: string(d.Classification.Complexity),
		Confidence: d.Classification.Confidence,
		Model:      d.ModelID,
		SmallModel: d.UseSmallModel,
		Latency:    latency,
		ToolCount:  count,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
