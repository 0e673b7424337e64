// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/assistroute/internal/router"
)

// DefaultQueueSize is the AsyncRecorder buffer used when none is given.
const DefaultQueueSize = 1024

// ErrQueueFull is returned when a decision is dropped because the write
// queue is full.
var ErrQueueFull = errors.New("telemetry queue is full")

// EntryWriter persists ledger entries. *Ledger satisfies it.
type EntryWriter interface {
	Append(ctx context.Context, e Entry) error
}

// =============================================================================
// ASYNC RECORDER
// =============================================================================

// AsyncRecorder implements router.Recorder by queueing entries for a single
// background writer. RecordDecision never waits on the database: when the
// queue is full the decision is dropped and counted.
type AsyncRecorder struct {
	writer EntryWriter
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan Entry
	done   chan struct{}

	written atomic.Int64
	dropped atomic.Int64
}

// NewAsyncRecorder starts a writer goroutine for w. size <= 0 uses
// DefaultQueueSize.
func NewAsyncRecorder(w EntryWriter, size int, logger *slog.Logger) *AsyncRecorder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &AsyncRecorder{
		writer: w,
		logger: logger,
		now:    time.Now,
		queue:  make(chan Entry, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// RecordDecision queues d. The entry is timestamped here, not when it is
// written.
func (a *AsyncRecorder) RecordDecision(ctx context.Context, d router.RoutingDecision, latency time.Duration) error {
	e := EntryFromDecision(d, a.now(), latency)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- e:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

func (a *AsyncRecorder) run() {
	defer close(a.done)
	for e := range a.queue {
		if err := a.writer.Append(context.Background(), e); err != nil {
			a.logger.Warn("TELEMETRY: failed to write decision",
				slog.String("id", e.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.written.Add(1)
	}
}

// Close stops accepting decisions and waits until the queue is drained or
// ctx is done. It is safe to call more than once.
func (a *AsyncRecorder) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Written returns the number of entries persisted.
func (a *AsyncRecorder) Written() int64 {
	return a.written.Load()
}

// Dropped returns the number of decisions lost to a full queue.
func (a *AsyncRecorder) Dropped() int64 {
	return a.dropped.Load()
}
