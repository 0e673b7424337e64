// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jeranaias/assistroute/internal/cache"
	"github.com/jeranaias/assistroute/internal/router"
)

// Backend outcomes used in logs and metrics.
const (
	outcomeSuccess     = "success"
	outcomeError       = "error"
	outcomeTimeout     = "timeout"
	outcomeParseError  = "parse_error"
	outcomeUnavailable = "unavailable"
)

// Classifier is the model-backed slow path. It satisfies
// router.ModelClassifier and never fails: every problem resolves to the
// safe default.
type Classifier struct {
	cache    *cache.ClassificationCache
	backends []Backend
	group    singleflight.Group
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a classifier that consults c before trying backends in
// order. A nil cache disables caching.
func New(c *cache.ClassificationCache, backends []Backend, opts ...Option) *Classifier {
	cl := &Classifier{
		cache:    c,
		backends: append([]Backend(nil), backends...),
		logger:   slog.Default(),
		tracer:   otel.Tracer("assistroute/classifier"),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Backends returns the names of the configured backends in order.
func (c *Classifier) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

type flightResult struct {
	cls    router.QueryClassification
	source router.Source
}

// ClassifyViaModel classifies query with the cache and the backend chain.
//
// A live cache entry is returned as SourceCache. Concurrent misses for the
// same key share one backend call. A parsed result is cached and returned
// as SourceModel; otherwise the safe default is returned as SourceFallback
// and nothing is cached. If ctx ends first the caller gets the safe default
// while the shared call finishes under the backend timeouts.
func (c *Classifier) ClassifyViaModel(ctx context.Context, query string) (router.QueryClassification, router.Source) {
	ctx, span := c.tracer.Start(ctx, "classifier.ClassifyViaModel")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "context done")
		return c.fallback(span)
	}

	key := c.key(query)
	if c.cache != nil {
		if cls, ok := c.cache.GetKey(key); ok {
			span.SetAttributes(attribute.String("source", string(router.SourceCache)))
			slowPathResults.WithLabelValues(string(router.SourceCache)).Inc()
			return cls, router.SourceCache
		}
	}

	flightCtx := trace.ContextWithSpan(context.WithoutCancel(ctx), span)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.classifyMiss(flightCtx, key, query), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			coalesced.Inc()
		}
		r := res.Val.(flightResult)
		span.SetAttributes(attribute.String("source", string(r.source)))
		slowPathResults.WithLabelValues(string(r.source)).Inc()
		// Shared results must not alias between callers.
		return r.cls.Clone(), r.source
	case <-ctx.Done():
		span.SetStatus(codes.Error, "context done")
		c.logger.Warn("CLASSIFIER: caller context ended, using safe default",
			slog.String("error", ctx.Err().Error()),
		)
		return c.fallback(span)
	}
}

// classifyMiss runs the backend chain once for a key.
func (c *Classifier) classifyMiss(ctx context.Context, key, query string) flightResult {
	// Another flight may have filled the entry since the caller's lookup.
	if c.cache != nil {
		if cls, ok := c.cache.GetKey(key); ok {
			return flightResult{cls: cls, source: router.SourceCache}
		}
	}

	user := userPrompt(query)
	for _, b := range c.backends {
		cls, err := c.tryBackend(ctx, b, user)
		if err != nil {
			continue
		}
		if c.cache != nil {
			c.cache.SetKey(key, cls)
		}
		return flightResult{cls: cls, source: router.SourceModel}
	}

	c.logger.Warn("CLASSIFIER: all backends failed, using safe default",
		slog.Int("backends", len(c.backends)),
	)
	return flightResult{cls: router.DefaultClassification(), source: router.SourceFallback}
}

// tryBackend makes one attempt and logs any failure.
func (c *Classifier) tryBackend(ctx context.Context, b Backend, user string) (router.QueryClassification, error) {
	name := b.Name()
	if !b.Available() {
		recordBackend(name, outcomeUnavailable, 0)
		return router.QueryClassification{}, ErrUnavailable
	}

	ctx, span := c.tracer.Start(ctx, "classifier.backend",
		trace.WithAttributes(attribute.String("backend", name)),
	)
	defer span.End()

	start := time.Now()
	text, err := b.Complete(ctx, SystemPrompt, user)
	latency := time.Since(start)

	if err != nil {
		outcome := outcomeError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || isTimeout(err) {
			outcome = outcomeTimeout
		}
		c.fail(span, name, outcome, latency, err)
		return router.QueryClassification{}, err
	}

	cls, err := ParseClassification(text)
	if err != nil {
		c.fail(span, name, outcomeParseError, latency, err)
		return router.QueryClassification{}, err
	}

	recordBackend(name, outcomeSuccess, latency.Seconds())
	span.SetAttributes(
		attribute.String("category", string(cls.Category)),
		attribute.String("complexity", string(cls.Complexity)),
		attribute.Float64("confidence", cls.Confidence),
	)
	c.logger.Debug("CLASSIFIER: backend classified query",
		slog.String("backend", name),
		slog.String("category", string(cls.Category)),
		slog.String("complexity", string(cls.Complexity)),
		slog.Duration("latency", latency),
	)
	return cls, nil
}

func (c *Classifier) fail(span trace.Span, backend, outcome string, latency time.Duration, err error) {
	recordBackend(backend, outcome, latency.Seconds())
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	c.logger.Warn("CLASSIFIER: backend failed",
		slog.String("backend", backend),
		slog.String("outcome", outcome),
		slog.Duration("latency", latency),
		slog.String("error", err.Error()),
	)
}

func (c *Classifier) fallback(span trace.Span) (router.QueryClassification, router.Source) {
	span.SetAttributes(attribute.String("source", string(router.SourceFallback)))
	slowPathResults.WithLabelValues(string(router.SourceFallback)).Inc()
	return router.DefaultClassification(), router.SourceFallback
}

func (c *Classifier) key(query string) string {
	if c.cache != nil {
		return c.cache.Key(query)
	}
	return cache.Key(query, 0)
}

// isTimeout matches client errors that report a timeout without wrapping
// a context error, such as an http.Client deadline.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
