// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeranaias/assistroute/internal/tools"
	"github.com/jeranaias/assistroute/internal/util"
)

// MaxQueryLength is the maximum query length in bytes (100KB) that is
// classified. Longer queries skip classification and get the safe default.
const MaxQueryLength = 100000

// logQueryRunes bounds how much of a query appears in debug logs.
const logQueryRunes = 80

// ============================================================================
// COLLABORATORS
// ============================================================================

// ModelClassifier is the slow path. Implementations must never fail: on
// any backend problem they return the safe default with SourceFallback.
// A live cache entry is reported as SourceCache.
type ModelClassifier interface {
	ClassifyViaModel(ctx context.Context, query string) (QueryClassification, Source)
}

// Recorder receives every decision after it is made. Errors are logged
// and otherwise ignored; a recorder can never change a decision.
type Recorder interface {
	RecordDecision(ctx context.Context, d RoutingDecision, latency time.Duration) error
}

// ============================================================================
// ROUTER
// ============================================================================

// Router runs the full cascade: pattern classifier, slow path, decision
// table. It is safe for concurrent use.
type Router struct {
	cfg      Config
	patterns *PatternClassifier
	model    ModelClassifier
	catalog  tools.Catalog
	recorder Recorder
	stats    *SessionStats
	logger   *slog.Logger
	tracer   trace.Tracer
	newID    func() string
	now      func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithModelClassifier sets the slow path. Without one, pattern misses get
// the safe default.
func WithModelClassifier(m ModelClassifier) Option {
	return func(r *Router) { r.model = m }
}

// WithPatterns replaces the default pattern classifier.
func WithPatterns(p *PatternClassifier) Option {
	return func(r *Router) { r.patterns = p }
}

// WithCatalog sets the tool catalog used by Tools.
func WithCatalog(c tools.Catalog) Option {
	return func(r *Router) { r.catalog = c }
}

// WithRecorder sets a decision recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Router) { r.recorder = rec }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithIDGenerator overrides decision id generation.
func WithIDGenerator(f func() string) Option {
	return func(r *Router) { r.newID = f }
}

// New creates a router.
func New(cfg Config, opts ...Option) *Router {
	if cfg.SmallModel == "" {
		cfg.SmallModel = DefaultSmallModel
	}
	if cfg.LargeModel == "" {
		cfg.LargeModel = DefaultLargeModel
	}
	r := &Router{
		cfg:      cfg,
		patterns: DefaultPatternClassifier(),
		catalog:  tools.Builtin(),
		stats:    NewSessionStats(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("assistroute/router"),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the routing configuration.
func (r *Router) Config() Config {
	return r.cfg
}

// Stats returns the session statistics.
func (r *Router) Stats() *SessionStats {
	return r.stats
}

// RouteQuery classifies message and returns the routing decision.
// It never fails: every problem resolves to a decision the caller can use.
func (r *Router) RouteQuery(ctx context.Context, message string, convCtx *ConversationContext) RoutingDecision {
	if ctx == nil {
		ctx = context.Background()
	}
	start := r.now()

	ctx, span := r.tracer.Start(ctx, "router.RouteQuery",
		trace.WithAttributes(attribute.Int("query_length", len(message))),
	)
	defer span.End()

	var (
		cls    QueryClassification
		source Source
	)
	if r.cfg.Enabled {
		cls, source = r.Classify(ctx, message)
	} else {
		cls, source = DefaultClassification(), SourceDisabled
	}

	d := Decide(r.cfg, cls, convCtx)
	d.ID = r.newID()
	d.Source = source

	latency := r.now().Sub(start)
	r.stats.RecordDecision(d)
	recordMetrics(d, latency.Seconds())

	span.SetAttributes(
		attribute.String("decision_id", d.ID),
		attribute.String("source", string(d.Source)),
		attribute.String("rule", d.Rule),
		attribute.String("category", string(d.Classification.Category)),
		attribute.String("complexity", string(d.Classification.Complexity)),
		attribute.Bool("small_model", d.UseSmallModel),
	)

	r.logger.Debug("ROUTING: decision",
		slog.String("id", d.ID),
		slog.String("query", util.TruncateRunes(message, logQueryRunes)),
		slog.String("source", string(d.Source)),
		slog.String("rule", d.Rule),
		slog.String("category", string(d.Classification.Category)),
		slog.String("complexity", string(d.Classification.Complexity)),
		slog.Float64("confidence", d.Classification.Confidence),
		slog.String("model", d.ModelID),
		slog.Int("tools", toolCount(d)),
		slog.Duration("latency", latency),
	)

	if r.recorder != nil {
		if err := r.recorder.RecordDecision(ctx, d, latency); err != nil {
			r.logger.Warn("ROUTING: failed to record decision",
				slog.String("id", d.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return d
}

// Classify runs the classification cascade without making a decision.
func (r *Router) Classify(ctx context.Context, message string) (QueryClassification, Source) {
	query := strings.TrimSpace(message)

	if query == "" {
		return DefaultClassification(), SourceFallback
	}
	if len(query) > MaxQueryLength {
		r.logger.Warn("ROUTING: query too long, using safe default",
			slog.Int("length", len(query)),
			slog.Int("max", MaxQueryLength),
		)
		return DefaultClassification(), SourceFallback
	}

	if cls, ok := r.patterns.Classify(query); ok {
		return cls, SourcePattern
	}

	if r.model == nil {
		return DefaultClassification(), SourceFallback
	}
	cls, source := r.model.ClassifyViaModel(ctx, query)
	return cls.Normalize(), source
}

// Tools applies a decision's allow-list to the current catalog.
func (r *Router) Tools(d RoutingDecision) []tools.Tool {
	return tools.Filter(r.catalog.Tools(), d.ToolSubset)
}

func toolCount(d RoutingDecision) int {
	if d.ToolSubset == nil {
		return -1
	}
	return d.ToolSubset.Len()
}
