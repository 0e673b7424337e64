// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeranaias/assistroute/internal/cache"
	"github.com/jeranaias/assistroute/internal/router"
	"github.com/jeranaias/assistroute/internal/telemetry"
	"github.com/jeranaias/assistroute/internal/tools"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address. The API is meant for local
	// use and binds to loopback.
	DefaultAddr = "127.0.0.1:8787"

	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// DefaultHealthTimeout bounds the backend probe in /health.
	DefaultHealthTimeout = 2 * time.Second

	// Version is the API version reported by /health.
	Version = "0.1.0"
)

// HealthChecker probes a classification backend. *ollama.Client satisfies it.
type HealthChecker interface {
	CheckRunning(ctx context.Context) error
}

// LedgerReader summarizes recorded decisions. *telemetry.Ledger satisfies it.
type LedgerReader interface {
	Summary(ctx context.Context, since time.Time) (telemetry.Summary, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server exposes the routing cascade over HTTP for local testing and for
// host applications written in other stacks.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server

	router  *router.Router
	cache   *cache.ClassificationCache
	ledger  LedgerReader
	local   HealthChecker
	limiter *RateLimiter
	logger  *slog.Logger

	listenAddr string

	startTime time.Time
	mu        sync.RWMutex
}

// NewServer creates a Server for r. An empty addr means DefaultAddr.
func NewServer(addr string, r *router.Router) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:      addr,
		mux:       http.NewServeMux(),
		router:    r,
		logger:    slog.Default(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// WithCache sets the classification cache shown in /stats and cleared by
// POST /cache/clear.
func (s *Server) WithCache(c *cache.ClassificationCache) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = c
	return s
}

// WithLedger sets the telemetry ledger summarized in /stats.
func (s *Server) WithLedger(l LedgerReader) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
	return s
}

// WithLocalBackend sets the local model probed by /health.
func (s *Server) WithLocalBackend(h HealthChecker) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = h
	return s
}

// WithRateLimiter enables per-client rate limiting.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = rl
	return s
}

// WithLogger sets the logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l != nil {
		s.logger = l
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /v1/route", s.handleRoute)
	s.mux.HandleFunc("POST /v1/classify", s.handleClassify)
	s.mux.HandleFunc("GET /v1/tools", s.handleTools)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("POST /cache/clear", s.handleCacheClear)

	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the full handler with middleware applied.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	limiter, logger := s.limiter, s.logger
	s.mu.RUnlock()

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(logger),
	}
	if limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(limiter, logger))
	}
	return Chain(middlewares...)(s.mux)
}

// ============================================================================
// ROUTE AND CLASSIFY
// ============================================================================

// RouteRequest is the body of POST /v1/route.
type RouteRequest struct {
	Message string                      `json:"message"`
	Context *router.ConversationContext `json:"context,omitempty"`
}

// RouteResponse is the routing decision plus the visible tool names.
type RouteResponse struct {
	Decision router.RoutingDecision `json:"decision"`
	Tools    []string               `json:"tools"`
}

// ClassifyResponse is the body returned by POST /v1/classify.
type ClassifyResponse struct {
	Classification router.QueryClassification `json:"classification"`
	Source         router.Source              `json:"source"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !s.decode(w, r, &req) {
		return
	}

	d := s.router.RouteQuery(r.Context(), req.Message, req.Context)
	s.writeJSON(w, http.StatusOK, RouteResponse{
		Decision: d,
		Tools:    tools.Names(s.router.Tools(d)),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !s.decode(w, r, &req) {
		return
	}

	cls, source := s.router.Classify(r.Context(), req.Message)
	s.writeJSON(w, http.StatusOK, ClassifyResponse{Classification: cls, Source: source})
}

// decode reads a JSON body into v and writes the error response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return false
		}
		s.logger.Debug("SERVER: invalid request body", slog.String("error", err.Error()))
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

// ============================================================================
// TOOLS
// ============================================================================

// ToolInfo is one catalog entry in GET /v1/tools.
type ToolInfo struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
	Risk        string `json:"risk"`
}

// ToolsResponse lists the catalog and the named groups.
type ToolsResponse struct {
	Tools  []ToolInfo          `json:"tools"`
	Groups map[string][]string `json:"groups"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	// A decision without a subset sees the full catalog.
	all := s.router.Tools(router.RoutingDecision{})

	resp := ToolsResponse{
		Tools:  make([]ToolInfo, 0, len(all)),
		Groups: make(map[string][]string),
	}
	for _, t := range all {
		resp.Tools = append(resp.Tools, ToolInfo{
			Name:        t.Name,
			Group:       t.Group,
			Description: t.GetShortDescription(),
			Risk:        t.RiskLevel.String(),
		})
	}
	for name, set := range tools.Groups() {
		resp.Groups[name] = set.Names()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	RoutingEnabled bool   `json:"routing_enabled"`
	LocalStatus    string `json:"local_status"`
	CacheEntries   int    `json:"cache_entries"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	local, c := s.local, s.cache
	s.mu.RUnlock()

	health := HealthResponse{
		Status:         "ok",
		Version:        Version,
		RoutingEnabled: s.router.Config().Enabled,
		LocalStatus:    "not_configured",
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
	}

	// An unreachable backend degrades classification quality but routing
	// still answers, so the status stays 200.
	if local != nil {
		ctx, cancel := context.WithTimeout(r.Context(), DefaultHealthTimeout)
		defer cancel()
		if err := local.CheckRunning(ctx); err == nil {
			health.LocalStatus = "ok"
		} else {
			health.LocalStatus = "unavailable"
			health.Status = "degraded"
		}
	}
	if c != nil {
		health.CacheEntries = c.Len()
	}

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// STATS
// ============================================================================

// StatsResponse combines in-process counters with the ledger summary.
type StatsResponse struct {
	Session         router.SessionStats `json:"session"`
	FastPathPercent float64             `json:"fast_path_percent"`
	Cache           *cache.Stats        `json:"cache,omitempty"`
	Ledger          *telemetry.Summary  `json:"ledger,omitempty"`
	UptimeSeconds   int64               `json:"uptime_seconds"`
}

// ledgerWindow is the period summarized by /stats.
const ledgerWindow = 24 * time.Hour

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	c, ledger := s.cache, s.ledger
	s.mu.RUnlock()

	stats := s.router.Stats()
	resp := StatsResponse{
		Session:         stats.GetStats(),
		FastPathPercent: stats.FastPathPercent(),
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
	}
	if c != nil {
		cs := c.Stats()
		resp.Cache = &cs
	}
	if ledger != nil {
		summary, err := ledger.Summary(r.Context(), time.Now().Add(-ledgerWindow))
		if err != nil {
			s.logger.Warn("SERVER: ledger summary failed", slog.String("error", err.Error()))
		} else {
			resp.Ledger = &summary
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	c := s.cache
	s.mu.RUnlock()

	if c == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status":  "error",
			"message": "Cache not configured",
		})
		return
	}

	c.Clear()
	s.logger.Info("SERVER: cache cleared", slog.String("client_ip", GetClientIP(r)))

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Cache cleared successfully",
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address. It blocks until the server
// stops and returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	handler := s.Handler()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.listenAddr = ln.Addr().String()
	s.mu.Unlock()

	s.logger.Info("SERVER: listening", slog.String("addr", ln.Addr().String()), slog.String("version", Version))
	return srv.Serve(ln)
}

// ListenAddr returns the bound address once Start is listening, or an
// empty string before that. It resolves a ":0" port.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listenAddr
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv, limiter := s.server, s.limiter
	s.mu.RUnlock()

	if limiter != nil {
		limiter.Stop()
	}
	if srv == nil {
		return nil
	}
	s.logger.Info("SERVER: shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("SERVER: failed to write response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    status,
		},
	})
}
