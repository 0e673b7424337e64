// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classifier

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/assistroute/internal/cloud"
	"github.com/jeranaias/assistroute/internal/ollama"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is one model that can classify a query. Backends are tried in
// order; the first one whose output parses wins.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Available reports whether the backend can be called at all. An
	// unavailable backend is skipped without a call.
	Available() bool

	// Complete sends the system and user instructions and returns the raw
	// model text. It must respect ctx and its own timeout.
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrUnavailable is returned by a backend that cannot be called.
var ErrUnavailable = errors.New("backend unavailable")

// Defaults for backend calls.
const (
	DefaultLocalTimeout  = 3 * time.Second
	DefaultRemoteTimeout = 5 * time.Second
	DefaultMaxTokens     = 256
)

// =============================================================================
// LOCAL BACKEND
// =============================================================================

// TextCompleter is a local model reached with a single system+user prompt.
// *ollama.Client implements it.
type TextCompleter interface {
	TextCompletion(ctx context.Context, system, user string, opts ollama.CompletionOptions) (string, error)
}

// LocalBackend classifies with a local model.
type LocalBackend struct {
	client    TextCompleter
	timeout   time.Duration
	maxTokens int
}

// NewLocalBackend wraps client. Zero timeout or maxTokens use the defaults.
func NewLocalBackend(client TextCompleter, timeout time.Duration, maxTokens int) *LocalBackend {
	if timeout <= 0 {
		timeout = DefaultLocalTimeout
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &LocalBackend{client: client, timeout: timeout, maxTokens: maxTokens}
}

// Name implements Backend.
func (b *LocalBackend) Name() string { return "local" }

// Available implements Backend.
func (b *LocalBackend) Available() bool { return b.client != nil }

// Complete implements Backend.
func (b *LocalBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if !b.Available() {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.client.TextCompletion(ctx, system, user, ollama.CompletionOptions{
		Temperature: 0,
		MaxTokens:   b.maxTokens,
		JSON:        true,
	})
}

// =============================================================================
// REMOTE BACKEND
// =============================================================================

// ChatCompleter is a hosted chat model. *cloud.OpenRouterClient and
// *cloud.OpenAIClient implement it.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, model string, messages []cloud.ChatMessage, opts cloud.CompletionOptions) (string, error)
	IsConfigured() bool
}

// RemoteBackend classifies with a hosted model.
type RemoteBackend struct {
	client    ChatCompleter
	model     string
	timeout   time.Duration
	maxTokens int
	limiter   *rate.Limiter
}

// RemoteOptions configures a RemoteBackend.
type RemoteOptions struct {
	Model     string
	Timeout   time.Duration
	MaxTokens int
	// RatePerSecond limits calls; zero or negative disables limiting.
	RatePerSecond float64
	Burst         int
}

// NewRemoteBackend wraps client.
func NewRemoteBackend(client ChatCompleter, opts RemoteOptions) *RemoteBackend {
	b := &RemoteBackend{
		client:    client,
		model:     opts.Model,
		timeout:   opts.Timeout,
		maxTokens: opts.MaxTokens,
	}
	if b.timeout <= 0 {
		b.timeout = DefaultRemoteTimeout
	}
	if b.maxTokens <= 0 {
		b.maxTokens = DefaultMaxTokens
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return b
}

// Name implements Backend.
func (b *RemoteBackend) Name() string { return "remote" }

// Available implements Backend. A client without credentials is
// permanently unavailable.
func (b *RemoteBackend) Available() bool {
	return b.client != nil && b.client.IsConfigured()
}

// Complete implements Backend. Waiting for the rate limiter counts against
// the backend timeout.
func (b *RemoteBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if !b.Available() {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	messages := []cloud.ChatMessage{
		cloud.NewSystemMessage(system),
		cloud.NewUserMessage(user),
	}
	return b.client.ChatCompletion(ctx, b.model, messages, cloud.CompletionOptions{
		Temperature: 0,
		MaxTokens:   b.maxTokens,
		JSON:        true,
	})
}
