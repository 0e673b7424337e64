// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/assistroute/internal/cache"
	"github.com/jeranaias/assistroute/internal/cloud"
	"github.com/jeranaias/assistroute/internal/ollama"
	"github.com/jeranaias/assistroute/internal/router"
	"github.com/jeranaias/assistroute/internal/tools"
)

const emailJSON = `{"complexity":"moderate","category":"email","confidence":0.9,"requiresTools":true,"suggestedTools":["send_email"],"reasoning":"wants to message a contact"}`

// mockBackend is a scripted Backend that counts calls.
type mockBackend struct {
	name        string
	unavailable bool
	reply       string
	err         error
	gate        chan struct{} // when set, Complete blocks until closed

	mu    sync.Mutex
	calls int
	users []string
}

func (m *mockBackend) Name() string    { return m.name }
func (m *mockBackend) Available() bool { return !m.unavailable }

func (m *mockBackend) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.users = append(m.users, user)
	m.mu.Unlock()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func (m *mockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newCache(t *testing.T, clock *fakeClock) *cache.ClassificationCache {
	t.Helper()
	opts := cache.Options{}
	if clock != nil {
		opts.Now = clock.Now
	}
	c := cache.New(opts)
	t.Cleanup(func() { c.Close() })
	return c
}

// =============================================================================
// CACHE BEHAVIOUR
// =============================================================================

func TestClassifyViaModel_CachesResult(t *testing.T) {
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))
	ctx := context.Background()

	first, src := c.ClassifyViaModel(ctx, "ping Jane about the renewal")
	assert.Equal(t, router.SourceModel, src)
	assert.Equal(t, router.CategoryEmail, first.Category)

	second, src := c.ClassifyViaModel(ctx, "  PING jane   about the renewal ")
	assert.Equal(t, router.SourceCache, src)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, b.Calls(), "normalized duplicate should not reach the backend")
}

func TestClassifyViaModel_CacheExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(newCache(t, clock), []Backend{b}, WithLogger(quietLogger()))
	ctx := context.Background()

	c.ClassifyViaModel(ctx, "ping Jane")
	clock.Advance(59 * time.Second)
	_, src := c.ClassifyViaModel(ctx, "ping Jane")
	assert.Equal(t, router.SourceCache, src)

	clock.Advance(time.Second)
	_, src = c.ClassifyViaModel(ctx, "ping Jane")
	assert.Equal(t, router.SourceModel, src)
	assert.Equal(t, 2, b.Calls())
}

func TestClassifyViaModel_ReturnedValueNotShared(t *testing.T) {
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))

	got, _ := c.ClassifyViaModel(context.Background(), "ping Jane")
	got.SuggestedTools[0] = "mutated"

	again, _ := c.ClassifyViaModel(context.Background(), "ping Jane")
	assert.Equal(t, "send_email", again.SuggestedTools[0])
}

func TestClassifyViaModel_NilCache(t *testing.T) {
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(nil, []Backend{b}, WithLogger(quietLogger()))

	c.ClassifyViaModel(context.Background(), "ping Jane")
	_, src := c.ClassifyViaModel(context.Background(), "ping Jane")
	assert.Equal(t, router.SourceModel, src)
	assert.Equal(t, 2, b.Calls())
}

// =============================================================================
// BACKEND CHAIN
// =============================================================================

func TestClassifyViaModel_FallbackChain(t *testing.T) {
	tests := []struct {
		name        string
		local       *mockBackend
		wantSource  router.Source
		wantRemote  int
		wantDefault bool
	}{
		{
			name:       "local_succeeds",
			local:      &mockBackend{name: "local", reply: emailJSON},
			wantSource: router.SourceModel,
			wantRemote: 0,
		},
		{
			name:       "local_error",
			local:      &mockBackend{name: "local", err: errors.New("connection refused")},
			wantSource: router.SourceModel,
			wantRemote: 1,
		},
		{
			name:       "local_unparseable",
			local:      &mockBackend{name: "local", reply: "It is probably an email."},
			wantSource: router.SourceModel,
			wantRemote: 1,
		},
		{
			name:       "local_unavailable",
			local:      &mockBackend{name: "local", unavailable: true},
			wantSource: router.SourceModel,
			wantRemote: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockBackend{name: "remote", reply: emailJSON}
			c := New(newCache(t, nil), []Backend{tt.local, remote}, WithLogger(quietLogger()))

			got, src := c.ClassifyViaModel(context.Background(), "ping Jane")
			assert.Equal(t, tt.wantSource, src)
			assert.Equal(t, router.CategoryEmail, got.Category)
			assert.Equal(t, tt.wantRemote, remote.Calls())
			if tt.local.unavailable {
				assert.Equal(t, 0, tt.local.Calls(), "unavailable backend must not be called")
			}
		})
	}
}

func TestClassifyViaModel_AllBackendsFail(t *testing.T) {
	local := &mockBackend{name: "local", err: errors.New("down")}
	remote := &mockBackend{name: "remote", reply: "```\nnot json\n```"}
	c := New(newCache(t, nil), []Backend{local, remote}, WithLogger(quietLogger()))

	got, src := c.ClassifyViaModel(context.Background(), "ping Jane")
	assert.Equal(t, router.SourceFallback, src)
	assert.Equal(t, router.DefaultClassification(), got)

	// Failures are not cached.
	_, src = c.ClassifyViaModel(context.Background(), "ping Jane")
	assert.Equal(t, router.SourceFallback, src)
	assert.Equal(t, 2, local.Calls())
}

func TestClassifyViaModel_NoBackends(t *testing.T) {
	c := New(newCache(t, nil), nil, WithLogger(quietLogger()))
	got, src := c.ClassifyViaModel(context.Background(), "ping Jane")
	assert.Equal(t, router.SourceFallback, src)
	assert.True(t, got.IsFallback())
}

func TestClassifyViaModel_SendsQueryInUserPrompt(t *testing.T) {
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))

	c.ClassifyViaModel(context.Background(), "ping Jane about the renewal")
	require.Len(t, b.users, 1)
	assert.Contains(t, b.users[0], "ping Jane about the renewal")
}

// =============================================================================
// CONCURRENCY AND CANCELLATION
// =============================================================================

func TestClassifyViaModel_CoalescesConcurrentMisses(t *testing.T) {
	gate := make(chan struct{})
	b := &mockBackend{name: "local", reply: emailJSON, gate: gate}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))

	const callers = 20
	var wg sync.WaitGroup
	sources := make([]router.Source, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, sources[i] = c.ClassifyViaModel(context.Background(), "ping Jane")
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, b.Calls(), "identical concurrent misses should share one backend call")
	for i, s := range sources {
		assert.Contains(t, []router.Source{router.SourceModel, router.SourceCache}, s, "caller %d", i)
	}
}

func TestClassifyViaModel_CallerCancellation(t *testing.T) {
	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })
	b := &mockBackend{name: "local", reply: emailJSON, gate: gate}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	got, src := c.ClassifyViaModel(ctx, "ping Jane")

	assert.Equal(t, router.SourceFallback, src)
	assert.True(t, got.IsFallback())
	assert.Less(t, time.Since(start), time.Second)
}

func TestClassifyViaModel_ContextAlreadyDone(t *testing.T) {
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, src := c.ClassifyViaModel(ctx, "ping Jane")
	assert.Equal(t, router.SourceFallback, src)
	assert.Equal(t, 0, b.Calls())
}

// =============================================================================
// BACKEND ADAPTERS
// =============================================================================

type mockText struct {
	opts  ollama.CompletionOptions
	delay time.Duration
}

func (m *mockText) TextCompletion(ctx context.Context, system, user string, opts ollama.CompletionOptions) (string, error) {
	m.opts = opts
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return emailJSON, nil
}

type mockChat struct {
	configured bool
	model      string
	messages   []cloud.ChatMessage
	opts       cloud.CompletionOptions
	calls      int
}

func (m *mockChat) IsConfigured() bool { return m.configured }

func (m *mockChat) ChatCompletion(ctx context.Context, model string, messages []cloud.ChatMessage, opts cloud.CompletionOptions) (string, error) {
	m.calls++
	m.model, m.messages, m.opts = model, messages, opts
	return emailJSON, nil
}

func TestLocalBackend(t *testing.T) {
	text := &mockText{}
	b := NewLocalBackend(text, 0, 0)

	assert.True(t, b.Available())
	out, err := b.Complete(context.Background(), SystemPrompt, "q")
	require.NoError(t, err)
	assert.Equal(t, emailJSON, out)
	assert.Equal(t, DefaultMaxTokens, text.opts.MaxTokens)
	assert.Zero(t, text.opts.Temperature)
	assert.True(t, text.opts.JSON)

	assert.False(t, NewLocalBackend(nil, 0, 0).Available())
}

func TestLocalBackend_Timeout(t *testing.T) {
	b := NewLocalBackend(&mockText{delay: time.Second}, 10*time.Millisecond, 0)
	_, err := b.Complete(context.Background(), SystemPrompt, "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRemoteBackend(t *testing.T) {
	chat := &mockChat{configured: true}
	b := NewRemoteBackend(chat, RemoteOptions{Model: "anthropic/claude-3.5-haiku", MaxTokens: 100})

	out, err := b.Complete(context.Background(), SystemPrompt, "q")
	require.NoError(t, err)
	assert.Equal(t, emailJSON, out)
	assert.Equal(t, "anthropic/claude-3.5-haiku", chat.model)
	require.Len(t, chat.messages, 2)
	assert.Equal(t, "system", chat.messages[0].Role)
	assert.Equal(t, "user", chat.messages[1].Role)
	assert.Equal(t, 100, chat.opts.MaxTokens)
}

func TestRemoteBackend_MissingCredentials(t *testing.T) {
	chat := &mockChat{configured: false}
	b := NewRemoteBackend(chat, RemoteOptions{})

	assert.False(t, b.Available())
	_, err := b.Complete(context.Background(), SystemPrompt, "q")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, chat.calls)

	// The classifier skips it and lands on the safe default.
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))
	_, src := c.ClassifyViaModel(context.Background(), "ping Jane")
	assert.Equal(t, router.SourceFallback, src)
}

func TestRemoteBackend_RateLimited(t *testing.T) {
	chat := &mockChat{configured: true}
	b := NewRemoteBackend(chat, RemoteOptions{RatePerSecond: 0.001, Burst: 1, Timeout: 50 * time.Millisecond})

	_, err := b.Complete(context.Background(), SystemPrompt, "q")
	require.NoError(t, err)

	// The bucket is empty and will not refill within the timeout.
	_, err = b.Complete(context.Background(), SystemPrompt, "q")
	assert.Error(t, err)
	assert.Equal(t, 1, chat.calls)
}

// =============================================================================
// ROUTER INTEGRATION
// =============================================================================

func TestRouterWithClassifier(t *testing.T) {
	b := &mockBackend{name: "local", reply: emailJSON}
	c := New(newCache(t, nil), []Backend{b}, WithLogger(quietLogger()))
	r := router.New(router.DefaultConfig(), router.WithModelClassifier(c), router.WithLogger(quietLogger()))

	d := r.RouteQuery(context.Background(), "could you ping Jane about the renewal", nil)
	assert.Equal(t, router.SourceModel, d.Source)
	assert.Equal(t, router.RuleModerate, d.Rule)
	assert.True(t, d.ToolSubset.Equal(tools.EmailGroup.Union(tools.ReadGroup)))

	d = r.RouteQuery(context.Background(), "could you ping Jane about the renewal", nil)
	assert.Equal(t, router.SourceCache, d.Source)
	assert.Equal(t, 1, b.Calls())

	// Pattern hits never reach the slow path.
	r.RouteQuery(context.Background(), "Hi there", nil)
	assert.Equal(t, 1, b.Calls())
}
