// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testKey = "sk-or-test-abcdefghijklmnopqrstuvwxyz0123456789"

func okHandler(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "test-id",
			"model": "test-model",
			"choices": [{"message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
		}`, content)
	}
}

// =============================================================================
// CHAT COMPLETION TESTS
// =============================================================================

func TestChatCompletion(t *testing.T) {
	var got ChatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		okHandler(`{"complexity":"simple"}`)(w, r)
	}))
	defer server.Close()

	client := NewOpenRouterClient(testKey).WithBaseURL(server.URL)
	text, err := client.ChatCompletion(context.Background(), "haiku",
		[]ChatMessage{NewSystemMessage("sys"), NewUserMessage("hello")},
		CompletionOptions{MaxTokens: 200, JSON: true})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}

	if text != `{"complexity":"simple"}` {
		t.Errorf("text = %q", text)
	}
	if auth != "Bearer "+testKey {
		t.Error("Authorization header not set")
	}
	if got.Model != OpenRouterModels["haiku"] {
		t.Errorf("Model = %q, want friendly name expanded", got.Model)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("Temperature = %v, want explicit 0", got.Temperature)
	}
	if got.MaxTokens != 200 || got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("Messages = %+v", got.Messages)
	}
}

func TestChatCompletion_AttributionHeaders(t *testing.T) {
	tests := []struct {
		name    string
		siteURL string
	}{
		{"with_site_url", "https://crm.example.com"},
		{"without_site_url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var referer, title string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				referer = r.Header.Get("HTTP-Referer")
				title = r.Header.Get("X-Title")
				okHandler(`{}`)(w, r)
			}))
			defer server.Close()

			client := NewOpenRouterClient(testKey).WithBaseURL(server.URL).WithSiteURL(tt.siteURL)
			if _, err := client.ChatCompletion(context.Background(), "", []ChatMessage{NewUserMessage("hi")}, CompletionOptions{}); err != nil {
				t.Fatalf("ChatCompletion: %v", err)
			}

			if referer != tt.siteURL {
				t.Errorf("HTTP-Referer = %q, want %q", referer, tt.siteURL)
			}
			if title != "assistroute" {
				t.Errorf("X-Title = %q", title)
			}
		})
	}
}

func TestChatCompletion_NotConfigured(t *testing.T) {
	client := NewOpenRouterClient("  ")
	_, err := client.ChatCompletion(context.Background(), "", nil, CompletionOptions{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestChatCompletion_EmptyContent(t *testing.T) {
	server := httptest.NewServer(okHandler(""))
	defer server.Close()

	client := NewOpenRouterClient(testKey).WithBaseURL(server.URL)
	_, err := client.ChatCompletion(context.Background(), "", []ChatMessage{NewUserMessage("hi")}, CompletionOptions{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestChatCompletion_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"error":{"code":401,"message":"bad key"}}`, ErrAuthFailed},
		{http.StatusPaymentRequired, ``, ErrInsufficientCredits},
		{http.StatusNotFound, `{"error":{"message":"no such model"}}`, ErrModelNotFound},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewOpenRouterClient(testKey).WithBaseURL(server.URL)
			_, err := client.ChatCompletion(context.Background(), "", []ChatMessage{NewUserMessage("hi")}, CompletionOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestChatCompletion_RetriesServerErrors verifies a 5xx is retried.
func TestChatCompletion_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		okHandler("recovered")(w, r)
	}))
	defer server.Close()

	client := NewOpenRouterClient(testKey).WithBaseURL(server.URL)
	text, err := client.ChatCompletion(context.Background(), "", []ChatMessage{NewUserMessage("hi")}, CompletionOptions{})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if text != "recovered" || calls.Load() != 2 {
		t.Errorf("text = %q after %d calls", text, calls.Load())
	}
}

// TestChatCompletion_CancelStopsRetry verifies a done context ends the backoff.
func TestChatCompletion_CancelStopsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := NewOpenRouterClient(testKey).WithBaseURL(server.URL).WithMaxRetries(10)
	start := time.Now()
	_, err := client.ChatCompletion(ctx, "", []ChatMessage{NewUserMessage("hi")}, CompletionOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("retry loop ignored context for %v", time.Since(start))
	}
}

// TestChatCompletion_Concurrent verifies per-call models do not race.
func TestChatCompletion_Concurrent(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		seen[req.Model] = true
		mu.Unlock()
		okHandler("ok")(w, r)
	}))
	defer server.Close()

	client := NewOpenRouterClient(testKey).WithBaseURL(server.URL)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model := fmt.Sprintf("test-model-%d", i%5)
			if _, err := client.ChatCompletion(context.Background(), model, []ChatMessage{NewUserMessage("hi")}, CompletionOptions{}); err != nil {
				t.Errorf("ChatCompletion(%s): %v", model, err)
			}
		}(i)
	}
	wg.Wait()

	if len(seen) != 5 {
		t.Errorf("server saw %d distinct models, want 5", len(seen))
	}
	if client.GetModel() != "openrouter/auto" {
		t.Errorf("default model changed to %q", client.GetModel())
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{testKey, true},
		{"sk-or-short", false},
		{"sk-xx-abcdefghijklmnopqrstuvwxyz0123456789", false},
		{"sk-or-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateAPIKey(tt.key); got != tt.want {
			t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestKeyFingerprint(t *testing.T) {
	c := NewOpenRouterClient(testKey)
	fp := c.KeyFingerprint()
	if len(fp) != 8 {
		t.Errorf("fingerprint length = %d, want 8", len(fp))
	}
	if fp == testKey[:8] {
		t.Error("fingerprint exposes key prefix")
	}
	if NewOpenRouterClient("").KeyFingerprint() != "none" {
		t.Error("empty key fingerprint should be none")
	}
}

func TestOpenRouterError(t *testing.T) {
	err := &OpenRouterError{Code: "bad_request", Message: "nope", Status: 400}
	if err.Error() != "OpenRouter error [bad_request] (HTTP 400): nope" {
		t.Errorf("Error() = %q", err.Error())
	}
	err = &OpenRouterError{Message: "nope", Status: 500}
	if err.Error() != "OpenRouter error (HTTP 500): nope" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate_limited", fmt.Errorf("%w: slow down", ErrRateLimited), true},
		{"server_error", &OpenRouterError{Status: 503}, true},
		{"client_error", &OpenRouterError{Status: 400}, false},
		{"auth", ErrAuthFailed, false},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{10, retryMaxDelay},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestChatResponseGetContent(t *testing.T) {
	var empty ChatResponse
	if empty.GetContent() != "" {
		t.Error("empty response should have no content")
	}
}
