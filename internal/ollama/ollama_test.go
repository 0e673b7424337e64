// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_FillsDefaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{BaseURL: "http://example:1"})
	cfg := c.GetConfig()

	if cfg.BaseURL != "http://example:1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.DefaultModel != DefaultConfig().DefaultModel {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
}

func TestNewClientWithConfig_DoesNotMutateInput(t *testing.T) {
	in := &ClientConfig{}
	NewClientWithConfig(in)
	if in.BaseURL != "" {
		t.Error("input config was modified")
	}
}

// =============================================================================
// GENERATION TESTS
// =============================================================================

func TestTextCompletion(t *testing.T) {
	var got GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(GenerateResponse{Model: got.Model, Response: `{"complexity":"simple"}`, Done: true})
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, DefaultModel: "tiny"})
	text, err := c.TextCompletion(context.Background(), "sys", "classify this", CompletionOptions{MaxTokens: 128, JSON: true})
	if err != nil {
		t.Fatalf("TextCompletion: %v", err)
	}
	if text != `{"complexity":"simple"}` {
		t.Errorf("text = %q", text)
	}
	if got.Model != "tiny" || got.System != "sys" || got.Prompt != "classify this" || got.Stream {
		t.Errorf("request = %+v", got)
	}
	if got.Format != "json" {
		t.Errorf("Format = %q, want json", got.Format)
	}
	if got.Options == nil || got.Options.NumPredict != 128 {
		t.Errorf("Options = %+v", got.Options)
	}
}

func TestTextCompletion_SendsZeroTemperature(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		json.NewEncoder(w).Encode(GenerateResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	if _, err := c.TextCompletion(context.Background(), "", "q", CompletionOptions{}); err != nil {
		t.Fatal(err)
	}
	opts, _ := raw["options"].(map[string]any)
	if _, ok := opts["temperature"]; !ok {
		t.Errorf("temperature omitted from options: %v", raw["options"])
	}
}

func TestTextCompletion_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name:    "model_not_found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			check:   IsModelNotFound,
		},
		{
			name: "server_error_message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"out of memory"}`))
			},
			check: func(err error) bool { return strings.Contains(err.Error(), "out of memory") },
		},
		{
			name:    "empty_response",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"response":""}`)) },
			check:   func(err error) bool { return err == ErrEmptyResponse },
		},
		{
			name:    "bad_json",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`not json`)) },
			check:   func(err error) bool { return strings.Contains(err.Error(), "decode") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
			_, err := c.TextCompletion(context.Background(), "", "q", CompletionOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTextCompletion_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	_, err := c.TextCompletion(ctx, "", "q", CompletionOptions{})
	if !IsTimeout(err) {
		t.Errorf("err = %v, want timeout", err)
	}
}

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning: %v", err)
	}

	srv.Close()
	if err := c.CheckRunning(context.Background()); !IsNotRunning(err) {
		t.Errorf("CheckRunning after close = %v, want not running", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:3b","size":2000000000}]}`))
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0].Name != "llama3.2:3b" {
		t.Errorf("models = %+v", models)
	}
	if !c.ModelExists(context.Background(), "llama3.2:3b") {
		t.Error("ModelExists = false for listed model")
	}
	if c.ModelExists(context.Background(), "missing") {
		t.Error("ModelExists = true for unlisted model")
	}
}

// =============================================================================
// ERROR HELPER TESTS
// =============================================================================

func TestClientError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: cause}

	if err.Error() != "request timed out: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap did not return cause")
	}
	if !IsTimeout(err) || IsNotRunning(err) || IsModelNotFound(err) {
		t.Error("helpers misclassified timeout error")
	}
}
