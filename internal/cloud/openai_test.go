// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIChatCompletion(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"category\":\"email\"}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	text, err := client.ChatCompletion(context.Background(), "",
		[]ChatMessage{NewSystemMessage("sys"), NewUserMessage("q")},
		CompletionOptions{MaxTokens: 64, JSON: true})

	require.NoError(t, err)
	assert.Equal(t, `{"category":"email"}`, text)
	assert.Equal(t, DefaultOpenAIModel, got["model"])
	assert.Len(t, got["messages"], 2)
	format, _ := got["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIChatCompletion_Temperature(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero_is_sent", 0, math.SmallestNonzeroFloat32},
		{"positive_kept", 0.7, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
			}))
			defer server.Close()

			client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
			_, err := client.ChatCompletion(context.Background(), "",
				[]ChatMessage{NewUserMessage("q")}, CompletionOptions{Temperature: tt.in, MaxTokens: 10})
			require.NoError(t, err)

			require.Contains(t, got, "temperature")
			temp, ok := got["temperature"].(float64)
			require.True(t, ok, "temperature = %v", got["temperature"])
			assert.Greater(t, temp, 0.0)
			assert.InDelta(t, tt.want, temp, 1e-6)
		})
	}
}

func TestOpenAIChatCompletion_NotConfigured(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{})
	assert.False(t, client.IsConfigured())

	_, err := client.ChatCompletion(context.Background(), "", nil, CompletionOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIChatCompletion_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthFailed},
		{"rate_limited", http.StatusTooManyRequests, ErrRateLimited},
		{"not_found", http.StatusNotFound, ErrModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			}))
			defer server.Close()

			client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
			_, err := client.ChatCompletion(context.Background(), "m", []ChatMessage{NewUserMessage("q")}, CompletionOptions{})
			assert.True(t, errors.Is(err, tt.want), "err = %v", err)
		})
	}
}

func TestOpenAIChatCompletion_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL})
	_, err := client.ChatCompletion(context.Background(), "m", []ChatMessage{NewUserMessage("q")}, CompletionOptions{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
