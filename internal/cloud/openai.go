// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient talks to OpenAI or any OpenAI-compatible endpoint through
// go-openai.
type OpenAIClient struct {
	client *openai.Client
	apiKey string
	model  string
	logger *slog.Logger
}

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty uses api.openai.com
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewOpenAIClient creates a client. An empty API key yields a client whose
// requests fail with ErrNotConfigured.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	key := strings.TrimSpace(cfg.APIKey)

	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		apiKey: key,
		model:  model,
		logger: logger,
	}
}

// IsConfigured returns true if the client has an API key configured.
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Name identifies the provider in logs.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// GetModel returns the default model.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key for logs.
func (c *OpenAIClient) KeyFingerprint() string {
	return keyFingerprint(c.apiKey)
}

// ChatCompletion sends messages to model and returns the first choice's text.
// An empty model uses the client default.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, messages []ChatMessage, opts CompletionOptions) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if model == "" {
		model = c.model
	}

	req := openai.ChatCompletionRequest{
		Model:               model,
		Messages:            make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature:         openAITemperature(opts.Temperature),
		MaxCompletionTokens: opts.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if opts.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("CLOUD: openai response",
		slog.String("model", resp.Model),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}

// mapOpenAIError wraps go-openai errors with the package sentinels.
func mapOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if sentinel := statusSentinel(status); sentinel != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return fmt.Errorf("OpenAI API call failed: %w", err)
}

// openAITemperature converts t for go-openai, which drops a zero
// temperature from the request. The provider default is then 1.0, so zero
// is sent as the smallest positive float32.
func openAITemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
