// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the remote chat-completion clients used as the
// second classification backend.
//
// Two providers are available behind the same ChatCompletion method:
//
//   - OpenRouterClient: hand-rolled HTTP client for OpenRouter with retry
//     and exponential backoff on 429 and 5xx responses.
//   - OpenAIClient: github.com/sashabaranov/go-openai against any
//     OpenAI-compatible endpoint.
//
// Both map provider failures onto the package sentinels (ErrNotConfigured,
// ErrAuthFailed, ErrRateLimited, ErrModelNotFound, ErrInsufficientCredits)
// so callers can inspect them with errors.Is.
//
// # Usage
//
//	client := cloud.NewOpenRouterClient(apiKey).WithTimeout(5 * time.Second)
//	text, err := client.ChatCompletion(ctx, "anthropic/claude-3.5-haiku",
//	    []cloud.ChatMessage{cloud.NewSystemMessage(sys), cloud.NewUserMessage(q)},
//	    cloud.CompletionOptions{MaxTokens: 256})
//
// API keys are never logged.
package cloud
