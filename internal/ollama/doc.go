// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local Ollama server.
//
// The router uses it as the local classification backend: a one-shot,
// non-streaming call to /api/generate with a system instruction, a user
// instruction and temperature 0.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "llama3.2:3b",
//	})
//	text, err := client.TextCompletion(ctx, system, user, ollama.CompletionOptions{MaxTokens: 256})
//
// Errors are *ClientError values; use IsNotRunning, IsTimeout and
// IsModelNotFound to inspect them.
package ollama
