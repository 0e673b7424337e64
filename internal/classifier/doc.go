// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package classifier implements the model-backed slow path of the router.
//
// Queries that no pattern rule matches are classified by asking a model.
// The Classifier checks the classification cache, then tries an ordered
// chain of backends (local Ollama first, then a hosted model), and parses
// the first usable JSON answer. Failures of any kind fall through to the
// next backend and finally to router.DefaultClassification.
//
// # Key Types
//
//   - Classifier: cache + backend chain; implements router.ModelClassifier
//   - Backend: one model in the chain
//   - LocalBackend: wraps a TextCompleter such as *ollama.Client
//   - RemoteBackend: wraps a ChatCompleter such as *cloud.OpenRouterClient,
//     with a per-backend timeout and an optional rate limit
//
// # Usage
//
//	c := classifier.New(classificationCache, []classifier.Backend{
//	    classifier.NewLocalBackend(ollamaClient, 3*time.Second, 256),
//	    classifier.NewRemoteBackend(openRouter, classifier.RemoteOptions{Model: "anthropic/claude-3.5-haiku"}),
//	})
//	r := router.New(router.DefaultConfig(), router.WithModelClassifier(c))
package classifier
