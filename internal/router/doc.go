// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router decides, for every assistant query, which model answers,
// which tools it may see, and which system prompt it gets.
//
// Routes queries through a cascade ordered by cost:
// Pattern rules -> Classification cache -> Local model -> Remote model -> Safe default
//
// # Key Types
//
//   - Router: Runs the cascade and records decisions
//   - PatternClassifier: Ordered, first-match-wins regex rules (fast path)
//   - QueryClassification: Complexity, category and confidence of a query
//   - RoutingDecision: Model tier, tool allow-list and prompt variant
//   - Config: Global enable switch and model identifiers
//
// # Decision Table
//
// Decide is a pure function of the classification. When routing is
// disabled it fails open: large model, every tool, full prompt. The safe
// default classification lands on the same large-model row.
//
// # Usage
//
//	r := router.New(router.DefaultConfig(),
//	    router.WithModelClassifier(slow),
//	    router.WithLogger(logger),
//	)
//	d := r.RouteQuery(ctx, "Show me my open opportunities", &router.ConversationContext{MessageCount: 3})
//	visible := r.Tools(d)
package router
