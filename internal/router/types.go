// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"math"
	"strings"

	"github.com/jeranaias/assistroute/internal/tools"
)

// ============================================================================
// COMPLEXITY
// ============================================================================

// Complexity is the coarse difficulty of a query.
type Complexity string

const (
	// ComplexitySimple - one lookup or a pleasantry; the small model can answer.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate - a single action or a focused domain operation.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex - research, analysis or chained work.
	ComplexityComplex Complexity = "complex"
)

// Valid reports whether c is one of the known complexities.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

// ============================================================================
// CATEGORY
// ============================================================================

// Category is the intent of a query.
type Category string

const (
	CategoryGreeting    Category = "greeting"
	CategoryCRMRead     Category = "crm-read"
	CategoryCRMWrite    Category = "crm-write"
	CategoryCRMAnalysis Category = "crm-analysis"
	CategoryResearch    Category = "research"
	CategoryDocument    Category = "document"
	CategoryEmail       Category = "email"
	CategoryMeeting     Category = "meeting"
	CategoryAdmin       Category = "admin"
	CategoryGeneralQA   Category = "general-qa"
	CategoryMultiStep   Category = "multi-step"
)

// AllCategories lists every category in declaration order.
var AllCategories = []Category{
	CategoryGreeting, CategoryCRMRead, CategoryCRMWrite, CategoryCRMAnalysis,
	CategoryResearch, CategoryDocument, CategoryEmail, CategoryMeeting,
	CategoryAdmin, CategoryGeneralQA, CategoryMultiStep,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ============================================================================
// PROMPT KEYS
// ============================================================================

// PromptKey selects the system-prompt variant used by the answering model.
type PromptKey string

const (
	PromptFull         PromptKey = "full"
	PromptMinimal      PromptKey = "minimal"
	PromptCRMOnly      PromptKey = "crm-only"
	PromptResearchOnly PromptKey = "research-only"
)

// ============================================================================
// CLASSIFICATION SOURCE
// ============================================================================

// Source records which stage of the cascade produced a classification.
type Source string

const (
	// SourcePattern - the regex fast path matched.
	SourcePattern Source = "pattern"
	// SourceCache - a live cache entry from an earlier model call.
	SourceCache Source = "cache"
	// SourceModel - a backend returned a parseable classification.
	SourceModel Source = "model"
	// SourceFallback - every backend failed; the safe default was used.
	SourceFallback Source = "fallback"
	// SourceDisabled - routing is switched off.
	SourceDisabled Source = "disabled"
)

// ============================================================================
// QUERY CLASSIFICATION
// ============================================================================

// FallbackReasoning is the reasoning string of the safe default.
const FallbackReasoning = "fallback-default"

// QueryClassification is the result of classifying one query.
// The JSON field names are the contract with the classifier model.
type QueryClassification struct {
	Complexity     Complexity `json:"complexity"`
	Category       Category   `json:"category"`
	Confidence     float64    `json:"confidence"`
	RequiresTools  bool       `json:"requiresTools"`
	SuggestedTools []string   `json:"suggestedTools"`
	Reasoning      string     `json:"reasoning"`
}

// DefaultClassification returns the safe default used whenever the slow
// path cannot produce a classification. It routes to the large model with
// the full catalog.
func DefaultClassification() QueryClassification {
	return QueryClassification{
		Complexity:     ComplexityModerate,
		Category:       CategoryGeneralQA,
		Confidence:     0.5,
		RequiresTools:  true,
		SuggestedTools: []string{},
		Reasoning:      FallbackReasoning,
	}
}

// IsFallback reports whether c is the safe default.
func (c QueryClassification) IsFallback() bool {
	return c.Reasoning == FallbackReasoning
}

// Clone returns a copy that shares no memory with c.
func (c QueryClassification) Clone() QueryClassification {
	out := c
	out.SuggestedTools = make([]string, len(c.SuggestedTools))
	copy(out.SuggestedTools, c.SuggestedTools)
	return out
}

// Normalize coerces a classification received from outside the process
// into a valid one: confidence is clamped to [0,1], enum values are
// lower-cased, and an unknown complexity or category is replaced by the
// safe default's value.
func (c QueryClassification) Normalize() QueryClassification {
	out := c.Clone()
	def := DefaultClassification()

	out.Complexity = Complexity(strings.ToLower(strings.TrimSpace(string(out.Complexity))))
	if !out.Complexity.Valid() {
		out.Complexity = def.Complexity
	}
	out.Category = Category(strings.ToLower(strings.TrimSpace(string(out.Category))))
	if !out.Category.Valid() {
		out.Category = def.Category
	}

	switch {
	case math.IsNaN(out.Confidence):
		out.Confidence = def.Confidence
	case out.Confidence < 0:
		out.Confidence = 0
	case out.Confidence > 1:
		out.Confidence = 1
	}
	return out
}

// ============================================================================
// CONVERSATION CONTEXT
// ============================================================================

// ConversationContext is supplied by the caller with each query.
// It is recorded on the decision but does not change the decision table.
type ConversationContext struct {
	MessageCount int  `json:"messageCount"`
	HasToolCalls bool `json:"hasToolCalls"`
}

// ============================================================================
// ROUTING DECISION
// ============================================================================

// RoutingDecision is the output of the routing cascade.
type RoutingDecision struct {
	// ID uniquely identifies this decision in logs and the telemetry ledger.
	ID string `json:"id"`

	// UseSmallModel is true when the small/fast model should answer.
	UseSmallModel bool `json:"useSmallModel"`

	// ModelID is the configured identifier of the chosen model.
	ModelID string `json:"modelId"`

	// ToolSubset is the allow-list of tool names.
	// nil means unrestricted; an empty set means no tools.
	ToolSubset *tools.Set `json:"toolSubset"`

	// SystemPromptKey selects the system-prompt variant.
	SystemPromptKey PromptKey `json:"systemPromptKey"`

	// SkipMetadataExtraction disables post-response entity extraction.
	SkipMetadataExtraction bool `json:"skipMetadataExtraction"`

	// Rule names the decision-table row that fired.
	Rule string `json:"rule"`

	// Source is the cascade stage that produced Classification.
	Source Source `json:"source"`

	// Classification is the input the decision was derived from.
	Classification QueryClassification `json:"classification"`

	// Context is the caller-supplied conversation context, if any.
	Context *ConversationContext `json:"context,omitempty"`
}

// Unrestricted reports whether every catalog tool is visible.
func (d RoutingDecision) Unrestricted() bool {
	return d.ToolSubset == nil
}
