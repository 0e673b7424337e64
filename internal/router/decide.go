// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"github.com/jeranaias/assistroute/internal/tools"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Default model identifiers.
const (
	DefaultSmallModel = "claude-3-5-haiku-latest"
	DefaultLargeModel = "claude-sonnet-4-5"
)

// MinFastConfidence is the confidence a simple classification needs
// before it may be answered by the small model.
const MinFastConfidence = 0.8

// Config holds the decision-table settings. It is read once at startup.
type Config struct {
	// Enabled switches routing on. When false every query gets the
	// fail-open decision: large model, all tools, full prompt.
	Enabled bool

	// SmallModel is the fast model identifier.
	SmallModel string

	// LargeModel is the capable model identifier.
	LargeModel string
}

// DefaultConfig returns routing enabled with the default model ids.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		SmallModel: DefaultSmallModel,
		LargeModel: DefaultLargeModel,
	}
}

// ============================================================================
// DECISION RULE NAMES
// ============================================================================

// Names of the decision-table rows, recorded on RoutingDecision.Rule.
const (
	RuleDisabled           = "disabled"
	RuleSimpleGreeting     = "simple-greeting"
	RuleSimpleCRMRead      = "simple-crm-read"
	RuleModerate           = "moderate"
	RuleComplexResearch    = "complex-research"
	RuleComplexCRMAnalysis = "complex-crm-analysis"
	RuleDefault            = "default"
)

// ============================================================================
// DECISION ENGINE
// ============================================================================

// Decide maps a classification to a routing decision.
//
// Decide is pure: it has no side effects and the same inputs always give
// the same decision. ID and Source are left for the caller to fill in.
// The rows are evaluated in order and the first that applies wins:
//
//  1. simple, confident greeting: small model, no tools, minimal prompt
//  2. simple, confident CRM read: small model, read tools, CRM prompt
//  3. moderate: large model, tools by category
//  4. complex research: large model, research and read tools
//  5. complex CRM analysis: large model, read, write and quote tools
//  6. anything else: large model, all tools
func Decide(cfg Config, c QueryClassification, convCtx *ConversationContext) RoutingDecision {
	d := RoutingDecision{
		Classification: c.Clone(),
		Context:        copyContext(convCtx),
	}

	if !cfg.Enabled {
		return failOpen(cfg, d, RuleDisabled)
	}

	switch {
	case c.Complexity == ComplexitySimple && c.Confidence >= MinFastConfidence && c.Category == CategoryGreeting:
		d.UseSmallModel = true
		d.ModelID = cfg.SmallModel
		d.ToolSubset = tools.EmptySet()
		d.SystemPromptKey = PromptMinimal
		d.SkipMetadataExtraction = true
		d.Rule = RuleSimpleGreeting

	case c.Complexity == ComplexitySimple && c.Confidence >= MinFastConfidence && c.Category == CategoryCRMRead:
		d.UseSmallModel = true
		d.ModelID = cfg.SmallModel
		d.ToolSubset = tools.ReadGroup
		d.SystemPromptKey = PromptCRMOnly
		d.SkipMetadataExtraction = true
		d.Rule = RuleSimpleCRMRead

	case c.Complexity == ComplexityModerate:
		d.ModelID = cfg.LargeModel
		d.ToolSubset = moderateTools(c.Category)
		d.SystemPromptKey = PromptFull
		d.SkipMetadataExtraction = c.Category == CategoryCRMRead || c.Category == CategoryCRMWrite
		d.Rule = RuleModerate

	case c.Complexity == ComplexityComplex && c.Category == CategoryResearch:
		d.ModelID = cfg.LargeModel
		d.ToolSubset = tools.ResearchGroup.Union(tools.ReadGroup)
		d.SystemPromptKey = PromptResearchOnly
		d.Rule = RuleComplexResearch

	case c.Complexity == ComplexityComplex && c.Category == CategoryCRMAnalysis:
		d.ModelID = cfg.LargeModel
		d.ToolSubset = tools.ReadGroup.Union(tools.WriteGroup, tools.QuotesGroup)
		d.SystemPromptKey = PromptFull
		d.Rule = RuleComplexCRMAnalysis

	default:
		return failOpen(cfg, d, RuleDefault)
	}
	return d
}

// moderateTools picks the allow-list for a moderate query.
// nil means the full catalog.
func moderateTools(category Category) *tools.Set {
	switch category {
	case CategoryCRMRead:
		return tools.ReadGroup
	case CategoryCRMWrite:
		return tools.ReadGroup.Union(tools.WriteGroup)
	case CategoryEmail:
		return tools.EmailGroup.Union(tools.ReadGroup)
	case CategoryMeeting:
		return tools.MeetingGroup.Union(tools.ReadGroup)
	case CategoryAdmin:
		return tools.AdminGroup.Union(tools.ReadGroup)
	default:
		return nil
	}
}

// failOpen fills in the large-model, all-tools, full-prompt decision.
func failOpen(cfg Config, d RoutingDecision, rule string) RoutingDecision {
	d.UseSmallModel = false
	d.ModelID = cfg.LargeModel
	d.ToolSubset = nil
	d.SystemPromptKey = PromptFull
	d.SkipMetadataExtraction = false
	d.Rule = rule
	return d
}

func copyContext(c *ConversationContext) *ConversationContext {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
