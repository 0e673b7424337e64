// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the CRM assistant tool catalog and allow-list filtering.
package tools

import (
	"strings"
)

// =============================================================================
// RISK LEVELS
// =============================================================================

// RiskLevel indicates how much a tool can change the user's CRM data.
type RiskLevel int

const (
	// RiskLow - Read-only operations, no side effects
	RiskLow RiskLevel = iota

	// RiskMedium - Creates or updates records
	RiskMedium

	// RiskHigh - Changes org metadata or sends mail on the user's behalf
	RiskHigh
)

// String returns the string representation of a risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseRiskLevel converts a catalog string into a RiskLevel.
// Unknown values map to RiskHigh.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "":
		return RiskLow
	case "medium":
		return RiskMedium
	default:
		return RiskHigh
	}
}

// =============================================================================
// TOOL DEFINITION
// =============================================================================

// Tool describes a callable tool exposed to the answering model.
// Execution lives with the host application; the router only decides visibility.
type Tool struct {
	// Name is the tool identifier (e.g., "search_leads")
	Name string `yaml:"name" json:"name"`

	// Description explains what the tool does
	Description string `yaml:"description" json:"description"`

	// ShortDescription is a concise description for model tool schemas
	// If empty, the first line of Description is used
	ShortDescription string `yaml:"short_description,omitempty" json:"short_description,omitempty"`

	// Group is the named group the tool belongs to (read, write, research, ...)
	Group string `yaml:"group" json:"group"`

	// Schema defines the tool's parameters
	Schema Schema `yaml:"schema" json:"schema"`

	// RiskLevel indicates how much the tool can change
	RiskLevel RiskLevel `yaml:"-" json:"-"`
}

// GetShortDescription returns the concise description suitable for model tool schemas.
func (t *Tool) GetShortDescription() string {
	if t.ShortDescription != "" {
		return t.ShortDescription
	}
	if idx := strings.Index(t.Description, "\n"); idx != -1 {
		return t.Description[:idx]
	}
	return t.Description
}

// Schema defines a tool's parameters.
type Schema struct {
	Parameters []Parameter `yaml:"parameters" json:"parameters"`
}

// Parameter defines a single tool parameter.
type Parameter struct {
	// Name of the parameter
	Name string `yaml:"name" json:"name"`

	// Type is the parameter type ("string", "number", "boolean", "array")
	Type string `yaml:"type" json:"type"`

	// Required indicates if the parameter must be provided
	Required bool `yaml:"required" json:"required"`

	// Description explains the parameter
	Description string `yaml:"description" json:"description"`

	// Enum contains allowed values for string type
	Enum []string `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// str is shorthand for a string parameter.
func str(name, desc string, required bool) Parameter {
	return Parameter{Name: name, Type: "string", Required: required, Description: desc}
}

// num is shorthand for a number parameter.
func num(name, desc string) Parameter {
	return Parameter{Name: name, Type: "number", Description: desc}
}
