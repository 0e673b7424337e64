// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting.
//
// Every command emits the same envelope in JSON mode so callers can check
// success without knowing the command's payload.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/assistroute/internal/router"
)

// JSONResponse is the response envelope for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// RouteData is returned by the route command.
type RouteData struct {
	Decision  router.RoutingDecision `json:"decision"`
	Tools     []string               `json:"tools"`
	LatencyMs float64                `json:"latency_ms"`
}

// ClassifyData is returned by the classify command.
type ClassifyData struct {
	Classification router.QueryClassification `json:"classification"`
	Source         router.Source              `json:"source"`
	LatencyMs      float64                    `json:"latency_ms"`
}

// ToolData is one catalog entry in the tools command.
type ToolData struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Risk        string `json:"risk"`
	Description string `json:"description"`
}

// ToolsData is returned by the tools command.
type ToolsData struct {
	Tools  []ToolData          `json:"tools"`
	Groups map[string][]string `json:"groups"`
}

// VersionData is returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
