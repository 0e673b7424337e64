// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/assistroute/internal/router"
	"github.com/jeranaias/assistroute/internal/util"
)

// Parse errors.
var (
	ErrNoJSON        = errors.New("no JSON object in response")
	ErrMissingFields = errors.New("classification missing complexity or category")
)

// ParseClassification extracts a classification from raw model output.
// Markdown fences are stripped and the first balanced JSON object is
// decoded; surrounding prose is ignored. The result is normalized.
func ParseClassification(text string) (router.QueryClassification, error) {
	obj, ok := ExtractJSONObject(stripFences(text))
	if !ok {
		return router.QueryClassification{}, fmt.Errorf("%w: %s", ErrNoJSON, util.TruncateRunes(strings.TrimSpace(text), 100))
	}

	var cls router.QueryClassification
	if err := json.Unmarshal([]byte(obj), &cls); err != nil {
		return router.QueryClassification{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if strings.TrimSpace(string(cls.Complexity)) == "" || strings.TrimSpace(string(cls.Category)) == "" {
		return router.QueryClassification{}, ErrMissingFields
	}
	return cls.Normalize(), nil
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (e.g. "json") up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first balanced {...} span in s. Braces
// inside string literals, including escaped quotes, are not counted.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
