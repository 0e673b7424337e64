// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/assistroute/internal/util"
)

// Normalize canonicalizes a query for cache lookup: Unicode NFKC, case
// folding, whitespace runs collapsed to one space, and outer whitespace
// trimmed. When prefixLen > 0 the result is truncated to that many runes.
func Normalize(query string, prefixLen int) string {
	s := norm.NFKC.String(query)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")

	if prefixLen > 0 {
		s = util.TruncateRunesNoEllipsis(s, prefixLen)
	}
	return s
}

// Key returns the hex SHA-256 of the normalized query.
func Key(query string, prefixLen int) string {
	sum := sha256.Sum256([]byte(Normalize(query, prefixLen)))
	return hex.EncodeToString(sum[:])
}
