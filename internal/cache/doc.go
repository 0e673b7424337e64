// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache holds recent model classifications so repeated queries
// skip the slow path.
//
// Keys are SHA-256 hashes of the normalized query (NFKC, case-folded,
// whitespace collapsed). Entries expire after a TTL, one minute by default,
// and the cache is bounded by an LRU limit.
//
// # Usage
//
//	c := cache.New(cache.Options{TTL: time.Minute})
//	c.StartSweeper(30 * time.Second)
//	defer c.Close()
//
//	if cls, ok := c.Get(query); ok {
//	    // use cls
//	}
package cache
