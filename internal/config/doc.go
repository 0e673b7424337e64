// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for assistroute.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - RouterConfig: Routing switch and the small/large model ids
//   - LocalConfig, RemoteConfig: Classification backends
//   - CacheConfig: Classification cache behavior
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ASSISTROUTE_*, then OPENROUTER_API_KEY / OPENAI_API_KEY)
//   - .env and .env.local in the working directory (never override the environment)
//   - $ASSISTROUTE_CONFIG, or ~/.assistroute/config.toml, then ~/.assistroute/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := router.New(cfg.RouterSettings())
package config
