// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/assistroute/internal/router"
)

// isolate points HOME at an empty directory and clears the variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{
		"ASSISTROUTE_CONFIG", "ASSISTROUTE_ROUTER_ENABLED", "ASSISTROUTE_SMALL_MODEL",
		"ASSISTROUTE_LARGE_MODEL", "ASSISTROUTE_LOCAL_ENABLED", "ASSISTROUTE_OLLAMA_URL",
		"ASSISTROUTE_LOCAL_MODEL", "ASSISTROUTE_REMOTE_PROVIDER", "ASSISTROUTE_REMOTE_MODEL",
		"ASSISTROUTE_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "ASSISTROUTE_CACHE_TTL",
		"ASSISTROUTE_TELEMETRY_DB", "ASSISTROUTE_LOG_LEVEL", "ASSISTROUTE_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	return home
}

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Router.SmallModel = "test-small"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if cfg := Global(); cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_ConcurrentReload tests concurrent ReloadGlobal and Global calls.
func TestConfig_ConcurrentReload(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ReloadGlobal(); err != nil {
				t.Errorf("ReloadGlobal() error = %v", err)
			}
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cfg := Global(); cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	c := Default()
	c.Router.LargeModel = "custom-large"
	SetGlobal(c)

	if got := Global().Router.LargeModel; got != "custom-large" {
		t.Errorf("Global().Router.LargeModel = %q, want custom-large", got)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if !cfg.Router.Enabled {
		t.Error("routing should be enabled by default")
	}
	if cfg.Router.SmallModel != router.DefaultSmallModel || cfg.Router.LargeModel != router.DefaultLargeModel {
		t.Errorf("models = %q/%q", cfg.Router.SmallModel, cfg.Router.LargeModel)
	}
	if cfg.Cache.TTL() != 60*time.Second {
		t.Errorf("cache TTL = %v, want 60s", cfg.Cache.TTL())
	}
	if cfg.Local.Timeout() != 3*time.Second || cfg.Remote.Timeout() != 5*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.Local.Timeout(), cfg.Remote.Timeout())
	}
	if cfg.Remote.Provider != ProviderOpenRouter {
		t.Errorf("provider = %q", cfg.Remote.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty_small_model", func(c *Config) { c.Router.SmallModel = " " }, "router.small_model"},
		{"empty_large_model", func(c *Config) { c.Router.LargeModel = "" }, "router.large_model"},
		{"bad_ollama_scheme", func(c *Config) { c.Local.OllamaURL = "ftp://localhost" }, "local.ollama_url"},
		{"ollama_url_ignored_when_disabled", func(c *Config) {
			c.Local.Enabled = false
			c.Local.OllamaURL = "::bad"
		}, ""},
		{"negative_local_timeout", func(c *Config) { c.Local.TimeoutMs = -1 }, "local.timeout_ms"},
		{"unknown_provider", func(c *Config) { c.Remote.Provider = "anthropic" }, "remote.provider"},
		{"bad_base_url", func(c *Config) { c.Remote.BaseURL = "localhost:8080" }, "remote.base_url"},
		{"bad_site_url", func(c *Config) { c.Remote.SiteURL = "crm.example.com" }, "remote.site_url"},
		{"site_url", func(c *Config) { c.Remote.SiteURL = "https://crm.example.com" }, ""},
		{"negative_rate", func(c *Config) { c.Remote.RatePerSecond = -2 }, "remote.rate_per_second"},
		{"negative_ttl", func(c *Config) { c.Cache.TTLSeconds = -5 }, "cache.ttl_seconds"},
		{"negative_prefix", func(c *Config) { c.Cache.KeyPrefixLength = -1 }, "cache.key_prefix_length"},
		{"telemetry_without_path", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.DBPath = ""
		}, "telemetry.db_path"},
		{"negative_queue_size", func(c *Config) { c.Telemetry.QueueSize = -1 }, "telemetry.queue_size"},
		{"bad_log_level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad_log_format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var errs ValidateErrors
			if !errors.As(err, &errs) {
				t.Fatalf("Validate() error = %v, want ValidateErrors", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an error for %s", err, tt.field)
			}
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Router.SmallModel = ""
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	var errs ValidateErrors
	if !errors.As(err, &errs) || len(errs) != 2 {
		t.Fatalf("Validate() = %v, want 2 errors", err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("errors not joined: %q", err.Error())
	}
}

func TestConfig_Get(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key  string
		want any
	}{
		{"router.enabled", true},
		{"router.small_model", router.DefaultSmallModel},
		{"cache.ttl_seconds", 60},
		{"remote.rate_per_second", 5.0},
		{"log.format", "text"},
	}
	for _, tt := range tests {
		got, err := cfg.Get(tt.key)
		if err != nil {
			t.Errorf("Get(%q) error = %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}

	for _, bad := range []string{"", "nope", "router.nope", "log.level.extra"} {
		if _, err := cfg.Get(bad); err == nil {
			t.Errorf("Get(%q) should fail", bad)
		}
	}
}

func TestConfig_CloneAndRedacted(t *testing.T) {
	cfg := Default()
	cfg.Remote.APIKey = "sk-or-v1-abcdefghijklmnop"

	clone := cfg.Clone()
	clone.Router.SmallModel = "changed"
	if cfg.Router.SmallModel == "changed" {
		t.Error("Clone shares state with the original")
	}

	red := cfg.Redacted()
	if red.Remote.APIKey == cfg.Remote.APIKey {
		t.Error("Redacted kept the API key")
	}
	if cfg.Remote.APIKey != "sk-or-v1-abcdefghijklmnop" {
		t.Error("Redacted modified the original")
	}
	if strings.Contains(cfg.String(), "abcdefghijkl") {
		t.Error("String() leaks the API key")
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("ASSISTROUTE_ROUTER_ENABLED", "false")
	t.Setenv("ASSISTROUTE_LARGE_MODEL", "big-model")
	t.Setenv("ASSISTROUTE_CACHE_TTL", "120")
	t.Setenv("ASSISTROUTE_TELEMETRY_DB", "/tmp/ledger.db")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-from-env")
	t.Setenv("ASSISTROUTE_SITE_URL", "https://crm.example.com")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Router.Enabled {
		t.Error("router should be disabled")
	}
	if cfg.Router.LargeModel != "big-model" {
		t.Errorf("LargeModel = %q", cfg.Router.LargeModel)
	}
	if cfg.Cache.TTLSeconds != 120 {
		t.Errorf("TTLSeconds = %d", cfg.Cache.TTLSeconds)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.DBPath != "/tmp/ledger.db" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
	if cfg.Remote.APIKey != "sk-or-from-env" {
		t.Errorf("APIKey = %q", cfg.Remote.APIKey)
	}
	if cfg.Remote.SiteURL != "https://crm.example.com" {
		t.Errorf("SiteURL = %q", cfg.Remote.SiteURL)
	}
}

func TestConfig_ProviderKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("OPENROUTER_API_KEY", "router-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg := Default()
	cfg.Remote.Provider = ProviderOpenAI
	cfg.ApplyEnvOverrides()
	if cfg.Remote.APIKey != "openai-key" {
		t.Errorf("APIKey = %q, want openai-key", cfg.Remote.APIKey)
	}

	t.Setenv("ASSISTROUTE_API_KEY", "explicit")
	cfg.ApplyEnvOverrides()
	if cfg.Remote.APIKey != "explicit" {
		t.Errorf("APIKey = %q, want explicit", cfg.Remote.APIKey)
	}
}

func TestConfig_SaveLoadTOML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Router.SmallModel = "tiny"
	cfg.Cache.KeyPrefixLength = 512
	cfg.Remote.Provider = ProviderNone
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Router.SmallModel != "tiny" || loaded.Cache.KeyPrefixLength != 512 || loaded.Remote.Provider != ProviderNone {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestConfig_LoadPartialTOMLKeepsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[router]\nenabled = false\n\n[cache]\nttl_seconds = 30\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Router.Enabled {
		t.Error("router.enabled from file not applied")
	}
	if cfg.Cache.TTLSeconds != 30 {
		t.Errorf("TTLSeconds = %d, want 30", cfg.Cache.TTLSeconds)
	}
	if cfg.Router.LargeModel != router.DefaultLargeModel {
		t.Errorf("LargeModel = %q, want default", cfg.Router.LargeModel)
	}
	if cfg.Telemetry.DBPath == "" {
		t.Error("telemetry db path not defaulted")
	}
}

func TestConfig_LoadJSONAndInvalid(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	cfg := Default()
	cfg.Log.Format = "json"
	if err := SaveJSON(cfg, jsonPath); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	loaded, err := LoadFromPath(jsonPath)
	if err != nil {
		t.Fatalf("LoadFromPath(json) error = %v", err)
	}
	if loaded.Log.Format != "json" {
		t.Errorf("Log.Format = %q", loaded.Log.Format)
	}

	badPath := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(badPath, []byte("[log]\nlevel = \"loud\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(badPath); err == nil {
		t.Error("LoadFromPath accepted an invalid log level")
	}
}

func TestConfig_LoadHonorsConfigEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[router]\nsmall_model = \"from-env-path\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASSISTROUTE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Router.SmallModel != "from-env-path" {
		t.Errorf("SmallModel = %q", cfg.Router.SmallModel)
	}
}

func TestConfig_LoadWithoutFiles(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Router.SmallModel != router.DefaultSmallModel {
		t.Errorf("SmallModel = %q", cfg.Router.SmallModel)
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRouterSettings(t *testing.T) {
	cfg := Default()
	cfg.Router.Enabled = false
	rc := cfg.RouterSettings()
	if rc.Enabled || rc.SmallModel != cfg.Router.SmallModel || rc.LargeModel != cfg.Router.LargeModel {
		t.Errorf("RouterSettings() = %+v", rc)
	}
}
