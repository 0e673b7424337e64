// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/assistroute/internal/router"
	"github.com/jeranaias/assistroute/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete assistroute configuration.
type Config struct {
	// Router holds the decision-table switch and model ids.
	Router RouterConfig `toml:"router" json:"router"`

	// Local (Ollama) classification backend
	Local LocalConfig `toml:"local" json:"local"`

	// Remote classification backend
	Remote RemoteConfig `toml:"remote" json:"remote"`

	// Classification cache
	Cache CacheConfig `toml:"cache" json:"cache"`

	// Tool catalog source
	Catalog CatalogConfig `toml:"catalog" json:"catalog"`

	// Routing decision ledger
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`
}

// RouterConfig contains the decision-table settings.
type RouterConfig struct {
	// Enabled switches routing on. When false every query gets the large
	// model and the full tool catalog.
	Enabled bool `toml:"enabled" json:"enabled"`
	// SmallModel is the fast model id
	SmallModel string `toml:"small_model" json:"small_model"`
	// LargeModel is the capable model id
	LargeModel string `toml:"large_model" json:"large_model"`
}

// LocalConfig contains local Ollama configuration.
type LocalConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// OllamaURL is the URL of the Ollama server
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`
	// Model is the Ollama model used for classification
	Model     string `toml:"model" json:"model"`
	TimeoutMs int    `toml:"timeout_ms" json:"timeout_ms"`
	MaxTokens int    `toml:"max_tokens" json:"max_tokens"`
}

// RemoteConfig contains the hosted classification backend configuration.
type RemoteConfig struct {
	// Provider is "openrouter", "openai" or "none"
	Provider string `toml:"provider" json:"provider"`
	APIKey   string `toml:"api_key" json:"api_key"`
	// BaseURL overrides the provider endpoint (OpenAI-compatible servers)
	BaseURL string `toml:"base_url" json:"base_url"`
	// SiteURL is sent to OpenRouter as HTTP-Referer for app attribution
	SiteURL   string `toml:"site_url" json:"site_url"`
	Model     string `toml:"model" json:"model"`
	TimeoutMs int    `toml:"timeout_ms" json:"timeout_ms"`
	MaxTokens int    `toml:"max_tokens" json:"max_tokens"`
	// RatePerSecond limits remote calls; 0 disables the limit
	RatePerSecond float64 `toml:"rate_per_second" json:"rate_per_second"`
	Burst         int     `toml:"burst" json:"burst"`
}

// CacheConfig contains classification cache configuration.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds" json:"ttl_seconds"`
	MaxEntries int `toml:"max_entries" json:"max_entries"`
	// KeyPrefixLength truncates queries before hashing; 0 hashes everything
	KeyPrefixLength int `toml:"key_prefix_length" json:"key_prefix_length"`
	// SweepIntervalSeconds runs the expiry sweeper; 0 disables it
	SweepIntervalSeconds int `toml:"sweep_interval_seconds" json:"sweep_interval_seconds"`
}

// CatalogConfig selects the tool catalog.
type CatalogConfig struct {
	// Path is a YAML catalog file; empty uses the built-in catalog
	Path string `toml:"path" json:"path"`
	// Watch reloads the file when it changes
	Watch bool `toml:"watch" json:"watch"`
}

// TelemetryConfig contains routing ledger configuration.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	DBPath  string `toml:"db_path" json:"db_path"`
	// QueueSize buffers decisions between routing and the database writer
	QueueSize int `toml:"queue_size" json:"queue_size"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level"`
	// Format is text or json
	Format string `toml:"format" json:"format"`
}

// Remote providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderNone       = "none"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Router: RouterConfig{
			Enabled:    true,
			SmallModel: router.DefaultSmallModel,
			LargeModel: router.DefaultLargeModel,
		},
		Local: LocalConfig{
			Enabled:   true,
			OllamaURL: "http://127.0.0.1:11434",
			Model:     "llama3.2:3b",
			TimeoutMs: 3000,
			MaxTokens: 256,
		},
		Remote: RemoteConfig{
			Provider:      ProviderOpenRouter,
			Model:         "anthropic/claude-3.5-haiku",
			TimeoutMs:     5000,
			MaxTokens:     256,
			RatePerSecond: 5,
			Burst:         10,
		},
		Cache: CacheConfig{
			TTLSeconds:           60,
			MaxEntries:           10000,
			SweepIntervalSeconds: 30,
		},
		Telemetry: TelemetryConfig{
			Enabled:   false,
			QueueSize: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// RouterSettings converts the [router] section for router.New.
func (c *Config) RouterSettings() router.Config {
	return router.Config{
		Enabled:    c.Router.Enabled,
		SmallModel: c.Router.SmallModel,
		LargeModel: c.Router.LargeModel,
	}
}

// Timeout returns the local backend timeout.
func (l LocalConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutMs) * time.Millisecond
}

// Timeout returns the remote backend timeout.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepInterval returns the sweeper period, or 0 when disabled.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// SlogLevel parses the log level. Unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the assistroute configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".assistroute"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultTelemetryPath returns the default ledger database path.
func DefaultTelemetryPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "assistroute.db"
	}
	return filepath.Join(dir, "routing.db")
}

// ensureSecurePermissions tightens a config file to 0600 since it may hold
// an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// envFiles are loaded before environment overrides. Existing variables win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env files from the working directory.
func loadEnvFiles() {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
}

// Load loads configuration from ASSISTROUTE_CONFIG, or from
// ~/.assistroute/config.toml, then config.json, falling back to defaults.
// .env files and environment overrides are applied last.
//
// When a file exists but cannot be parsed, the defaults are returned
// together with the load error.
func Load() (*Config, error) {
	loadEnvFiles()

	if path := os.Getenv("ASSISTROUTE_CONFIG"); path != "" {
		return LoadFromPath(path)
	}

	cfg := Default()
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
				cfg = Default()
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil && loadErr == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
				cfg = Default()
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// finish applies env overrides and defaults, then validates.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("could not ensure secure permissions on config file",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Warn("unknown config keys ignored", slog.String("path", path), slog.Any("keys", keys))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("could not ensure secure permissions on config file",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills in missing string and size values. Booleans are left
// alone since false is a meaningful setting.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	// Router
	if cfg.Router.SmallModel == "" {
		cfg.Router.SmallModel = defaults.Router.SmallModel
	}
	if cfg.Router.LargeModel == "" {
		cfg.Router.LargeModel = defaults.Router.LargeModel
	}

	// Local
	if cfg.Local.OllamaURL == "" {
		cfg.Local.OllamaURL = defaults.Local.OllamaURL
	}
	if cfg.Local.Model == "" {
		cfg.Local.Model = defaults.Local.Model
	}
	if cfg.Local.TimeoutMs == 0 {
		cfg.Local.TimeoutMs = defaults.Local.TimeoutMs
	}
	if cfg.Local.MaxTokens == 0 {
		cfg.Local.MaxTokens = defaults.Local.MaxTokens
	}

	// Remote
	if cfg.Remote.Provider == "" {
		cfg.Remote.Provider = defaults.Remote.Provider
	}
	cfg.Remote.Provider = strings.ToLower(cfg.Remote.Provider)
	if cfg.Remote.Model == "" {
		cfg.Remote.Model = defaults.Remote.Model
	}
	if cfg.Remote.TimeoutMs == 0 {
		cfg.Remote.TimeoutMs = defaults.Remote.TimeoutMs
	}
	if cfg.Remote.MaxTokens == 0 {
		cfg.Remote.MaxTokens = defaults.Remote.MaxTokens
	}

	// Cache
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = defaults.Cache.TTLSeconds
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = defaults.Cache.MaxEntries
	}

	// Telemetry
	if cfg.Telemetry.DBPath == "" {
		cfg.Telemetry.DBPath = DefaultTelemetryPath()
	}
	if cfg.Telemetry.QueueSize == 0 {
		cfg.Telemetry.QueueSize = defaults.Telemetry.QueueSize
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# assistroute configuration file\n")
	buf.WriteString("# Generated by assistroute - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON atomically writes the configuration as JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns ValidateErrors listing
// every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Router
	if strings.TrimSpace(c.Router.SmallModel) == "" {
		add("router.small_model", "must not be empty")
	}
	if strings.TrimSpace(c.Router.LargeModel) == "" {
		add("router.large_model", "must not be empty")
	}

	// Local
	if c.Local.Enabled {
		if err := validateURL(c.Local.OllamaURL); err != nil {
			add("local.ollama_url", "%v", err)
		}
	}
	if c.Local.TimeoutMs < 0 {
		add("local.timeout_ms", "must not be negative, got %d", c.Local.TimeoutMs)
	}
	if c.Local.MaxTokens < 0 {
		add("local.max_tokens", "must not be negative, got %d", c.Local.MaxTokens)
	}

	// Remote
	switch c.Remote.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderNone:
	default:
		add("remote.provider", "invalid provider '%s', must be one of: openrouter, openai, none", c.Remote.Provider)
	}
	if c.Remote.BaseURL != "" {
		if err := validateURL(c.Remote.BaseURL); err != nil {
			add("remote.base_url", "%v", err)
		}
	}
	if c.Remote.SiteURL != "" {
		if err := validateURL(c.Remote.SiteURL); err != nil {
			add("remote.site_url", "%v", err)
		}
	}
	if c.Remote.TimeoutMs < 0 {
		add("remote.timeout_ms", "must not be negative, got %d", c.Remote.TimeoutMs)
	}
	if c.Remote.MaxTokens < 0 {
		add("remote.max_tokens", "must not be negative, got %d", c.Remote.MaxTokens)
	}
	if c.Remote.RatePerSecond < 0 {
		add("remote.rate_per_second", "must not be negative, got %g", c.Remote.RatePerSecond)
	}
	if c.Remote.Burst < 0 {
		add("remote.burst", "must not be negative, got %d", c.Remote.Burst)
	}

	// Cache
	if c.Cache.TTLSeconds < 0 {
		add("cache.ttl_seconds", "must not be negative, got %d", c.Cache.TTLSeconds)
	}
	if c.Cache.KeyPrefixLength < 0 {
		add("cache.key_prefix_length", "must not be negative, got %d", c.Cache.KeyPrefixLength)
	}
	if c.Cache.SweepIntervalSeconds < 0 {
		add("cache.sweep_interval_seconds", "must not be negative, got %d", c.Cache.SweepIntervalSeconds)
	}

	// Telemetry
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.DBPath) == "" {
		add("telemetry.db_path", "required when telemetry is enabled")
	}
	if c.Telemetry.QueueSize < 0 {
		add("telemetry.queue_size", "must not be negative, got %d", c.Telemetry.QueueSize)
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "invalid format '%s', must be text or json", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - ASSISTROUTE_ROUTER_ENABLED: router.enabled
//   - ASSISTROUTE_SMALL_MODEL / ASSISTROUTE_LARGE_MODEL: router model ids
//   - ASSISTROUTE_LOCAL_ENABLED: local.enabled
//   - ASSISTROUTE_OLLAMA_URL / ASSISTROUTE_LOCAL_MODEL: local backend
//   - ASSISTROUTE_REMOTE_PROVIDER / ASSISTROUTE_REMOTE_MODEL: remote backend
//   - ASSISTROUTE_SITE_URL: remote.site_url
//   - ASSISTROUTE_API_KEY: remote.api_key; when unset, OPENROUTER_API_KEY or
//     OPENAI_API_KEY is used for the matching provider
//   - ASSISTROUTE_CACHE_TTL: cache.ttl_seconds
//   - ASSISTROUTE_TELEMETRY_DB: telemetry.db_path (also enables telemetry)
//   - ASSISTROUTE_LOG_LEVEL / ASSISTROUTE_LOG_FORMAT: log settings
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ASSISTROUTE_ROUTER_ENABLED"); v != "" {
		c.Router.Enabled = parseBool(v)
	}
	if v := os.Getenv("ASSISTROUTE_SMALL_MODEL"); v != "" {
		c.Router.SmallModel = v
	}
	if v := os.Getenv("ASSISTROUTE_LARGE_MODEL"); v != "" {
		c.Router.LargeModel = v
	}

	if v := os.Getenv("ASSISTROUTE_LOCAL_ENABLED"); v != "" {
		c.Local.Enabled = parseBool(v)
	}
	if v := os.Getenv("ASSISTROUTE_OLLAMA_URL"); v != "" {
		c.Local.OllamaURL = v
	}
	if v := os.Getenv("ASSISTROUTE_LOCAL_MODEL"); v != "" {
		c.Local.Model = v
	}

	if v := os.Getenv("ASSISTROUTE_REMOTE_PROVIDER"); v != "" {
		c.Remote.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("ASSISTROUTE_REMOTE_MODEL"); v != "" {
		c.Remote.Model = v
	}
	if v := os.Getenv("ASSISTROUTE_SITE_URL"); v != "" {
		c.Remote.SiteURL = v
	}
	if v := os.Getenv("ASSISTROUTE_API_KEY"); v != "" {
		c.Remote.APIKey = v
	} else if c.Remote.APIKey == "" {
		switch strings.ToLower(c.Remote.Provider) {
		case ProviderOpenRouter, "":
			c.Remote.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case ProviderOpenAI:
			c.Remote.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if v := os.Getenv("ASSISTROUTE_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLSeconds = secs
		}
	}

	if v := os.Getenv("ASSISTROUTE_TELEMETRY_DB"); v != "" {
		c.Telemetry.DBPath = v
		c.Telemetry.Enabled = true
	}

	if v := os.Getenv("ASSISTROUTE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ASSISTROUTE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "cache.ttl_seconds").
func (c *Config) Get(key string) (any, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// name. Matching is case-insensitive, so "ttl_seconds" finds TTLSeconds.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy safe to print: the API key keeps only its last
// four characters.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Remote.APIKey != "" {
		safe.Remote.APIKey = util.RedactSecret(safe.Remote.APIKey)
	}
	return safe
}

// String returns the redacted configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			slog.Warn("config load failed, using defaults", slog.String("error", err.Error()))
		}
		if cfg == nil {
			cfg = Default()
			_ = fillDefaults(cfg)
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
