// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeranaias/assistroute/internal/cache"
	"github.com/jeranaias/assistroute/internal/classifier"
	"github.com/jeranaias/assistroute/internal/cloud"
	"github.com/jeranaias/assistroute/internal/config"
	"github.com/jeranaias/assistroute/internal/ollama"
	"github.com/jeranaias/assistroute/internal/router"
	"github.com/jeranaias/assistroute/internal/telemetry"
	"github.com/jeranaias/assistroute/internal/tools"
)

const (
	// catalogDebounce collapses bursts of editor writes to the catalog file.
	catalogDebounce = 250 * time.Millisecond

	// recorderDrainTimeout bounds how long Close waits for queued decisions.
	recorderDrainTimeout = 5 * time.Second
)

// App holds the wired routing stack for one process.
type App struct {
	Config     *config.Config
	Router     *router.Router
	Cache      *cache.ClassificationCache
	Classifier *classifier.Classifier
	Catalog    tools.Catalog
	Ledger     *telemetry.Ledger
	Recorder   *telemetry.AsyncRecorder
	Local      *ollama.Client

	logger *slog.Logger
	cancel context.CancelFunc
}

// AppOptions adjusts wiring for commands that need less than the full stack.
type AppOptions struct {
	// WatchCatalog starts the catalog file watcher when configured.
	WatchCatalog bool
	// Sweep starts the cache sweeper.
	Sweep bool
}

// NewApp builds the routing stack from cfg. Close releases everything it
// started.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts AppOptions) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	app := &App{Config: cfg, logger: logger, cancel: cancel}

	// Tool catalog
	app.Catalog = tools.Builtin()
	if cfg.Catalog.Path != "" {
		fc, err := tools.LoadFileCatalog(cfg.Catalog.Path, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("load tool catalog: %w", err)
		}
		if opts.WatchCatalog && cfg.Catalog.Watch {
			if err := fc.Watch(ctx, catalogDebounce); err != nil {
				logger.Warn("CLI: catalog watch failed, using static catalog",
					slog.String("path", fc.Path()), slog.String("error", err.Error()))
			}
		}
		app.Catalog = fc
	}
	reportCatalogDrift(app.Catalog, logger)

	// Classification cache
	app.Cache = cache.New(cache.Options{
		TTL:             cfg.Cache.TTL(),
		MaxEntries:      cfg.Cache.MaxEntries,
		KeyPrefixLength: cfg.Cache.KeyPrefixLength,
	})
	if opts.Sweep {
		app.Cache.StartSweeper(cfg.Cache.SweepInterval())
	}

	// Backends, local first
	app.Classifier = classifier.New(app.Cache, app.backends(), classifier.WithLogger(logger))

	routerOpts := []router.Option{
		router.WithModelClassifier(app.Classifier),
		router.WithCatalog(app.Catalog),
		router.WithLogger(logger),
	}

	// Telemetry ledger
	if cfg.Telemetry.Enabled {
		ledger, err := telemetry.Open(cfg.Telemetry.DBPath)
		if err != nil {
			logger.Warn("CLI: telemetry disabled, ledger could not be opened",
				slog.String("path", cfg.Telemetry.DBPath), slog.String("error", err.Error()))
		} else {
			app.Ledger = ledger
			app.Recorder = telemetry.NewAsyncRecorder(ledger, cfg.Telemetry.QueueSize, logger)
			routerOpts = append(routerOpts, router.WithRecorder(app.Recorder))
		}
	}

	app.Router = router.New(cfg.RouterSettings(), routerOpts...)
	return app, nil
}

// reportCatalogDrift logs group members the catalog does not define. The
// filter drops them silently, so a trimmed catalog file is otherwise
// invisible.
func reportCatalogDrift(c tools.Catalog, logger *slog.Logger) {
	reg := tools.NewRegistry(c)
	for _, name := range tools.GroupNames() {
		if missing := reg.Unknown(tools.Groups()[name]); len(missing) > 0 {
			logger.Debug("CLI: catalog lacks group members",
				slog.String("group", name), slog.Any("tools", missing))
		}
	}
}

// backends builds the slow-path chain from the configuration.
func (a *App) backends() []classifier.Backend {
	cfg := a.Config
	var chain []classifier.Backend

	if cfg.Local.Enabled {
		a.Local = ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.Local.OllamaURL,
			Timeout:      cfg.Local.Timeout(),
			DefaultModel: cfg.Local.Model,
		})
		chain = append(chain, classifier.NewLocalBackend(a.Local, cfg.Local.Timeout(), cfg.Local.MaxTokens))
	}

	remote := classifier.RemoteOptions{
		Model:         cfg.Remote.Model,
		Timeout:       cfg.Remote.Timeout(),
		MaxTokens:     cfg.Remote.MaxTokens,
		RatePerSecond: cfg.Remote.RatePerSecond,
		Burst:         cfg.Remote.Burst,
	}
	switch cfg.Remote.Provider {
	case config.ProviderOpenRouter:
		client := cloud.NewOpenRouterClient(cfg.Remote.APIKey).
			WithTimeout(cfg.Remote.Timeout()).
			WithLogger(a.logger).
			WithSiteURL(cfg.Remote.SiteURL)
		if cfg.Remote.BaseURL != "" {
			client = client.WithBaseURL(cfg.Remote.BaseURL)
		}
		chain = append(chain, classifier.NewRemoteBackend(client, remote))
	case config.ProviderOpenAI:
		client := cloud.NewOpenAIClient(cloud.OpenAIConfig{
			APIKey:  cfg.Remote.APIKey,
			BaseURL: cfg.Remote.BaseURL,
			Model:   cfg.Remote.Model,
			Timeout: cfg.Remote.Timeout(),
			Logger:  a.logger,
		})
		chain = append(chain, classifier.NewRemoteBackend(client, remote))
	}

	if len(chain) == 0 {
		a.logger.Debug("CLI: no classification backends configured; pattern misses get the safe default")
	}
	return chain
}

// Close stops background work, flushes queued decisions and closes the
// ledger.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recorderDrainTimeout)
		errs = append(errs, a.Recorder.Close(ctx))
		cancel()
		if n := a.Recorder.Dropped(); n > 0 {
			a.logger.Warn("CLI: telemetry queue overflowed", slog.Int64("dropped", n))
		}
	}
	if a.Ledger != nil {
		errs = append(errs, a.Ledger.Close())
	}
	return errors.Join(errs...)
}
