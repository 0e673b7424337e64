// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/assistroute/internal/server"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *Options) *cobra.Command {
	var (
		addr  string
		rate  float64
		burst int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routing API over HTTP",
		Long: `Serve exposes the routing cascade as a local JSON API:

  POST /v1/route      route a message
  POST /v1/classify   classify a message
  GET  /v1/tools      list the tool catalog
  GET  /health        backend health
  GET  /stats         session, cache and ledger statistics
  POST /cache/clear   drop cached classifications
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.Logger()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, opts.Config(), logger, AppOptions{WatchCatalog: true, Sweep: true})
			if err != nil {
				return &CommandError{Command: "serve", Reason: "could not start router", Err: err}
			}
			defer app.Close()

			srv := server.NewServer(addr, app.Router).
				WithCache(app.Cache).
				WithLogger(logger)
			if app.Ledger != nil {
				srv.WithLedger(app.Ledger)
			}
			if app.Local != nil {
				srv.WithLocalBackend(app.Local)
			}
			if rate > 0 {
				srv.WithRateLimiter(server.NewRateLimiter(rate, burst, 5*time.Minute))
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return &CommandError{Command: "serve", Reason: "listen on " + srv.Addr(), Err: err}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("CLI: graceful shutdown failed", slog.String("error", err.Error()))
				return err
			}
			logger.Info("CLI: server stopped", slog.String("stats", app.Router.Stats().Summary()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", server.DefaultAddr, "listen address")
	cmd.Flags().Float64Var(&rate, "rate", 20, "per-client requests per second (0 disables limiting)")
	cmd.Flags().IntVar(&burst, "burst", 40, "per-client burst size")
	return cmd
}
