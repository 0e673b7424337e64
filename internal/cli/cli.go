// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command, global flags and logging setup.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/assistroute/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Options holds the global flags shared by every command.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	// JSON forces JSON output. When unset, JSON is used whenever stdout
	// is not a terminal.
	JSON    bool
	jsonSet bool

	cfg    *config.Config
	logger *slog.Logger
}

// JSONMode reports whether commands should emit JSON.
func (o *Options) JSONMode() bool {
	if o.jsonSet {
		return o.JSON
	}
	return !IsStdoutTTY()
}

// Config returns the loaded configuration.
func (o *Options) Config() *config.Config {
	return o.cfg
}

// Logger returns the configured logger.
func (o *Options) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// NewRootCommand builds the command tree. Tests execute it directly.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "assistroute",
		Short: "Query classification and model routing for the CRM assistant",
		Long: `assistroute decides, for each user message, which model answers it,
which tools the model may call and which system prompt it gets.

Messages go through a cascade: regex patterns, the classification cache,
a local Ollama model, a hosted model, and finally a safe default. The
classification is then mapped to a decision by a fixed rule table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.jsonSet = cmd.Flags().Changed("json")
			_, allowMissing := cmd.Annotations[annotationConfigOptional]
			return opts.setup(cmd.ErrOrStderr(), allowMissing)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.assistroute/config.toml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.LogFormat, "log-format", "", "log format: text or json")
	pf.BoolVarP(&opts.JSON, "json", "j", false, "output JSON (default when stdout is not a terminal)")

	root.AddCommand(
		newRouteCommand(opts),
		newClassifyCommand(opts),
		newToolsCommand(opts),
		newStatsCommand(opts),
		newServeCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// annotationConfigOptional marks commands that run without a config file,
// even when --config names one that does not exist yet.
const annotationConfigOptional = "config-optional"

// setup loads configuration and installs the slog handler.
func (o *Options) setup(logOut io.Writer, allowMissing bool) error {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFromPath(o.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil && allowMissing && errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		if cfg == nil {
			return &ConfigError{Err: err}
		}
		// Unreadable file: continue on defaults but say so.
		fmt.Fprintf(logOut, "%s %v\n", WarningStyle.Render("[WARN]"), err)
	}

	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}

	o.cfg = cfg
	o.logger = NewLogger(logOut, cfg.Log)
	slog.SetDefault(o.logger)
	config.SetGlobal(cfg)
	return nil
}

// NewLogger builds the process logger. Logs always go to stderr-like
// outputs so stdout stays parseable in JSON mode.
func NewLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	var h slog.Handler
	if strings.EqualFold(lc.Format, "json") {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(h)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		if cmd == nil {
			cmd = root
		}
		jsonMode := false
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			jsonMode = f.Value.String() == "true"
		}
		DisplayError(os.Stderr, cmd.Name(), err, jsonMode)
		return ExitCode(err)
	}
	return ExitSuccess
}

func newVersionCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			out := cmd.OutOrStdout()
			if opts.JSONMode() {
				return NewJSONResponse("version", data).Write(out)
			}
			fmt.Fprintf(out, "assistroute %s (commit %s, built %s, %s)\n",
				data.Version, data.GitCommit, data.BuildDate, data.GoVersion)
			return nil
		},
	}
}
