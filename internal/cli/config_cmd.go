// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and initialize configuration
//
// Subcommands:
//   show (default)      Display current configuration (secrets redacted)
//   get <key>           Print one value, e.g. remote.model
//   path                Show configuration file path
//   init [--force]      Write the defaults to the config file
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/assistroute/internal/config"
)

func newConfigCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and initialize configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, opts)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Display current configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfig(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := opts.Config().Redacted().Get(args[0])
				if err != nil {
					return &NotFoundError{Resource: "config key", ID: args[0]}
				}
				out := cmd.OutOrStdout()
				if opts.JSONMode() {
					return NewJSONResponse("config get", map[string]any{"key": args[0], "value": v}).Write(out)
				}
				fmt.Fprintln(out, v)
				return nil
			},
		},
		&cobra.Command{
			Use:         "path",
			Short:       "Show configuration file path",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{annotationConfigOptional: "true"},
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath(opts)
				if err != nil {
					return &ConfigError{Err: err}
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		newConfigInitCommand(opts),
	)
	return cmd
}

func newConfigInitCommand(opts *Options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return &ConfigError{Err: err}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &UsageError{
					Reason:  fmt.Sprintf("%s already exists", path),
					Example: "assistroute config init --force",
				}
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return &ConfigError{Err: err}
			}

			if err := config.SaveTOML(config.Default(), path); err != nil {
				return &ConfigError{Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", RenderStatus("ok"), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func configPath(opts *Options) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	if env := os.Getenv("ASSISTROUTE_CONFIG"); env != "" {
		return env, nil
	}
	return config.ConfigPathTOML()
}

func showConfig(cmd *cobra.Command, opts *Options) error {
	cfg := opts.Config().Redacted()
	out := cmd.OutOrStdout()
	if opts.JSONMode() {
		return NewJSONResponse("config", cfg).Write(out)
	}

	fmt.Fprintln(out, TitleStyle.Render("Configuration"))
	rows := []struct {
		section string
		fields  [][2]string
	}{
		{"Router", [][2]string{
			{"enabled", fmt.Sprint(cfg.Router.Enabled)},
			{"small_model", cfg.Router.SmallModel},
			{"large_model", cfg.Router.LargeModel},
		}},
		{"Local", [][2]string{
			{"enabled", fmt.Sprint(cfg.Local.Enabled)},
			{"ollama_url", cfg.Local.OllamaURL},
			{"model", cfg.Local.Model},
			{"timeout_ms", fmt.Sprint(cfg.Local.TimeoutMs)},
		}},
		{"Remote", [][2]string{
			{"provider", cfg.Remote.Provider},
			{"model", cfg.Remote.Model},
			{"api_key", cfg.Remote.APIKey},
			{"timeout_ms", fmt.Sprint(cfg.Remote.TimeoutMs)},
		}},
		{"Cache", [][2]string{
			{"ttl_seconds", fmt.Sprint(cfg.Cache.TTLSeconds)},
			{"max_entries", fmt.Sprint(cfg.Cache.MaxEntries)},
		}},
		{"Telemetry", [][2]string{
			{"enabled", fmt.Sprint(cfg.Telemetry.Enabled)},
			{"db_path", cfg.Telemetry.DBPath},
		}},
	}
	for _, r := range rows {
		fmt.Fprintln(out, SectionStyle.Render(r.section))
		for _, f := range r.fields {
			v := f[1]
			if v == "" {
				v = DimStyle.Render("(not set)")
			}
			fmt.Fprintf(out, "  %s%s\n", RenderLabel(f[0]), v)
		}
	}
	return nil
}
