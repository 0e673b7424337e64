// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stats_cmd.go - Routing history from the telemetry ledger.
//
// Command: stats
// Short:   Summarize recorded routing decisions
//
// Flags:
//   --since DURATION    Window to summarize (default 24h)
//   --recent N          Also list the N newest decisions
//   --prune DURATION    Delete decisions older than DURATION first
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/assistroute/internal/telemetry"
)

// StatsData is returned by the stats command.
type StatsData struct {
	Summary telemetry.Summary `json:"summary"`
	Recent  []telemetry.Entry `json:"recent,omitempty"`
	Pruned  int64             `json:"pruned,omitempty"`
}

func newStatsCommand(opts *Options) *cobra.Command {
	var (
		since  time.Duration
		recent int
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded routing decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Config()
			if !cfg.Telemetry.Enabled {
				return &CommandError{
					Command: "stats",
					Reason:  "telemetry is disabled; set telemetry.enabled = true or ASSISTROUTE_TELEMETRY_DB",
				}
			}
			if since <= 0 {
				return &UsageError{Reason: "--since must be positive", Example: "assistroute stats --since 168h"}
			}

			ledger, err := telemetry.Open(cfg.Telemetry.DBPath)
			if err != nil {
				return &CommandError{Command: "stats", Reason: "could not open ledger", Err: err}
			}
			defer ledger.Close()

			ctx := cmd.Context()
			var data StatsData
			if prune > 0 {
				data.Pruned, err = ledger.DeleteBefore(ctx, time.Now().Add(-prune))
				if err != nil {
					return &CommandError{Command: "stats", Reason: "prune failed", Err: err}
				}
			}

			data.Summary, err = ledger.Summary(ctx, time.Now().Add(-since))
			if err != nil {
				return &CommandError{Command: "stats", Reason: "could not summarize ledger", Err: err}
			}
			if recent > 0 {
				data.Recent, err = ledger.Recent(ctx, recent)
				if err != nil {
					return &CommandError{Command: "stats", Reason: "could not list decisions", Err: err}
				}
			}

			out := cmd.OutOrStdout()
			if opts.JSONMode() {
				return NewJSONResponse("stats", data).Write(out)
			}

			fmt.Fprintln(out, TitleStyle.Render("Routing Stats"))
			fmt.Fprintln(out, RenderSeparator())
			if data.Pruned > 0 {
				fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("Pruned %d old decisions", data.Pruned)))
			}
			fmt.Fprintln(out, data.Summary.String())

			if len(data.Recent) > 0 {
				fmt.Fprintln(out, SectionStyle.Render("Recent"))
				for _, e := range data.Recent {
					tools := "all"
					if e.ToolCount >= 0 {
						tools = fmt.Sprintf("%d", e.ToolCount)
					}
					fmt.Fprintf(out, "  %s  %-8s %-22s %-20s tools=%-4s %s\n",
						DimStyle.Render(e.Time.Local().Format("01-02 15:04:05")),
						RenderSource(e.Source), e.Rule, e.Category, tools,
						DimStyle.Render(e.Latency.Round(time.Microsecond).String()))
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "summarize decisions recorded within this window")
	cmd.Flags().IntVarP(&recent, "recent", "n", 0, "list the N most recent decisions")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete decisions older than this before summarizing")
	return cmd
}
