// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// route_cmd.go - route and classify commands.
//
// Command: route <query...>
// Short:   Run the full cascade and print the routing decision
//
// Command: classify <query...>
// Short:   Classify a query without deriving a decision
//
// Examples:
//   assistroute route "hi there"
//   assistroute route --messages 12 --tool-calls "summarize my pipeline"
//   assistroute classify --json "draft a follow-up email to Acme"
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/assistroute/internal/router"
	"github.com/jeranaias/assistroute/internal/tools"
)

func newRouteCommand(opts *Options) *cobra.Command {
	var (
		messages  int
		toolCalls bool
	)

	cmd := &cobra.Command{
		Use:   "route <query...>",
		Short: "Route a query and print the decision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), opts.Config(), opts.Logger(), AppOptions{})
			if err != nil {
				return &CommandError{Command: "route", Reason: "could not start router", Err: err}
			}
			defer app.Close()

			var convCtx *router.ConversationContext
			if cmd.Flags().Changed("messages") || toolCalls {
				convCtx = &router.ConversationContext{MessageCount: messages, HasToolCalls: toolCalls}
			}

			start := time.Now()
			d := app.Router.RouteQuery(cmd.Context(), strings.Join(args, " "), convCtx)
			elapsed := time.Since(start)

			visible := app.Router.Tools(d)
			data := RouteData{
				Decision:  d,
				Tools:     tools.Names(visible),
				LatencyMs: float64(elapsed.Microseconds()) / 1000,
			}

			out := cmd.OutOrStdout()
			if opts.JSONMode() {
				return NewJSONResponse("route", data).Write(out)
			}
			printDecision(out, data, len(app.Catalog.Tools()))
			return nil
		},
	}

	cmd.Flags().IntVar(&messages, "messages", 0, "number of messages already in the conversation")
	cmd.Flags().BoolVar(&toolCalls, "tool-calls", false, "the conversation already contains tool calls")
	return cmd
}

func newClassifyCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <query...>",
		Short: "Classify a query without routing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), opts.Config(), opts.Logger(), AppOptions{})
			if err != nil {
				return &CommandError{Command: "classify", Reason: "could not start router", Err: err}
			}
			defer app.Close()

			start := time.Now()
			cls, source := app.Router.Classify(cmd.Context(), strings.Join(args, " "))
			data := ClassifyData{
				Classification: cls,
				Source:         source,
				LatencyMs:      float64(time.Since(start).Microseconds()) / 1000,
			}

			out := cmd.OutOrStdout()
			if opts.JSONMode() {
				return NewJSONResponse("classify", data).Write(out)
			}
			fmt.Fprintln(out, TitleStyle.Render("Classification"))
			printClassification(out, cls, source)
			fmt.Fprintf(out, "%s%s\n", RenderLabel("Latency:"), DimStyle.Render(fmt.Sprintf("%.2fms", data.LatencyMs)))
			return nil
		},
	}
}

func printDecision(w io.Writer, data RouteData, catalogSize int) {
	d := data.Decision

	fmt.Fprintln(w, TitleStyle.Render("Routing Decision"))
	model := d.ModelID
	if d.UseSmallModel {
		model = HighlightStyle.Render(model) + DimStyle.Render(" (small)")
	} else {
		model = ValueStyle.Render(model) + DimStyle.Render(" (large)")
	}
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Model:"), model)
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Rule:"), ValueStyle.Render(d.Rule))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Prompt:"), ValueStyle.Render(string(d.SystemPromptKey)))
	fmt.Fprintf(w, "%s%t\n", RenderLabel("Skip metadata:"), d.SkipMetadataExtraction)

	switch {
	case d.Unrestricted():
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Tools:"), DimStyle.Render(fmt.Sprintf("all %d", catalogSize)))
	case len(data.Tools) == 0:
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Tools:"), DimStyle.Render("none"))
	default:
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Tools:"), ValueStyle.Render(fmt.Sprintf("%d of %d", len(data.Tools), catalogSize)))
		for _, name := range data.Tools {
			fmt.Fprintf(w, "  %s\n", DimStyle.Render(name))
		}
	}

	fmt.Fprintln(w, SectionStyle.Render("Classification"))
	printClassification(w, d.Classification, d.Source)
	if d.Context != nil {
		fmt.Fprintf(w, "%s%d messages, tool calls: %t\n", RenderLabel("Context:"), d.Context.MessageCount, d.Context.HasToolCalls)
	}
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Latency:"), DimStyle.Render(fmt.Sprintf("%.2fms", data.LatencyMs)))
}

func printClassification(w io.Writer, cls router.QueryClassification, source router.Source) {
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Source:"), RenderSource(string(source)))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Complexity:"), ValueStyle.Render(string(cls.Complexity)))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Category:"), ValueStyle.Render(string(cls.Category)))
	fmt.Fprintf(w, "%s%.2f\n", RenderLabel("Confidence:"), cls.Confidence)
	if len(cls.SuggestedTools) > 0 {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Suggested:"), DimStyle.Render(strings.Join(cls.SuggestedTools, ", ")))
	}
	if cls.Reasoning != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Reasoning:"), DimStyle.Render(cls.Reasoning))
	}
}
