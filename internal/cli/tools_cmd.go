// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jeranaias/assistroute/internal/tools"
)

func newToolsCommand(opts *Options) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalog and its groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := tools.Builtin()
			if path := opts.Config().Catalog.Path; path != "" {
				fc, err := tools.LoadFileCatalog(path, opts.Logger())
				if err != nil {
					return &CommandError{Command: "tools", Reason: "could not load catalog", Err: err}
				}
				catalog = fc
			}

			list := catalog.Tools()
			if group != "" {
				set, ok := tools.Groups()[group]
				if !ok {
					return &UsageError{
						Reason:  fmt.Sprintf("unknown group %q", group),
						Example: "assistroute tools --group read",
					}
				}
				list = tools.Filter(list, set)
			}

			data := ToolsData{Groups: make(map[string][]string)}
			for _, t := range list {
				data.Tools = append(data.Tools, ToolData{
					Name:        t.Name,
					Group:       t.Group,
					Risk:        t.RiskLevel.String(),
					Description: t.GetShortDescription(),
				})
			}
			for name, set := range tools.Groups() {
				data.Groups[name] = set.Names()
			}

			out := cmd.OutOrStdout()
			if opts.JSONMode() {
				return NewJSONResponse("tools", data).Write(out)
			}

			fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("Tool Catalog (%d)", len(data.Tools))))
			sort.SliceStable(data.Tools, func(i, j int) bool {
				if data.Tools[i].Group != data.Tools[j].Group {
					return data.Tools[i].Group < data.Tools[j].Group
				}
				return data.Tools[i].Name < data.Tools[j].Name
			})
			current := ""
			for _, t := range data.Tools {
				if t.Group != current {
					current = t.Group
					fmt.Fprintln(out, SectionStyle.Render(current))
				}
				risk := DimStyle.Render(t.Risk)
				if t.Risk == "high" {
					risk = WarningStyle.Render(t.Risk)
				}
				fmt.Fprintf(out, "  %-28s %-8s %s\n", t.Name, risk, DimStyle.Render(t.Description))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "only list tools in this group")
	return cmd
}
