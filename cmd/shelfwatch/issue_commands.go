package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfwatch/internal/client"
)

func newIssuesCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var severityFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List current content issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				issues, err := api.Issues(runCtx, typeFlag, severityFlag)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, issues)
				}
				out := cmd.OutOrStdout()
				if len(issues) == 0 {
					fmt.Fprintln(out, "No issues found")
					return nil
				}
				colorize := isTerminal(cmd.OutOrStdout())
				rows := make([][]string, 0, len(issues))
				for _, issue := range issues {
					rows = append(rows, []string{
						colorizeSeverity(issue.Severity, colorize),
						issue.Type,
						truncate(issue.Title, 40),
						issue.Detail,
						formatAge(issue.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Severity", "Type", "Title", "Detail", "Age"},
					rows,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Filter by issue type (stale, oversized, audio, request_unavailable, request_available)")
	cmd.Flags().StringVar(&severityFlag, "severity", "", "Filter by severity (info, warning, critical)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}
