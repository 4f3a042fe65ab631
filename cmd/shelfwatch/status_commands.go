package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"shelfwatch/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and issue counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				status, err := api.Status(runCtx)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "shelfwatchd %s (pid %d, up %s)\n", status.Version, status.PID, formatDuration(status.UptimeSecs))
				if status.LastSyncAt != "" {
					fmt.Fprintf(out, "Last sync: %s\n", formatAge(status.LastSyncAt))
				} else {
					fmt.Fprintln(out, "Last sync: never")
				}
				if status.LastError != "" {
					fmt.Fprintf(out, "Last error: %s\n", status.LastError)
				}
				fmt.Fprintf(out, "Items: %d\n", status.ItemCount)
				if len(status.IssueStats) > 0 {
					types := make([]string, 0, len(status.IssueStats))
					for issueType := range status.IssueStats {
						types = append(types, issueType)
					}
					sort.Strings(types)
					fmt.Fprintln(out, "Issues:")
					for _, issueType := range types {
						fmt.Fprintf(out, "  %-20s %d\n", issueType, status.IssueStats[issueType])
					}
				} else {
					fmt.Fprintln(out, "Issues: none")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of text")
	return cmd
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Trigger an immediate library sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				summary, err := api.Sync(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d items and %d requests; %d open issues\n",
					summary.Items, summary.Requests, summary.Issues)
				return nil
			})
		},
	}
}

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List the synced Jellyseerr requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				requests, err := api.Requests(runCtx)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, requests)
				}
				out := cmd.OutOrStdout()
				if len(requests) == 0 {
					fmt.Fprintln(out, "No requests synced")
					return nil
				}
				rows := make([][]string, 0, len(requests))
				for _, request := range requests {
					rows = append(rows, []string{
						truncate(request.Title, 44),
						request.MediaType,
						request.Status,
						request.RequestedBy,
						formatAge(request.RequestedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Title", "Type", "Status", "Requested By", "Requested"},
					rows,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}
