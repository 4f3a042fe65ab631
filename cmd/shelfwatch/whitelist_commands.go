package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfwatch/internal/client"
)

func newWhitelistCommand(ctx *commandContext) *cobra.Command {
	whitelistCmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the curation whitelist",
	}

	whitelistCmd.AddCommand(newWhitelistListCommand(ctx))
	whitelistCmd.AddCommand(newWhitelistAddCommand(ctx))
	whitelistCmd.AddCommand(newWhitelistRemoveCommand(ctx))

	return whitelistCmd
}

func newWhitelistListCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List whitelisted items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				entries, err := api.Whitelist(runCtx)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Whitelist is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.ItemID,
						truncate(entry.Title, 44),
						entry.Reason,
						formatAge(entry.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Reason", "Added"},
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

func newWhitelistAddCommand(ctx *commandContext) *cobra.Command {
	var reasonFlag string

	cmd := &cobra.Command{
		Use:   "add <item-id>",
		Short: "Whitelist an item so it never raises issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				if err := api.AddWhitelist(runCtx, args[0], reasonFlag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s whitelisted\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reasonFlag, "reason", "", "Why the item is excluded")
	return cmd
}

func newWhitelistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item from the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				if err := api.RemoveWhitelist(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s removed from whitelist\n", args[0])
				return nil
			})
		},
	}
}
