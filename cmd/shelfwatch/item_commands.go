package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfwatch/internal/client"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List synced library items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				items, err := api.Items(runCtx)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No items synced yet; run `shelfwatch sync`")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					title := item.Title
					if item.Nickname != "" {
						title = fmt.Sprintf("%s (%s)", item.Nickname, item.Title)
					}
					flags := itemFlags(item.Exempt, item.Whitelisted)
					rows = append(rows, []string{
						item.ID,
						truncate(title, 44),
						item.MediaType,
						formatSize(item.SizeBytes),
						formatLanguages(item.AudioLanguages),
						formatAge(item.LastPlayedAt),
						flags,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Type", "Size", "Audio", "Played", "Flags"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}

func itemFlags(exempt, whitelisted bool) string {
	var flags []string
	if exempt {
		flags = append(flags, "exempt")
	}
	if whitelisted {
		flags = append(flags, "whitelisted")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func newNicknameCommand(ctx *commandContext) *cobra.Command {
	nicknameCmd := &cobra.Command{
		Use:   "nickname",
		Short: "Manage item nicknames",
	}

	nicknameCmd.AddCommand(&cobra.Command{
		Use:   "set <item-id> <nickname>",
		Short: "Assign a display nickname to an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nickname := strings.TrimSpace(args[1])
			if nickname == "" {
				return errors.New("nickname must not be empty")
			}
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				if err := api.SetNickname(runCtx, args[0], nickname); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Nickname for %s set to %q\n", args[0], nickname)
				return nil
			})
		},
	})

	nicknameCmd.AddCommand(&cobra.Command{
		Use:   "clear <item-id>",
		Short: "Remove an item's nickname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				if err := api.ClearNickname(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Nickname for %s cleared\n", args[0])
				return nil
			})
		},
	})

	return nicknameCmd
}

func newExemptCommand(ctx *commandContext) *cobra.Command {
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "exempt <item-id>",
		Short: "Exclude an item from issue evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exempt := !clearFlag
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				if err := api.SetExempt(runCtx, args[0], exempt); err != nil {
					return err
				}
				if exempt {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s is now exempt\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s is no longer exempt\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFlag, "clear", false, "Remove the exemption instead of setting it")
	return cmd
}
