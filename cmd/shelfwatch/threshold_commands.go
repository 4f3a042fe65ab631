package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shelfwatch/internal/client"
)

func newThresholdsCommand(ctx *commandContext) *cobra.Command {
	thresholdsCmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Inspect and tune issue evaluation thresholds",
	}

	thresholdsCmd.AddCommand(newThresholdsShowCommand(ctx))
	thresholdsCmd.AddCommand(newThresholdsSetCommand(ctx))

	return thresholdsCmd
}

func newThresholdsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, apiClient *client.Client) error {
				thresholds, err := apiClient.Thresholds(runCtx)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, thresholds)
				}
				rows := [][]string{
					{"stale-days", strconv.Itoa(thresholds.StaleDays)},
					{"max-movie-gib", strconv.FormatFloat(thresholds.MaxMovieGiB, 'f', -1, 64)},
					{"languages", formatLanguages(thresholds.PreferredLanguages)},
					{"require-multiple-audio", strconv.FormatBool(thresholds.RequireMultipleAudio)},
					{"request-grace-days", strconv.Itoa(thresholds.RequestGraceDays)},
					{"recent-days", strconv.Itoa(thresholds.RecentDays)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Threshold", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newThresholdsSetCommand(ctx *commandContext) *cobra.Command {
	var staleDays int
	var maxMovieGiB float64
	var languages string
	var requireMultipleAudio bool
	var requestGraceDays int
	var recentDays int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update one or more thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("stale-days") && !flags.Changed("max-movie-gib") &&
				!flags.Changed("languages") && !flags.Changed("require-multiple-audio") &&
				!flags.Changed("request-grace-days") && !flags.Changed("recent-days") {
				return errors.New("nothing to update; pass at least one threshold flag")
			}

			return ctx.withClient(func(runCtx context.Context, apiClient *client.Client) error {
				current, err := apiClient.Thresholds(runCtx)
				if err != nil {
					return err
				}
				updated := *current
				if flags.Changed("stale-days") {
					updated.StaleDays = staleDays
				}
				if flags.Changed("max-movie-gib") {
					updated.MaxMovieGiB = maxMovieGiB
				}
				if flags.Changed("languages") {
					updated.PreferredLanguages = splitLanguages(languages)
				}
				if flags.Changed("require-multiple-audio") {
					updated.RequireMultipleAudio = requireMultipleAudio
				}
				if flags.Changed("request-grace-days") {
					updated.RequestGraceDays = requestGraceDays
				}
				if flags.Changed("recent-days") {
					updated.RecentDays = recentDays
				}
				if err := apiClient.UpdateThresholds(runCtx, updated); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Thresholds updated; changes apply on the next sync")
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&staleDays, "stale-days", 0, "Days without playback before an item is stale")
	cmd.Flags().Float64Var(&maxMovieGiB, "max-movie-gib", 0, "Movie size in GiB that triggers an oversized issue")
	cmd.Flags().StringVar(&languages, "languages", "", "Comma-separated preferred audio languages (ISO 639-2 codes)")
	cmd.Flags().BoolVar(&requireMultipleAudio, "require-multiple-audio", false, "Flag items with a single audio track")
	cmd.Flags().IntVar(&requestGraceDays, "request-grace-days", 0, "Days an approved request may stay unavailable")
	cmd.Flags().IntVar(&recentDays, "recent-days", 0, "Window for surfacing newly available requests")
	return cmd
}

func splitLanguages(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
