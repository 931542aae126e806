package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	gormrepo "github.com/narwhalmedia/decisionengine/internal/infrastructure/persistence/gorm"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect releases held back for later",
	}
	pendingCmd.AddCommand(newPendingListCommand(ctx))
	pendingCmd.AddCommand(newPendingPurgeCommand(ctx))
	return pendingCmd
}

func newPendingListCommand(ctx *commandContext) *cobra.Command {
	var artistID int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending releases for an artist",
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := ctx.ensure()
			if err != nil {
				return err
			}
			repo, err := do.Invoke[*gormrepo.PendingReleaseRepository](injector)
			if err != nil {
				return err
			}
			releases, err := repo.ListByArtist(cmd.Context(), artistID)
			if err != nil {
				return err
			}
			if len(releases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending releases")
				return nil
			}

			rows := make([][]string, 0, len(releases))
			for _, p := range releases {
				rows = append(rows, []string{
					p.Title,
					p.ParsedInfo.Quality.String(),
					p.Release.DownloadProtocol.String(),
					humanize.IBytes(uint64(max(p.Release.Size, 0))),
					p.Reason.String(),
					humanize.Time(p.Added),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Release", "Quality", "Protocol", "Size", "Reason", "Added"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&artistID, "artist", 0, "Artist id")
	_ = cmd.MarkFlagRequired("artist")
	return cmd
}

func newPendingPurgeCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove pending releases queued before --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			injector, err := ctx.ensure()
			if err != nil {
				return err
			}
			repo, err := do.Invoke[*gormrepo.PendingReleaseRepository](injector)
			if err != nil {
				return err
			}
			n, err := repo.RemoveAddedBefore(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s pending releases\n", strconv.FormatInt(n, 10))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Remove releases queued longer ago than this")
	return cmd
}
