package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/narwhalmedia/decisionengine/internal/domain/blocklist"
	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
)

func newBlocklistCommand(ctx *commandContext) *cobra.Command {
	blocklistCmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Inspect and manage the blocklist",
	}
	blocklistCmd.AddCommand(newBlocklistListCommand(ctx))
	blocklistCmd.AddCommand(newBlocklistAddCommand(ctx))
	blocklistCmd.AddCommand(newBlocklistPurgeCommand(ctx))
	return blocklistCmd
}

func blocklistService(ctx *commandContext) (*blocklist.Service, error) {
	injector, err := ctx.ensure()
	if err != nil {
		return nil, err
	}
	return do.Invoke[*blocklist.Service](injector)
}

func newBlocklistListCommand(ctx *commandContext) *cobra.Command {
	var artistID int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blocklisted releases for an artist",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := blocklistService(ctx)
			if err != nil {
				return err
			}
			entries, err := svc.List(cmd.Context(), artistID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Blocklist is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.SourceTitle,
					e.Protocol.String(),
					e.Indexer,
					humanize.Time(e.Date),
					e.Message,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Release", "Protocol", "Indexer", "Added", "Message"},
				rows, nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&artistID, "artist", 0, "Artist id")
	_ = cmd.MarkFlagRequired("artist")
	return cmd
}

func newBlocklistAddCommand(ctx *commandContext) *cobra.Command {
	var (
		failed   blocklist.FailedDownload
		title    string
		protocol string
		infoHash string
		indexer  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Blocklist a failed release",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := release.ParseProtocol(protocol)
			if err != nil {
				return err
			}
			svc, err := blocklistService(ctx)
			if err != nil {
				return err
			}

			failed.Quality = quality.NewModel(quality.Unknown)
			failed.Release = &release.Info{
				Title:            title,
				Indexer:          indexer,
				DownloadProtocol: p,
				InfoHash:         infoHash,
			}
			entry, err := svc.Block(cmd.Context(), failed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blocklisted %q (%s)\n", entry.SourceTitle, entry.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&failed.ArtistID, "artist", 0, "Artist id")
	cmd.Flags().IntSliceVar(&failed.AlbumIDs, "album", nil, "Album ids")
	cmd.Flags().StringVar(&title, "title", "", "Release title")
	cmd.Flags().StringVar(&protocol, "protocol", "usenet", "Download protocol (usenet, torrent)")
	cmd.Flags().StringVar(&infoHash, "info-hash", "", "Torrent info hash")
	cmd.Flags().StringVar(&indexer, "indexer", "", "Indexer name")
	cmd.Flags().StringVar(&failed.Message, "message", "Manually blocklisted", "Reason")
	_ = cmd.MarkFlagRequired("artist")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newBlocklistPurgeCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove blocklist entries",
		Long:  "Remove blocklist entries older than --older-than, or every entry when it is zero.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := blocklistService(ctx)
			if err != nil {
				return err
			}
			n, err := svc.Purge(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s entries\n", strconv.FormatInt(n, 10))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove entries older than this")
	return cmd
}
