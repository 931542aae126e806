package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/narwhalmedia/decisionengine/internal/container"
	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/report"
)

func newGrabCommand(ctx *commandContext) *cobra.Command {
	var input string
	var indexerID int
	var guid string

	cmd := &cobra.Command{
		Use:   "grab",
		Short: "Grab one release from an interactive search",
		Long: `Grab one release from an interactive search.

The candidates in --input are evaluated as a user-invoked search and cached;
the release identified by --indexer and --guid is then grabbed regardless of
its decision, as long as it is not blocklisted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if guid == "" {
				return fmt.Errorf("--guid is required")
			}
			injector, err := ctx.ensure()
			if err != nil {
				return err
			}

			candidates, err := loadCandidates(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			maker, err := do.Invoke[*decisionengine.DecisionMaker](injector)
			if err != nil {
				return err
			}
			svc, err := do.Invoke[*container.GrabServiceHandle](injector)
			if err != nil {
				return err
			}

			decisions := maker.GetSearchDecision(cmd.Context(), candidates, &decisionengine.SearchContext{UserInvokedSearch: true})
			svc.CacheSearchResults(decisions)

			c, err := svc.Grab(cmd.Context(), indexerID, guid)
			if err != nil {
				return err
			}
			entries := report.Entries([]decisionengine.Decision{decisionengine.NewDecision(c)}, "grabbed")
			fmt.Fprintln(cmd.OutOrStdout(), renderEntries(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON file of search results")
	cmd.Flags().IntVar(&indexerID, "indexer", 0, "Indexer id of the release")
	cmd.Flags().StringVar(&guid, "guid", "", "GUID of the release")

	return cmd
}
