package main

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/report"
)

type processOptions struct {
	input       string
	interactive bool
	dryRun      bool
	output      string
	reportDir   string
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Evaluate releases and grab the best one per album",
		Long: `Evaluate releases and grab the best one per album.

Candidates are read as a JSON array from --input ("-" for stdin). With
--dry-run the decisions are prioritised and printed but nothing is grabbed
or queued.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			injector, err := ctx.ensure()
			if err != nil {
				return err
			}
			return runProcess(cmd, ctx, injector, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "JSON file of release candidates")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "Evaluate as a user-invoked search")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print decisions without grabbing")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "", "Also write the batch report to this directory")

	return cmd
}

func validateOutput(output string) error {
	switch output {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("unsupported output %q (use table or json)", output)
}

func runProcess(cmd *cobra.Command, cc *commandContext, injector do.Injector, opts processOptions) error {
	candidates, err := loadCandidates(opts.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	maker, err := do.Invoke[*decisionengine.DecisionMaker](injector)
	if err != nil {
		return err
	}

	var decisions []decisionengine.Decision
	if opts.interactive {
		decisions = maker.GetSearchDecision(cmd.Context(), candidates, &decisionengine.SearchContext{UserInvokedSearch: true})
	} else {
		decisions = maker.GetRSSDecision(cmd.Context(), candidates)
	}

	if opts.dryRun {
		prioritizer, err := do.Invoke[*decisionengine.Prioritizer](injector)
		if err != nil {
			return err
		}
		entries := report.Entries(prioritizer.Prioritize(cmd.Context(), decisions), "")
		if opts.output == "json" {
			return writeJSON(cmd, entries)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderEntries(entries))
		return nil
	}

	processor, err := do.Invoke[*decisionengine.Processor](injector)
	if err != nil {
		return err
	}
	processed := processor.ProcessDecisions(cmd.Context(), decisions)
	r := report.New(processed, opts.interactive, time.Now())

	if err := archiveReport(cmd, cc, injector, r, opts.reportDir); err != nil {
		cc.logger.Warn("failed to archive decision report", zap.Error(err))
	}

	if opts.output == "json" {
		return writeJSON(cmd, r)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderEntries(reportEntries(r)))
	fmt.Fprintf(cmd.OutOrStdout(), "%d grabbed, %d pending, %d rejected, %d failed, %d skipped\n",
		len(r.Grabbed), len(r.Pending), len(r.Rejected), len(r.Failed), len(r.Skipped))
	return nil
}

func archiveReport(cmd *cobra.Command, cc *commandContext, injector do.Injector, r *report.Report, dir string) error {
	if dir != "" {
		storage, err := report.NewLocalStorage(dir, cc.logger)
		if err != nil {
			return err
		}
		if _, err := report.NewArchiver(storage, cc.logger).Archive(cmd.Context(), r); err != nil {
			return err
		}
	}

	if !cc.config.S3.Enabled {
		return nil
	}
	archiver, err := do.Invoke[*report.Archiver](injector)
	if err != nil {
		return err
	}
	_, err = archiver.Archive(cmd.Context(), r)
	return err
}
