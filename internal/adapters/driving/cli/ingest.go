package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// watchDebounce collapses bursts of editor writes into one re-ingest.
const watchDebounce = 500 * time.Millisecond

var (
	ingestConfigPath string
	ingestDryRun     bool
	ingestClean      bool
	ingestOutput     string
	ingestNoSummary  bool
	ingestPackID     string
	ingestWatch      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build a context pack from a pack definition",
	Long: `Fetches every source in the pack definition, cleans and chunks the text,
optionally summarises each chunk, embeds the chunks and upserts them into the
pack's collection. The registry entry is recomputed once every batch has been
stored.

Examples:
  zerosignal ingest --config packs/water.yaml
  zerosignal ingest --config packs/water.yaml --dry-run --output chunks.json
  zerosignal ingest --config packs/water.yaml --watch`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestConfigPath, "config", "c", "", "pack definition YAML file")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "process sources without any store calls")
	ingestCmd.Flags().BoolVar(&ingestClean, "clean", false, "delete the pack's collection first")
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "", "write processed chunks as JSON to this file")
	ingestCmd.Flags().BoolVar(&ingestNoSummary, "no-summary", false, "disable summarisation")
	ingestCmd.Flags().StringVar(&ingestPackID, "pack-id", "", "override the pack id from the definition")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest whenever the definition changes")
	_ = ingestCmd.MarkFlagRequired("config") //nolint:errcheck // flag exists
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestor == nil || packLoader == nil {
		return fmt.Errorf("ingestor %w", errNotConfigured)
	}

	opts := domain.IngestOptions{
		DryRun:         ingestDryRun,
		Clean:          ingestClean,
		NoSummary:      ingestNoSummary,
		OverridePackID: ingestPackID,
		OutputPath:     ingestOutput,
	}

	err := ingestOnce(cmd, opts)
	if !ingestWatch {
		return err
	}
	if err != nil {
		// Keep watching: the next edit may fix the definition
		cmd.PrintErrf("Error: %v\n", err)
	}

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", ingestConfigPath)
	return watchFile(cmd.Context(), ingestConfigPath, watchDebounce, func(ctx context.Context) {
		// Clean applies to the first run only
		opts.Clean = false
		cmd.Printf("\n%s changed, re-ingesting...\n", ingestConfigPath)
		if err := ingestOnce(cmd, opts); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	})
}

func ingestOnce(cmd *cobra.Command, opts domain.IngestOptions) error {
	pack, err := packLoader.Load(ingestConfigPath)
	if err != nil {
		return err
	}

	report, err := ingestor.Ingest(cmd.Context(), *pack, opts)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		if errors.Is(err, domain.ErrPartialIngest) {
			logger.Debug("partial ingest: %v", err)
			return fmt.Errorf("ingest incomplete, re-run to retry the failed batches: %w", err)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	run := report.Run
	cmd.Printf("Pack %s: %s\n", run.PackID, run.Status)
	cmd.Printf("  Chunks:  %d\n", run.Chunks)
	if run.Status != domain.IngestStatusDryRun {
		cmd.Printf("  Stored:  %d (%d batches, %d failed)\n", run.Stored, run.Batches, run.FailedBatches)
	}
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Elapsed: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if report.Registry != nil {
		cmd.Printf("  Registry: %d documents, %d topics\n", report.Registry.TotalDocuments, len(report.Registry.Topics))
	}
}
