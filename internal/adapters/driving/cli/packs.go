package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

var (
	packsJSON      bool
	packsRunsLimit int
)

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "Inspect and manage context packs",
	Long:  `List, inspect, refresh and remove the context packs in the local store.`,
	RunE:  runPacksList,
}

var packsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all packs",
	RunE:  runPacksList,
}

var packsGetCmd = &cobra.Command{
	Use:   "get [pack-id]",
	Short: "Show the registry entry of a pack",
	Args:  cobra.ExactArgs(1),
	RunE:  runPacksGet,
}

var packsRefreshCmd = &cobra.Command{
	Use:   "refresh [pack-id]",
	Short: "Recompute a registry entry from the stored chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runPacksRefresh,
}

var packsRemoveCmd = &cobra.Command{
	Use:   "remove [pack-id]",
	Short: "Delete a pack's chunks and registry entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runPacksRemove,
}

var packsRunsCmd = &cobra.Command{
	Use:   "runs [pack-id]",
	Short: "Show recent ingest runs of a pack",
	Args:  cobra.ExactArgs(1),
	RunE:  runPacksRuns,
}

func init() {
	packsCmd.PersistentFlags().BoolVar(&packsJSON, "json", false, "output as JSON")
	packsRunsCmd.Flags().IntVarP(&packsRunsLimit, "limit", "n", 10, "maximum number of runs")

	packsCmd.AddCommand(packsListCmd)
	packsCmd.AddCommand(packsGetCmd)
	packsCmd.AddCommand(packsRefreshCmd)
	packsCmd.AddCommand(packsRemoveCmd)
	packsCmd.AddCommand(packsRunsCmd)
	rootCmd.AddCommand(packsCmd)
}

func runPacksList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return fmt.Errorf("catalog service %w", errNotConfigured)
	}

	entries, err := catalogService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list packs: %w", err)
	}
	if packsJSON {
		return printJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No packs found. Run 'zerosignal ingest --config pack.yaml' to build one.")
		return nil
	}
	cmd.Printf("%-24s %8s  %-20s  %s\n", "PACK", "CHUNKS", "LAST INGESTED", "TOPICS")
	for i := range entries {
		cmd.Printf("%-24s %8d  %-20s  %s\n",
			entries[i].PackID,
			entries[i].TotalDocuments,
			formatTime(entries[i].LastIngestedAt),
			topicNames(entries[i].Topics))
	}
	return nil
}

func runPacksGet(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return fmt.Errorf("catalog service %w", errNotConfigured)
	}

	entry, err := catalogService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get pack: %w", err)
	}
	if packsJSON {
		return printJSON(cmd, entry)
	}
	printEntry(cmd, entry)
	return nil
}

func runPacksRefresh(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return fmt.Errorf("catalog service %w", errNotConfigured)
	}

	entry, err := catalogService.Refresh(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to refresh pack: %w", err)
	}
	if packsJSON {
		return printJSON(cmd, entry)
	}
	cmd.Printf("Pack %s refreshed: %d chunks.\n", entry.PackID, entry.TotalDocuments)
	return nil
}

func runPacksRemove(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return fmt.Errorf("catalog service %w", errNotConfigured)
	}

	if err := catalogService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove pack: %w", err)
	}
	cmd.Printf("Pack %s removed.\n", args[0])
	return nil
}

func runPacksRuns(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return fmt.Errorf("ingestor %w", errNotConfigured)
	}

	runs, err := ingestor.Runs(cmd.Context(), args[0], packsRunsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if packsJSON {
		return printJSON(cmd, runs)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}
	for i := range runs {
		r := &runs[i]
		cmd.Printf("%s  %-16s chunks=%d stored=%d failed_batches=%d\n",
			formatTime(r.StartedAt), r.Status, r.Chunks, r.Stored, r.FailedBatches)
		if r.Error != "" {
			cmd.Printf("    error: %s\n", r.Error)
		}
	}
	return nil
}

func printEntry(cmd *cobra.Command, entry *domain.RegistryEntry) {
	cmd.Printf("Pack:          %s\n", entry.PackID)
	cmd.Printf("Chunks:        %d\n", entry.TotalDocuments)
	cmd.Printf("Last ingested: %s\n", formatTime(entry.LastIngestedAt))
	if len(entry.Topics) > 0 {
		cmd.Println("Topics:")
		for _, t := range entry.Topics {
			cmd.Printf("  %-30s %d\n", t.Name, t.DocumentCount)
		}
	}
	if len(entry.SourceURLs) > 0 {
		cmd.Println("Sources:")
		for _, u := range entry.SourceURLs {
			cmd.Printf("  %s\n", u)
		}
	}
}

func topicNames(topics []domain.TopicStat) string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
