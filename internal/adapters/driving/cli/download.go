package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

var (
	downloadOffset string
	downloadLimit  int
	downloadAll    bool
	downloadOut    string
)

var downloadCmd = &cobra.Command{
	Use:   "download [pack-id]",
	Short: "Export a pack from the local store",
	Long: `Reads a pack page by page in document id order, exactly as the download
API serves it. Without --all a single page is printed as JSON. With --all
every page is read and each item is written as one JSON line.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVar(&downloadOffset, "offset", "", "cursor returned as next_offset by the previous page")
	downloadCmd.Flags().IntVarP(&downloadLimit, "limit", "n", domain.DefaultDownloadLimit, "page size (1-500)")
	downloadCmd.Flags().BoolVar(&downloadAll, "all", false, "read every page and write JSON lines")
	downloadCmd.Flags().StringVarP(&downloadOut, "out", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if downloadService == nil {
		return fmt.Errorf("download service %w", errNotConfigured)
	}

	out := cmd.OutOrStdout()
	if downloadOut != "" {
		f, err := os.Create(downloadOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	var cursor *string
	if cmd.Flags().Changed("offset") {
		cursor = &downloadOffset
	}

	if !downloadAll {
		page, err := downloadService.Download(cmd.Context(), args[0], cursor, downloadLimit)
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	n, err := downloadAllPages(cmd, out, args[0], cursor)
	if downloadOut != "" {
		cmd.PrintErrf("Wrote %d items to %s\n", n, downloadOut)
	}
	return err
}

// downloadAllPages follows next_offset until the final page and writes one
// JSON line per item. It returns the number of items written.
func downloadAllPages(cmd *cobra.Command, out io.Writer, packID string, cursor *string) (int, error) {
	w := bufio.NewWriter(out)
	defer w.Flush()
	enc := json.NewEncoder(w)

	written := 0
	for {
		page, err := downloadService.Download(cmd.Context(), packID, cursor, downloadLimit)
		if err != nil {
			return written, fmt.Errorf("download failed after %d items: %w", written, err)
		}
		for i := range page.Items {
			if err := enc.Encode(&page.Items[i]); err != nil {
				return written, fmt.Errorf("write item: %w", err)
			}
			written++
		}
		if page.Done() {
			return written, nil
		}
		cursor = page.NextOffset
	}
}
