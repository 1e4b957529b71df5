package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverEnv names the default remote server for pull.
const serverEnv = "ZEROSIGNAL_SERVER"

var (
	pullServer string
	pullLimit  int
	pullReset  bool
	pullStatus bool
)

var pullCmd = &cobra.Command{
	Use:   "pull [pack-id]",
	Short: "Pull a pack from a remote server",
	Long: `Pages a pack from a remote ZeroSignal server into the local store so it can
be searched offline. Progress is saved after every stored page; an interrupted
pull resumes from the last saved cursor on the next run.

The server defaults to $ZEROSIGNAL_SERVER.

Examples:
  zerosignal pull water --server https://packs.example.org
  zerosignal pull water --status
  zerosignal pull water --reset`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().StringVarP(&pullServer, "server", "s", "", "base URL of the remote server")
	pullCmd.Flags().IntVarP(&pullLimit, "limit", "n", 0, "page size (1-500, default 50)")
	pullCmd.Flags().BoolVar(&pullReset, "reset", false, "discard saved progress and start over")
	pullCmd.Flags().BoolVar(&pullStatus, "status", false, "show saved progress without pulling")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	if newPackSync == nil {
		return fmt.Errorf("pack sync %w", errNotConfigured)
	}

	server := pullServer
	if server == "" {
		server = os.Getenv(serverEnv)
	}
	if server == "" {
		return errors.New("no server given; use --server or set " + serverEnv)
	}

	sync, err := newPackSync(server)
	if err != nil {
		return err
	}
	packID := args[0]
	ctx := cmd.Context()

	if pullStatus {
		state, err := sync.State(ctx, packID)
		if err != nil {
			return fmt.Errorf("failed to read sync state: %w", err)
		}
		if state == nil {
			cmd.Printf("No saved progress for %s from %s.\n", packID, server)
			return nil
		}
		cmd.Printf("Pack:      %s\n", state.PackID)
		cmd.Printf("Server:    %s\n", state.Server)
		cmd.Printf("Cursor:    %s\n", orNone(state.Cursor))
		cmd.Printf("Pulled:    %d\n", state.Pulled)
		cmd.Printf("Last sync: %s\n", formatTime(state.LastSync))
		return nil
	}

	if pullReset {
		if err := sync.Reset(ctx, packID); err != nil {
			return fmt.Errorf("failed to reset sync state: %w", err)
		}
		cmd.Printf("Saved progress for %s discarded.\n", packID)
	}

	cmd.Printf("Pulling %s from %s...\n", packID, server)
	result, err := sync.Pull(ctx, packID, pullLimit)
	if result != nil {
		if result.Resumed {
			cmd.Println("Resumed from saved cursor.")
		}
		cmd.Printf("Fetched %d pages, stored %d chunks.\n", result.Pages, result.Stored)
	}
	if err != nil {
		return fmt.Errorf("pull interrupted, run again to resume: %w", err)
	}
	if result != nil && result.Complete {
		cmd.Printf("Pack %s is up to date.\n", packID)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(start)"
	}
	return s
}
