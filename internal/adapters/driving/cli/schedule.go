package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	scheduleConfigPath string
	scheduleEvery      time.Duration
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled re-ingestion",
	Long: `Packs can be re-ingested on a fixed interval while 'zerosignal serve' runs.
The interval comes from the schedule field of the pack definition or from --every.`,
	RunE: runScheduleList,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled packs",
	RunE:  runScheduleList,
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a pack definition for re-ingestion",
	RunE:  runScheduleAdd,
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop re-ingesting a pack definition",
	RunE:  runScheduleDisable,
}

func init() {
	for _, c := range []*cobra.Command{scheduleAddCmd, scheduleDisableCmd} {
		c.Flags().StringVarP(&scheduleConfigPath, "config", "c", "", "pack definition YAML file")
		_ = c.MarkFlagRequired("config") //nolint:errcheck // flag exists
	}
	scheduleAddCmd.Flags().DurationVar(&scheduleEvery, "every", 0, "interval overriding the definition's schedule (e.g. 6h)")

	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleList(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return fmt.Errorf("scheduler %w", errNotConfigured)
	}

	tasks, err := scheduler.Tasks(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		cmd.Println("No scheduled packs.")
		return nil
	}

	for i := range tasks {
		t := &tasks[i]
		state := "enabled"
		if !t.Enabled {
			state = "disabled"
		}
		cmd.Printf("%s (%s)\n", t.Name, state)
		cmd.Printf("  Config:   %s\n", t.ConfigPath)
		cmd.Printf("  Every:    %s\n", t.Interval)
		cmd.Printf("  Last run: %s\n", formatTime(t.LastRun))
		if t.Enabled {
			cmd.Printf("  Next run: %s\n", formatTime(t.NextRun))
		}
		if t.LastError != "" {
			cmd.Printf("  Error:    %s\n", t.LastError)
		}
	}
	return nil
}

func runScheduleAdd(cmd *cobra.Command, _ []string) error {
	return registerSchedule(cmd, true)
}

func runScheduleDisable(cmd *cobra.Command, _ []string) error {
	return registerSchedule(cmd, false)
}

func registerSchedule(cmd *cobra.Command, enable bool) error {
	if scheduler == nil || packLoader == nil {
		return fmt.Errorf("scheduler %w", errNotConfigured)
	}

	path, err := filepath.Abs(scheduleConfigPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", scheduleConfigPath, err)
	}
	pack, err := packLoader.Load(path)
	if err != nil {
		return err
	}

	switch {
	case !enable:
		pack.Schedule = 0
	case scheduleEvery > 0:
		pack.Schedule = scheduleEvery
	case pack.Schedule == 0:
		return fmt.Errorf("%s has no schedule; pass --every", scheduleConfigPath)
	}

	if err := scheduler.Register(cmd.Context(), path, *pack); err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}

	if enable {
		cmd.Printf("Pack %s will be re-ingested every %s.\n", pack.PackID, pack.Schedule)
	} else {
		cmd.Printf("Scheduled re-ingestion of %s disabled.\n", pack.PackID)
	}
	return nil
}
