package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	syncStart string
	syncEnd   string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull employees and punches from the provider and close each day",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncStart, "start", "", "First day, YYYY-MM-DD (default today)")
	syncCmd.Flags().StringVar(&syncEnd, "end", "", "Last day inclusive, YYYY-MM-DD (default --start)")
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, db, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	start := svc.Worklogs.Today()
	if syncStart != "" {
		if start, err = time.ParseInLocation(time.DateOnly, syncStart, svc.Location); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
	}
	end := start
	if syncEnd != "" {
		if end, err = time.ParseInLocation(time.DateOnly, syncEnd, svc.Location); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}

	if err := svc.Provider.TestConnection(cmd.Context()); err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}

	result, err := svc.Sync.FullSync(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "employees %d, punches %d, worklogs %d, occurrences %d\n",
		result.EmployeesSynced, result.PunchesSynced, result.WorklogsGenerated, result.OccurrencesGenerated)
	return nil
}
