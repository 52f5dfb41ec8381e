package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	closeDate     string
	closeEmployee string
)

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Run the daily close for a date",
	Long: `close computes and stores the worklog of every active employee for the
given date (today by default), opening occurrences and queueing their
notifications. With --employee only that employee is closed.`,
	Args: cobra.NoArgs,
	RunE: runClose,
}

func init() {
	closeCmd.Flags().StringVar(&closeDate, "date", "", "Day to close, YYYY-MM-DD (default today)")
	closeCmd.Flags().StringVar(&closeEmployee, "employee", "", "Close a single employee id")
}

func runClose(cmd *cobra.Command, args []string) error {
	svc, db, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	day := svc.Worklogs.Today()
	if closeDate != "" {
		if day, err = time.ParseInLocation(time.DateOnly, closeDate, svc.Location); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if closeEmployee != "" {
		calc, err := svc.Worklogs.CloseDay(cmd.Context(), closeEmployee, day)
		if err != nil {
			return err
		}
		printCalculation(out, calc)
		return nil
	}

	result, err := svc.Worklogs.ProcessDayForAllEmployees(cmd.Context(), day)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d processed, %d errors, %d occurrences\n",
		result.Date, result.Processed, result.Errors, result.Occurrences)
	return nil
}
