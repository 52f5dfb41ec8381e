package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"timesheet.service/internal/core/worklog"
)

var calcCmd = &cobra.Command{
	Use:   "calc [file]",
	Short: "Preview a worklog from a JSON list of punches",
	Long: `calc reads punches like [{"timestamp":"2024-01-15T08:00:00-03:00","type":"ENTRY"}]
from a file, or stdin when no file is given, and prints the calculation with
the configured workday. Nothing is stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalc,
}

func runCalc(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var punches []worklog.Punch
	if err := json.NewDecoder(in).Decode(&punches); err != nil {
		return fmt.Errorf("decode punches: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	for i := range punches {
		punches[i].Timestamp = punches[i].Timestamp.In(loc)
	}

	printCalculation(cmd.OutOrStdout(), worklog.CalculateWorklog(punches, cfg.Workday()))
	return nil
}

func printCalculation(w io.Writer, calc worklog.WorklogCalculation) {
	if calc.IsIncomplete {
		fmt.Fprintln(w, "incomplete day")
	} else {
		fmt.Fprintf(w, "worked %s, late %s, extra %s, under %s\n",
			worklog.FormatMinutes(calc.WorkedMinutes),
			worklog.FormatMinutes(calc.LateMinutes),
			worklog.FormatMinutes(calc.ExtraMinutes),
			worklog.FormatMinutes(calc.UnderMinutes))
	}
	for _, occ := range calc.Occurrences {
		fmt.Fprintf(w, "  %s %s\n", occ.Type, worklog.FormatMinutes(occ.Minutes))
	}
}
