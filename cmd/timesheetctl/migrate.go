package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timesheet.service/internal/ports/repository"
	"timesheet.service/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewConnection(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repository.NewPostgresRepository(db).Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		return nil
	},
}
