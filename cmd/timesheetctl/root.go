package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"

	"timesheet.service/internal/app"
	"timesheet.service/internal/config"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/pkg/aws"
	"timesheet.service/pkg/database"
	"timesheet.service/pkg/logger"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "timesheetctl",
	Short: "Operate the timesheet service from the command line",
	Long: `timesheetctl reads the same environment (and optional .env file) as the
API and workers, and runs one maintenance task per invocation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return err
		}
		logger.Setup(cfg.IsLocalDev, "timesheetctl")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(calcCmd)
}

// connect opens the database and builds the services. The caller closes the
// returned db.
func connect(ctx context.Context) (*app.Services, *sql.DB, error) {
	db, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}

	producer := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.NotificationSQSQueueURL, cfg.EscalationSQSQueueURL)
	svc, err := app.New(cfg, db, producer)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return svc, db, nil
}
