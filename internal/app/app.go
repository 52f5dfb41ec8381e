// Package app wires the services shared by the API and the CLI.
package app

import (
	"database/sql"
	"time"

	"timesheet.service/internal/config"
	"timesheet.service/internal/core"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/ports/repository"
	"timesheet.service/internal/provider/tangerino"
)

type Services struct {
	Location    *time.Location
	Repo        *repository.PostgresRepository
	Worklogs    *core.WorklogService
	Occurrences *core.OccurrenceService
	Directory   *core.DirectoryService
	Sync        *core.SyncService
	Provider    *tangerino.Client
}

// New builds every service on top of db. cfg must have passed Validate.
func New(cfg config.Config, db *sql.DB, publisher messaging.Publisher) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repo := repository.NewPostgresRepository(db)
	provider := tangerino.NewClient(tangerino.Config{
		BaseURL:       cfg.ProviderBaseURL,
		APIKey:        cfg.ProviderAPIKey,
		APIKeyHeader:  cfg.ProviderAPIKeyHeader,
		EmployeesPath: cfg.ProviderEmployeesPath,
		PunchesPath:   cfg.ProviderPunchesPath,
		Location:      loc,
	})
	worklogs := core.NewWorklogService(repo, publisher, cfg.Workday(), loc)

	return &Services{
		Location:    loc,
		Repo:        repo,
		Worklogs:    worklogs,
		Occurrences: core.NewOccurrenceService(repo, publisher),
		Directory:   core.NewDirectoryService(repo),
		Sync:        core.NewSyncService(provider, repo, worklogs, loc),
		Provider:    provider,
	}, nil
}
