package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/provider/tangerino"
	"timesheet.service/internal/ports/repository"
)

const (
	// DefaultSectorName receives every employee created by a sync.
	DefaultSectorName = "Geral"
	// PendingManager marks a sector whose manager is not configured yet.
	PendingManager = "PENDING"
)

// PunchProvider is the read-only source of employees and punches.
type PunchProvider interface {
	FetchEmployees(ctx context.Context) ([]tangerino.Employee, error)
	FetchPunches(ctx context.Context, start, end time.Time) ([]tangerino.Punch, error)
	TestConnection(ctx context.Context) error
}

// SyncStore is what the sync service needs from persistence.
type SyncStore interface {
	repository.EmployeeRepository
	repository.PunchRepository
	FindSectorByName(ctx context.Context, name string) (*model.Sector, error)
	CreateSector(ctx context.Context, name, managerChatUserID string) (*model.Sector, error)
}

// DailyCloser closes one day for every active employee.
type DailyCloser interface {
	ProcessDayForAllEmployees(ctx context.Context, day time.Time) (DailyCloseResult, error)
}

type SyncResult struct {
	EmployeesSynced      int `json:"employeesSynced"`
	PunchesSynced        int `json:"punchesSynced"`
	WorklogsGenerated    int `json:"worklogsGenerated"`
	OccurrencesGenerated int `json:"occurrencesGenerated"`
}

// IntegrationStatus describes the provider link for the status endpoint.
type IntegrationStatus struct {
	Provider  string `json:"provider"`
	ReadOnly  bool   `json:"readOnly"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// SyncService copies provider data into the local store. Nothing is ever
// written back to the provider.
type SyncService struct {
	provider PunchProvider
	repo     SyncStore
	closer   DailyCloser
	loc      *time.Location
}

func NewSyncService(provider PunchProvider, repo SyncStore, closer DailyCloser, loc *time.Location) *SyncService {
	if loc == nil {
		loc = time.UTC
	}
	return &SyncService{provider: provider, repo: repo, closer: closer, loc: loc}
}

// SyncEmployees upserts every provider employee by external id. New
// employees land in the default sector, created on first use.
func (s *SyncService) SyncEmployees(ctx context.Context) (int, error) {
	employees, err := s.provider.FetchEmployees(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch employees: %w", err)
	}

	sector, err := s.defaultSector(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, emp := range employees {
		if _, err := s.repo.UpsertEmployeeByExternalID(ctx, emp.ExternalID, emp.Name, sector.ID); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("external_id", emp.ExternalID).Msg("Failed to save provider employee")
			continue
		}
		synced++
	}

	log.Ctx(ctx).Info().Int("fetched", len(employees)).Int("synced", synced).Msg("Employees synced")
	return synced, nil
}

func (s *SyncService) defaultSector(ctx context.Context) (*model.Sector, error) {
	sector, err := s.repo.FindSectorByName(ctx, DefaultSectorName)
	if err == nil {
		return sector, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find default sector: %w", err)
	}
	sector, err = s.repo.CreateSector(ctx, DefaultSectorName, PendingManager)
	if err != nil {
		return nil, fmt.Errorf("create default sector: %w", err)
	}
	return sector, nil
}

// SyncPunches stores the provider punches of [start, end] that are not known
// yet. Punches of unknown employees are skipped.
func (s *SyncService) SyncPunches(ctx context.Context, start, end time.Time) (int, error) {
	punches, err := s.provider.FetchPunches(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetch punches: %w", err)
	}

	employeeIDs := map[string]string{}
	synced := 0
	for _, p := range punches {
		id, known := employeeIDs[p.ExternalEmployeeID]
		if !known {
			emp, err := s.repo.GetEmployeeByExternalID(ctx, p.ExternalEmployeeID)
			switch {
			case errors.Is(err, ErrNotFound):
				log.Ctx(ctx).Warn().Str("external_id", p.ExternalEmployeeID).Msg("Punch for unknown employee skipped")
			case err != nil:
				log.Ctx(ctx).Error().Err(err).Str("external_id", p.ExternalEmployeeID).Msg("Failed to look up employee")
				continue
			default:
				id = emp.ID
			}
			employeeIDs[p.ExternalEmployeeID] = id
		}
		if id == "" {
			continue
		}

		inserted, err := s.repo.InsertPunchIfAbsent(ctx, model.PunchEvent{
			EmployeeID:    id,
			Timestamp:     p.Timestamp,
			Type:          p.Type,
			SourcePayload: p.Raw,
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("employee_id", id).Msg("Failed to save punch")
			continue
		}
		if inserted {
			synced++
		}
	}

	log.Ctx(ctx).Info().Int("fetched", len(punches)).Int("synced", synced).Msg("Punches synced")
	return synced, nil
}

// FullSync syncs employees and punches, then closes every day from start to
// end inclusive.
func (s *SyncService) FullSync(ctx context.Context, start, end time.Time) (SyncResult, error) {
	var result SyncResult
	if end.Before(start) {
		return result, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	var err error
	if result.EmployeesSynced, err = s.SyncEmployees(ctx); err != nil {
		return result, err
	}
	if result.PunchesSynced, err = s.SyncPunches(ctx, start, end); err != nil {
		return result, err
	}

	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.loc)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		closed, err := s.closer.ProcessDayForAllEmployees(ctx, day)
		if err != nil {
			return result, fmt.Errorf("close %s: %w", dateKey(day), err)
		}
		result.WorklogsGenerated += closed.Processed
		result.OccurrencesGenerated += closed.Occurrences
	}
	return result, nil
}

// Status checks the provider connection.
func (s *SyncService) Status(ctx context.Context) IntegrationStatus {
	status := IntegrationStatus{Provider: "tangerino", ReadOnly: true, Connected: true}
	if err := s.provider.TestConnection(ctx); err != nil {
		status.Connected = false
		status.Error = err.Error()
	}
	return status
}
