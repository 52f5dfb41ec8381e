package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timesheet.service/internal/core/model"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/ports/repository"
)

// DirectoryStore is what the directory service needs from persistence.
type DirectoryStore interface {
	repository.EmployeeRepository
	repository.SectorRepository
	repository.DashboardRepository
}

// DirectoryService manages employees and sectors and builds the dashboard.
type DirectoryService struct {
	repo DirectoryStore
}

func NewDirectoryService(repo DirectoryStore) *DirectoryService {
	return &DirectoryService{repo: repo}
}

func (s *DirectoryService) ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error) {
	return s.repo.ListEmployees(ctx, activeOnly)
}

func (s *DirectoryService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// UpdateEmployee applies upd after checking the target sector exists.
func (s *DirectoryService) UpdateEmployee(ctx context.Context, id string, upd model.EmployeeUpdate) (*model.Employee, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if upd.SectorID != nil {
		if _, err := s.repo.GetSector(ctx, *upd.SectorID); err != nil {
			return nil, fmt.Errorf("sector %s: %w", *upd.SectorID, err)
		}
	}
	return s.repo.UpdateEmployee(ctx, id, upd)
}

func (s *DirectoryService) ListSectors(ctx context.Context) ([]model.Sector, error) {
	return s.repo.ListSectors(ctx)
}

// CreateSector adds a sector. An empty manager is stored as PENDING.
func (s *DirectoryService) CreateSector(ctx context.Context, name, managerChatUserID string) (*model.Sector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if managerChatUserID == "" {
		managerChatUserID = PendingManager
	}
	return s.repo.CreateSector(ctx, name, managerChatUserID)
}

func (s *DirectoryService) UpdateSector(ctx context.Context, id string, upd model.SectorUpdate) (*model.Sector, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	return s.repo.UpdateSector(ctx, id, upd)
}

// DashboardKPIs returns the counters for date with the minute totals also
// rendered as hours.
func (s *DirectoryService) DashboardKPIs(ctx context.Context, date time.Time) (*model.DashboardKPIs, error) {
	kpis, err := s.repo.DashboardKPIs(ctx, date)
	if err != nil {
		return nil, err
	}
	kpis.ExtraHoursToday = messaging.MinutesToHours(kpis.ExtraMinutesToday).StringFixed(2)
	kpis.MissingHoursToday = messaging.MinutesToHours(kpis.UnderMinutesToday).StringFixed(2)
	return kpis, nil
}

func (s *DirectoryService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
