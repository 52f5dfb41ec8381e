package repository

import (
	"context"
	"errors"
	"time"

	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

type EmployeeRepository interface {
	ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetEmployeeByExternalID(ctx context.Context, externalID string) (*model.Employee, error)
	UpsertEmployeeByExternalID(ctx context.Context, externalID, name, sectorID string) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, id string, upd model.EmployeeUpdate) (*model.Employee, error)
}

type SectorRepository interface {
	ListSectors(ctx context.Context) ([]model.Sector, error)
	GetSector(ctx context.Context, id string) (*model.Sector, error)
	FindSectorByName(ctx context.Context, name string) (*model.Sector, error)
	CreateSector(ctx context.Context, name, managerChatUserID string) (*model.Sector, error)
	UpdateSector(ctx context.Context, id string, upd model.SectorUpdate) (*model.Sector, error)
}

type PunchRepository interface {
	// ListPunches returns the punches of an employee with from <= timestamp < to.
	ListPunches(ctx context.Context, employeeID string, from, to time.Time) ([]model.PunchEvent, error)
	// InsertPunchIfAbsent stores a punch unless one already exists for the
	// same employee and instant. It reports whether a row was written.
	InsertPunchIfAbsent(ctx context.Context, p model.PunchEvent) (bool, error)
}

type WorklogRepository interface {
	// SaveDailyWorklog writes a worklog and its occurrences atomically and
	// returns the occurrences that did not exist before.
	SaveDailyWorklog(ctx context.Context, wl model.DailyWorklog, occurrences []worklog.Occurrence) ([]model.Occurrence, error)
}

type OccurrenceRepository interface {
	ListOccurrences(ctx context.Context, f model.OccurrenceFilter) ([]model.Occurrence, error)
	GetOccurrence(ctx context.Context, id string) (*model.Occurrence, error)
	UpdateOccurrenceStatus(ctx context.Context, id string, status model.OccurrenceStatus, note *string) (*model.Occurrence, error)
	OccurrenceStats(ctx context.Context, date time.Time) (*model.OccurrenceStats, error)
}

type JustificationRepository interface {
	// AddJustification stores j and moves its occurrence from OPEN to ACK in
	// the same transaction.
	AddJustification(ctx context.Context, j *model.Justification) error
	ListJustifications(ctx context.Context, f model.JustificationFilter) ([]model.Justification, error)
	GetJustification(ctx context.Context, id string) (*model.Justification, error)
}

type NotificationRepository interface {
	LogNotification(ctx context.Context, n model.NotificationLog) error
	HasNotification(ctx context.Context, occurrenceID string, channel model.NotificationChannel) (bool, error)
	HasJustificationNotification(ctx context.Context, justificationID string, channel model.NotificationChannel) (bool, error)
}

type DashboardRepository interface {
	DashboardKPIs(ctx context.Context, date time.Time) (*model.DashboardKPIs, error)
	Ping(ctx context.Context) error
}

// Repository contract
type Repository interface {
	EmployeeRepository
	SectorRepository
	PunchRepository
	WorklogRepository
	OccurrenceRepository
	JustificationRepository
	NotificationRepository
	DashboardRepository
}
