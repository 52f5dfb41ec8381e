// Package handler holds the HTTP handlers of the /api/v1 surface. Handlers
// decode the request, call one service method and answer through the
// response envelope.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"timesheet.service/internal/api/response"
	"timesheet.service/internal/core"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
)

type DirectoryService interface {
	ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, id string, upd model.EmployeeUpdate) (*model.Employee, error)
	ListSectors(ctx context.Context) ([]model.Sector, error)
	CreateSector(ctx context.Context, name, managerChatUserID string) (*model.Sector, error)
	UpdateSector(ctx context.Context, id string, upd model.SectorUpdate) (*model.Sector, error)
	DashboardKPIs(ctx context.Context, date time.Time) (*model.DashboardKPIs, error)
	Ping(ctx context.Context) error
}

type OccurrenceService interface {
	List(ctx context.Context, f model.OccurrenceFilter) ([]model.Occurrence, error)
	Get(ctx context.Context, id string) (*model.OccurrenceDetail, error)
	Stats(ctx context.Context, date time.Time) (*model.OccurrenceStats, error)
	Ack(ctx context.Context, id string) (*model.Occurrence, error)
	Resolve(ctx context.Context, id string, action model.ResolveAction, note *string) (*model.Occurrence, error)
	Justify(ctx context.Context, in core.JustifyInput) (*model.Justification, error)
	ListJustifications(ctx context.Context, f model.JustificationFilter) ([]model.Justification, error)
	GetJustification(ctx context.Context, id string) (*model.Justification, error)
}

type WorklogService interface {
	Location() *time.Location
	Today() time.Time
	Preview(punches []worklog.Punch, cfg *worklog.WorkdayConfig) worklog.WorklogCalculation
	CloseDay(ctx context.Context, employeeID string, day time.Time) (worklog.WorklogCalculation, error)
	ProcessDayForAllEmployees(ctx context.Context, day time.Time) (core.DailyCloseResult, error)
}

type SyncService interface {
	FullSync(ctx context.Context, start, end time.Time) (core.SyncResult, error)
	Status(ctx context.Context) core.IntegrationStatus
}

// Clock tells handlers which calendar day "today" is and how to read dates.
type Clock interface {
	Location() *time.Location
	Today() time.Time
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints where every field is
// optional, so an empty body is a zero request.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// parseDate reads a YYYY-MM-DD value as midnight in loc. An empty value
// yields fallback.
func parseDate(value string, loc *time.Location, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", core.ErrInvalidInput, value)
	}
	return d, nil
}

// optionalDate is parseDate for filters, where a missing value means no filter.
func optionalDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDate(value, loc, time.Time{})
	if err != nil {
		return nil, err
	}
	return &d, nil
}
