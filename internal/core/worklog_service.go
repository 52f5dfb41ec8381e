package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/ports/repository"
)

const defaultCloseConcurrency = 8

// WorklogStore is what the worklog service needs from persistence.
type WorklogStore interface {
	repository.EmployeeRepository
	repository.PunchRepository
	repository.WorklogRepository
}

// DailyCloseResult summarises a daily close over all active employees.
type DailyCloseResult struct {
	Date        string `json:"date"`
	Processed   int    `json:"processed"`
	Errors      int    `json:"errors"`
	Occurrences int    `json:"occurrences"`
}

type WorklogService struct {
	repo      WorklogStore
	publisher messaging.Publisher
	cfg       worklog.WorkdayConfig
	loc       *time.Location
	// Concurrency bounds how many employees are closed in parallel.
	Concurrency int
	now         func() time.Time
}

// NewWorklogService wires the calculator to persistence and the notification
// queue. Days are interpreted in loc.
func NewWorklogService(repo WorklogStore, p messaging.Publisher, cfg worklog.WorkdayConfig, loc *time.Location) *WorklogService {
	if loc == nil {
		loc = time.UTC
	}
	return &WorklogService{
		repo:        repo,
		publisher:   p,
		cfg:         cfg,
		loc:         loc,
		Concurrency: defaultCloseConcurrency,
		now:         time.Now,
	}
}

// Location is the time zone days are evaluated in.
func (s *WorklogService) Location() *time.Location {
	return s.loc
}

// Workday returns the configuration used for closes.
func (s *WorklogService) Workday() worklog.WorkdayConfig {
	return s.cfg
}

// Today is the current calendar day in the service location.
func (s *WorklogService) Today() time.Time {
	return s.startOfDay(s.now().In(s.loc))
}

// startOfDay takes the calendar date of t as written and returns its
// midnight in the service location.
func (s *WorklogService) startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// Preview runs the calculator on punches without touching storage. A nil cfg
// uses the service configuration.
func (s *WorklogService) Preview(punches []worklog.Punch, cfg *worklog.WorkdayConfig) worklog.WorklogCalculation {
	c := s.cfg
	if cfg != nil {
		c = *cfg
	}
	local := make([]worklog.Punch, len(punches))
	for i, p := range punches {
		local[i] = worklog.Punch{Timestamp: p.Timestamp.In(s.loc), Type: p.Type}
	}
	return worklog.CalculateWorklog(local, c)
}

// ProcessDay loads the punches of one employee-day and computes its worklog.
func (s *WorklogService) ProcessDay(ctx context.Context, employeeID string, day time.Time) (worklog.WorklogCalculation, error) {
	start := s.startOfDay(day)
	events, err := s.repo.ListPunches(ctx, employeeID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return worklog.WorklogCalculation{}, fmt.Errorf("load punches: %w", err)
	}

	punches := make([]worklog.Punch, len(events))
	for i, e := range events {
		punches[i] = worklog.Punch{Timestamp: e.Timestamp.In(s.loc), Type: e.Type}
	}
	return worklog.CalculateWorklog(punches, s.cfg), nil
}

// SaveWorklog persists a calculation and announces every occurrence that did
// not exist before. A failed publish does not fail the save.
func (s *WorklogService) SaveWorklog(ctx context.Context, employeeID string, day time.Time, calc worklog.WorklogCalculation) ([]model.Occurrence, error) {
	start := s.startOfDay(day)
	created, err := s.repo.SaveDailyWorklog(ctx, model.NewDailyWorklog(employeeID, start, calc), calc.Occurrences)
	if err != nil {
		return nil, fmt.Errorf("save worklog: %w", err)
	}

	for _, occ := range created {
		event := messaging.NotificationEvent{
			Kind:         messaging.KindOccurrenceOpened,
			OccurrenceID: occ.ID,
			EmployeeID:   employeeID,
			Date:         dateKey(start),
			Type:         occ.Type,
			Minutes:      occ.Minutes,
			OccurredAt:   s.now().UTC(),
		}
		if err := s.publisher.PublishNotification(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("occurrence_id", occ.ID).Msg("Failed to publish occurrence notification")
		}
	}
	return created, nil
}

// CloseDay computes and persists the worklog of one employee-day.
func (s *WorklogService) CloseDay(ctx context.Context, employeeID string, day time.Time) (worklog.WorklogCalculation, error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return worklog.WorklogCalculation{}, fmt.Errorf("employee %s: %w", employeeID, err)
	}
	return s.closeDay(ctx, employeeID, day)
}

func (s *WorklogService) closeDay(ctx context.Context, employeeID string, day time.Time) (worklog.WorklogCalculation, error) {
	calc, err := s.ProcessDay(ctx, employeeID, day)
	if err != nil {
		return calc, err
	}
	if _, err := s.SaveWorklog(ctx, employeeID, day, calc); err != nil {
		return calc, err
	}
	return calc, nil
}

// ProcessDayForAllEmployees closes day for every active employee. Failures
// are counted and logged, they never stop the run.
func (s *WorklogService) ProcessDayForAllEmployees(ctx context.Context, day time.Time) (DailyCloseResult, error) {
	start := s.startOfDay(day)
	result := DailyCloseResult{Date: dateKey(start)}

	employees, err := s.repo.ListEmployees(ctx, true)
	if err != nil {
		return result, fmt.Errorf("list employees: %w", err)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(1, s.Concurrency))

	for _, emp := range employees {
		g.Go(func() error {
			calc, err := s.closeDay(ctx, emp.ID, start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors++
				log.Ctx(ctx).Error().Err(err).Str("employee_id", emp.ID).Str("date", result.Date).Msg("Daily close failed for employee")
				return nil
			}
			result.Processed++
			result.Occurrences += len(calc.Occurrences)
			return nil
		})
	}
	_ = g.Wait()

	log.Ctx(ctx).Info().
		Str("date", result.Date).
		Int("processed", result.Processed).
		Int("errors", result.Errors).
		Int("occurrences", result.Occurrences).
		Msg("Daily close finished")
	return result, nil
}

func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
