// Package scheduler runs the daily close and the employee summaries on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"timesheet.service/internal/core"
)

// DailyCloser closes a day for every active employee.
type DailyCloser interface {
	ProcessDayForAllEmployees(ctx context.Context, day time.Time) (core.DailyCloseResult, error)
}

// SummarySender sends each employee the OPEN occurrences of a day.
type SummarySender interface {
	SendDailySummaries(ctx context.Context, day time.Time) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	closer  DailyCloser
	summary SummarySender
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time
}

// New builds a scheduler evaluating specs in loc.
func New(closer DailyCloser, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		closer:  closer,
		loc:     loc,
		timeout: 30 * time.Minute,
		now:     time.Now,
	}
}

// RegisterDailyClose schedules the close of the current day on spec, a
// standard five-field cron expression.
func (s *Scheduler) RegisterDailyClose(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled daily close failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid daily close schedule %q: %w", spec, err)
	}
	log.Info().Str("spec", spec).Str("tz", s.loc.String()).Msg("Daily close scheduled")
	return nil
}

// RegisterDailySummary schedules sender to message employees about the
// day's open occurrences on spec.
func (s *Scheduler) RegisterDailySummary(spec string, sender SummarySender) error {
	s.summary = sender
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.RunSummary(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled daily summary failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid daily summary schedule %q: %w", spec, err)
	}
	log.Info().Str("spec", spec).Str("tz", s.loc.String()).Msg("Daily summary scheduled")
	return nil
}

// RunOnce closes today, in the scheduler location.
func (s *Scheduler) RunOnce(ctx context.Context) (core.DailyCloseResult, error) {
	today := s.today()
	log.Info().Str("date", today.Format(time.DateOnly)).Msg("Running daily close")
	return s.closer.ProcessDayForAllEmployees(ctx, today)
}

// RunSummary sends today's summaries.
func (s *Scheduler) RunSummary(ctx context.Context) (int, error) {
	if s.summary == nil {
		return 0, fmt.Errorf("no summary sender registered")
	}
	today := s.today()
	log.Info().Str("date", today.Format(time.DateOnly)).Msg("Sending daily summaries")
	return s.summary.SendDailySummaries(ctx, today)
}

func (s *Scheduler) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running close to finish or ctx
// to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
