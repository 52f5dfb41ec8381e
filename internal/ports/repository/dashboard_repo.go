package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"timesheet.service/internal/core/model"
)

func (r *PostgresRepository) LogNotification(ctx context.Context, n model.NotificationLog) error {
	tagEmployee(ctx, n.EmployeeID)

	query := `INSERT INTO notification_logs (id, employee_id, occurrence_id, justification_id, channel, message_ref)
              VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(ctx, query, uuid.NewString(), n.EmployeeID, n.OccurrenceID, n.JustificationID, n.Channel, n.MessageRef)
	return err
}

// HasNotification reports whether occurrenceID was already delivered on channel.
func (r *PostgresRepository) HasNotification(ctx context.Context, occurrenceID string, channel model.NotificationChannel) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM notification_logs WHERE occurrence_id = $1 AND channel = $2)`
	err := r.DB.QueryRowContext(ctx, query, occurrenceID, channel).Scan(&exists)
	return exists, err
}

// HasJustificationNotification is HasNotification keyed on a single
// justification, so follow-up justifications for one occurrence each go out.
func (r *PostgresRepository) HasJustificationNotification(ctx context.Context, justificationID string, channel model.NotificationChannel) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM notification_logs WHERE justification_id = $1 AND channel = $2)`
	err := r.DB.QueryRowContext(ctx, query, justificationID, channel).Scan(&exists)
	return exists, err
}

// DashboardKPIs gathers the headline counters for date. Hour strings are left
// to the caller.
func (r *PostgresRepository) DashboardKPIs(ctx context.Context, date time.Time) (*model.DashboardKPIs, error) {
	day := dateKey(date)
	k := &model.DashboardKPIs{}

	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM employees`).
		Scan(&k.TotalEmployees, &k.ActiveEmployees)
	if err != nil {
		return nil, err
	}

	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sectors`).Scan(&k.TotalSectors); err != nil {
		return nil, err
	}

	occurrenceQuery := `SELECT
              COUNT(*) FILTER (WHERE date = $1),
              COUNT(*) FILTER (WHERE status = 'OPEN'),
              COUNT(*) FILTER (WHERE date = $1 AND status = 'RESOLVED'),
              COUNT(*) FILTER (WHERE date = $1 AND type = 'LATE'),
              COUNT(*) FILTER (WHERE date = $1 AND type = 'OVER'),
              COUNT(*) FILTER (WHERE date = $1 AND type = 'UNDER'),
              COUNT(*) FILTER (WHERE date = $1 AND type = 'INCOMPLETE')
          FROM occurrences`

	err = r.DB.QueryRowContext(ctx, occurrenceQuery, day).Scan(
		&k.TodayOccurrences, &k.OpenOccurrences, &k.ResolvedToday,
		&k.LateToday, &k.OverToday, &k.UnderToday, &k.IncompleteToday,
	)
	if err != nil {
		return nil, err
	}

	err = r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(extra_minutes), 0), COALESCE(SUM(under_minutes), 0) FROM daily_worklogs WHERE date = $1`, day).
		Scan(&k.ExtraMinutesToday, &k.UnderMinutesToday)
	if err != nil {
		return nil, err
	}
	return k, nil
}
