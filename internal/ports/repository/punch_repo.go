package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"timesheet.service/internal/core/model"
)

// ListPunches returns the punches of one employee in [from, to), oldest first.
func (r *PostgresRepository) ListPunches(ctx context.Context, employeeID string, from, to time.Time) ([]model.PunchEvent, error) {
	tagEmployee(ctx, employeeID)

	query := `SELECT id, employee_id, punched_at, type, source_payload, created_at
              FROM punch_events
              WHERE employee_id = $1 AND punched_at >= $2 AND punched_at < $3
              ORDER BY punched_at`

	rows, err := r.DB.QueryContext(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	punches := []model.PunchEvent{}
	for rows.Next() {
		var p model.PunchEvent
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Timestamp, &p.Type, &p.SourcePayload, &p.CreatedAt); err != nil {
			return nil, err
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// InsertPunchIfAbsent stores p unless the employee already has a punch at the
// same instant.
func (r *PostgresRepository) InsertPunchIfAbsent(ctx context.Context, p model.PunchEvent) (bool, error) {
	tagEmployee(ctx, p.EmployeeID)

	var payload any
	if len(p.SourcePayload) > 0 {
		payload = string(p.SourcePayload)
	}

	query := `INSERT INTO punch_events (id, employee_id, punched_at, type, source_payload)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (employee_id, punched_at) DO NOTHING`

	res, err := r.DB.ExecContext(ctx, query, uuid.NewString(), p.EmployeeID, p.Timestamp, p.Type, payload)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
