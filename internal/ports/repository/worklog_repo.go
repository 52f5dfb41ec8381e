package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
)

// SaveDailyWorklog upserts the worklog of an employee-day and reconciles its
// occurrences in one transaction:
//   - occurrences of a type already recorded keep their id and status, only the
//     minutes are refreshed;
//   - new types are inserted as OPEN and returned to the caller;
//   - OPEN occurrences whose type is no longer produced are removed. Anything a
//     human already touched (ACK, RESOLVED) is left alone.
func (r *PostgresRepository) SaveDailyWorklog(ctx context.Context, wl model.DailyWorklog, occurrences []worklog.Occurrence) ([]model.Occurrence, error) {
	tagEmployee(ctx, wl.EmployeeID)

	day := dateKey(wl.Date)
	created := []model.Occurrence{}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		worklogQuery := `INSERT INTO daily_worklogs
                  (id, employee_id, date, worked_minutes, late_minutes, extra_minutes, under_minutes, status)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              ON CONFLICT (employee_id, date) DO UPDATE SET
                  worked_minutes = EXCLUDED.worked_minutes,
                  late_minutes = EXCLUDED.late_minutes,
                  extra_minutes = EXCLUDED.extra_minutes,
                  under_minutes = EXCLUDED.under_minutes,
                  status = EXCLUDED.status,
                  updated_at = now()`

		if _, err := tx.ExecContext(ctx, worklogQuery, uuid.NewString(), wl.EmployeeID, day,
			wl.WorkedMinutes, wl.LateMinutes, wl.ExtraMinutes, wl.UnderMinutes, wl.Status); err != nil {
			return err
		}

		occurrenceQuery := `INSERT INTO occurrences (id, employee_id, date, type, minutes, status)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (employee_id, date, type) DO UPDATE SET minutes = EXCLUDED.minutes, updated_at = now()
              RETURNING id, status, created_at, updated_at, (xmax = 0) AS inserted`

		types := make([]string, 0, len(occurrences))
		for _, o := range occurrences {
			types = append(types, string(o.Type))

			occ := model.Occurrence{
				EmployeeID: wl.EmployeeID,
				Date:       wl.Date,
				Type:       o.Type,
				Minutes:    o.Minutes,
			}
			var inserted bool
			err := tx.QueryRowContext(ctx, occurrenceQuery, uuid.NewString(), wl.EmployeeID, day, o.Type, o.Minutes, model.StatusOccurrenceOpen).
				Scan(&occ.ID, &occ.Status, &occ.CreatedAt, &occ.UpdatedAt, &inserted)
			if err != nil {
				return err
			}
			if inserted {
				created = append(created, occ)
			}
		}

		staleQuery := `DELETE FROM occurrences
              WHERE employee_id = $1 AND date = $2 AND status = $3
                AND NOT (type = ANY (string_to_array($4, ',')))`

		_, err := tx.ExecContext(ctx, staleQuery, wl.EmployeeID, day, model.StatusOccurrenceOpen, strings.Join(types, ","))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
