package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"timesheet.service/internal/core/model"
)

const justificationColumns = `id, occurrence_id, employee_id, date, text, category, notify_hr, created_at`

func scanJustification(row rowScanner) (*model.Justification, error) {
	j := &model.Justification{}
	var category sql.NullString
	if err := row.Scan(&j.ID, &j.OccurrenceID, &j.EmployeeID, &j.Date, &j.Text, &category, &j.NotifyHR, &j.CreatedAt); err != nil {
		return nil, err
	}
	if category.Valid {
		c := model.JustificationCategory(category.String)
		j.Category = &c
	}
	return j, nil
}

// AddJustification inserts j and acknowledges its occurrence if it is still
// OPEN. j.ID and j.CreatedAt are filled in.
func (r *PostgresRepository) AddJustification(ctx context.Context, j *model.Justification) error {
	tagEmployee(ctx, j.EmployeeID)

	var category sql.NullString
	if j.Category != nil {
		category = sql.NullString{String: string(*j.Category), Valid: true}
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO justifications (id, occurrence_id, employee_id, date, text, category, notify_hr)
                  VALUES ($1, $2, $3, $4, $5, $6, $7)
                  RETURNING id, created_at`

		err := tx.QueryRowContext(ctx, query, uuid.NewString(), j.OccurrenceID, j.EmployeeID, dateKey(j.Date), j.Text, category, j.NotifyHR).
			Scan(&j.ID, &j.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE occurrences SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
			model.StatusOccurrenceAck, j.OccurrenceID, model.StatusOccurrenceOpen)
		return err
	})
}

func (r *PostgresRepository) ListJustifications(ctx context.Context, f model.JustificationFilter) ([]model.Justification, error) {
	where, args := []string{}, []any{}
	if f.OccurrenceID != "" {
		args = append(args, f.OccurrenceID)
		where = append(where, "occurrence_id = $"+itoa(len(args)))
	}
	if f.EmployeeID != "" {
		args = append(args, f.EmployeeID)
		where = append(where, "employee_id = $"+itoa(len(args)))
	}
	if f.Date != nil {
		args = append(args, dateKey(*f.Date))
		where = append(where, "date = $"+itoa(len(args)))
	}

	query := `SELECT ` + justificationColumns + ` FROM justifications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	justifications := []model.Justification{}
	for rows.Next() {
		j, err := scanJustification(rows)
		if err != nil {
			return nil, err
		}
		justifications = append(justifications, *j)
	}
	return justifications, rows.Err()
}

func (r *PostgresRepository) GetJustification(ctx context.Context, id string) (*model.Justification, error) {
	j, err := scanJustification(r.DB.QueryRowContext(ctx, `SELECT `+justificationColumns+` FROM justifications WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return j, nil
}
