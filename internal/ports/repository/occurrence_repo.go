package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"timesheet.service/internal/core/model"
)

const occurrenceColumns = `id, employee_id, date, type, minutes, status, resolution_note, created_at, updated_at`

func scanOccurrence(row rowScanner) (*model.Occurrence, error) {
	o := &model.Occurrence{}
	var note sql.NullString
	if err := row.Scan(&o.ID, &o.EmployeeID, &o.Date, &o.Type, &o.Minutes, &o.Status, &note, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if note.Valid {
		o.ResolutionNote = &note.String
	}
	return o, nil
}

// ListOccurrences returns the occurrences matching f, newest day first.
func (r *PostgresRepository) ListOccurrences(ctx context.Context, f model.OccurrenceFilter) ([]model.Occurrence, error) {
	where, args := []string{}, []any{}
	if f.Date != nil {
		args = append(args, dateKey(*f.Date))
		where = append(where, "date = $"+itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+itoa(len(args)))
	}
	if f.EmployeeID != "" {
		tagEmployee(ctx, f.EmployeeID)
		args = append(args, f.EmployeeID)
		where = append(where, "employee_id = $"+itoa(len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, "type = $"+itoa(len(args)))
	}

	query := `SELECT ` + occurrenceColumns + ` FROM occurrences`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occurrences := []model.Occurrence{}
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, *o)
	}
	return occurrences, rows.Err()
}

func (r *PostgresRepository) GetOccurrence(ctx context.Context, id string) (*model.Occurrence, error) {
	o, err := scanOccurrence(r.DB.QueryRowContext(ctx, `SELECT `+occurrenceColumns+` FROM occurrences WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// UpdateOccurrenceStatus sets the status and, when note is non-nil, the
// resolution note.
func (r *PostgresRepository) UpdateOccurrenceStatus(ctx context.Context, id string, status model.OccurrenceStatus, note *string) (*model.Occurrence, error) {
	query := `UPDATE occurrences
              SET status = $1, resolution_note = COALESCE($2, resolution_note), updated_at = now()
              WHERE id = $3
              RETURNING ` + occurrenceColumns

	var noteArg sql.NullString
	if note != nil {
		noteArg = sql.NullString{String: *note, Valid: true}
	}

	o, err := scanOccurrence(r.DB.QueryRowContext(ctx, query, status, noteArg, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// OccurrenceStats counts the occurrences of a day by status and type.
func (r *PostgresRepository) OccurrenceStats(ctx context.Context, date time.Time) (*model.OccurrenceStats, error) {
	query := `SELECT type, status, COUNT(*) FROM occurrences WHERE date = $1 GROUP BY type, status`

	rows, err := r.DB.QueryContext(ctx, query, dateKey(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &model.OccurrenceStats{Date: dateKey(date), ByType: map[string]int{}}
	for rows.Next() {
		var (
			typ    string
			status model.OccurrenceStatus
			count  int
		)
		if err := rows.Scan(&typ, &status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByType[typ] += count
		switch status {
		case model.StatusOccurrenceOpen:
			stats.Open += count
		case model.StatusOccurrenceAck:
			stats.Ack += count
		case model.StatusOccurrenceResolved:
			stats.Resolved += count
		}
	}
	return stats, rows.Err()
}
