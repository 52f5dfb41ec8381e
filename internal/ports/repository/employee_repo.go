package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"timesheet.service/internal/core/model"
)

const employeeColumns = `id, name, external_id, chat_user_id, sector_id, active, created_at, updated_at`

func scanEmployee(row rowScanner) (*model.Employee, error) {
	e := &model.Employee{}
	var chatUserID sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.ExternalID, &chatUserID, &e.SectorID, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if chatUserID.Valid {
		e.ChatUserID = &chatUserID.String
	}
	return e, nil
}

// ListEmployees returns employees ordered by name.
func (r *PostgresRepository) ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []model.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (r *PostgresRepository) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	tagEmployee(ctx, id)
	row := r.DB.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r *PostgresRepository) GetEmployeeByExternalID(ctx context.Context, externalID string) (*model.Employee, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE external_id = $1`, externalID)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// UpsertEmployeeByExternalID creates the employee or refreshes its name. The
// sector of an existing employee is kept, it may have been reassigned by hand.
func (r *PostgresRepository) UpsertEmployeeByExternalID(ctx context.Context, externalID, name, sectorID string) (*model.Employee, error) {
	query := `INSERT INTO employees (id, name, external_id, sector_id, active)
              VALUES ($1, $2, $3, $4, TRUE)
              ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
              RETURNING ` + employeeColumns

	row := r.DB.QueryRowContext(ctx, query, uuid.NewString(), name, externalID, sectorID)
	return scanEmployee(row)
}

// UpdateEmployee applies the non-nil fields of upd.
func (r *PostgresRepository) UpdateEmployee(ctx context.Context, id string, upd model.EmployeeUpdate) (*model.Employee, error) {
	tagEmployee(ctx, id)

	sets, args := []string{}, []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+itoa(len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.ChatUserID != nil {
		add("chat_user_id", nullable(*upd.ChatUserID))
	}
	if upd.SectorID != nil {
		add("sector_id", *upd.SectorID)
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}
	if len(sets) == 0 {
		return r.GetEmployee(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE employees SET ` + strings.Join(sets, ", ") + `, updated_at = now()
              WHERE id = $` + itoa(len(args)) + ` RETURNING ` + employeeColumns

	e, err := scanEmployee(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}
