package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"timesheet.service/internal/core/model"
)

const sectorColumns = `id, name, manager_chat_user_id, created_at, updated_at`

func scanSector(row rowScanner) (*model.Sector, error) {
	s := &model.Sector{}
	if err := row.Scan(&s.ID, &s.Name, &s.ManagerChatUserID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) ListSectors(ctx context.Context) ([]model.Sector, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+sectorColumns+` FROM sectors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sectors := []model.Sector{}
	for rows.Next() {
		s, err := scanSector(rows)
		if err != nil {
			return nil, err
		}
		sectors = append(sectors, *s)
	}
	return sectors, rows.Err()
}

func (r *PostgresRepository) GetSector(ctx context.Context, id string) (*model.Sector, error) {
	s, err := scanSector(r.DB.QueryRowContext(ctx, `SELECT `+sectorColumns+` FROM sectors WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *PostgresRepository) FindSectorByName(ctx context.Context, name string) (*model.Sector, error) {
	s, err := scanSector(r.DB.QueryRowContext(ctx, `SELECT `+sectorColumns+` FROM sectors WHERE name = $1`, name))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *PostgresRepository) CreateSector(ctx context.Context, name, managerChatUserID string) (*model.Sector, error) {
	query := `INSERT INTO sectors (id, name, manager_chat_user_id) VALUES ($1, $2, $3) RETURNING ` + sectorColumns
	return scanSector(r.DB.QueryRowContext(ctx, query, uuid.NewString(), name, managerChatUserID))
}

func (r *PostgresRepository) UpdateSector(ctx context.Context, id string, upd model.SectorUpdate) (*model.Sector, error) {
	sets, args := []string{}, []any{}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, "name = $"+itoa(len(args)))
	}
	if upd.ManagerChatUserID != nil {
		args = append(args, *upd.ManagerChatUserID)
		sets = append(sets, "manager_chat_user_id = $"+itoa(len(args)))
	}
	if len(sets) == 0 {
		return r.GetSector(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE sectors SET ` + strings.Join(sets, ", ") + `, updated_at = now()
              WHERE id = $` + itoa(len(args)) + ` RETURNING ` + sectorColumns

	s, err := scanSector(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// nullable stores an empty string as NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
