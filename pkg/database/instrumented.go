package database

import (
	"context"
	"database/sql"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"timesheet.service/internal/config"
)

// NewInstrumentedConnection opens a pool whose queries become child spans of
// the request or message being handled.
func NewInstrumentedConnection(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", DSN(cfg),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL, semconv.DBNameKey.String(cfg.DBName)),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, err
	}
	if err := verify(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}
