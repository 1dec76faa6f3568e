package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Register postgres driver
)

// NewPool opens a pgx connection pool used by the catalog and customer
// repositories (row locking needs pgx transactions).
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Open opens and pings a database/sql handle used by the order repository.
func Open(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("postgres", dsn)
}
