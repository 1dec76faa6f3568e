package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	// FindByID returns nil (not an error) when the customer does not exist.
	FindByID(ctx context.Context, id string) (*Customer, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM customers WHERE id=$1`, id)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return &c, nil
}
