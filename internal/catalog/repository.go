package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// StockConflictError reports products whose conditional decrement failed
// because remaining stock was lower than the requested quantity. Nothing
// is written when this is returned.
type StockConflictError struct {
	ProductIDs []string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for products: %s", strings.Join(e.ProductIDs, ", "))
}

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	// FindAllByID returns the products matching the given ids in one round
	// trip. Unknown ids are simply absent from the result.
	FindAllByID(ctx context.Context, ids []string) ([]Product, error)

	// ApplyStockAdjustments decrements availability for every adjustment in
	// one transaction. Each decrement is conditional on enough remaining
	// stock; if any product falls short the whole batch is rolled back and
	// a *StockConflictError lists the offenders.
	ApplyStockAdjustments(ctx context.Context, adjustments []StockAdjustment) error

	// ReleaseStock re-increments availability. Used to compensate a
	// reservation after a later step fails.
	ReleaseStock(ctx context.Context, adjustments []StockAdjustment) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindAllByID(ctx context.Context, ids []string) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, available
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Available); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return products, nil
}

func (r *PostgresRepository) ApplyStockAdjustments(ctx context.Context, adjustments []StockAdjustment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Conditional decrement per product: the WHERE clause is the stock
	// sufficiency check, evaluated atomically by the database. A row that
	// doesn't match means a concurrent order consumed the stock since our
	// snapshot read.
	var conflicts []string
	for _, adj := range adjustments {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET available = available - $2, updated_at = now()
			WHERE id = $1 AND available >= $2
		`, adj.ProductID, adj.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", adj.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			conflicts = append(conflicts, adj.ProductID)
		}
	}

	if len(conflicts) > 0 {
		return &StockConflictError{ProductIDs: conflicts}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit stock adjustments: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ReleaseStock(ctx context.Context, adjustments []StockAdjustment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, adj := range adjustments {
		_, err := tx.Exec(ctx, `
			UPDATE products
			SET available = available + $2, updated_at = now()
			WHERE id = $1
		`, adj.ProductID, adj.Quantity)
		if err != nil {
			return fmt.Errorf("release stock for %s: %w", adj.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit stock release: %w", err)
	}
	return nil
}
