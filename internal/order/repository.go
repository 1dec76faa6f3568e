package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
}

type repo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, total_amount, created_at)
         VALUES ($1, $2, $3, $4)`,
		o.ID, o.CustomerID, o.TotalAmount, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	// line_no preserves request order; it is part of the contract that
	// reads return lines exactly as they were requested.
	for i, ln := range o.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (id, order_id, line_no, product_id, quantity, unit_price)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), o.ID, i, ln.ProductID, ln.Quantity, ln.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order_line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.db.QueryRowxContext(ctx,
		`SELECT id, customer_id, total_amount, created_at
         FROM orders WHERE id = $1`,
		orderID,
	).Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return &o, nil
}

func (r *repo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, customer_id, total_amount, created_at
         FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		lines, err := r.loadLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (r *repo) loadLines(ctx context.Context, orderID string) ([]Line, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT product_id, quantity, unit_price
         FROM order_lines WHERE order_id = $1 ORDER BY line_no`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ProductID, &ln.Quantity, &ln.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order_line: %w", err)
		}
		lines = append(lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return lines, nil
}
