package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// OrderStore provides access to orders and the checkout transaction
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore creates an order store backed by db
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// CreateFromCart converts the user's cart into an order in a single
// transaction: snapshot each line's current price, decrement stock, and
// empty the cart. Fails with ErrEmptyCart or ErrOutOfStock without any
// partial effect.
func (s *OrderStore) CreateFromCart(ctx context.Context, userID int64) (*Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, p.name, p.price_cents, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF p`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var items []OrderItem
	var total int64
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.PriceCents, &item.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		items = append(items, item)
		total += item.PriceCents * item.Quantity
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}
	rows.Close()

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Decrement stock, guarded so it never goes negative.
	for _, item := range items {
		result, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1`,
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrOutOfStock)
		}
	}

	order := &Order{UserID: userID, Status: OrderStatusPending, TotalCents: total, Items: items}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, status, total_cents, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		userID, OrderStatusPending, total,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.ProductID, item.ProductName, item.PriceCents, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

// Get returns an order with its items. Callers enforce ownership.
func (s *OrderStore) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, price_cents, quantity
		FROM order_items WHERE order_id = $1
		ORDER BY product_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	o.Items = []OrderItem{}
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.PriceCents, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, without items
func (s *OrderStore) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to a new lifecycle status
func (s *OrderStore) UpdateStatus(ctx context.Context, id int64, status OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RollupDaily aggregates yesterday's orders into order_daily_stats. Safe
// to re-run, the day's row is replaced. Run from the maintenance job.
func (s *OrderStore) RollupDaily(ctx context.Context, day time.Time) error {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_daily_stats (day, order_count, revenue_cents)
		SELECT $1::date, COUNT(*), COALESCE(SUM(total_cents), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $1 + INTERVAL '1 day'
		  AND status <> 'cancelled'
		ON CONFLICT (day)
		DO UPDATE SET order_count = EXCLUDED.order_count, revenue_cents = EXCLUDED.revenue_cents`,
		dayStart,
	)
	if err != nil {
		return fmt.Errorf("failed to roll up daily stats: %w", err)
	}
	return nil
}
