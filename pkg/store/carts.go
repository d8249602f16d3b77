package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CartStore provides access to per-user carts. Cart rows are keyed by
// user ID, one cart per user, created lazily on first write.
type CartStore struct {
	db *sql.DB
}

// NewCartStore creates a cart store backed by db
func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

// Get returns the user's cart with product names and current prices
// joined in. An empty cart is returned as a cart with no items.
func (s *CartStore) Get(ctx context.Context, userID int64) (*Cart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.product_id, p.name, p.price_cents, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	cart := &Cart{UserID: userID, Items: []CartItem{}, UpdatedAt: time.Now().UTC()}
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.PriceCents, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
		cart.TotalCents += item.PriceCents * item.Quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}
	return cart, nil
}

// UpsertItem sets the quantity of a product in the user's cart, inserting
// the line when absent.
func (s *CartStore) UpsertItem(ctx context.Context, userID, productID, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	// Only active products can enter a cart.
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND is_active)`,
		productID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = $3, updated_at = NOW()`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

// RemoveItem deletes a product line from the user's cart
func (s *CartStore) RemoveItem(ctx context.Context, userID, productID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
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

// Clear removes all items from the user's cart
func (s *CartStore) Clear(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// DeleteStale removes cart items untouched for longer than maxAge and
// returns the number of lines deleted. Run from the maintenance job.
func (s *CartStore) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE updated_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(maxAge.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale cart items: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
