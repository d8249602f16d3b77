package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ProductStore provides access to catalog products
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a product store backed by db
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, category_id, name, description, price_cents, stock, COALESCE(image_key, ''), is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.PriceCents,
		&p.Stock, &p.ImageKey, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a product and returns it with its assigned ID
func (s *ProductStore) Create(ctx context.Context, p *Product) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (category_id, name, description, price_cents, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING `+productColumns,
		p.CategoryID, p.Name, p.Description, p.PriceCents, p.Stock,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Get returns the product with the given ID, active or not
func (s *ProductStore) Get(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List returns active products with optional category filtering and
// limit/offset pagination. categoryID of zero means all categories.
func (s *ProductStore) List(ctx context.Context, categoryID int64, limit, offset int) ([]*Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE is_active`
	args := []interface{}{}
	if categoryID > 0 {
		query += ` AND category_id = $1`
		args = append(args, categoryID)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Update changes a product's catalog fields
func (s *ProductStore) Update(ctx context.Context, p *Product) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, price_cents = $4, stock = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+productColumns,
		p.CategoryID, p.Name, p.Description, p.PriceCents, p.Stock, p.ID,
	)
	updated, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// SetImageKey records the blob key of a product's uploaded image
func (s *ProductStore) SetImageKey(ctx context.Context, id int64, key string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET image_key = $1, updated_at = NOW() WHERE id = $2`,
		key, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set image key: %w", err)
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

// Deactivate soft-deletes a product. Existing order snapshots keep their
// prices, only the listing disappears.
func (s *ProductStore) Deactivate(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
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
