package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRows(t *testing.T, products ...*Product) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "category_id", "name", "description", "price_cents",
		"stock", "image_key", "is_active", "created_at", "updated_at",
	})
	for _, p := range products {
		rows.AddRow(p.ID, p.CategoryID, p.Name, p.Description, p.PriceCents,
			p.Stock, p.ImageKey, p.IsActive, p.CreatedAt, p.UpdatedAt)
	}
	return rows
}

func TestProductStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewProductStore(db)

	now := time.Now().UTC()
	want := &Product{
		ID: 3, CategoryID: 1, Name: "widget", Description: "a widget",
		PriceCents: 500, Stock: 10, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs(int64(3)).
		WillReturnRows(productRows(t, want))

	got, err := store.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProductStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewProductStore(db)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs(int64(404)).
		WillReturnRows(productRows(t))

	_, err = store.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductStore_List_CategoryFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewProductStore(db)

	now := time.Now().UTC()
	p := &Product{ID: 1, CategoryID: 2, Name: "widget", PriceCents: 500, Stock: 10, IsActive: true, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("SELECT .+ FROM products WHERE is_active AND category_id =").
		WithArgs(int64(2), 50, 0).
		WillReturnRows(productRows(t, p))

	got, err := store.List(context.Background(), 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].CategoryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_SetImageKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewProductStore(db)

	mock.ExpectExec("UPDATE products SET image_key =").
		WithArgs("products/abc123.png", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetImageKey(context.Background(), 3, "products/abc123.png"))
}
