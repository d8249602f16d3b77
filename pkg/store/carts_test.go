package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartStore_UpsertItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCartStore(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(int64(1), int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpsertItem(context.Background(), 1, 10, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartStore_UpsertItem_InvalidQuantity(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCartStore(db)

	assert.ErrorIs(t, store.UpsertItem(context.Background(), 1, 10, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, store.UpsertItem(context.Background(), 1, 10, -1), ErrInvalidQuantity)
}

func TestCartStore_UpsertItem_UnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCartStore(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	assert.ErrorIs(t, store.UpsertItem(context.Background(), 1, 404, 1), ErrNotFound)
}

func TestCartStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCartStore(db)

	mock.ExpectQuery("SELECT ci.product_id, p.name, p.price_cents, ci.quantity").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "price_cents", "quantity"}).
			AddRow(int64(10), "widget", int64(500), int64(2)).
			AddRow(int64(11), "gadget", int64(1200), int64(1)))

	cart, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, int64(2200), cart.TotalCents)
}

func TestCartStore_Get_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCartStore(db)

	mock.ExpectQuery("SELECT ci.product_id, p.name, p.price_cents, ci.quantity").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "price_cents", "quantity"}))

	cart, err := store.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalCents)
}

func TestCartStore_RemoveItem_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewCartStore(db)

	mock.ExpectExec("DELETE FROM cart_items WHERE user_id =").
		WithArgs(int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.RemoveItem(context.Background(), 1, 10), ErrNotFound)
}
