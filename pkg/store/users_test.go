package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewUserStore(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT u.id, u.username, u.email, u.full_name").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "role", "is_active", "created_at", "updated_at"}).
			AddRow(int64(1), "alice", "alice@example.com", "Alice", "admin", true, now, now))

	user, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "admin", user.Role)
	assert.True(t, user.IsActive)
}

func TestUserStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewUserStore(db)

	mock.ExpectQuery("SELECT u.id, u.username, u.email, u.full_name").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "role", "is_active", "created_at", "updated_at"}))

	_, err = store.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStore_Deactivate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewUserStore(db)

	mock.ExpectExec("UPDATE users SET is_active = FALSE").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Deactivate(context.Background(), 1))
}

func TestUserStore_CountActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewUserStore(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := store.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
