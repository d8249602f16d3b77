package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontd/storefrontd/pkg/crypto"
)

func setupCredentialStore(t *testing.T) (*CredentialStore, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store, err := NewCredentialStore(db)
	require.NoError(t, err)
	return store, db, mock
}

func TestCredentialStore_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store, db, mock := setupCredentialStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectExec("INSERT INTO credentials").
			WithArgs("alice", sqlmock.AnyArg(), sqlmock.AnyArg(), "user", int64(7)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		subject, err := store.Register(context.Background(), "alice", "alice@example.com", "Secret123", RoleUser)
		require.NoError(t, err)
		assert.Equal(t, int64(7), subject.UserID)
		assert.Equal(t, "alice", subject.Username)
		assert.Equal(t, RoleUser, subject.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate login", func(t *testing.T) {
		store, db, mock := setupCredentialStore(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := store.Register(context.Background(), "alice", "alice@example.com", "Secret123", RoleUser)
		assert.ErrorIs(t, err, ErrDuplicateLogin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty inputs rejected", func(t *testing.T) {
		store, db, _ := setupCredentialStore(t)
		defer db.Close()

		_, err := store.Register(context.Background(), "", "", "pw", RoleUser)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = store.Register(context.Background(), "bob", "", "", RoleUser)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = store.Register(context.Background(), "bob", "", "pw", Role("superuser"))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCredentialStore_Verify(t *testing.T) {
	const salt = "abcdefgh12345678"
	derived := crypto.DeriveKey("Secret123", salt)

	credentialRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"salt", "derived_key", "role", "user_id"}).
			AddRow(salt, derived, "user", int64(7))
	}

	t.Run("correct password", func(t *testing.T) {
		store, db, mock := setupCredentialStore(t)
		defer db.Close()

		mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
			WithArgs("alice").
			WillReturnRows(credentialRows())

		subject, err := store.Verify(context.Background(), "alice", "Secret123")
		require.NoError(t, err)
		assert.Equal(t, RoleUser, subject.Role)
		assert.Equal(t, int64(7), subject.UserID)
	})

	t.Run("wrong password and unknown login are indistinguishable", func(t *testing.T) {
		store, db, mock := setupCredentialStore(t)
		defer db.Close()

		mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
			WithArgs("alice").
			WillReturnRows(credentialRows())
		mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
			WithArgs("no-such-login").
			WillReturnError(sql.ErrNoRows)

		_, wrongPw := store.Verify(context.Background(), "alice", "wrong")
		_, unknown := store.Verify(context.Background(), "no-such-login", "anything")

		assert.ErrorIs(t, wrongPw, ErrAuthFailed)
		assert.ErrorIs(t, unknown, ErrAuthFailed)
		assert.Equal(t, wrongPw.Error(), unknown.Error())
	})
}

func TestCredentialStore_ChangePassword(t *testing.T) {
	const salt = "abcdefgh12345678"
	derived := crypto.DeriveKey("OldSecret1", salt)

	t.Run("success", func(t *testing.T) {
		store, db, mock := setupCredentialStore(t)
		defer db.Close()

		mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"salt", "derived_key", "role", "user_id"}).
				AddRow(salt, derived, "user", int64(7)))
		mock.ExpectExec("UPDATE credentials SET salt").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.ChangePassword(context.Background(), "alice", "OldSecret1", "NewSecret1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong old password", func(t *testing.T) {
		store, db, mock := setupCredentialStore(t)
		defer db.Close()

		mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"salt", "derived_key", "role", "user_id"}).
				AddRow(salt, derived, "user", int64(7)))

		err := store.ChangePassword(context.Background(), "alice", "guess", "NewSecret1")
		assert.ErrorIs(t, err, ErrAuthFailed)
	})
}
