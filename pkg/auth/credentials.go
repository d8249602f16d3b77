package auth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/storefrontd/storefrontd/pkg/crypto"
)

const uniqueViolation = "23505"

// CredentialStore persists credential records (login, salt, derived key,
// role, owner) and verifies passwords against them. Create/Register is the
// only mutating operation besides the explicit password-change flow.
type CredentialStore struct {
	db *sql.DB

	// decoySalt is burned through the KDF when a login does not exist so
	// that lookup misses cost the same as password mismatches.
	decoySalt string
}

// NewCredentialStore creates a credential store backed by the given database.
func NewCredentialStore(db *sql.DB) (*CredentialStore, error) {
	decoy, err := crypto.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate decoy salt: %w", err)
	}
	return &CredentialStore{db: db, decoySalt: decoy}, nil
}

// Register creates a user identity and its credential record in a single
// transaction. The salt is generated fresh and never reused; only the
// derived key is stored. Returns ErrDuplicateLogin if the login is taken.
func (s *CredentialStore) Register(ctx context.Context, login, email, password string, role Role) (*Subject, error) {
	if login == "" || password == "" {
		return nil, ErrInvalidArgument
	}
	if !role.Valid() {
		return nil, ErrInvalidArgument
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	derivedKey := crypto.DeriveKey(password, salt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, email, is_active, created_at, updated_at)
		VALUES ($1, $2, true, NOW(), NOW())
		RETURNING id
	`, login, email).Scan(&userID)
	if err != nil {
		return nil, translateDuplicate(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (login, salt, derived_key, role, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, login, salt, derivedKey, string(role), userID)
	if err != nil {
		return nil, translateDuplicate(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	return &Subject{UserID: userID, Username: login, Role: role}, nil
}

// Verify checks a login/password pair and returns the owning subject.
// Unknown logins and wrong passwords both return ErrAuthFailed with no
// distinguishing detail.
func (s *CredentialStore) Verify(ctx context.Context, login, password string) (*Subject, error) {
	if login == "" || password == "" {
		return nil, ErrAuthFailed
	}

	var (
		salt       string
		derivedKey string
		role       string
		userID     int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT salt, derived_key, role, user_id
		FROM credentials WHERE login = $1
	`, login).Scan(&salt, &derivedKey, &role, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		// Burn an equivalent derivation so absent logins are not
		// distinguishable by timing.
		crypto.DeriveKey(password, s.decoySalt)
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	computed := crypto.DeriveKey(password, salt)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(derivedKey)) != 1 {
		return nil, ErrAuthFailed
	}

	return &Subject{UserID: userID, Username: login, Role: Role(role)}, nil
}

// ChangePassword verifies the old password and replaces the credential's
// salt and derived key. The salt is never reused across passwords.
func (s *CredentialStore) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidArgument
	}
	if _, err := s.Verify(ctx, login, oldPassword); err != nil {
		return err
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	derivedKey := crypto.DeriveKey(newPassword, salt)

	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET salt = $1, derived_key = $2 WHERE login = $3
	`, salt, derivedKey, login)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAuthFailed
	}
	return nil
}

func translateDuplicate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateLogin
	}
	return fmt.Errorf("failed to create credential: %w", err)
}
