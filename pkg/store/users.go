package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UserStore provides access to user profile rows
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store backed by db
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Get returns the user with the given ID. The role is joined in from the
// credential record.
func (s *UserStore) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.full_name, COALESCE(c.role, 'user'),
		       u.is_active, u.created_at, u.updated_at
		FROM users u
		LEFT JOIN credentials c ON c.user_id = u.id
		WHERE u.id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateProfile updates the mutable profile fields of a user
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, email, fullName string) (*User, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, full_name = $2, updated_at = NOW()
		WHERE id = $3`,
		email, fullName, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Deactivate soft-deletes a user. The row and its orders are kept.
func (s *UserStore) Deactivate(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
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

// CountActive returns the number of active users, used for the users gauge
func (s *UserStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
