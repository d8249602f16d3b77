package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontd/storefrontd/pkg/auth"
	"github.com/storefrontd/storefrontd/pkg/crypto"
)

func expectRegistration(mock sqlmock.Sqlmock, login string, userID int64) {
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(login, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID))
	mock.ExpectExec("INSERT INTO credentials").
		WithArgs(login, sqlmock.AnyArg(), sqlmock.AnyArg(), "user", userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func expectCredentialLookup(mock sqlmock.Sqlmock, login, password string) {
	salt := "0123456789abcdef"
	mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
		WithArgs(login).
		WillReturnRows(sqlmock.NewRows([]string{"salt", "derived_key", "role", "user_id"}).
			AddRow(salt, crypto.DeriveKey(password, salt), "user", int64(1)))
}

func TestRegisterIssuesToken(t *testing.T) {
	ts := newTestServer(t)
	expectRegistration(ts.mock, "alice", 1)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"login": "alice", "email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp tokenResponse
	decodeJSON(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	// The issued token opens protected routes.
	subject, err := ts.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), subject.UserID)
	assert.Equal(t, "alice", subject.Username)
}

func TestRegisterDuplicateLogin(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectBegin()
	ts.mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})
	ts.mock.ExpectRollback()

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"login": "alice", "email": "alice@example.com", "password": "s3cret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	ts := newTestServer(t)
	expectCredentialLookup(ts.mock, "alice", "s3cret")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "alice", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	decodeJSON(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)

	// Wrong password for a known login.
	expectCredentialLookup(ts.mock, "alice", "s3cret")
	wrongPass := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "alice", "password": "wrong",
	})

	// Unknown login entirely.
	ts.mock.ExpectQuery("SELECT salt, derived_key, role, user_id").
		WithArgs("mallory").
		WillReturnRows(sqlmock.NewRows([]string{"salt", "derived_key", "role", "user_id"}))
	unknownLogin := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "mallory", "password": "whatever",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownLogin.Code)
	assert.Equal(t, wrongPass.Body.String(), unknownLogin.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// Register and capture the issued token.
	expectRegistration(ts.mock, "alice", 1)
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"login": "alice", "email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp tokenResponse
	decodeJSON(t, rec, &resp)

	// The fresh token reaches a protected route.
	ts.mock.ExpectQuery("SELECT u.id, u.username, u.email, u.full_name").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "role", "is_active", "created_at", "updated_at"}).
			AddRow(int64(1), "alice", "alice@example.com", "", "user", true, time.Now(), time.Now()))
	me := ts.do(t, http.MethodGet, "/api/v1/users/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, me.Code)

	// A token past its lifetime is rejected with 403 and never reaches
	// the handler.
	expiredSvc := auth.NewTokenService([]byte("api-test-secret"), -time.Hour)
	expired, err := expiredSvc.Issue(auth.Subject{UserID: 1, Username: "alice", Role: auth.RoleUser})
	require.NoError(t, err)

	rejected := ts.do(t, http.MethodGet, "/api/v1/users/me", expired, nil)
	assert.Equal(t, http.StatusForbidden, rejected.Code)
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	token := ts.issueToken(t, auth.Subject{UserID: 1, Username: "alice", Role: auth.RoleUser})

	expectCredentialLookup(ts.mock, "alice", "s3cret")
	ts.mock.ExpectExec("UPDATE credentials SET salt =").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := ts.do(t, http.MethodPut, "/api/v1/auth/password", token, map[string]string{
		"old_password": "s3cret", "new_password": "n3wpass",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChangePasswordWrongOld(t *testing.T) {
	ts := newTestServer(t)
	token := ts.issueToken(t, auth.Subject{UserID: 1, Username: "alice", Role: auth.RoleUser})

	expectCredentialLookup(ts.mock, "alice", "s3cret")

	rec := ts.do(t, http.MethodPut, "/api/v1/auth/password", token, map[string]string{
		"old_password": "wrong", "new_password": "n3wpass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
