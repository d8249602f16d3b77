package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/storefrontd/storefrontd/pkg/auth"
	"github.com/storefrontd/storefrontd/pkg/observability"
	"github.com/storefrontd/storefrontd/pkg/storage"
	"github.com/storefrontd/storefrontd/pkg/store"
)

// testServer wires a full Server against a mocked database and a temp-dir
// blob store.
type testServer struct {
	server *Server
	mock   sqlmock.Sqlmock
	db     *sql.DB
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	credentials, err := auth.NewCredentialStore(db)
	require.NoError(t, err)
	tokens := auth.NewTokenService([]byte("api-test-secret"), time.Hour)

	blobs, err := storage.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	server := NewServer(
		Stores{
			Users:      store.NewUserStore(db),
			Categories: store.NewCategoryStore(db),
			Products:   store.NewProductStore(db),
			Carts:      store.NewCartStore(db),
			Orders:     store.NewOrderStore(db),
		},
		credentials,
		tokens,
		blobs,
		nil,
		logger,
		nil,
		10<<20,
	)

	return &testServer{server: server, mock: mock, db: db, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) issueToken(t *testing.T, subject auth.Subject) string {
	t.Helper()
	token, err := ts.tokens.Issue(subject)
	require.NoError(t, err)
	return token
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPut, "/api/v1/auth/password"},
	}

	for _, p := range paths {
		rec := ts.do(t, p.method, p.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery("SELECT id, name, description, created_at FROM categories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(int64(1), "books", "printed matter", time.Now()))

	rec := ts.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []store.Category
	decodeJSON(t, rec, &categories)
	require.Len(t, categories, 1)
	require.Equal(t, "books", categories[0].Name)
}

func TestAdminRoutesRejectPlainUsers(t *testing.T) {
	ts := newTestServer(t)
	userToken := ts.issueToken(t, auth.Subject{UserID: 1, Username: "bob", Role: auth.RoleUser})

	rec := ts.do(t, http.MethodPost, "/api/v1/categories", userToken, map[string]string{"name": "x"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}
