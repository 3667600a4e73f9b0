package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"stockfolio/internal/modules/ledger"
	"stockfolio/internal/modules/sessions"
	"stockfolio/internal/modules/users"
)

type stubQuotes struct{}

func (stubQuotes) CurrentPrice(_ context.Context, _ string) (float64, error) {
	return 100.0, nil
}

func (stubQuotes) Overview(_ context.Context, _ string) (ledger.SymbolOverview, error) {
	return ledger.SymbolOverview{}, nil
}

type testEnv struct {
	registry *ledger.Registry
	users    *users.Repository
	router   chi.Router
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	usersDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { usersDB.Close() })
	_, err = usersDB.Exec(`
		CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT    NOT NULL UNIQUE,
			password_hash TEXT    NOT NULL,
			salt          TEXT    NOT NULL,
			created_at    INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	sessionsDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sessionsDB.Close() })
	_, err = sessionsDB.Exec(`
		CREATE TABLE sessions (
			id         TEXT    PRIMARY KEY,
			user_id    INTEGER NOT NULL UNIQUE,
			snapshot   BLOB    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	usersRepo := users.NewRepository(usersDB, log)
	sessionsRepo := sessions.NewRepository(sessionsDB, log)
	registry := ledger.NewRegistry(stubQuotes{}, log)

	router := chi.NewRouter()
	NewHandler(usersRepo, sessionsRepo, registry, log).RegisterRoutes(router)

	return &testEnv{registry: registry, users: usersRepo, router: router}
}

func (e *testEnv) doRequest(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateUser(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"username": "alice", "password": "secret1"}`, wantStatus: http.StatusCreated},
		{name: "missing password", body: `{"username": "alice"}`, wantStatus: http.StatusBadRequest},
		{name: "short username", body: `{"username": "al", "password": "secret1"}`, wantStatus: http.StatusBadRequest},
		{name: "short password", body: `{"username": "alice", "password": "short"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid JSON", body: `{not json`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTest(t)

			rec := env.doRequest(http.MethodPost, "/create-user", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleCreateUserDuplicate(t *testing.T) {
	env := setupTest(t)
	require.Equal(t, http.StatusCreated,
		env.doRequest(http.MethodPost, "/create-user", `{"username": "alice", "password": "secret1"}`).Code)

	rec := env.doRequest(http.MethodPost, "/create-user", `{"username": "alice", "password": "other12"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteUser(t *testing.T) {
	env := setupTest(t)
	require.NoError(t, env.users.Create("alice", "secret1"))

	rec := env.doRequest(http.MethodDelete, "/delete-user", `{"username": "alice"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.doRequest(http.MethodDelete, "/delete-user", `{"username": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogin(t *testing.T) {
	t.Run("success marks the user active", func(t *testing.T) {
		env := setupTest(t)
		require.NoError(t, env.users.Create("alice", "secret1"))

		rec := env.doRequest(http.MethodPost, "/login", `{"username": "alice", "password": "secret1"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, int64(0), env.registry.ActiveUserID())
	})

	t.Run("wrong password", func(t *testing.T) {
		env := setupTest(t)
		require.NoError(t, env.users.Create("alice", "secret1"))

		rec := env.doRequest(http.MethodPost, "/login", `{"username": "alice", "password": "wrongpass"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, int64(0), env.registry.ActiveUserID())
	})

	t.Run("unknown user", func(t *testing.T) {
		env := setupTest(t)

		rec := env.doRequest(http.MethodPost, "/login", `{"username": "ghost", "password": "secret1"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := setupTest(t)

		rec := env.doRequest(http.MethodPost, "/login", `{"username": "alice"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	env := setupTest(t)
	require.NoError(t, env.users.Create("alice", "secret1"))

	require.Equal(t, http.StatusOK,
		env.doRequest(http.MethodPost, "/login", `{"username": "alice", "password": "secret1"}`).Code)

	active := env.registry.Active()
	require.NoError(t, active.UpdateCash(500.0))
	require.NoError(t, active.AddStock("NVDA", 10, 150.0))

	require.Equal(t, http.StatusOK,
		env.doRequest(http.MethodPost, "/logout", `{"username": "alice"}`).Code)

	// Logout clears the in-memory ledger
	snap := active.Snapshot()
	assert.Empty(t, snap.Holdings)
	assert.Equal(t, 0.0, snap.CashBalance)

	// A fresh login restores the persisted state
	require.Equal(t, http.StatusOK,
		env.doRequest(http.MethodPost, "/login", `{"username": "alice", "password": "secret1"}`).Code)

	restored := env.registry.Active()
	assert.Equal(t, 500.0, restored.CashBalance())
	h, held := restored.Holding("NVDA")
	require.True(t, held)
	assert.Equal(t, int64(10), h.Quantity)
}

func TestHandleLogoutWithoutSession(t *testing.T) {
	env := setupTest(t)
	require.NoError(t, env.users.Create("alice", "secret1"))

	rec := env.doRequest(http.MethodPost, "/logout", `{"username": "alice"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdatePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := setupTest(t)
		require.NoError(t, env.users.Create("alice", "secret1"))

		rec := env.doRequest(http.MethodPost, "/update-password",
			`{"username": "alice", "old_password": "secret1", "new_password": "newsecret"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		ok, err := env.users.VerifyCredentials("alice", "newsecret")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong old password", func(t *testing.T) {
		env := setupTest(t)
		require.NoError(t, env.users.Create("alice", "secret1"))

		rec := env.doRequest(http.MethodPost, "/update-password",
			`{"username": "alice", "old_password": "wrongpass", "new_password": "newsecret"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("short new password", func(t *testing.T) {
		env := setupTest(t)
		require.NoError(t, env.users.Create("alice", "secret1"))

		rec := env.doRequest(http.MethodPost, "/update-password",
			`{"username": "alice", "old_password": "secret1", "new_password": "short"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
