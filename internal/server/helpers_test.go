package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"communityhub/internal/config"
	"communityhub/internal/models"
	"communityhub/internal/notifications"
	"communityhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testJWTSecret = "server-test-secret-0123456789abcdef"

// testEnv is a fully wired server over in-memory SQLite, miniredis and stub files/mail.
type testEnv struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	mr    *miniredis.Miniredis
	files *testutil.MemoryFileStore
	mail  *testutil.RecordingMailer
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.UseMiniredis(t)
	cfg := &config.Config{
		JWTSecret:        testJWTSecret,
		JWTTTLHours:      1,
		Env:              "test",
		AllowedOrigins:   "http://localhost:5173",
		UploadDir:        t.TempDir(),
		PublicUploadPath: "/uploads",
		AdminEmail:       "owner@example.com",
	}
	for _, m := range mutate {
		m(cfg)
	}

	files := testutil.NewMemoryFileStore()
	mail := &testutil.RecordingMailer{}
	srv, err := NewServerWithDeps(cfg, db, rdb, WithFileStore(files), WithMailer(mail))
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr, files: files, mail: mail}
}

func (e *testEnv) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := e.srv.tokens.Generate(u.ID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any, token string) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, path, body, fiber.MIMEApplicationJSON, token)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

// --- parsePage ---

func TestParsePage(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": parsePage(c)})
	})

	tests := []struct {
		query string
		want  float64
	}{
		{"", 1},
		{"?page=3", 3},
		{"?page=0", 1},
		{"?page=-4", 1},
		{"?page=abc", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			body := decodeBody[map[string]float64](t, resp)
			assert.Equal(t, tt.want, body["page"])
		})
	}
}

// --- parseID ---

func TestParseID_ValidID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c)
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(42), decodeBody[map[string]float64](t, resp)["id"])
}

func TestParseID_Rejected(t *testing.T) {
	tests := []struct {
		value string
	}{
		{"abc"},
		{"0"},
		{"-3"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:id", func(c *fiber.Ctx) error {
				_, _ = s.parseID(c)
				return nil
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[models.ErrorResponse](t, resp)
			assert.Equal(t, "Invalid ID", body.Message)
			assert.Equal(t, models.CodeValidation, body.Code)
		})
	}
}

// --- respondAppError ---

func TestRespondAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", models.NewValidationError("Content is required"), http.StatusBadRequest, "Content is required"},
		{"unauthorized", models.NewUnauthorizedError("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"forbidden", models.NewForbiddenError("Not allowed"), http.StatusForbidden, "Not allowed"},
		{"not found", models.NewNotFoundError("Post", 7), http.StatusNotFound, ""},
		{"conflict", models.NewConflictError("Email already registered"), http.StatusConflict, "Email already registered"},
		{"storage", models.NewStorageError("Failed to create post", errors.New("disk full")), http.StatusBadRequest, "Failed to create post"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	s := &Server{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return s.respondAppError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeBody[models.ErrorResponse](t, resp)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
			assert.NotContains(t, body.Message, "boom")
			assert.NotContains(t, body.Message, "disk full")
		})
	}
}

// --- ReadinessCheck ---

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	_, rdb := testutil.UseMiniredis(t)
	s := &Server{db: gormDB, redis: rdb, hub: notifications.NewHub(notifications.HubConfig{})}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	app := fiber.New()
	app.Get("/health/ready", s.ReadinessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["database"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadinessCheck_Healthy(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	_, rdb := testutil.UseMiniredis(t)
	s := &Server{db: gormDB, redis: rdb, hub: notifications.NewHub(notifications.HubConfig{})}

	mock.ExpectPing()

	app := fiber.New()
	app.Get("/health/ready", s.ReadinessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["connections"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadinessCheck_NoRedis(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := &Server{db: gormDB, hub: notifications.NewHub(notifications.HubConfig{})}

	mock.ExpectPing()

	app := fiber.New()
	app.Get("/health/ready", s.ReadinessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "unavailable", body["checks"].(map[string]any)["redis"])
}
