package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/live", nil, "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	live := env.do(t, http.MethodGet, "/health/live", nil, "", "")
	assert.Equal(t, http.StatusOK, live.StatusCode)
	assert.Equal(t, "up", decodeBody[map[string]any](t, live)["status"])

	ready := env.do(t, http.MethodGet, "/health/ready", nil, "", "")
	assert.Equal(t, http.StatusOK, ready.StatusCode)
	body := decodeBody[map[string]any](t, ready)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/nope", nil, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlainHTTPToWebSocketEndpointIsRejected(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/ws", nil, "", "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
