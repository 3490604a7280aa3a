package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/dashboard/overview", ok)
	e.GET("/health", ok)
	return e
}

func get(e *echo.Echo, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://localhost:4200", "http://localhost:3000"}, AllowedOrigins(""))
	assert.Equal(t, []string{"https://dash.example.com"}, AllowedOrigins("dash.example.com"))
	assert.Equal(t, []string{"https://localhost:8443", "http://localhost:8443"}, AllowedOrigins("localhost:8443"))
}

func TestCORSConfig(t *testing.T) {
	e := newEcho(CORSConfig("dash.example.com"))

	rec := get(e, "/dashboard/overview", map[string]string{echo.HeaderOrigin: "https://dash.example.com"})
	assert.Equal(t, "https://dash.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = get(e, "/dashboard/overview", map[string]string{echo.HeaderOrigin: "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestSecurityHeaders(t *testing.T) {
	e := newEcho(SecurityHeaders("dash.example.com"))

	rec := get(e, "/dashboard/overview", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors https://dash.example.com", rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = get(e, "/dashboard/overview", map[string]string{"X-Forwarded-Proto": "https"})
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := newEcho(RequestID(), RequestLogger(zap.New(core)))

	rec := get(e, "/dashboard/overview", nil)
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, id, fields["request_id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	rec = get(e, "/dashboard/overview", map[string]string{echo.HeaderXRequestID: "caller-id"})
	assert.Equal(t, "caller-id", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRateLimiter(t *testing.T) {
	e := newEcho(RateLimiter(1))

	headers := map[string]string{echo.HeaderXRealIP: "10.0.0.1"}
	assert.Equal(t, http.StatusOK, get(e, "/dashboard/overview", headers).Code)
	assert.Equal(t, http.StatusOK, get(e, "/dashboard/overview", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/dashboard/overview", headers).Code)

	// other clients and the health check are unaffected
	assert.Equal(t, http.StatusOK, get(e, "/dashboard/overview", map[string]string{echo.HeaderXRealIP: "10.0.0.2"}).Code)
	assert.Equal(t, http.StatusOK, get(e, "/health", headers).Code)
}
