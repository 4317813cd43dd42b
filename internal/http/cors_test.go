package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/secpolicy/internal/config"
)

func corsConfig(enabled bool, origins string) *config.Config {
	return &config.Config{
		CORSEnabled:       enabled,
		CORSAllowOrigins:  origins,
		SessionHeaderName: "X-Session-Id",
		CsrfHeaderName:    "X-CSRF-Token",
	}
}

func corsRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if middleware := corsMiddleware(cfg, slog.Default()); middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/fields/encrypt", func(c *gin.Context) {
		c.Header("Retry-After", "60")
		c.Status(http.StatusTooManyRequests)
	})
	return router
}

func TestCorsMiddleware_NotInstalled(t *testing.T) {
	assert.Nil(t, corsMiddleware(corsConfig(false, "https://app.example.com"), slog.Default()))
	assert.Nil(t, corsMiddleware(corsConfig(true, ""), slog.Default()))
	assert.Nil(t, corsMiddleware(corsConfig(true, " * , "), slog.Default()), "wildcard is dropped")
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"https://app.example.com", "https://admin.example.com"},
		parseOrigins(" https://app.example.com ,*, https://admin.example.com ,"),
	)
	assert.Nil(t, parseOrigins(""))
}

func TestCorsHeaders(t *testing.T) {
	assert.Equal(t,
		[]string{"Authorization", "X-CSRF-Token"},
		corsHeaders("Authorization", "", "X-CSRF-Token"),
	)
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	router := corsRouter(t, corsConfig(true, "https://app.example.com"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/fields/encrypt", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-CSRF-Token")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Csrf-Token")
}

func TestCorsMiddleware_ExposesRetryAfter(t *testing.T) {
	router := corsRouter(t, corsConfig(true, "https://app.example.com"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/fields/encrypt", nil)
	req.Header.Set("Origin", "https://app.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
}

func TestCorsMiddleware_UnknownOrigin(t *testing.T) {
	router := corsRouter(t, corsConfig(true, "https://app.example.com"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/fields/encrypt", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
