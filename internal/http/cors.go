package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/allisson/secpolicy/internal/config"
)

// corsMiddleware lets browser clients on the listed origins send the session and CSRF
// headers with credentials. It returns nil when CORS is off or no usable origin remains.
// A "*" origin is dropped: browsers refuse it together with credentials.
func corsMiddleware(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.CORSEnabled {
		return nil
	}

	origins := parseOrigins(cfg.CORSAllowOrigins)
	if len(origins) == 0 {
		logger.Warn("CORS enabled without usable origins, middleware not installed",
			slog.String("allow_origins", cfg.CORSAllowOrigins))
		return nil
	}
	logger.Info("CORS enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:     corsHeaders("Authorization", "Content-Type", cfg.SessionHeaderName, cfg.CsrfHeaderName),
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

// corsHeaders drops empty names, which come from unset header options.
func corsHeaders(names ...string) []string {
	headers := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			headers = append(headers, name)
		}
	}
	return headers
}
