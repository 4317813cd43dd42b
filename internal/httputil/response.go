// Package httputil writes the JSON error bodies and reads the query parameters shared by
// every handler.
package httputil

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/secpolicy/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type retryAfterError interface {
	RetryAfter() time.Duration
}

// codedError lets a failure name itself to clients, e.g. csrf_validation_failed.
type codedError interface {
	ErrorCode() string
}

type errorMapping struct {
	sentinel error
	status   int
	name     string
	// message is sent to the client. Empty means err.Error() is safe to expose.
	message string
}

// Order matters: the first sentinel in the chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "A conflict occurred with existing data"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", ""},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please retry later"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden", "The request was refused"},
	{apperrors.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable", "The service is temporarily unable to handle the request"},
	{apperrors.ErrConfiguration, http.StatusInternalServerError, "configuration_error", "The service is misconfigured"},
}

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	name:    "internal_error",
	message: "An internal error occurred",
}

func mappingFor(err error) errorMapping {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.sentinel) {
			return m
		}
	}
	return internalError
}

// HandleErrorGin writes the status and body for err. Client errors are logged at warn and
// server errors at error, with the full chain in both cases.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	m := mappingFor(err)
	body := ErrorResponse{Error: m.name, Message: m.message}
	if body.Message == "" {
		body.Message = err.Error()
	}

	var coded codedError
	if apperrors.As(err, &coded) {
		body.Code = coded.ErrorCode()
	}

	var retry retryAfterError
	if m.status == http.StatusTooManyRequests && apperrors.As(err, &retry) {
		SetRetryAfter(c, retry.RetryAfter())
	}

	if logger != nil {
		level := slog.LevelWarn
		if m.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "request failed",
			slog.Int("status_code", m.status),
			slog.String("error_code", m.name),
			slog.Any("error", err),
		)
	}

	c.JSON(m.status, body)
}

// HandleBadRequestGin answers 400 for bodies or parameters that could not be decoded.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
}

// HandleValidationErrorGin answers 422 for decoded requests that failed validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_error", Message: err.Error()})
}

// SetRetryAfter writes the Retry-After header in whole seconds, rounding up.
func SetRetryAfter(c *gin.Context, retryAfter time.Duration) {
	if retryAfter <= 0 {
		return
	}
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
}
