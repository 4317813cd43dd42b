package httputil

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// Page bounds for admin listings.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// RequestID returns the id assigned by the requestid middleware, or an empty string.
func RequestID(c *gin.Context) string {
	return requestid.Get(c)
}

// ParsePagination reads offset and limit. A missing offset is 0 and a missing limit is
// DefaultPageLimit.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = intQuery(c, "offset", 0)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = intQuery(c, "limit", DefaultPageLimit)
	if err != nil || limit < 1 || limit > MaxPageLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxPageLimit)
	}

	return offset, limit, nil
}

// ParseTimeRange reads two optional RFC3339 boundaries and converts them to UTC.
// A range whose start is after its end is rejected.
func ParseTimeRange(c *gin.Context, fromKey, toKey string) (from, to *time.Time, err error) {
	if from, err = timeQuery(c, fromKey); err != nil {
		return nil, nil, err
	}
	if to, err = timeQuery(c, toKey); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%s must be before or equal to %s", fromKey, toKey)
	}
	return from, to, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func timeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)", key)
	}

	parsed = parsed.UTC()
	return &parsed, nil
}
