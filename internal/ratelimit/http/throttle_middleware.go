// Package http provides the HTTP burst throttle and the rate limit administration handlers.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	"github.com/allisson/secpolicy/internal/httputil"
)

const (
	throttleCleanupInterval = 5 * time.Minute
	throttleIdleThreshold   = time.Hour
)

// throttleStore holds per-IP token buckets with automatic cleanup.
type throttleStore struct {
	limiters sync.Map // map[string]*throttleEntry
	rps      float64
	burst    int
}

type throttleEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// ThrottleMiddleware is a token bucket burst guard keyed by client IP. It runs in front of the
// ban policy and only smooths request spikes: it keeps no ban state and never counts towards a ban.
//
// Configuration:
//   - rps: sustained requests per second per client IP
//   - burst: bucket capacity
//
// The cleanup goroutine stops when ctx is cancelled.
func ThrottleMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &throttleStore{
		rps:   rps,
		burst: burst,
	}

	go store.cleanupStale(ctx, throttleCleanupInterval)

	return func(c *gin.Context) {
		limiter := store.getLimiter(c.ClientIP())

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			logger.Debug("request throttled",
				slog.String("identity", auditDomain.MaskIdentity(c.ClientIP())),
				slog.Duration("retry_after", delay),
			)

			httputil.SetRetryAfter(c, delay)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Too many requests. Please retry after the specified delay.",
			})
			return
		}

		c.Next()
	}
}

func (s *throttleStore) getLimiter(identity string) *rate.Limiter {
	now := time.Now()

	if val, ok := s.limiters.Load(identity); ok {
		entry := val.(*throttleEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &throttleEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	}
	val, _ := s.limiters.LoadOrStore(identity, entry)
	return val.(*throttleEntry).limiter
}

// cleanupStale removes buckets that haven't been used recently.
func (s *throttleStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeIdle(time.Now().Add(-throttleIdleThreshold))
		}
	}
}

func (s *throttleStore) removeIdle(threshold time.Time) {
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*throttleEntry)
		entry.mu.Lock()
		shouldDelete := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if shouldDelete {
			s.limiters.Delete(key)
		}
		return true
	})
}
