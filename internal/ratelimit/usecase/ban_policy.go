package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	ratelimitDomain "github.com/allisson/secpolicy/internal/ratelimit/domain"
)

// DefaultSweepInterval is used when a non-positive sweep interval is configured.
const DefaultSweepInterval = time.Minute

// BanPolicyOption configures optional BanPolicy behavior.
type BanPolicyOption func(*banPolicy)

// WithClock overrides the time source.
func WithClock(now func() time.Time) BanPolicyOption {
	return func(b *banPolicy) {
		b.now = now
	}
}

// WithSweepInterval overrides how often the background sweeper runs.
func WithSweepInterval(interval time.Duration) BanPolicyOption {
	return func(b *banPolicy) {
		if interval > 0 {
			b.sweepInterval = interval
		}
	}
}

// entry guards one identity's record. A removed entry has been swept from the map and must
// not be updated; callers reload instead.
type entry struct {
	mu      sync.Mutex
	record  *ratelimitDomain.Record
	removed bool
}

type banPolicy struct {
	policy        ratelimitDomain.Policy
	logger        *slog.Logger
	now           func() time.Time
	sweepInterval time.Duration

	entries sync.Map // map[string]*entry
	size    atomic.Int64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBanPolicy creates an in-memory RateLimiter enforcing policy.
func NewBanPolicy(
	policy ratelimitDomain.Policy,
	logger *slog.Logger,
	opts ...BanPolicyOption,
) (RateLimiter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	b := &banPolicy{
		policy:        policy,
		logger:        logger,
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

func (b *banPolicy) Check(ctx context.Context, identity string) (ratelimitDomain.Decision, error) {
	if identity == "" {
		return ratelimitDomain.Decision{}, ratelimitDomain.ErrEmptyIdentity
	}

	for {
		e := b.load(identity)

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		decision := b.policy.Apply(e.record, b.now())
		e.mu.Unlock()

		if decision.NewlyBanned {
			b.logger.Warn("identity banned",
				slog.String("identity", auditDomain.MaskIdentity(identity)),
				slog.Int("attempts", decision.Attempts),
				slog.Duration("ban_duration", b.policy.BanDuration),
			)
		}

		return decision, nil
	}
}

func (b *banPolicy) Status(ctx context.Context, identity string) (ratelimitDomain.Status, error) {
	if identity == "" {
		return ratelimitDomain.Status{}, ratelimitDomain.ErrEmptyIdentity
	}

	value, ok := b.entries.Load(identity)
	if !ok {
		return ratelimitDomain.NewRecord(identity).Status(b.now(), b.policy), nil
	}

	e := value.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.record.Status(b.now(), b.policy), nil
}

func (b *banPolicy) Reset(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		return false, ratelimitDomain.ErrEmptyIdentity
	}

	value, ok := b.entries.Load(identity)
	if !ok {
		return false, nil
	}

	e := value.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return false, nil
	}
	b.remove(identity, e)

	return true, nil
}

func (b *banPolicy) Sweep(ctx context.Context) int {
	now := b.now()
	removed := 0

	b.entries.Range(func(key, value any) bool {
		e := value.(*entry)

		e.mu.Lock()
		if !e.removed && e.record.Idle(now, b.policy) {
			b.remove(key.(string), e)
			removed++
		}
		e.mu.Unlock()

		return ctx.Err() == nil
	})

	if removed > 0 {
		b.logger.Debug("swept rate limit records", slog.Int("removed", removed), slog.Int("remaining", b.Len()))
	}

	return removed
}

func (b *banPolicy) Len() int {
	return int(b.size.Load())
}

func (b *banPolicy) Start(ctx context.Context) {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.run(runCtx, b.done)
}

func (b *banPolicy) Stop() {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.done == nil {
		return
	}

	b.cancel()
	<-b.done
	b.cancel = nil
	b.done = nil
}

func (b *banPolicy) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Sweep(ctx)
		}
	}
}

func (b *banPolicy) load(identity string) *entry {
	if value, ok := b.entries.Load(identity); ok {
		return value.(*entry)
	}

	value, loaded := b.entries.LoadOrStore(identity, &entry{record: ratelimitDomain.NewRecord(identity)})
	if !loaded {
		b.size.Add(1)
	}
	return value.(*entry)
}

// remove must be called with e.mu held.
func (b *banPolicy) remove(identity string, e *entry) {
	e.removed = true
	b.entries.Delete(identity)
	b.size.Add(-1)
}
