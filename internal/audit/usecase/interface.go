// Package usecase implements asynchronous security event dispatch and event administration.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

// SecurityEventRepository persists security events.
type SecurityEventRepository interface {
	Create(ctx context.Context, event *auditDomain.SecurityEvent) error
	List(ctx context.Context, filter auditDomain.EventFilter) ([]*auditDomain.SecurityEvent, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// Sink is the final destination of dispatched events.
type Sink interface {
	Write(ctx context.Context, event *auditDomain.SecurityEvent) error
}

// Emitter accepts security events without blocking the caller.
type Emitter interface {
	// Emit queues a private copy of event. When the queue is full or the emitter is closed
	// the event is dropped and counted.
	Emit(event *auditDomain.SecurityEvent)
}

// Dispatcher is an Emitter backed by a bounded queue and a single worker.
type Dispatcher interface {
	Emitter

	// Dropped returns the number of events discarded so far.
	Dropped() uint64

	// Pending returns the number of queued events.
	Pending() int

	// Close stops accepting events and waits until the queue is drained or ctx is done.
	Close(ctx context.Context) error
}

// SecurityEventUseCase defines the administrative operations on stored events.
type SecurityEventUseCase interface {
	// List returns events ordered by created_at descending.
	List(ctx context.Context, filter auditDomain.EventFilter) ([]*auditDomain.SecurityEvent, error)

	// DeleteOlderThan removes events older than the given number of days. With dryRun it only counts.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)

	// Verify checks the signature of every event matching the filter.
	Verify(ctx context.Context, filter auditDomain.EventFilter) (*auditDomain.VerifyReport, error)
}
