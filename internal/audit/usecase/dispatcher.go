package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditService "github.com/allisson/secpolicy/internal/audit/service"
)

// DefaultBufferSize is the queue capacity used when a non-positive size is configured.
const DefaultBufferSize = 1024

const sinkWriteTimeout = 5 * time.Second

type dispatcher struct {
	sink    Sink
	signer  auditService.EventSigner
	logger  *slog.Logger
	queue   chan *auditDomain.SecurityEvent
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewDispatcher starts a dispatcher writing to sink. signer may be nil, in which case events
// are stored unsigned.
func NewDispatcher(
	sink Sink,
	signer auditService.EventSigner,
	bufferSize int,
	logger *slog.Logger,
) Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	d := &dispatcher{
		sink:   sink,
		signer: signer,
		logger: logger,
		queue:  make(chan *auditDomain.SecurityEvent, bufferSize),
		done:   make(chan struct{}),
	}

	go d.run()

	return d
}

func (d *dispatcher) Emit(event *auditDomain.SecurityEvent) {
	if event == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.queue <- event.Clone():
	default:
		if d.dropped.Add(1) == 1 && d.logger != nil {
			d.logger.Warn("security event queue full, dropping events",
				slog.Int("capacity", cap(d.queue)),
			)
		}
	}
}

func (d *dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *dispatcher) Pending() int {
	return len(d.queue)
}

func (d *dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *dispatcher) run() {
	defer close(d.done)

	for event := range d.queue {
		d.write(event)
	}
}

func (d *dispatcher) write(event *auditDomain.SecurityEvent) {
	if d.signer != nil {
		signature, err := d.signer.Sign(event)
		if err != nil {
			if d.logger != nil {
				d.logger.Error("failed to sign security event",
					slog.String("event_id", event.ID.String()),
					slog.Any("error", err),
				)
			}
		} else {
			event.Signature = signature
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()

	if err := d.sink.Write(ctx, event); err != nil && d.logger != nil {
		d.logger.Error("failed to write security event",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}
