package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditService "github.com/allisson/secpolicy/internal/audit/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEvent(eventType auditDomain.EventType) *auditDomain.SecurityEvent {
	return auditDomain.NewSecurityEvent(eventType, auditDomain.Subject{Identity: "192.0.2.1"}, map[string]any{"n": 1})
}

func TestDispatcher_DeliversAndSigns(t *testing.T) {
	sink := &recordingSink{}
	signer, err := auditService.NewEventSigner([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	d := NewDispatcher(sink, signer, 8, discardLogger())

	event := newEvent(auditDomain.EventRateLimitExceeded)
	d.Emit(event)
	d.Emit(newEvent(auditDomain.EventIdentityBanned))
	require.NoError(t, d.Close(context.Background()))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event.ID, events[0].ID)
	assert.True(t, events[0].IsSigned())
	assert.NoError(t, signer.Verify(events[0]))
	assert.False(t, event.IsSigned(), "the emitter's copy is not modified")
	assert.Equal(t, uint64(0), d.Dropped())
}

func TestDispatcher_EmitIsolatesEvent(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, 8, discardLogger())

	event := newEvent(auditDomain.EventSuspiciousInput)
	d.Emit(event)
	event.Metadata["n"] = 99
	event.Path = "/changed"
	require.NoError(t, d.Close(context.Background()))

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Metadata["n"])
	assert.Equal(t, "", events[0].Path)
	assert.False(t, events[0].IsSigned())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{release: make(chan struct{})}
	d := NewDispatcher(sink, nil, 2, discardLogger())

	// the worker holds one event while blocked in the sink, the queue holds two more
	for i := 0; i < 10; i++ {
		d.Emit(newEvent(auditDomain.EventRateLimitExceeded))
	}

	start := time.Now()
	d.Emit(newEvent(auditDomain.EventRateLimitExceeded))
	assert.Less(t, time.Since(start), 100*time.Millisecond, "emit never blocks")

	assert.GreaterOrEqual(t, d.Dropped(), uint64(8))
	assert.LessOrEqual(t, d.Pending(), 2)

	close(sink.release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, uint64(11), uint64(len(sink.Events()))+d.Dropped())
}

func TestDispatcher_EmitAfterClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, 4, discardLogger())
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()), "close is idempotent")

	d.Emit(newEvent(auditDomain.EventKeyRotated))
	d.Emit(nil)

	assert.Empty(t, sink.Events())
	assert.Equal(t, uint64(1), d.Dropped())
}

func TestDispatcher_CloseHonorsContext(t *testing.T) {
	sink := &recordingSink{release: make(chan struct{})}
	d := NewDispatcher(sink, nil, 4, discardLogger())
	d.Emit(newEvent(auditDomain.EventKeyRotated))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(sink.release)
	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, sink.Events(), 1)
}

func TestDispatcher_SinkErrorDoesNotStopWorker(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	d := NewDispatcher(sink, nil, 4, discardLogger())

	d.Emit(newEvent(auditDomain.EventKeyRotated))
	d.Emit(newEvent(auditDomain.EventKeyExported))
	require.NoError(t, d.Close(context.Background()))

	assert.Len(t, sink.Events(), 2)
}

func TestDispatcher_ConcurrentEmit(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, 10000, discardLogger())

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				d.Emit(newEvent(auditDomain.EventRateLimitExceeded))
			}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, sink.Events(), 800)
}
