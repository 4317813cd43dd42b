package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink collects written events and can block until released.
type recordingSink struct {
	mu      sync.Mutex
	events  []*auditDomain.SecurityEvent
	release chan struct{}
	err     error
}

func (s *recordingSink) Write(ctx context.Context, event *auditDomain.SecurityEvent) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Events() []*auditDomain.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*auditDomain.SecurityEvent(nil), s.events...)
}

type mockSecurityEventRepository struct {
	mock.Mock
}

func (m *mockSecurityEventRepository) Create(ctx context.Context, event *auditDomain.SecurityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockSecurityEventRepository) List(
	ctx context.Context,
	filter auditDomain.EventFilter,
) ([]*auditDomain.SecurityEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.SecurityEvent), args.Error(1)
}

func (m *mockSecurityEventRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// passthroughTxManager runs fn without a transaction so mocks see the caller's context.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) WithReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
