package usecase

import (
	"context"
	"encoding/hex"
	"log/slog"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

type logSink struct {
	logger *slog.Logger
}

// NewLogSink writes events as structured log records.
func NewLogSink(logger *slog.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Write(ctx context.Context, event *auditDomain.SecurityEvent) error {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.String("severity", string(event.Severity)),
		slog.String("identity", event.Identity),
		slog.String("request_id", event.RequestID),
		slog.String("method", event.Method),
		slog.String("path", event.Path),
		slog.Time("created_at", event.CreatedAt),
	}
	if event.SessionRef != "" {
		attrs = append(attrs, slog.String("session_ref", event.SessionRef))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.Metadata != nil {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}
	if event.IsSigned() {
		attrs = append(attrs, slog.String("signature", hex.EncodeToString(event.Signature)))
	}

	level := slog.LevelInfo
	switch event.Severity {
	case auditDomain.SeverityWarning:
		level = slog.LevelWarn
	case auditDomain.SeverityCritical:
		level = slog.LevelError
	}

	s.logger.LogAttrs(ctx, level, "security event", attrs...)
	return nil
}

type repositorySink struct {
	repo SecurityEventRepository
}

// NewRepositorySink stores events in the security_events table.
func NewRepositorySink(repo SecurityEventRepository) Sink {
	return &repositorySink{repo: repo}
}

func (s *repositorySink) Write(ctx context.Context, event *auditDomain.SecurityEvent) error {
	if err := s.repo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to store security event")
	}
	return nil
}
