package repository

import (
	"context"
	"database/sql"
	"time"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	"github.com/allisson/secpolicy/internal/database"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

// PostgreSQLSecurityEventRepository implements SecurityEvent persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLSecurityEventRepository struct {
	db *sql.DB
}

// Create inserts a new SecurityEvent. Handles nil metadata and nil signature as NULL.
func (p *PostgreSQLSecurityEventRepository) Create(ctx context.Context, event *auditDomain.SecurityEvent) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(event.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO security_events (id, event_type, severity, identity, session_ref, request_id,
			  method, path, user_agent, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
		string(event.Type),
		string(event.Severity),
		event.Identity,
		event.SessionRef,
		event.RequestID,
		event.Method,
		event.Path,
		event.UserAgent,
		jsonbParam(metadataJSON),
		event.Signature,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create security event")
	}

	return nil
}

// List retrieves security events ordered by created_at descending (newest first) with
// pagination and optional type and time filtering. Returns an empty slice when nothing matches.
func (p *PostgreSQLSecurityEventRepository) List(
	ctx context.Context,
	filter auditDomain.EventFilter,
) ([]*auditDomain.SecurityEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query, args := buildListQuery(filter, postgresPlaceholder)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list security events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*auditDomain.SecurityEvent, 0)
	for rows.Next() {
		var event auditDomain.SecurityEvent
		var eventType, severity string
		var metadataJSON []byte

		err := rows.Scan(
			&event.ID,
			&eventType,
			&severity,
			&event.Identity,
			&event.SessionRef,
			&event.RequestID,
			&event.Method,
			&event.Path,
			&event.UserAgent,
			&metadataJSON,
			&event.Signature,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan security event")
		}

		event.Type = auditDomain.EventType(eventType)
		event.Severity = auditDomain.Severity(severity)

		if err := unmarshalMetadata(metadataJSON, &event); err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate security events")
	}

	return events, nil
}

// DeleteOlderThan removes security events created before olderThan. When dryRun is true it
// only counts the matching rows.
func (p *PostgreSQLSecurityEventRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		query := `SELECT COUNT(*) FROM security_events WHERE created_at < $1`
		var count int64
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count security events")
		}
		return count, nil
	}

	query := `DELETE FROM security_events WHERE created_at < $1`
	result, err := querier.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete security events")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}

	return count, nil
}

// NewPostgreSQLSecurityEventRepository creates a new PostgreSQL SecurityEvent repository.
func NewPostgreSQLSecurityEventRepository(db *sql.DB) *PostgreSQLSecurityEventRepository {
	return &PostgreSQLSecurityEventRepository{db: db}
}
