// Package repository implements security event persistence for PostgreSQL and MySQL.
package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

const selectSecurityEventColumns = `SELECT id, event_type, severity, identity, session_ref, request_id, method,
			  path, user_agent, metadata, signature, created_at
			  FROM security_events`

// placeholderFunc returns the bind placeholder for the nth (1-based) argument.
type placeholderFunc func(n int) string

func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func mysqlPlaceholder(int) string { return "?" }

// buildListQuery builds the filtered, paginated listing query for either dialect.
// Both created_at boundaries are inclusive.
func buildListQuery(filter auditDomain.EventFilter, placeholder placeholderFunc) (string, []any) {
	var conditions []string
	var args []any

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, "event_type = "+placeholder(len(args)))
	}

	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, "created_at >= "+placeholder(len(args)))
	}

	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, "created_at <= "+placeholder(len(args)))
	}

	query := selectSecurityEventColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	limit := placeholder(len(args))
	args = append(args, filter.Offset)
	offset := placeholder(len(args))
	query += " ORDER BY created_at DESC LIMIT " + limit + " OFFSET " + offset

	return query, args
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	// nil metadata is stored as NULL
	if metadata == nil {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal security event metadata")
	}
	return metadataJSON, nil
}

// jsonbParam binds marshaled JSON as text; lib/pq sends []byte as bytea, which jsonb rejects.
func jsonbParam(metadataJSON []byte) any {
	if metadataJSON == nil {
		return nil
	}
	return string(metadataJSON)
}

func unmarshalMetadata(metadataJSON []byte, event *auditDomain.SecurityEvent) error {
	if metadataJSON == nil {
		return nil
	}
	if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal security event metadata")
	}
	return nil
}
