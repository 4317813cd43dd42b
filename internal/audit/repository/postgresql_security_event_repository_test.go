package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

var securityEventColumns = []string{
	"id", "event_type", "severity", "identity", "session_ref", "request_id", "method",
	"path", "user_agent", "metadata", "signature", "created_at",
}

func newTestEvent() *auditDomain.SecurityEvent {
	return &auditDomain.SecurityEvent{
		ID:         uuid.Must(uuid.NewV7()),
		Type:       auditDomain.EventRateLimitExceeded,
		Severity:   auditDomain.SeverityWarning,
		Identity:   auditDomain.MaskIdentity("203.0.113.9"),
		SessionRef: "",
		RequestID:  "req-1",
		Method:     "POST",
		Path:       "/v1/fields/encrypt",
		UserAgent:  "curl/8.5.0",
		Metadata:   map[string]any{"attempts": 6},
		Signature:  []byte{0xde, 0xad},
		CreatedAt:  time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewPostgreSQLSecurityEventRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLSecurityEventRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLSecurityEventRepository{}, repo)
}

func TestPostgreSQLSecurityEventRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLSecurityEventRepository(db)
	event := newTestEvent()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO security_events")).
		WithArgs(
			event.ID,
			"rate_limit_exceeded",
			"warning",
			event.Identity,
			"",
			"req-1",
			"POST",
			"/v1/fields/encrypt",
			"curl/8.5.0",
			`{"attempts":6}`,
			[]byte{0xde, 0xad},
			event.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSecurityEventRepository_Create_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLSecurityEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO security_events")).
		WillReturnError(errors.New("connection reset"))

	err = repo.Create(context.Background(), newTestEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create security event")
}

func TestPostgreSQLSecurityEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLSecurityEventRepository(db)
	event := newTestEvent()
	from := event.CreatedAt.Add(-time.Hour)
	to := event.CreatedAt.Add(time.Hour)

	rows := sqlmock.NewRows(securityEventColumns).
		AddRow(
			event.ID.String(), "rate_limit_exceeded", "warning", event.Identity, "", "req-1", "POST",
			"/v1/fields/encrypt", "curl/8.5.0", []byte(`{"attempts":6}`), []byte{0xde, 0xad}, event.CreatedAt,
		).
		AddRow(
			uuid.Must(uuid.NewV7()).String(), "key_rotated", "info", "", "", "", "",
			"", "", nil, nil, event.CreatedAt.Add(-time.Minute),
		)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE event_type = $1 AND created_at >= $2 AND created_at <= $3 ORDER BY created_at DESC LIMIT $4 OFFSET $5",
	)).
		WithArgs("rate_limit_exceeded", from, to, 10, 20).
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), auditDomain.EventFilter{
		Offset:        20,
		Limit:         10,
		Type:          auditDomain.EventRateLimitExceeded,
		CreatedAtFrom: &from,
		CreatedAtTo:   &to,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, auditDomain.EventRateLimitExceeded, events[0].Type)
	assert.Equal(t, auditDomain.SeverityWarning, events[0].Severity)
	assert.Equal(t, float64(6), events[0].Metadata["attempts"])
	assert.Equal(t, []byte{0xde, 0xad}, events[0].Signature)

	assert.Nil(t, events[1].Metadata)
	assert.False(t, events[1].IsSigned())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSecurityEventRepository_List_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLSecurityEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM security_events ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(securityEventColumns))

	events, err := repo.List(context.Background(), auditDomain.EventFilter{Limit: 50})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSecurityEventRepository_List_InvalidMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLSecurityEventRepository(db)

	rows := sqlmock.NewRows(securityEventColumns).AddRow(
		uuid.Must(uuid.NewV7()).String(), "key_rotated", "info", "", "", "", "",
		"", "", []byte(`{not json`), nil, time.Now().UTC(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM security_events")).WillReturnRows(rows)

	_, err = repo.List(context.Background(), auditDomain.EventFilter{Limit: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal security event metadata")
}

func TestPostgreSQLSecurityEventRepository_DeleteOlderThan(t *testing.T) {
	olderThan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("dry run counts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM security_events WHERE created_at < $1")).
			WithArgs(olderThan).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := NewPostgreSQLSecurityEventRepository(db).DeleteOlderThan(context.Background(), olderThan, true)
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete returns affected rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM security_events WHERE created_at < $1")).
			WithArgs(olderThan).
			WillReturnResult(sqlmock.NewResult(0, 4))

		count, err := NewPostgreSQLSecurityEventRepository(db).DeleteOlderThan(context.Background(), olderThan, false)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
