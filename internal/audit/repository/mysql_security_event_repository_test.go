package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

func TestNewMySQLSecurityEventRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewMySQLSecurityEventRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLSecurityEventRepository{}, repo)
}

func TestMySQLSecurityEventRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewMySQLSecurityEventRepository(db)
	event := newTestEvent()
	event.Metadata = nil
	id, err := event.ID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO security_events")).
		WithArgs(
			id,
			"rate_limit_exceeded",
			"warning",
			event.Identity,
			"",
			"req-1",
			"POST",
			"/v1/fields/encrypt",
			"curl/8.5.0",
			sqlmock.AnyArg(),
			[]byte{0xde, 0xad},
			event.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSecurityEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewMySQLSecurityEventRepository(db)
	event := newTestEvent()
	id, err := event.ID.MarshalBinary()
	require.NoError(t, err)
	from := event.CreatedAt.Add(-time.Hour)

	rows := sqlmock.NewRows(securityEventColumns).AddRow(
		id, "rate_limit_exceeded", "warning", event.Identity, "", "req-1", "POST",
		"/v1/fields/encrypt", "curl/8.5.0", []byte(`{"attempts":6}`), []byte{0xde, 0xad}, event.CreatedAt,
	)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE created_at >= ? ORDER BY created_at DESC LIMIT ? OFFSET ?")).
		WithArgs(from, 25, 0).
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), auditDomain.EventFilter{Limit: 25, CreatedAtFrom: &from})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, "/v1/fields/encrypt", events[0].Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSecurityEventRepository_List_InvalidID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows(securityEventColumns).AddRow(
		[]byte{0x01, 0x02}, "key_rotated", "info", "", "", "", "", "", "", nil, nil, time.Now().UTC(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM security_events")).WillReturnRows(rows)

	_, err = NewMySQLSecurityEventRepository(db).List(context.Background(), auditDomain.EventFilter{Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal security event id")
}

func TestMySQLSecurityEventRepository_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	olderThan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM security_events WHERE created_at < ?")).
		WithArgs(olderThan).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := NewMySQLSecurityEventRepository(db).DeleteOlderThan(context.Background(), olderThan, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
