package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditService "github.com/allisson/secpolicy/internal/audit/service"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

func TestSecurityEventUseCase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := &mockSecurityEventRepository{}
		uc := NewSecurityEventUseCase(passthroughTxManager{}, repo, nil)
		filter := auditDomain.EventFilter{Limit: 10}
		expected := []*auditDomain.SecurityEvent{newEvent(auditDomain.EventKeyRotated)}

		repo.On("List", ctx, filter).Return(expected, nil).Once()

		events, err := uc.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, expected, events)
		repo.AssertExpectations(t)
	})

	t.Run("Error_InvalidRange", func(t *testing.T) {
		repo := &mockSecurityEventRepository{}
		uc := NewSecurityEventUseCase(passthroughTxManager{}, repo, nil)
		from := time.Now().UTC()
		to := from.Add(-time.Hour)

		_, err := uc.List(ctx, auditDomain.EventFilter{Limit: 10, CreatedAtFrom: &from, CreatedAtTo: &to})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "List")
	})

	t.Run("Error_Repository", func(t *testing.T) {
		repo := &mockSecurityEventRepository{}
		uc := NewSecurityEventUseCase(passthroughTxManager{}, repo, nil)

		repo.On("List", ctx, mock.Anything).Return(nil, errors.New("db down")).Once()

		_, err := uc.List(ctx, auditDomain.EventFilter{Limit: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list security events")
	})
}

func TestSecurityEventUseCase_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := &mockSecurityEventRepository{}
		uc := NewSecurityEventUseCase(passthroughTxManager{}, repo, nil)

		repo.On("DeleteOlderThan", ctx, mock.MatchedBy(func(olderThan time.Time) bool {
			expected := time.Now().UTC().AddDate(0, 0, -30)
			return olderThan.Sub(expected).Abs() < time.Minute
		}), true).Return(int64(12), nil).Once()

		count, err := uc.DeleteOlderThan(ctx, 30, true)
		require.NoError(t, err)
		assert.Equal(t, int64(12), count)
		repo.AssertExpectations(t)
	})

	t.Run("Error_NegativeDays", func(t *testing.T) {
		uc := NewSecurityEventUseCase(passthroughTxManager{}, &mockSecurityEventRepository{}, nil)
		_, err := uc.DeleteOlderThan(ctx, -1, false)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestSecurityEventUseCase_Verify(t *testing.T) {
	ctx := context.Background()
	signer, err := auditService.NewEventSigner([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	t.Run("Error_SigningDisabled", func(t *testing.T) {
		uc := NewSecurityEventUseCase(passthroughTxManager{}, &mockSecurityEventRepository{}, nil)
		_, err := uc.Verify(ctx, auditDomain.EventFilter{})
		assert.ErrorIs(t, err, auditDomain.ErrSigningDisabled)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})

	t.Run("Success_MixedEvents", func(t *testing.T) {
		repo := &mockSecurityEventRepository{}
		uc := NewSecurityEventUseCase(passthroughTxManager{}, repo, signer)

		valid := newEvent(auditDomain.EventKeyRotated)
		valid.Signature, err = signer.Sign(valid)
		require.NoError(t, err)

		tampered := newEvent(auditDomain.EventIdentityBanned)
		tampered.Signature, err = signer.Sign(tampered)
		require.NoError(t, err)
		tampered.Path = "/tampered"

		unsigned := newEvent(auditDomain.EventBanReset)

		repo.On("List", ctx, auditDomain.EventFilter{Limit: verifyPageSize}).
			Return([]*auditDomain.SecurityEvent{valid, tampered, unsigned}, nil).Once()

		report, err := uc.Verify(ctx, auditDomain.EventFilter{Limit: 5, Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, report.Total)
		assert.Equal(t, 1, report.Valid)
		assert.Equal(t, 1, report.Invalid)
		assert.Equal(t, 1, report.Unsigned)
		assert.Equal(t, []string{tampered.ID.String()}, report.InvalidIDs)
		repo.AssertExpectations(t)
	})

	t.Run("Success_Pages", func(t *testing.T) {
		repo := &mockSecurityEventRepository{}
		uc := NewSecurityEventUseCase(passthroughTxManager{}, repo, signer)

		page := make([]*auditDomain.SecurityEvent, verifyPageSize)
		for i := range page {
			page[i] = newEvent(auditDomain.EventRateLimitExceeded)
		}

		repo.On("List", ctx, auditDomain.EventFilter{Limit: verifyPageSize}).Return(page, nil).Once()
		repo.On("List", ctx, auditDomain.EventFilter{Limit: verifyPageSize, Offset: verifyPageSize}).
			Return([]*auditDomain.SecurityEvent{}, nil).Once()

		report, err := uc.Verify(ctx, auditDomain.EventFilter{})
		require.NoError(t, err)
		assert.Equal(t, verifyPageSize, report.Total)
		assert.Equal(t, verifyPageSize, report.Unsigned)
		repo.AssertExpectations(t)
	})
}
