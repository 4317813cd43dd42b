package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditService "github.com/allisson/secpolicy/internal/audit/service"
	"github.com/allisson/secpolicy/internal/database"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

const verifyPageSize = 500

type securityEventUseCase struct {
	txManager database.TxManager
	repo      SecurityEventRepository
	signer    auditService.EventSigner
}

func (s *securityEventUseCase) List(
	ctx context.Context,
	filter auditDomain.EventFilter,
) ([]*auditDomain.SecurityEvent, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list security events")
	}

	return events, nil
}

func (s *securityEventUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be a non-negative number")
	}

	olderThan := time.Now().UTC().AddDate(0, 0, -days)

	var count int64
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.repo.DeleteOlderThan(ctx, olderThan, dryRun)
		return err
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete security events")
	}

	return count, nil
}

// Verify pages through every event matching filter. The filter's Offset and Limit are ignored.
func (s *securityEventUseCase) Verify(
	ctx context.Context,
	filter auditDomain.EventFilter,
) (*auditDomain.VerifyReport, error) {
	if s.signer == nil {
		return nil, auditDomain.ErrSigningDisabled
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	report := &auditDomain.VerifyReport{}
	filter.Limit = verifyPageSize
	filter.Offset = 0

	err := s.txManager.WithReadOnlyTx(ctx, func(ctx context.Context) error {
		for {
			events, err := s.repo.List(ctx, filter)
			if err != nil {
				return apperrors.Wrap(err, "failed to list security events")
			}

			for _, event := range events {
				report.Total++
				if !event.IsSigned() {
					report.Unsigned++
					continue
				}
				if err := s.signer.Verify(event); err != nil {
					report.Invalid++
					report.InvalidIDs = append(report.InvalidIDs, event.ID.String())
					continue
				}
				report.Valid++
			}

			if len(events) < verifyPageSize {
				return nil
			}
			filter.Offset += verifyPageSize
		}
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// NewSecurityEventUseCase creates a new SecurityEventUseCase. signer may be nil when signing is disabled.
func NewSecurityEventUseCase(
	txManager database.TxManager,
	repo SecurityEventRepository,
	signer auditService.EventSigner,
) SecurityEventUseCase {
	return &securityEventUseCase{
		txManager: txManager,
		repo:      repo,
		signer:    signer,
	}
}
