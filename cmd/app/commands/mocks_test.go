package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

type MockSecurityEventUseCase struct {
	mock.Mock
}

func (m *MockSecurityEventUseCase) List(
	ctx context.Context,
	filter auditDomain.EventFilter,
) ([]*auditDomain.SecurityEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.SecurityEvent), args.Error(1)
}

func (m *MockSecurityEventUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSecurityEventUseCase) Verify(
	ctx context.Context,
	filter auditDomain.EventFilter,
) (*auditDomain.VerifyReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.VerifyReport), args.Error(1)
}

// extractEnvValue returns the quoted value of NAME="value" from command output.
func extractEnvValue(t *testing.T, output, name string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if value, ok := strings.CutPrefix(line, name+"="); ok {
			return strings.Trim(value, `"'`)
		}
	}
	require.Failf(t, "variable not found", "%s missing from output", name)
	return ""
}
