package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCleanSecurityEvents(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		dryRun bool
		count  int64
		want   string
	}{
		{"delete", false, 100, "Deleted 100 security event(s) older than 30 day(s)\n"},
		{"dry run", true, 7, "Dry run: would delete 7 security event(s) older than 30 day(s)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &MockSecurityEventUseCase{}
			events.On("DeleteOlderThan", ctx, 30, tt.dryRun).Return(tt.count, nil)

			var out bytes.Buffer
			require.NoError(t, RunCleanSecurityEvents(ctx, events, logger, &out, 30, tt.dryRun, "text"))

			assert.Equal(t, tt.want, out.String())
			events.AssertExpectations(t)
		})
	}

	t.Run("json", func(t *testing.T) {
		events := &MockSecurityEventUseCase{}
		events.On("DeleteOlderThan", ctx, 90, true).Return(int64(50), nil)

		var out bytes.Buffer
		require.NoError(t, RunCleanSecurityEvents(ctx, events, logger, &out, 90, true, "json"))

		var result cleanResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Equal(t, cleanResult{Count: 50, Days: 90, DryRun: true}, result)
	})

	t.Run("use case error", func(t *testing.T) {
		events := &MockSecurityEventUseCase{}
		events.On("DeleteOlderThan", ctx, 30, false).Return(int64(0), errors.New("db down"))

		err := RunCleanSecurityEvents(ctx, events, logger, io.Discard, 30, false, "text")
		assert.ErrorContains(t, err, "failed to delete security events: db down")
	})

	t.Run("rejected before touching the store", func(t *testing.T) {
		events := &MockSecurityEventUseCase{}

		assert.ErrorContains(t, RunCleanSecurityEvents(ctx, events, logger, io.Discard, -1, false, "text"),
			"days must not be negative")
		assert.ErrorContains(t, RunCleanSecurityEvents(ctx, events, logger, io.Discard, 30, false, "yaml"),
			`unsupported output format "yaml"`)
		events.AssertNotCalled(t, "DeleteOlderThan")
	})
}
