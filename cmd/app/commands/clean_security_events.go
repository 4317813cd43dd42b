package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
)

type cleanResult struct {
	Count  int64 `json:"count"`
	Days   int   `json:"days"`
	DryRun bool  `json:"dry_run"`
}

func (r cleanResult) writeText(w io.Writer) {
	verb := "Deleted"
	if r.DryRun {
		verb = "Dry run: would delete"
	}
	_, _ = fmt.Fprintf(w, "%s %d security event(s) older than %d day(s)\n", verb, r.Count, r.Days)
}

// RunCleanSecurityEvents applies the retention policy to the stored events. With dryRun it
// only counts. Needs AUDIT_SINK=database.
func RunCleanSecurityEvents(
	ctx context.Context,
	events auditUseCase.SecurityEventUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must not be negative, got %d", days)
	}
	if err := checkFormat(format); err != nil {
		return err
	}

	count, err := events.DeleteOlderThan(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete security events: %w", err)
	}

	logger.Info("security event retention applied",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return render(writer, format, cleanResult{Count: count, Days: days, DryRun: dryRun})
}
