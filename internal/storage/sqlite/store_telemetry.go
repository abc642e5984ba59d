package sqlite

import (
	"context"
	"fmt"

	"github.com/ledgervest/ledgervest/internal/storage"
)

// AppendTelemetryEvent persists a single operational telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (id, ts, severity, operation, campaign_address, message)
VALUES (?, ?, ?, ?, ?, ?)`,
		evt.ID, toMillis(evt.Timestamp), evt.Severity, evt.Operation,
		evt.CampaignAddress, evt.Message)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
