package sqlite

import (
	"context"
	"fmt"

	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/storage"
)

// Apply persists a commit in a single transaction: campaign projection upsert,
// ledger account upserts, and the journal append. The journal write assigns
// the event's sequence number and content hash.
func (s *Store) Apply(ctx context.Context, commit storage.Commit) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if commit.Campaign != nil {
		if err := upsertCampaign(ctx, tx, commit.Campaign); err != nil {
			return event.Event{}, err
		}
	}
	for _, account := range commit.Accounts {
		if err := upsertAccount(ctx, tx, account); err != nil {
			return event.Event{}, err
		}
	}

	var applied event.Event
	if commit.Event.Type != "" {
		applied, err = appendEvent(ctx, tx, commit.Event)
		if err != nil {
			return event.Event{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit tx: %w", err)
	}
	return applied, nil
}
