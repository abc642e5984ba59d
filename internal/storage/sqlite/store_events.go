package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/event"
)

// ListEvents returns up to limit journal events with Seq > afterSeq, in
// sequence order.
func (s *Store) ListEvents(ctx context.Context, addr common.Address, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT campaign_address, seq, hash, ts, type, actor, payload
FROM events WHERE campaign_address = ? AND seq > ?
ORDER BY seq LIMIT ?`, addr.Hex(), afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			addressHex, hash, actorHex, eventType string
			seq                                   uint64
			ts                                    int64
			payload                               []byte
		)
		if err := rows.Scan(&addressHex, &seq, &hash, &ts, &eventType, &actorHex, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event.Event{
			CampaignAddress: common.HexToAddress(addressHex),
			Seq:             seq,
			Hash:            hash,
			Timestamp:       fromMillis(ts),
			Type:            event.Type(eventType),
			Actor:           common.HexToAddress(actorHex),
			PayloadJSON:     payload,
		})
	}
	return events, rows.Err()
}

// appendEvent assigns the next per-campaign sequence number and the content
// hash, then inserts the event inside the commit transaction.
func appendEvent(ctx context.Context, tx *sql.Tx, evt event.Event) (event.Event, error) {
	if !evt.Type.IsValid() {
		return event.Event{}, fmt.Errorf("invalid event type %q", evt.Type)
	}

	var lastSeq uint64
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events WHERE campaign_address = ?",
		evt.CampaignAddress.Hex()).Scan(&lastSeq)
	if err != nil {
		return event.Event{}, fmt.Errorf("next event seq: %w", err)
	}

	evt.Seq = lastSeq + 1
	evt.Hash = event.ContentHash(evt)

	_, err = tx.ExecContext(ctx, `
INSERT INTO events (campaign_address, seq, hash, ts, type, actor, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		evt.CampaignAddress.Hex(), evt.Seq, evt.Hash, toMillis(evt.Timestamp),
		string(evt.Type), evt.Actor.Hex(), evt.PayloadJSON)
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	return evt, nil
}
