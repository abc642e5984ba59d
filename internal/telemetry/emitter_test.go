package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/ledgervest/ledgervest/internal/storage"
)

type recordingStore struct {
	events []storage.TelemetryEvent
}

func (r *recordingStore) AppendTelemetryEvent(_ context.Context, evt storage.TelemetryEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func TestEmitAssignsIDAndTimestamp(t *testing.T) {
	store := &recordingStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	emitter := &Emitter{store: store, clock: func() time.Time { return now }}

	err := emitter.Emit(context.Background(), storage.TelemetryEvent{
		Severity:  string(SeverityInfo),
		Operation: "contribute",
		Message:   "contribution accepted",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	evt := store.events[0]
	if evt.ID == "" {
		t.Fatal("expected generated ID")
	}
	if !evt.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %s, want %s", evt.Timestamp, now)
	}
}

func TestEmitKeepsProvidedFields(t *testing.T) {
	store := &recordingStore{}
	emitter := NewEmitter(store)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := emitter.Emit(context.Background(), storage.TelemetryEvent{
		ID:        "fixed-id",
		Timestamp: ts,
		Severity:  string(SeverityError),
		Operation: "finalize_request",
		Message:   "finalization rejected",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	evt := store.events[0]
	if evt.ID != "fixed-id" || !evt.Timestamp.Equal(ts) {
		t.Fatalf("expected provided fields preserved, got %+v", evt)
	}
}

func TestEmitNilReceiverAndStore(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{}); err != nil {
		t.Fatalf("nil emitter: %v", err)
	}
	if err := NewEmitter(nil).Emit(context.Background(), storage.TelemetryEvent{}); err != nil {
		t.Fatalf("nil store: %v", err)
	}
}
