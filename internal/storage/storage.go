// Package storage defines the persistence interfaces for the funding service.
package storage

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/ledger"
	apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Commit is an atomic campaign mutation: the updated projection, any touched
// ledger accounts, and the journal event describing the change. Either the
// whole commit is persisted or none of it is.
type Commit struct {
	// Campaign is the full aggregate to upsert, including its approver set,
	// requests, and per-request approvals. Nil leaves projections untouched.
	Campaign *domain.Campaign
	// Accounts are ledger balances to upsert.
	Accounts []ledger.Account
	// Event is appended to the campaign journal with the next sequence number
	// and a content hash assigned by storage. A zero event (empty Type) skips
	// the journal; ledger deposits have no campaign to journal against.
	Event event.Event
}

// CampaignStore persists campaign aggregates.
type CampaignStore interface {
	GetCampaign(ctx context.Context, addr common.Address) (*domain.Campaign, error)
	// ListCampaignAddresses returns every campaign ever created, in creation
	// order. The list never shrinks.
	ListCampaignAddresses(ctx context.Context) ([]common.Address, error)
	ListCampaigns(ctx context.Context) ([]*domain.Campaign, error)
}

// EventStore persists the append-only funding journal.
type EventStore interface {
	// ListEvents returns up to limit events with Seq > afterSeq, in sequence
	// order.
	ListEvents(ctx context.Context, addr common.Address, afterSeq uint64, limit int) ([]event.Event, error)
}

// LedgerStore reads simulated ledger accounts.
type LedgerStore interface {
	// GetAccount returns the account for addr, or a zero-balance account when
	// the address has never been funded.
	GetAccount(ctx context.Context, addr common.Address) (ledger.Account, error)
}

// TelemetryEvent captures an operational event for later inspection.
type TelemetryEvent struct {
	ID              string
	Timestamp       time.Time
	Severity        string
	Operation       string
	CampaignAddress string
	Message         string
}

// TelemetryStore persists operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}

// Store is the composite persistence surface used by the funding service.
type Store interface {
	CampaignStore
	EventStore
	LedgerStore
	TelemetryStore

	// Apply persists a commit atomically and returns the appended event with
	// sequence and hash assigned.
	Apply(ctx context.Context, commit Commit) (event.Event, error)
}
