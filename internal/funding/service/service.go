// Package service orchestrates campaign funding operations.
//
// All mutations of a campaign pass through a per-campaign mutex so the pure
// aggregate in internal/funding/domain only ever sees single-writer access.
// Each mutation loads the aggregate, applies the domain method, and persists
// the result together with its journal event in one storage commit.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/ledger"
	apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"
	"github.com/ledgervest/ledgervest/internal/storage"
	"github.com/ledgervest/ledgervest/internal/telemetry"
)

// ErrCallerRequired indicates a mutation without a caller address.
var ErrCallerRequired = apperrors.New(apperrors.CodeInvalidAddress, "caller address is required")

// Config carries the platform-level funding parameters.
type Config struct {
	// FeeBps is the platform fee in basis points taken from each finalized
	// disbursement. Zero disables the fee.
	FeeBps int
	// PlatformAccount receives collected fees.
	PlatformAccount common.Address
}

// Service coordinates campaign mutations against the store.
type Service struct {
	store   storage.Store
	emitter *telemetry.Emitter
	clock   func() time.Time
	cfg     Config

	campaignLocks *keyedMutex
	// accountsMu guards ledger read-modify-write cycles. Always acquired after
	// the campaign lock, never before, so the two levels cannot deadlock.
	accountsMu sync.Mutex
}

// New creates a funding service with default dependencies.
func New(store storage.Store, emitter *telemetry.Emitter, cfg Config) *Service {
	return &Service{
		store:         store,
		emitter:       emitter,
		clock:         time.Now,
		cfg:           cfg,
		campaignLocks: newKeyedMutex(),
	}
}

// GetCampaign returns the stored campaign aggregate.
func (s *Service) GetCampaign(ctx context.Context, addr common.Address) (*domain.Campaign, error) {
	return s.store.GetCampaign(ctx, addr)
}

// ListCampaigns returns every campaign aggregate in creation order.
func (s *Service) ListCampaigns(ctx context.Context) ([]*domain.Campaign, error) {
	return s.store.ListCampaigns(ctx)
}

// GetAccount returns the ledger account for addr, zero-balance when unknown.
func (s *Service) GetAccount(ctx context.Context, addr common.Address) (ledger.Account, error) {
	return s.store.GetAccount(ctx, addr)
}

// ListEvents returns a page of the campaign's journal.
func (s *Service) ListEvents(ctx context.Context, addr common.Address, afterSeq uint64, limit int) ([]event.Event, error) {
	return s.store.ListEvents(ctx, addr, afterSeq, limit)
}

// Deposit credits the faucet amount to the account and returns the new state.
func (s *Service) Deposit(ctx context.Context, addr common.Address, amount *big.Int) (ledger.Account, error) {
	if addr == (common.Address{}) {
		return ledger.Account{}, ErrCallerRequired
	}

	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	account, err := s.store.GetAccount(ctx, addr)
	if err != nil {
		return ledger.Account{}, err
	}
	if err := account.Deposit(amount); err != nil {
		return ledger.Account{}, err
	}
	if _, err := s.store.Apply(ctx, storage.Commit{Accounts: []ledger.Account{account}}); err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func marshalPayload(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return data, nil
}

func (s *Service) emitWarn(ctx context.Context, operation string, addr common.Address, err error) {
	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		Severity:        string(telemetry.SeverityWarn),
		Operation:       operation,
		CampaignAddress: addr.Hex(),
		Message:         err.Error(),
	})
}
