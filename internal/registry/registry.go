// Package registry is the campaign factory: it creates campaigns, collects
// the creation fee, and keeps the append-only list of deployed addresses.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/ledger"
	"github.com/ledgervest/ledgervest/internal/storage"
	"github.com/ledgervest/ledgervest/internal/telemetry"
)

// Config carries the platform-level registry parameters.
type Config struct {
	// CreationFee is debited from the creator's ledger account for each new
	// campaign. Nil or zero disables the fee.
	CreationFee *big.Int
	// PlatformAccount receives collected creation fees.
	PlatformAccount common.Address
}

// Registry creates campaigns and lists deployed addresses.
type Registry struct {
	store         storage.Store
	emitter       *telemetry.Emitter
	clock         func() time.Time
	addrGenerator func() (common.Address, error)
	cfg           Config

	// mu serializes campaign creation so registry positions are assigned in
	// strict arrival order.
	mu sync.Mutex
}

// New creates a registry with default dependencies.
func New(store storage.Store, emitter *telemetry.Emitter, cfg Config) *Registry {
	return &Registry{
		store:         store,
		emitter:       emitter,
		clock:         time.Now,
		addrGenerator: NewCampaignAddress,
		cfg:           cfg,
	}
}

// NewCampaignAddress generates a random 20-byte campaign address.
func NewCampaignAddress() (common.Address, error) {
	var addr common.Address
	if _, err := rand.Read(addr[:]); err != nil {
		return common.Address{}, fmt.Errorf("generate campaign address: %w", err)
	}
	return addr, nil
}

// CreateCampaign validates the input, charges the creation fee, persists the
// new campaign, and appends it to the registry.
func (r *Registry) CreateCampaign(ctx context.Context, input domain.CreateCampaignInput) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	campaign, err := domain.CreateCampaign(input, r.clock, r.addrGenerator)
	if err != nil {
		_ = r.emitter.Emit(ctx, storage.TelemetryEvent{
			Severity:  string(telemetry.SeverityWarn),
			Operation: "create_campaign",
			Message:   err.Error(),
		})
		return nil, err
	}

	accounts, err := r.chargeCreationFee(ctx, campaign.Manager)
	if err != nil {
		return nil, err
	}

	fee := big.NewInt(0)
	if r.cfg.CreationFee != nil {
		fee = r.cfg.CreationFee
	}
	payload, err := json.Marshal(event.CampaignCreatedPayload{
		Manager:              campaign.Manager.Hex(),
		MinimumContribution:  campaign.MinimumContribution.String(),
		Title:                campaign.Title,
		Description:          campaign.Description,
		TargetAmount:         campaign.TargetAmount.String(),
		ContactEmail:         campaign.ContactEmail,
		ApprovalThresholdPct: campaign.ApprovalThresholdPct,
		CreationFee:          fee.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	applied, err := r.store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Accounts: accounts,
		Event: event.Event{
			CampaignAddress: campaign.Address,
			Timestamp:       campaign.CreatedAt,
			Type:            event.TypeCampaignCreated,
			Actor:           campaign.Manager,
			PayloadJSON:     payload,
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("campaign created campaign=%s manager=%s minimum=%s fee=%s seq=%d",
		campaign.Address.Hex(), campaign.Manager.Hex(),
		campaign.MinimumContribution.String(), fee.String(), applied.Seq)
	return campaign, nil
}

// chargeCreationFee debits the fee from the creator and credits the platform
// account. A nil or zero fee touches no accounts.
func (r *Registry) chargeCreationFee(ctx context.Context, creator common.Address) ([]ledger.Account, error) {
	if r.cfg.CreationFee == nil || r.cfg.CreationFee.Sign() <= 0 {
		return nil, nil
	}

	creatorAccount, err := r.store.GetAccount(ctx, creator)
	if err != nil {
		return nil, err
	}
	if err := creatorAccount.Withdraw(r.cfg.CreationFee); err != nil {
		_ = r.emitter.Emit(ctx, storage.TelemetryEvent{
			Severity:  string(telemetry.SeverityWarn),
			Operation: "create_campaign",
			Message:   err.Error(),
		})
		return nil, err
	}

	if r.cfg.PlatformAccount == creator {
		if err := creatorAccount.Deposit(r.cfg.CreationFee); err != nil {
			return nil, err
		}
		return []ledger.Account{creatorAccount}, nil
	}

	platform, err := r.store.GetAccount(ctx, r.cfg.PlatformAccount)
	if err != nil {
		return nil, err
	}
	if err := platform.Deposit(r.cfg.CreationFee); err != nil {
		return nil, err
	}
	return []ledger.Account{creatorAccount, platform}, nil
}

// DeployedCampaigns returns every campaign address in creation order.
func (r *Registry) DeployedCampaigns(ctx context.Context) ([]common.Address, error) {
	return r.store.ListCampaignAddresses(ctx)
}
