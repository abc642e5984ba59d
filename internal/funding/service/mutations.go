package service

import (
	"context"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/ledger"
	"github.com/ledgervest/ledgervest/internal/storage"
)

// Contribute moves amount from the caller's ledger account into the campaign.
// Below-minimum contributions and insufficient account balances are rejected
// with no state change.
func (s *Service) Contribute(ctx context.Context, addr, caller common.Address, amount *big.Int) (*domain.Campaign, error) {
	if caller == (common.Address{}) {
		return nil, ErrCallerRequired
	}

	unlock := s.campaignLocks.lock(addr.Hex())
	defer unlock()

	campaign, err := s.store.GetCampaign(ctx, addr)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wasApprover := campaign.IsApprover(caller)
	if err := campaign.Contribute(caller, amount, now); err != nil {
		s.emitWarn(ctx, "contribute", addr, err)
		return nil, err
	}

	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	account, err := s.store.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := account.Withdraw(amount); err != nil {
		s.emitWarn(ctx, "contribute", addr, err)
		return nil, err
	}

	payload, err := marshalPayload(event.ContributionReceivedPayload{
		Contributor:    caller.Hex(),
		Amount:         amount.String(),
		NewBalance:     campaign.Balance.String(),
		NewApprover:    !wasApprover,
		ApproversCount: campaign.ApproversCount,
	})
	if err != nil {
		return nil, err
	}

	applied, err := s.store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Accounts: []ledger.Account{account},
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.TypeContributionReceived,
			Actor:           caller,
			PayloadJSON:     payload,
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("contribution accepted campaign=%s contributor=%s amount=%s balance=%s seq=%d",
		addr.Hex(), caller.Hex(), amount.String(), campaign.Balance.String(), applied.Seq)
	return campaign, nil
}

// CreateRequest appends a spending request to the campaign and returns its
// index.
func (s *Service) CreateRequest(ctx context.Context, addr, caller common.Address, description string, value *big.Int, recipient common.Address) (int, error) {
	if caller == (common.Address{}) {
		return 0, ErrCallerRequired
	}

	unlock := s.campaignLocks.lock(addr.Hex())
	defer unlock()

	campaign, err := s.store.GetCampaign(ctx, addr)
	if err != nil {
		return 0, err
	}

	now := s.now()
	index, err := campaign.CreateRequest(caller, description, value, recipient, now)
	if err != nil {
		s.emitWarn(ctx, "create_request", addr, err)
		return 0, err
	}

	payload, err := marshalPayload(event.RequestCreatedPayload{
		RequestIndex: index,
		Description:  campaign.Requests[index].Description,
		Value:        value.String(),
		Recipient:    recipient.Hex(),
	})
	if err != nil {
		return 0, err
	}

	applied, err := s.store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.TypeRequestCreated,
			Actor:           caller,
			PayloadJSON:     payload,
		},
	})
	if err != nil {
		return 0, err
	}

	log.Printf("spending request created campaign=%s request_index=%d value=%s recipient=%s seq=%d",
		addr.Hex(), index, value.String(), recipient.Hex(), applied.Seq)
	return index, nil
}

// ApproveRequest records the caller's vote on the request at index.
func (s *Service) ApproveRequest(ctx context.Context, addr, caller common.Address, index int) error {
	if caller == (common.Address{}) {
		return ErrCallerRequired
	}

	unlock := s.campaignLocks.lock(addr.Hex())
	defer unlock()

	campaign, err := s.store.GetCampaign(ctx, addr)
	if err != nil {
		return err
	}

	now := s.now()
	if err := campaign.ApproveRequest(caller, index, now); err != nil {
		s.emitWarn(ctx, "approve_request", addr, err)
		return err
	}

	payload, err := marshalPayload(event.RequestApprovedPayload{
		RequestIndex:  index,
		Approver:      caller.Hex(),
		ApprovalCount: campaign.Requests[index].ApprovalCount,
	})
	if err != nil {
		return err
	}

	applied, err := s.store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.TypeRequestApproved,
			Actor:           caller,
			PayloadJSON:     payload,
		},
	})
	if err != nil {
		return err
	}

	log.Printf("request approved campaign=%s request_index=%d approver=%s approvals=%d seq=%d",
		addr.Hex(), index, caller.Hex(), campaign.Requests[index].ApprovalCount, applied.Seq)
	return nil
}

// FinalizeRequest completes the request at index and disburses its value:
// campaign balance down by the full value, recipient credited with value minus
// the platform fee, fee credited to the platform account. The whole movement
// commits atomically or not at all.
func (s *Service) FinalizeRequest(ctx context.Context, addr, caller common.Address, index int) (domain.Disbursement, error) {
	if caller == (common.Address{}) {
		return domain.Disbursement{}, ErrCallerRequired
	}

	unlock := s.campaignLocks.lock(addr.Hex())
	defer unlock()

	campaign, err := s.store.GetCampaign(ctx, addr)
	if err != nil {
		return domain.Disbursement{}, err
	}

	now := s.now()
	disbursement, err := campaign.FinalizeRequest(caller, index, s.cfg.FeeBps, now)
	if err != nil {
		s.emitWarn(ctx, "finalize_request", addr, err)
		return domain.Disbursement{}, err
	}

	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	accounts, err := s.disbursementAccounts(ctx, disbursement)
	if err != nil {
		return domain.Disbursement{}, err
	}

	payload, err := marshalPayload(event.RequestFinalizedPayload{
		RequestIndex: index,
		Recipient:    disbursement.Recipient.Hex(),
		Value:        campaign.Requests[index].Value.String(),
		Disbursed:    disbursement.Amount.String(),
		Fee:          disbursement.Fee.String(),
		NewBalance:   campaign.Balance.String(),
	})
	if err != nil {
		return domain.Disbursement{}, err
	}

	applied, err := s.store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Accounts: accounts,
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.TypeRequestFinalized,
			Actor:           caller,
			PayloadJSON:     payload,
		},
	})
	if err != nil {
		return domain.Disbursement{}, err
	}

	log.Printf("request finalized campaign=%s request_index=%d recipient=%s disbursed=%s fee=%s balance=%s seq=%d",
		addr.Hex(), index, disbursement.Recipient.Hex(), disbursement.Amount.String(),
		disbursement.Fee.String(), campaign.Balance.String(), applied.Seq)
	return disbursement, nil
}

// disbursementAccounts credits the recipient and, when a fee was taken, the
// platform account. The recipient and platform may be the same address.
func (s *Service) disbursementAccounts(ctx context.Context, disbursement domain.Disbursement) ([]ledger.Account, error) {
	recipient, err := s.store.GetAccount(ctx, disbursement.Recipient)
	if err != nil {
		return nil, err
	}
	if disbursement.Amount.Sign() > 0 {
		if err := recipient.Deposit(disbursement.Amount); err != nil {
			return nil, err
		}
	}

	if disbursement.Fee.Sign() <= 0 {
		return []ledger.Account{recipient}, nil
	}
	if s.cfg.PlatformAccount == disbursement.Recipient {
		if err := recipient.Deposit(disbursement.Fee); err != nil {
			return nil, err
		}
		return []ledger.Account{recipient}, nil
	}

	platform, err := s.store.GetAccount(ctx, s.cfg.PlatformAccount)
	if err != nil {
		return nil, err
	}
	if err := platform.Deposit(disbursement.Fee); err != nil {
		return nil, err
	}
	return []ledger.Account{recipient, platform}, nil
}

// SetApprovalThreshold changes the campaign's quorum percentage.
func (s *Service) SetApprovalThreshold(ctx context.Context, addr, caller common.Address, pct int) error {
	if caller == (common.Address{}) {
		return ErrCallerRequired
	}

	unlock := s.campaignLocks.lock(addr.Hex())
	defer unlock()

	campaign, err := s.store.GetCampaign(ctx, addr)
	if err != nil {
		return err
	}

	now := s.now()
	if err := campaign.SetApprovalThreshold(caller, pct, now); err != nil {
		s.emitWarn(ctx, "set_approval_threshold", addr, err)
		return err
	}

	payload, err := marshalPayload(event.ThresholdChangedPayload{ApprovalThresholdPct: pct})
	if err != nil {
		return err
	}

	applied, err := s.store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.TypeThresholdChanged,
			Actor:           caller,
			PayloadJSON:     payload,
		},
	})
	if err != nil {
		return err
	}

	log.Printf("approval threshold changed campaign=%s threshold_pct=%d seq=%d",
		addr.Hex(), pct, applied.Seq)
	return nil
}
