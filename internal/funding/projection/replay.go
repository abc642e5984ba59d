// Package projection rebuilds campaign aggregates from their funding journal.
//
// Replay is the consistency anchor of the service: the journal is the source
// of truth, and the stored campaign projection must always equal the result
// of folding its events in order.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/storage"
)

const replayPageSize = 200

// Replay folds a campaign's journal into a fresh aggregate and returns it
// with the last applied sequence number.
func Replay(ctx context.Context, eventStore storage.EventStore, addr common.Address) (*domain.Campaign, uint64, error) {
	if eventStore == nil {
		return nil, 0, fmt.Errorf("event store is not configured")
	}

	var campaign *domain.Campaign
	var lastSeq uint64
	for {
		events, err := eventStore.ListEvents(ctx, addr, lastSeq, replayPageSize)
		if err != nil {
			return nil, lastSeq, err
		}
		if len(events) == 0 {
			if campaign == nil {
				return nil, 0, storage.ErrNotFound
			}
			return campaign, lastSeq, nil
		}
		for _, evt := range events {
			lastSeq = evt.Seq
			campaign, err = apply(campaign, evt)
			if err != nil {
				return nil, lastSeq, fmt.Errorf("apply event seq %d: %w", evt.Seq, err)
			}
		}
	}
}

func apply(campaign *domain.Campaign, evt event.Event) (*domain.Campaign, error) {
	if evt.Type == event.TypeCampaignCreated {
		return applyCreated(evt)
	}
	if campaign == nil {
		return nil, fmt.Errorf("journal does not start with %s", event.TypeCampaignCreated)
	}

	switch evt.Type {
	case event.TypeContributionReceived:
		return campaign, applyContribution(campaign, evt)
	case event.TypeRequestCreated:
		return campaign, applyRequestCreated(campaign, evt)
	case event.TypeRequestApproved:
		return campaign, applyRequestApproved(campaign, evt)
	case event.TypeRequestFinalized:
		return campaign, applyRequestFinalized(campaign, evt)
	case event.TypeThresholdChanged:
		return campaign, applyThresholdChanged(campaign, evt)
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
}

func applyCreated(evt event.Event) (*domain.Campaign, error) {
	var payload event.CampaignCreatedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return nil, fmt.Errorf("decode created payload: %w", err)
	}
	minimum, err := parseAmount(payload.MinimumContribution)
	if err != nil {
		return nil, err
	}
	target := big.NewInt(0)
	if payload.TargetAmount != "" {
		if target, err = parseAmount(payload.TargetAmount); err != nil {
			return nil, err
		}
	}
	timestamp := evt.Timestamp.UTC()
	return &domain.Campaign{
		Address:              evt.CampaignAddress,
		Manager:              common.HexToAddress(payload.Manager),
		MinimumContribution:  minimum,
		Title:                payload.Title,
		Description:          payload.Description,
		TargetAmount:         target,
		ContactEmail:         payload.ContactEmail,
		ApprovalThresholdPct: payload.ApprovalThresholdPct,
		Balance:              big.NewInt(0),
		Approvers:            make(map[common.Address]bool),
		CreatedAt:            timestamp,
		UpdatedAt:            timestamp,
	}, nil
}

func applyContribution(campaign *domain.Campaign, evt event.Event) error {
	var payload event.ContributionReceivedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode contribution payload: %w", err)
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		return err
	}
	contributor := common.HexToAddress(payload.Contributor)

	campaign.Balance = new(big.Int).Add(campaign.Balance, amount)
	if !campaign.Approvers[contributor] {
		campaign.Approvers[contributor] = true
		campaign.ApproversCount++
	}
	campaign.UpdatedAt = evt.Timestamp.UTC()
	return nil
}

func applyRequestCreated(campaign *domain.Campaign, evt event.Event) error {
	var payload event.RequestCreatedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode request created payload: %w", err)
	}
	if payload.RequestIndex != len(campaign.Requests) {
		return fmt.Errorf("request index %d out of order, expected %d", payload.RequestIndex, len(campaign.Requests))
	}
	value, err := parseAmount(payload.Value)
	if err != nil {
		return err
	}

	campaign.Requests = append(campaign.Requests, domain.SpendingRequest{
		Description: payload.Description,
		Value:       value,
		Recipient:   common.HexToAddress(payload.Recipient),
		Approvals:   make(map[common.Address]bool),
		CreatedAt:   evt.Timestamp.UTC(),
	})
	campaign.UpdatedAt = evt.Timestamp.UTC()
	return nil
}

func applyRequestApproved(campaign *domain.Campaign, evt event.Event) error {
	var payload event.RequestApprovedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode request approved payload: %w", err)
	}
	request, err := requestAt(campaign, payload.RequestIndex)
	if err != nil {
		return err
	}
	approver := common.HexToAddress(payload.Approver)
	if !request.Approvals[approver] {
		request.Approvals[approver] = true
		request.ApprovalCount++
	}
	campaign.UpdatedAt = evt.Timestamp.UTC()
	return nil
}

func applyRequestFinalized(campaign *domain.Campaign, evt event.Event) error {
	var payload event.RequestFinalizedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode request finalized payload: %w", err)
	}
	request, err := requestAt(campaign, payload.RequestIndex)
	if err != nil {
		return err
	}
	value, err := parseAmount(payload.Value)
	if err != nil {
		return err
	}

	request.Complete = true
	campaign.Balance = new(big.Int).Sub(campaign.Balance, value)
	campaign.UpdatedAt = evt.Timestamp.UTC()
	return nil
}

func applyThresholdChanged(campaign *domain.Campaign, evt event.Event) error {
	var payload event.ThresholdChangedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode threshold payload: %w", err)
	}
	campaign.ApprovalThresholdPct = payload.ApprovalThresholdPct
	campaign.UpdatedAt = evt.Timestamp.UTC()
	return nil
}

func requestAt(campaign *domain.Campaign, index int) (*domain.SpendingRequest, error) {
	if index < 0 || index >= len(campaign.Requests) {
		return nil, fmt.Errorf("request index %d out of range", index)
	}
	return &campaign.Requests[index], nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

// Diff compares a replayed aggregate against a stored projection and returns
// human-readable divergences. An empty result means the two agree.
func Diff(replayed, stored *domain.Campaign) []string {
	var diffs []string
	if replayed == nil || stored == nil {
		if replayed != stored {
			diffs = append(diffs, "one of the aggregates is missing")
		}
		return diffs
	}

	if replayed.Manager != stored.Manager {
		diffs = append(diffs, fmt.Sprintf("manager: journal %s, projection %s", replayed.Manager.Hex(), stored.Manager.Hex()))
	}
	if replayed.Balance.Cmp(stored.Balance) != 0 {
		diffs = append(diffs, fmt.Sprintf("balance: journal %s, projection %s", replayed.Balance, stored.Balance))
	}
	if replayed.ApproversCount != stored.ApproversCount {
		diffs = append(diffs, fmt.Sprintf("approvers count: journal %d, projection %d", replayed.ApproversCount, stored.ApproversCount))
	}
	if replayed.ApprovalThresholdPct != stored.ApprovalThresholdPct {
		diffs = append(diffs, fmt.Sprintf("approval threshold: journal %d, projection %d", replayed.ApprovalThresholdPct, stored.ApprovalThresholdPct))
	}
	for addr := range replayed.Approvers {
		if !stored.Approvers[addr] {
			diffs = append(diffs, fmt.Sprintf("approver %s missing from projection", addr.Hex()))
		}
	}
	for addr := range stored.Approvers {
		if !replayed.Approvers[addr] {
			diffs = append(diffs, fmt.Sprintf("approver %s missing from journal", addr.Hex()))
		}
	}
	if len(replayed.Requests) != len(stored.Requests) {
		diffs = append(diffs, fmt.Sprintf("request count: journal %d, projection %d", len(replayed.Requests), len(stored.Requests)))
		return diffs
	}
	for i := range replayed.Requests {
		diffs = append(diffs, diffRequest(i, &replayed.Requests[i], &stored.Requests[i])...)
	}
	return diffs
}

func diffRequest(index int, replayed, stored *domain.SpendingRequest) []string {
	var diffs []string
	if replayed.Value.Cmp(stored.Value) != 0 {
		diffs = append(diffs, fmt.Sprintf("request %d value: journal %s, projection %s", index, replayed.Value, stored.Value))
	}
	if replayed.Recipient != stored.Recipient {
		diffs = append(diffs, fmt.Sprintf("request %d recipient: journal %s, projection %s", index, replayed.Recipient.Hex(), stored.Recipient.Hex()))
	}
	if replayed.Complete != stored.Complete {
		diffs = append(diffs, fmt.Sprintf("request %d complete: journal %t, projection %t", index, replayed.Complete, stored.Complete))
	}
	if replayed.ApprovalCount != stored.ApprovalCount {
		diffs = append(diffs, fmt.Sprintf("request %d approval count: journal %d, projection %d", index, replayed.ApprovalCount, stored.ApprovalCount))
	}
	return diffs
}
