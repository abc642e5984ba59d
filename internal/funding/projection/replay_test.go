package projection

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/storage"
)

var (
	campaignAddr = common.HexToAddress("0xc000000000000000000000000000000000000001")
	managerAddr  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	approverAddr = common.HexToAddress("0x2000000000000000000000000000000000000001")
	recipient    = common.HexToAddress("0x3000000000000000000000000000000000000001")
)

// fakeEventStore serves a fixed journal page by page.
type fakeEventStore struct {
	events []event.Event
}

func (f *fakeEventStore) ListEvents(_ context.Context, addr common.Address, afterSeq uint64, limit int) ([]event.Event, error) {
	var page []event.Event
	for _, evt := range f.events {
		if evt.CampaignAddress != addr || evt.Seq <= afterSeq {
			continue
		}
		page = append(page, evt)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func journalEvent(t *testing.T, seq uint64, typ event.Type, payload any) event.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return event.Event{
		CampaignAddress: campaignAddr,
		Seq:             seq,
		Timestamp:       time.Date(2026, 3, 14, 9, 0, int(seq), 0, time.UTC),
		Type:            typ,
		PayloadJSON:     raw,
	}
}

func testJournal(t *testing.T) []event.Event {
	t.Helper()
	return []event.Event{
		journalEvent(t, 1, event.TypeCampaignCreated, event.CampaignCreatedPayload{
			Manager:              managerAddr.Hex(),
			MinimumContribution:  "1",
			Title:                "Test Campaign",
			TargetAmount:         "10",
			ApprovalThresholdPct: 50,
		}),
		journalEvent(t, 2, event.TypeContributionReceived, event.ContributionReceivedPayload{
			Contributor:    approverAddr.Hex(),
			Amount:         "5",
			NewBalance:     "5",
			NewApprover:    true,
			ApproversCount: 1,
		}),
		journalEvent(t, 3, event.TypeRequestCreated, event.RequestCreatedPayload{
			RequestIndex: 0,
			Description:  "buy chairs",
			Value:        "3",
			Recipient:    recipient.Hex(),
		}),
		journalEvent(t, 4, event.TypeRequestApproved, event.RequestApprovedPayload{
			RequestIndex:  0,
			Approver:      approverAddr.Hex(),
			ApprovalCount: 1,
		}),
		journalEvent(t, 5, event.TypeRequestFinalized, event.RequestFinalizedPayload{
			RequestIndex: 0,
			Recipient:    recipient.Hex(),
			Value:        "3",
			Disbursed:    "3",
			NewBalance:   "2",
		}),
	}
}

func TestReplayRebuildsAggregate(t *testing.T) {
	store := &fakeEventStore{events: testJournal(t)}

	campaign, lastSeq, err := Replay(context.Background(), store, campaignAddr)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if lastSeq != 5 {
		t.Fatalf("expected last seq 5, got %d", lastSeq)
	}
	if campaign.Manager != managerAddr {
		t.Fatalf("expected manager %s, got %s", managerAddr.Hex(), campaign.Manager.Hex())
	}
	if campaign.Balance.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected balance 2, got %s", campaign.Balance)
	}
	if campaign.ApproversCount != 1 || !campaign.Approvers[approverAddr] {
		t.Fatal("expected approver membership rebuilt")
	}
	if len(campaign.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(campaign.Requests))
	}
	request := campaign.Requests[0]
	if !request.Complete {
		t.Fatal("expected request complete")
	}
	if request.ApprovalCount != 1 || !request.Approvals[approverAddr] {
		t.Fatal("expected approval rebuilt")
	}
}

func TestReplayPagesThroughLongJournals(t *testing.T) {
	events := testJournal(t)[:2]
	// Stretch the journal well past one page.
	for seq := uint64(3); seq <= replayPageSize+10; seq++ {
		events = append(events, journalEvent(t, seq, event.TypeContributionReceived, event.ContributionReceivedPayload{
			Contributor: approverAddr.Hex(),
			Amount:      "1",
		}))
	}
	store := &fakeEventStore{events: events}

	campaign, lastSeq, err := Replay(context.Background(), store, campaignAddr)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if lastSeq != replayPageSize+10 {
		t.Fatalf("expected last seq %d, got %d", replayPageSize+10, lastSeq)
	}
	wantBalance := big.NewInt(5 + replayPageSize + 10 - 2)
	if campaign.Balance.Cmp(wantBalance) != 0 {
		t.Fatalf("expected balance %s, got %s", wantBalance, campaign.Balance)
	}
	if campaign.ApproversCount != 1 {
		t.Fatalf("repeat contributions must not duplicate membership, got %d", campaign.ApproversCount)
	}
}

func TestReplayUnknownCampaign(t *testing.T) {
	store := &fakeEventStore{}

	_, _, err := Replay(context.Background(), store, campaignAddr)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplayRejectsHeadlessJournal(t *testing.T) {
	store := &fakeEventStore{events: []event.Event{
		journalEvent(t, 1, event.TypeContributionReceived, event.ContributionReceivedPayload{
			Contributor: approverAddr.Hex(),
			Amount:      "5",
		}),
	}}

	if _, _, err := Replay(context.Background(), store, campaignAddr); err == nil {
		t.Fatal("expected error for journal without a created event")
	}
}

func TestDiffDetectsDivergence(t *testing.T) {
	store := &fakeEventStore{events: testJournal(t)}
	replayed, _, err := Replay(context.Background(), store, campaignAddr)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	stored, _, err := Replay(context.Background(), store, campaignAddr)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if diffs := Diff(replayed, stored); len(diffs) != 0 {
		t.Fatalf("expected no diffs for identical aggregates, got %v", diffs)
	}

	stored.Balance = big.NewInt(999)
	stored.Requests[0].Complete = false
	diffs := Diff(replayed, stored)
	if len(diffs) != 2 {
		t.Fatalf("expected 2 diffs, got %v", diffs)
	}
}
