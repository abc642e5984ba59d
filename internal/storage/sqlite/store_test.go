package sqlite

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/ledger"
	"github.com/ledgervest/ledgervest/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "funding.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func testCampaign(addr, manager common.Address, now time.Time) *domain.Campaign {
	return &domain.Campaign{
		Address:              addr,
		Manager:              manager,
		MinimumContribution:  big.NewInt(100),
		Title:                "Water filters",
		TargetAmount:         big.NewInt(0),
		ApprovalThresholdPct: domain.DefaultApprovalThresholdPct,
		Balance:              big.NewInt(0),
		Approvers:            make(map[common.Address]bool),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetCampaign(context.Background(), common.HexToAddress("0x01"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyPersistsCampaignRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	addr := common.HexToAddress("0xaa01")
	manager := common.HexToAddress("0xbb01")
	contributor := common.HexToAddress("0xcc01")

	campaign := testCampaign(addr, manager, now)
	campaign.Balance = big.NewInt(500)
	campaign.Approvers[contributor] = true
	campaign.ApproversCount = 1
	campaign.Requests = []domain.SpendingRequest{{
		Description:   "buy filters",
		Value:         big.NewInt(200),
		Recipient:     common.HexToAddress("0xdd01"),
		ApprovalCount: 1,
		Approvals:     map[common.Address]bool{contributor: true},
		CreatedAt:     now,
	}}

	applied, err := store.Apply(ctx, storage.Commit{
		Campaign: campaign,
		Accounts: []ledger.Account{{Address: contributor, Balance: big.NewInt(300)}},
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.TypeContributionReceived,
			Actor:           contributor,
			PayloadJSON:     []byte(`{"amount":"500"}`),
		},
	})
	if err != nil {
		t.Fatalf("apply commit: %v", err)
	}
	if applied.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", applied.Seq)
	}
	if applied.Hash == "" {
		t.Fatal("expected content hash to be assigned")
	}

	got, err := store.GetCampaign(ctx, addr)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if got.Manager != manager {
		t.Fatalf("manager = %s, want %s", got.Manager.Hex(), manager.Hex())
	}
	if got.Balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance = %s, want 500", got.Balance)
	}
	if !got.Approvers[contributor] || got.ApproversCount != 1 {
		t.Fatalf("approver set not restored: %v count=%d", got.Approvers, got.ApproversCount)
	}
	if len(got.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got.Requests))
	}
	request := got.Requests[0]
	if request.Value.Cmp(big.NewInt(200)) != 0 || request.ApprovalCount != 1 || !request.Approvals[contributor] {
		t.Fatalf("request not restored: %+v", request)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %s, want %s", got.CreatedAt, now)
	}

	account, err := store.GetAccount(ctx, contributor)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("account balance = %s, want 300", account.Balance)
	}
}

func TestApplyAssignsSequencesPerCampaign(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := common.HexToAddress("0xaa02")
	second := common.HexToAddress("0xaa03")

	appendOne := func(addr common.Address) event.Event {
		t.Helper()
		applied, err := store.Apply(ctx, storage.Commit{
			Campaign: testCampaign(addr, common.HexToAddress("0xbb02"), now),
			Event: event.Event{
				CampaignAddress: addr,
				Timestamp:       now,
				Type:            event.TypeCampaignCreated,
				Actor:           common.HexToAddress("0xbb02"),
				PayloadJSON:     []byte(`{}`),
			},
		})
		if err != nil {
			t.Fatalf("apply commit: %v", err)
		}
		return applied
	}

	if evt := appendOne(first); evt.Seq != 1 {
		t.Fatalf("first campaign seq = %d, want 1", evt.Seq)
	}
	if evt := appendOne(first); evt.Seq != 2 {
		t.Fatalf("second event seq = %d, want 2", evt.Seq)
	}
	// Sequences are per-campaign, not global.
	if evt := appendOne(second); evt.Seq != 1 {
		t.Fatalf("other campaign seq = %d, want 1", evt.Seq)
	}
}

func TestApplyRejectsInvalidEventType(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()
	addr := common.HexToAddress("0xaa04")

	_, err := store.Apply(context.Background(), storage.Commit{
		Campaign: testCampaign(addr, common.HexToAddress("0xbb04"), now),
		Event: event.Event{
			CampaignAddress: addr,
			Timestamp:       now,
			Type:            event.Type("bogus"),
			PayloadJSON:     []byte(`{}`),
		},
	})
	if err == nil {
		t.Fatal("expected error for invalid event type")
	}

	// The rejected commit must not leave a partial projection behind.
	if _, err := store.GetCampaign(context.Background(), addr); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestListEventsPaging(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	addr := common.HexToAddress("0xaa05")
	campaign := testCampaign(addr, common.HexToAddress("0xbb05"), now)

	for i := 0; i < 5; i++ {
		if _, err := store.Apply(ctx, storage.Commit{
			Campaign: campaign,
			Event: event.Event{
				CampaignAddress: addr,
				Timestamp:       now,
				Type:            event.TypeContributionReceived,
				PayloadJSON:     []byte(`{}`),
			},
		}); err != nil {
			t.Fatalf("apply commit %d: %v", i, err)
		}
	}

	page, err := store.ListEvents(ctx, addr, 0, 3)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(page) != 3 || page[0].Seq != 1 || page[2].Seq != 3 {
		t.Fatalf("unexpected first page: %+v", page)
	}

	rest, err := store.ListEvents(ctx, addr, page[2].Seq, 100)
	if err != nil {
		t.Fatalf("list remaining events: %v", err)
	}
	if len(rest) != 2 || rest[0].Seq != 4 || rest[1].Seq != 5 {
		t.Fatalf("unexpected second page: %+v", rest)
	}

	if empty, err := store.ListEvents(ctx, addr, 0, 0); err != nil || empty != nil {
		t.Fatalf("expected empty page for zero limit, got %v, %v", empty, err)
	}
}

func TestListCampaignsCreationOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	addresses := []common.Address{
		common.HexToAddress("0x0a"),
		common.HexToAddress("0x0b"),
		common.HexToAddress("0x0c"),
	}
	for _, addr := range addresses {
		if _, err := store.Apply(ctx, storage.Commit{
			Campaign: testCampaign(addr, common.HexToAddress("0xbb06"), now),
			Event: event.Event{
				CampaignAddress: addr,
				Timestamp:       now,
				Type:            event.TypeCampaignCreated,
				PayloadJSON:     []byte(`{}`),
			},
		}); err != nil {
			t.Fatalf("apply commit: %v", err)
		}
	}

	listed, err := store.ListCampaignAddresses(ctx)
	if err != nil {
		t.Fatalf("list addresses: %v", err)
	}
	if len(listed) != len(addresses) {
		t.Fatalf("expected %d addresses, got %d", len(addresses), len(listed))
	}
	for i, addr := range addresses {
		if listed[i] != addr {
			t.Fatalf("address %d = %s, want %s", i, listed[i].Hex(), addr.Hex())
		}
	}

	campaigns, err := store.ListCampaigns(ctx)
	if err != nil {
		t.Fatalf("list campaigns: %v", err)
	}
	if len(campaigns) != len(addresses) || campaigns[0].Address != addresses[0] {
		t.Fatalf("unexpected campaigns list: %+v", campaigns)
	}
}

func TestGetAccountUnknownAddressIsZero(t *testing.T) {
	store := openTestStore(t)

	account, err := store.GetAccount(context.Background(), common.HexToAddress("0xff"))
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Balance.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", account.Balance)
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	evt := storage.TelemetryEvent{
		ID:              "telemetry-1",
		Timestamp:       time.Now().UTC(),
		Severity:        "info",
		Operation:       "contribute",
		CampaignAddress: common.HexToAddress("0xaa07").Hex(),
		Message:         "contribution accepted",
	}
	if err := store.AppendTelemetryEvent(ctx, evt); err != nil {
		t.Fatalf("append telemetry: %v", err)
	}

	var count int
	if err := store.sqlDB.QueryRow("SELECT COUNT(*) FROM telemetry_events WHERE id = ?", evt.ID).Scan(&count); err != nil {
		t.Fatalf("count telemetry events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 telemetry event, got %d", count)
	}
}
