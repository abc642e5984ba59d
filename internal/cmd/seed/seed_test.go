package seed

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/ledgervest/ledgervest/internal/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Accounts != 4 || cfg.FaucetBalance != "1000000" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestRunSeedsDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed.sqlite")
	var out bytes.Buffer

	err := Run(context.Background(), Config{
		DBPath:        dbPath,
		Accounts:      3,
		FaucetBalance: "100000",
	}, &out)
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()

	campaigns, err := store.ListCampaigns(context.Background())
	if err != nil {
		t.Fatalf("list campaigns: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("expected 1 seeded campaign, got %d", len(campaigns))
	}
	campaign := campaigns[0]
	// Two of three accounts contribute; the third is the manager.
	if campaign.ApproversCount != 2 {
		t.Fatalf("approvers = %d, want 2", campaign.ApproversCount)
	}
	if len(campaign.Requests) != 1 || campaign.Requests[0].Complete {
		t.Fatalf("expected one open request, got %+v", campaign.Requests)
	}
	if out.Len() == 0 {
		t.Fatal("expected progress output")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed.sqlite")

	if err := Run(context.Background(), Config{DBPath: dbPath, Accounts: 1, FaucetBalance: "100"}, nil); err == nil {
		t.Fatal("expected error for too few accounts")
	}
	if err := Run(context.Background(), Config{DBPath: dbPath, Accounts: 3, FaucetBalance: "abc"}, nil); err == nil {
		t.Fatal("expected error for malformed balance")
	}
}
