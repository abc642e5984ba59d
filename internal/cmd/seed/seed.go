// Package seed parses seed command flags and loads demo funding data into a
// local database.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/service"
	entrypoint "github.com/ledgervest/ledgervest/internal/platform/cmd"
	"github.com/ledgervest/ledgervest/internal/registry"
	"github.com/ledgervest/ledgervest/internal/storage/sqlite"
	"github.com/ledgervest/ledgervest/internal/telemetry"
)

// Config holds seed command configuration.
type Config struct {
	DBPath        string `env:"LEDGERVEST_DB_PATH" envDefault:"ledgervest.sqlite"`
	Accounts      int    `env:"LEDGERVEST_SEED_ACCOUNTS" envDefault:"4"`
	FaucetBalance string `env:"LEDGERVEST_SEED_BALANCE" envDefault:"1000000"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database")
	fs.IntVar(&cfg.Accounts, "accounts", cfg.Accounts, "Number of demo accounts to fund")
	fs.StringVar(&cfg.FaucetBalance, "balance", cfg.FaucetBalance, "Faucet balance per demo account in base units")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run funds demo accounts and creates a demo campaign with one contribution
// and one open spending request.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Accounts < 2 {
		return fmt.Errorf("need at least 2 demo accounts, got %d", cfg.Accounts)
	}
	balance, ok := new(big.Int).SetString(cfg.FaucetBalance, 10)
	if !ok || balance.Sign() <= 0 {
		return fmt.Errorf("invalid faucet balance %q", cfg.FaucetBalance)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	emitter := telemetry.NewEmitter(store)
	svc := service.New(store, emitter, service.Config{})
	reg := registry.New(store, emitter, registry.Config{})

	accounts := make([]common.Address, cfg.Accounts)
	for i := range accounts {
		addr, err := registry.NewCampaignAddress()
		if err != nil {
			return err
		}
		accounts[i] = addr
		if _, err := svc.Deposit(ctx, addr, balance); err != nil {
			return fmt.Errorf("fund account %s: %w", addr.Hex(), err)
		}
		fmt.Fprintf(out, "funded account %s balance=%s\n", addr.Hex(), balance.String())
	}

	manager := accounts[0]
	campaign, err := reg.CreateCampaign(ctx, domain.CreateCampaignInput{
		Manager:             manager,
		MinimumContribution: big.NewInt(100),
		Title:               "Demo: community well",
		Description:         "Seeded campaign for local development",
		TargetAmount:        big.NewInt(50000),
		ContactEmail:        "demo@ledgervest.local",
	})
	if err != nil {
		return fmt.Errorf("create demo campaign: %w", err)
	}
	fmt.Fprintf(out, "created campaign %s manager=%s\n", campaign.Address.Hex(), manager.Hex())

	contribution := big.NewInt(10000)
	for _, contributor := range accounts[1:] {
		if _, err := svc.Contribute(ctx, campaign.Address, contributor, contribution); err != nil {
			return fmt.Errorf("contribute from %s: %w", contributor.Hex(), err)
		}
	}
	fmt.Fprintf(out, "recorded %d contributions of %s\n", cfg.Accounts-1, contribution.String())

	recipient, err := registry.NewCampaignAddress()
	if err != nil {
		return err
	}
	index, err := svc.CreateRequest(ctx, campaign.Address, manager, "initial supplies", big.NewInt(5000), recipient)
	if err != nil {
		return fmt.Errorf("create demo request: %w", err)
	}
	fmt.Fprintf(out, "created spending request index=%d recipient=%s\n", index, recipient.Hex())

	return nil
}
