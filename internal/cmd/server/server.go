// Package server parses server command flags and starts the funding API.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	api "github.com/ledgervest/ledgervest/internal/api/http"
	"github.com/ledgervest/ledgervest/internal/cache"
	"github.com/ledgervest/ledgervest/internal/funding/service"
	entrypoint "github.com/ledgervest/ledgervest/internal/platform/cmd"
	"github.com/ledgervest/ledgervest/internal/registry"
	"github.com/ledgervest/ledgervest/internal/storage/sqlite"
	"github.com/ledgervest/ledgervest/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Config holds server command configuration.
type Config struct {
	Port            int           `env:"LEDGERVEST_PORT" envDefault:"8080"`
	Addr            string        `env:"LEDGERVEST_ADDR"`
	DBPath          string        `env:"LEDGERVEST_DB_PATH" envDefault:"ledgervest.sqlite"`
	RedisAddr       string        `env:"LEDGERVEST_REDIS_ADDR"`
	CacheTTL        time.Duration `env:"LEDGERVEST_CACHE_TTL" envDefault:"30s"`
	PlatformFeeBps  int           `env:"LEDGERVEST_PLATFORM_FEE_BPS" envDefault:"0"`
	CreationFee     string        `env:"LEDGERVEST_CREATION_FEE" envDefault:"0"`
	PlatformAccount string        `env:"LEDGERVEST_PLATFORM_ACCOUNT"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The API server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The API server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the summary cache (empty disables)")
	fs.IntVar(&cfg.PlatformFeeBps, "fee-bps", cfg.PlatformFeeBps, "Platform fee in basis points per finalized request")
	fs.StringVar(&cfg.CreationFee, "creation-fee", cfg.CreationFee, "Campaign creation fee in base units")
	fs.StringVar(&cfg.PlatformAccount, "platform-account", cfg.PlatformAccount, "Address credited with platform fees")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks the fee settings before any component starts.
func (c Config) validate() (*big.Int, common.Address, error) {
	creationFee := big.NewInt(0)
	if c.CreationFee != "" {
		parsed, ok := new(big.Int).SetString(c.CreationFee, 10)
		if !ok || parsed.Sign() < 0 {
			return nil, common.Address{}, fmt.Errorf("invalid creation fee %q", c.CreationFee)
		}
		creationFee = parsed
	}
	if c.PlatformFeeBps < 0 || c.PlatformFeeBps > 10000 {
		return nil, common.Address{}, fmt.Errorf("platform fee %d bps out of range", c.PlatformFeeBps)
	}

	var platformAccount common.Address
	if c.PlatformAccount != "" {
		if !common.IsHexAddress(c.PlatformAccount) {
			return nil, common.Address{}, fmt.Errorf("invalid platform account %q", c.PlatformAccount)
		}
		platformAccount = common.HexToAddress(c.PlatformAccount)
	}
	feeConfigured := c.PlatformFeeBps > 0 || creationFee.Sign() > 0
	if feeConfigured && platformAccount == (common.Address{}) {
		return nil, common.Address{}, errors.New("platform account is required when fees are configured")
	}
	return creationFee, platformAccount, nil
}

// Run starts the funding API server.
func Run(ctx context.Context, cfg Config) error {
	creationFee, platformAccount, err := cfg.validate()
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		summaryCache := cache.New(cfg.RedisAddr, cfg.CacheTTL)
		defer func() {
			if err := summaryCache.Close(); err != nil {
				log.Printf("close cache: %v", err)
			}
		}()

		emitter := telemetry.NewEmitter(store)
		svc := service.New(store, emitter, service.Config{
			FeeBps:          cfg.PlatformFeeBps,
			PlatformAccount: platformAccount,
		})
		reg := registry.New(store, emitter, registry.Config{
			CreationFee:     creationFee,
			PlatformAccount: platformAccount,
		})
		handler := api.NewHandler(svc, reg, summaryCache)

		addr := cfg.Addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Port)
		}
		server := &http.Server{
			Addr:    addr,
			Handler: api.NewRouter(handler),
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("funding api listening addr=%s db=%s cache_enabled=%t fee_bps=%d",
				addr, cfg.DBPath, summaryCache.Enabled(), cfg.PlatformFeeBps)
			errCh <- server.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	})
}
