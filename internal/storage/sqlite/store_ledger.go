package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/ledger"
)

// GetAccount returns the ledger account for addr. Unknown addresses are
// reported as zero-balance accounts, never as errors.
func (s *Store) GetAccount(ctx context.Context, addr common.Address) (ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Account{}, err
	}

	var balanceStr string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT balance FROM accounts WHERE address = ?", addr.Hex()).Scan(&balanceStr)
	if err == sql.ErrNoRows {
		return ledger.NewAccount(addr), nil
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("query account: %w", err)
	}

	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		return ledger.Account{}, fmt.Errorf("invalid stored balance %q for %s", balanceStr, addr.Hex())
	}
	return ledger.Account{Address: addr, Balance: balance}, nil
}

func upsertAccount(ctx context.Context, tx *sql.Tx, account ledger.Account) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO accounts (address, balance) VALUES (?, ?)
ON CONFLICT(address) DO UPDATE SET balance = excluded.balance`,
		account.Address.Hex(), account.Balance.String())
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", account.Address.Hex(), err)
	}
	return nil
}
