// Package ledger models the simulated host-ledger accounts backing LedgerVest.
//
// Balances are integers in the ledger's smallest indivisible unit. The
// package is pure bookkeeping: persistence and serialization live in the
// storage and service layers.
package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"
)

var (
	// ErrNonPositiveAmount indicates a zero or negative ledger movement.
	ErrNonPositiveAmount = apperrors.New(apperrors.CodeInvalidAmount, "ledger amount must be positive")
	// ErrInsufficientBalance indicates a debit that would overdraw an account.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeInsufficientBalance, "account balance is insufficient")
)

// Account is a single address balance on the simulated ledger.
type Account struct {
	Address common.Address
	Balance *big.Int
}

// NewAccount returns an empty account for the address.
func NewAccount(addr common.Address) Account {
	return Account{Address: addr, Balance: big.NewInt(0)}
}

// Deposit credits the account. Amounts must be positive.
func (a *Account) Deposit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	a.Balance = new(big.Int).Add(a.Balance, amount)
	return nil
}

// Withdraw debits the account. Balances never go negative; a debit exceeding
// the balance is rejected without state change.
func (a *Account) Withdraw(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if a.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	a.Balance = new(big.Int).Sub(a.Balance, amount)
	return nil
}
