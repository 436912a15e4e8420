// Package ledger tracks per-account collateral balances in a single
// currency. Balances are non-negative int64 fixed-point amounts; the two
// designated entry points for value (deposit, withdraw) live in the engine,
// which is also the only caller and serializes access.
package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
)

// Ledger is the in-memory balance table. It is not safe for concurrent use;
// the engine holds the call lock while mutating it.
type Ledger struct {
	balances map[common.Address]int64
}

func New() *Ledger {
	return &Ledger{balances: make(map[common.Address]int64)}
}

// Balance returns the available funds for an account, zero if the account
// has never been credited. Rows are created on first credit and never
// deleted.
func (l *Ledger) Balance(addr common.Address) int64 {
	return l.balances[addr]
}

// Credit increases an account's balance. amount must be positive. Overflow
// is arithmetic corruption and fails with ErrOverflow without mutating.
func (l *Ledger) Credit(addr common.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount %d", core.ErrInvalidArgument, amount)
	}
	next, err := core.AddChecked(l.balances[addr], amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", addr.Hex(), err)
	}
	l.balances[addr] = next
	return nil
}

// Debit decreases an account's balance, failing with ErrInsufficientFunds
// if the account cannot cover the amount.
func (l *Ledger) Debit(addr common.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount %d", core.ErrInvalidArgument, amount)
	}
	bal := l.balances[addr]
	if amount > bal {
		return fmt.Errorf("%w: have %d, need %d", core.ErrInsufficientFunds, bal, amount)
	}
	l.balances[addr] = bal - amount
	return nil
}

// Set installs a balance row directly. Used only when rebuilding state from
// storage at startup.
func (l *Ledger) Set(addr common.Address, amount int64) {
	l.balances[addr] = amount
}

// All returns a snapshot copy of every balance row.
func (l *Ledger) All() map[common.Address]int64 {
	out := make(map[common.Address]int64, len(l.balances))
	for addr, bal := range l.balances {
		out[addr] = bal
	}
	return out
}
