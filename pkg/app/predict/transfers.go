package predict

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
)

// OnTransfer is the inbound notification from the external currency
// ledger and implements deposit. Transfers not addressed to the engine are
// incidental and ignored; a transfer addressed to the engine in the wrong
// currency or with a non-positive amount is a malformed deposit and fails.
func (a *App) OnTransfer(from, to common.Address, symbol string, amount int64, memo string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if to != a.cfg.Self {
		return nil
	}
	if symbol != a.cfg.CollateralSymbol {
		return fmt.Errorf("%w: currency %s not accepted", core.ErrInvalidDeposit, symbol)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount %d", core.ErrInvalidDeposit, amount)
	}

	if err := a.ledger.Credit(from, amount); err != nil {
		return err
	}

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetBalance(from, a.ledger.Balance(from)); err != nil {
		return err
	}
	if err := a.commit(batch); err != nil {
		return err
	}

	a.log.Infow("deposit", "account", from.Hex(), "amount", amount, "memo", memo)
	return nil
}

// Withdraw debits the caller and emits one outbound transfer for the full
// amount. Besides claims this is the only path by which collateral leaves
// the engine.
func (a *App) Withdraw(actor common.Address, amount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount <= 0 {
		return fmt.Errorf("%w: withdraw amount %d", core.ErrInvalidArgument, amount)
	}
	if bal := a.ledger.Balance(actor); amount > bal {
		return fmt.Errorf("%w: have %d, need %d", core.ErrInsufficientFunds, bal, amount)
	}

	// The outbound transfer belongs to the same atomic call: emit it
	// before mutating so a bridge failure aborts with no state change.
	if err := a.bridge.Transfer(actor, amount, "withdraw"); err != nil {
		return fmt.Errorf("bridge transfer: %w", err)
	}
	if err := a.ledger.Debit(actor, amount); err != nil {
		return err
	}

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetBalance(actor, a.ledger.Balance(actor)); err != nil {
		return err
	}
	if err := a.commit(batch); err != nil {
		return err
	}

	a.log.Infow("withdraw", "account", actor.Hex(), "amount", amount)
	return nil
}

// CollectFees sweeps the whole accrued house fee balance to the given
// recipient. Admin only; no partial sweep. A zero balance is a no-op.
func (a *App) CollectFees(actor, to common.Address) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if actor != a.cfg.Admin {
		return 0, fmt.Errorf("%w: fee collection requires admin", core.ErrNotOwner)
	}

	amount := a.state.FeeBalance
	if amount == 0 {
		return 0, nil
	}

	if err := a.bridge.Transfer(to, amount, "fees"); err != nil {
		return 0, fmt.Errorf("bridge transfer: %w", err)
	}
	a.state.FeeBalance = 0

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetState(&a.state); err != nil {
		return 0, err
	}
	if err := a.commit(batch); err != nil {
		return 0, err
	}

	a.log.Infow("fees_collected", "to", to.Hex(), "amount", amount)
	return amount, nil
}
