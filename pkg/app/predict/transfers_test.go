package predict

import (
	"errors"
	"testing"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
)

func TestDeposit(t *testing.T) {
	app, _ := newTestApp(t)

	deposit(t, app, alice, 500)
	deposit(t, app, alice, 250)
	if got := balance(t, app, alice); got != 750 {
		t.Fatalf("balance = %d, want 750", got)
	}
}

func TestDepositIgnoresOtherRecipients(t *testing.T) {
	app, _ := newTestApp(t)

	// A transfer between two third parties happens to pass through the
	// notification stream; it is not a deposit.
	if err := app.OnTransfer(alice, bob, symbol, 1000, ""); err != nil {
		t.Fatalf("unrelated transfer must be ignored, got %v", err)
	}
	if got := balance(t, app, alice); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestDepositRejectsWrongCurrency(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.OnTransfer(alice, engine, "DOGE", 1000, "")
	if !errors.Is(err, core.ErrInvalidDeposit) {
		t.Fatalf("expected ErrInvalidDeposit, got %v", err)
	}
	if got := balance(t, app, alice); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	app, _ := newTestApp(t)

	for _, amount := range []int64{0, -5} {
		err := app.OnTransfer(alice, engine, symbol, amount, "")
		if !errors.Is(err, core.ErrInvalidDeposit) {
			t.Fatalf("amount %d: expected ErrInvalidDeposit, got %v", amount, err)
		}
	}
}

func TestWithdraw(t *testing.T) {
	app, bridge := newTestApp(t)
	deposit(t, app, alice, 1000)

	if err := app.Withdraw(alice, 400); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := balance(t, app, alice); got != 600 {
		t.Fatalf("balance = %d, want 600", got)
	}
	if len(bridge.calls) != 1 {
		t.Fatalf("bridge calls = %d, want 1", len(bridge.calls))
	}
	call := bridge.calls[0]
	if call.to != alice || call.amount != 400 || call.memo != "withdraw" {
		t.Fatalf("bridge call = %+v", call)
	}
}

func TestWithdrawInsufficient(t *testing.T) {
	app, bridge := newTestApp(t)
	deposit(t, app, alice, 100)

	err := app.Withdraw(alice, 101)
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := balance(t, app, alice); got != 100 {
		t.Fatalf("failed withdraw mutated balance: %d", got)
	}
	if len(bridge.calls) != 0 {
		t.Fatalf("failed withdraw reached the bridge: %+v", bridge.calls)
	}
}

func TestWithdrawRejectsNonPositive(t *testing.T) {
	app, _ := newTestApp(t)
	deposit(t, app, alice, 100)

	for _, amount := range []int64{0, -1} {
		if err := app.Withdraw(alice, amount); !errors.Is(err, core.ErrInvalidArgument) {
			t.Fatalf("amount %d: expected ErrInvalidArgument, got %v", amount, err)
		}
	}
}

// A bridge failure aborts the whole call: the balance is untouched.
func TestWithdrawBridgeFailureAborts(t *testing.T) {
	app, bridge := newTestApp(t)
	deposit(t, app, alice, 1000)

	bridge.err = errors.New("relayer down")
	if err := app.Withdraw(alice, 400); err == nil {
		t.Fatal("expected bridge error to propagate")
	}
	if got := balance(t, app, alice); got != 1000 {
		t.Fatalf("aborted withdraw mutated balance: %d", got)
	}
}

func TestCollectFees(t *testing.T) {
	app, bridge := newTestApp(t)
	deposit(t, app, alice, 1_000_000)
	deposit(t, app, bob, 1_000_000)
	mkt := createMarket(t, app)

	// One trade at notional 60000 accrues a fee of 6.
	mustPlace(t, app, alice, mkt, market.Yes, true, 6000, 10)
	mustPlace(t, app, bob, mkt, market.Yes, false, 6000, 10)
	if got := app.FeeBalance(); got != 6 {
		t.Fatalf("fee balance = %d, want 6", got)
	}

	swept, err := app.CollectFees(admin, sweeper)
	if err != nil {
		t.Fatalf("collect fees: %v", err)
	}
	if swept != 6 {
		t.Fatalf("swept = %d, want 6", swept)
	}
	if got := app.FeeBalance(); got != 0 {
		t.Fatalf("fee balance after sweep = %d, want 0", got)
	}
	last := bridge.calls[len(bridge.calls)-1]
	if last.to != sweeper || last.amount != 6 || last.memo != "fees" {
		t.Fatalf("bridge call = %+v", last)
	}
}

func TestCollectFeesAdminOnly(t *testing.T) {
	app, _ := newTestApp(t)

	if _, err := app.CollectFees(alice, alice); !errors.Is(err, core.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

// With nothing accrued the sweep is a no-op, not an error, and nothing
// touches the bridge.
func TestCollectFeesZeroBalance(t *testing.T) {
	app, bridge := newTestApp(t)

	swept, err := app.CollectFees(admin, sweeper)
	if err != nil {
		t.Fatalf("collect fees: %v", err)
	}
	if swept != 0 {
		t.Fatalf("swept = %d, want 0", swept)
	}
	if len(bridge.calls) != 0 {
		t.Fatalf("zero sweep reached the bridge: %+v", bridge.calls)
	}
}

// A bridge failure leaves the fee balance intact for a retry.
func TestCollectFeesBridgeFailureAborts(t *testing.T) {
	app, bridge := newTestApp(t)
	deposit(t, app, alice, 1_000_000)
	deposit(t, app, bob, 1_000_000)
	mkt := createMarket(t, app)
	mustPlace(t, app, alice, mkt, market.Yes, true, 6000, 10)
	mustPlace(t, app, bob, mkt, market.Yes, false, 6000, 10)

	bridge.err = errors.New("relayer down")
	if _, err := app.CollectFees(admin, sweeper); err == nil {
		t.Fatal("expected bridge error to propagate")
	}
	if got := app.FeeBalance(); got != 6 {
		t.Fatalf("aborted sweep mutated fee balance: %d", got)
	}
}
