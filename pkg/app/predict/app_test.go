package predict

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/storage"
)

var (
	admin   = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	engine  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	alice   = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol   = common.HexToAddress("0x0000000000000000000000000000000000000ca0")
	sweeper = common.HexToAddress("0x00000000000000000000000000000000000000fe")
)

const symbol = "XUSDC"

type bridgeCall struct {
	to     common.Address
	amount int64
	memo   string
}

type fakeBridge struct {
	calls []bridgeCall
	err   error
}

func (b *fakeBridge) Transfer(to common.Address, amount int64, memo string) error {
	if b.err != nil {
		return b.err
	}
	b.calls = append(b.calls, bridgeCall{to, amount, memo})
	return nil
}

func newTestApp(t *testing.T) (*App, *fakeBridge) {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bridge := &fakeBridge{}
	app, err := New(Config{Admin: admin, Self: engine, CollateralSymbol: symbol}, store, bridge, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app, bridge
}

func deposit(t *testing.T, a *App, addr common.Address, amount int64) {
	t.Helper()
	if err := a.OnTransfer(addr, engine, symbol, amount, "deposit"); err != nil {
		t.Fatalf("deposit %s: %v", addr.Hex(), err)
	}
}

func createMarket(t *testing.T, a *App) uint64 {
	t.Helper()
	id, err := a.CreateMarket(admin, "Will the thing happen?", "misc", 1800000000)
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
	return id
}

func mustPlace(t *testing.T, a *App, actor common.Address, mkt uint64, outcome market.Outcome, bid bool, price, qty int64) *PlaceResult {
	t.Helper()
	res, err := a.PlaceOrder(actor, mkt, outcome, bid, price, qty)
	if err != nil {
		t.Fatalf("place order for %s: %v", actor.Hex(), err)
	}
	return res
}

func balance(t *testing.T, a *App, addr common.Address) int64 {
	t.Helper()
	return a.Balance(addr)
}

func yesShares(t *testing.T, a *App, mkt uint64, addr common.Address) int64 {
	t.Helper()
	for _, p := range a.Positions(addr) {
		if p.Market == mkt {
			return p.Yes
		}
	}
	return 0
}

func noShares(t *testing.T, a *App, mkt uint64, addr common.Address) int64 {
	t.Helper()
	for _, p := range a.Positions(addr) {
		if p.Market == mkt {
			return p.No
		}
	}
	return 0
}

// Everything durable must survive an engine rebuild from the same store.
func TestReloadFromStore(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	bridge := &fakeBridge{}
	cfg := Config{Admin: admin, Self: engine, CollateralSymbol: symbol}
	app, err := New(cfg, store, bridge, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	deposit(t, app, alice, 1_000_000)
	deposit(t, app, bob, 1_000_000)
	mkt := createMarket(t, app)
	mustPlace(t, app, alice, mkt, market.Yes, true, 6000, 10) // rests
	res := mustPlace(t, app, bob, mkt, market.Yes, false, 5000, 4)
	if len(res.Fills) != 1 {
		t.Fatalf("expected a fill, got %+v", res)
	}

	reloaded, err := New(cfg, store, bridge, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got, want := reloaded.Balance(alice), app.Balance(alice); got != want {
		t.Fatalf("alice balance after reload = %d, want %d", got, want)
	}
	if got, want := reloaded.Balance(bob), app.Balance(bob); got != want {
		t.Fatalf("bob balance after reload = %d, want %d", got, want)
	}
	if got, want := reloaded.FeeBalance(), app.FeeBalance(); got != want {
		t.Fatalf("fee balance after reload = %d, want %d", got, want)
	}

	before, err := app.OpenOrders(mkt)
	if err != nil {
		t.Fatalf("open orders: %v", err)
	}
	after, err := reloaded.OpenOrders(mkt)
	if err != nil {
		t.Fatalf("open orders after reload: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("open orders after reload = %d, want %d", len(after), len(before))
	}
	for i := range after {
		if after[i] != before[i] {
			t.Fatalf("order %d changed across reload: %+v vs %+v", i, after[i], before[i])
		}
	}

	if got := yesShares(t, reloaded, mkt, bob); got != yesShares(t, app, mkt, bob) {
		t.Fatalf("bob yes shares after reload = %d", got)
	}

	// The id counters must carry on where they left off.
	id2, err := reloaded.CreateMarket(admin, "Another?", "misc", 0)
	if err != nil {
		t.Fatalf("create market after reload: %v", err)
	}
	if id2 != mkt+1 {
		t.Fatalf("market id after reload = %d, want %d", id2, mkt+1)
	}
}

func TestMarketReadModel(t *testing.T) {
	app, _ := newTestApp(t)
	mkt := createMarket(t, app)

	m, err := app.Market(mkt)
	if err != nil {
		t.Fatalf("market: %v", err)
	}
	if m.Resolved || m.Question == "" {
		t.Fatalf("market = %+v", m)
	}
	if _, err := app.Market(99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing market: %v", err)
	}
	if got := len(app.Markets()); got != 1 {
		t.Fatalf("markets = %d, want 1", got)
	}
}
