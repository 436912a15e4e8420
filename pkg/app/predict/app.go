// Package predict is the prediction market engine: the ledger,
// order-matching, and position/collateral core behind every public
// operation. Each entry point runs to completion under a single lock,
// validates and debits before its first visible mutation, and commits all
// of its durable writes in one storage batch, so a call either happens
// entirely or not at all.
package predict

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/book"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/ledger"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/position"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/storage"
)

// Bridge is the outbound leg of the external currency ledger. Withdraw and
// CollectFees emit exactly one transfer through it as part of the same
// call; a bridge failure aborts the call before any state changes.
type Bridge interface {
	Transfer(to common.Address, amount int64, memo string) error
}

// Config fixes the engine's deployment identity.
type Config struct {
	// Admin may create and resolve markets and sweep fees.
	Admin common.Address
	// Self is this engine's address on the external currency ledger;
	// inbound transfers to any other recipient are ignored.
	Self common.Address
	// CollateralSymbol is the only accepted deposit currency.
	CollateralSymbol string
}

// App is the engine. All public methods are safe for concurrent use; the
// internal mutex supplies the one-call-at-a-time execution the state
// machine assumes.
type App struct {
	mu  sync.Mutex
	cfg Config
	log *zap.SugaredLogger

	store  *storage.Store
	bridge Bridge

	state     storage.EngineState
	ledger    *ledger.Ledger
	markets   *market.Registry
	books     map[uint64]*book.Book
	positions *position.Store

	now func() int64
}

// New builds an engine on top of an opened store, rebuilding all in-memory
// tables from it.
func New(cfg Config, store *storage.Store, bridge Bridge, log *zap.SugaredLogger) (*App, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		bridge:    bridge,
		ledger:    ledger.New(),
		markets:   market.NewRegistry(),
		books:     make(map[uint64]*book.Book),
		positions: position.NewStore(),
		now:       func() int64 { return time.Now().Unix() },
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) load() error {
	st, err := a.store.LoadState()
	if err != nil {
		return fmt.Errorf("load engine state: %w", err)
	}
	if st != nil {
		a.state = *st
	}

	balances, err := a.store.LoadBalances()
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	for addr, bal := range balances {
		a.ledger.Set(addr, bal)
	}

	markets, err := a.store.LoadMarkets()
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}
	for _, m := range markets {
		if err := a.markets.Add(m); err != nil {
			return err
		}
		b := book.New()
		orders, err := a.store.LoadOrders(m.ID)
		if err != nil {
			return fmt.Errorf("load orders for market %d: %w", m.ID, err)
		}
		for _, o := range orders {
			b.Add(o)
		}
		a.books[m.ID] = b
	}

	positions, err := a.store.LoadPositions()
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	for _, p := range positions {
		a.positions.Put(p)
	}

	a.log.Infow("engine_loaded",
		"markets", a.markets.Count(),
		"balances", len(balances),
		"positions", len(positions),
		"next_market_id", a.state.NextMarketID,
		"next_order_id", a.state.NextOrderID,
	)
	return nil
}

// commit flushes a call's batch; a commit failure is unrecoverable for the
// in-memory state, so it propagates as a fatal error to the host.
func (a *App) commit(batch *storage.Batch) error {
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ---- Read models (used by the API gateway and tests) ----

// Markets returns all markets ascending by id.
func (a *App) Markets() []*market.Market {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.markets.List()
}

// Market returns one market row.
func (a *App) Market(id uint64) (market.Market, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, err := a.markets.Get(id)
	if err != nil {
		return market.Market{}, err
	}
	return *m, nil
}

// OpenOrders returns a market's resting orders in book (insertion) order.
func (a *App) OpenOrders(marketID uint64) ([]book.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.books[marketID]
	if !ok {
		return nil, fmt.Errorf("market %d: no book", marketID)
	}
	orders := b.Orders()
	out := make([]book.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out, nil
}

// Balance returns an account's available funds.
func (a *App) Balance(addr common.Address) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Balance(addr)
}

// Positions returns an account's holdings across markets.
func (a *App) Positions(addr common.Address) []position.Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := a.positions.ByOwner(addr)
	out := make([]position.Position, len(rows))
	for i, p := range rows {
		out[i] = *p
	}
	return out
}

// FeeBalance returns the accrued, unswept house fees.
func (a *App) FeeBalance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.FeeBalance
}

// Admin returns the configured admin account.
func (a *App) Admin() common.Address {
	return a.cfg.Admin
}
