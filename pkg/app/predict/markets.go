package predict

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/book"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
)

// CreateMarket allocates the next market id and stores an unresolved
// binary market. Admin only; no collateral effects.
func (a *App) CreateMarket(actor common.Address, question, category string, expire int64) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if actor != a.cfg.Admin {
		return 0, fmt.Errorf("%w: market creation requires admin", core.ErrNotOwner)
	}

	m, err := market.New(a.state.NextMarketID, question, category, expire, a.now())
	if err != nil {
		return 0, err
	}

	a.state.NextMarketID++
	if err := a.markets.Add(m); err != nil {
		return 0, err
	}
	a.books[m.ID] = book.New()

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetState(&a.state); err != nil {
		return 0, err
	}
	if err := batch.SetMarket(m); err != nil {
		return 0, err
	}
	if err := a.commit(batch); err != nil {
		return 0, err
	}

	a.log.Infow("market_created", "market", m.ID, "question", question, "category", category)
	return m.ID, nil
}

// ResolveMarket irrevocably fixes a market's outcome. Admin only. There is
// no un-resolve.
func (a *App) ResolveMarket(actor common.Address, marketID uint64, outcome market.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if actor != a.cfg.Admin {
		return fmt.Errorf("%w: resolution requires admin", core.ErrNotOwner)
	}
	m, err := a.markets.Get(marketID)
	if err != nil {
		return err
	}
	if err := m.Resolve(outcome); err != nil {
		return err
	}

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetMarket(m); err != nil {
		return err
	}
	if err := a.commit(batch); err != nil {
		return err
	}

	a.log.Infow("market_resolved", "market", marketID, "outcome", outcome.String())
	return nil
}

// Claim converts the caller's winning shares of a resolved market into
// ledger balance at PayoutPerShare each. Both sides of the position are
// zeroed: the losing side is worthless, not merely unpaid. A repeat claim
// finds zero shares and returns payout 0 without error, so retries are
// harmless.
func (a *App) Claim(actor common.Address, marketID uint64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.markets.Get(marketID)
	if err != nil {
		return 0, err
	}
	if !m.Resolved {
		return 0, fmt.Errorf("%w: market %d", core.ErrNotResolved, marketID)
	}
	pos := a.positions.Get(marketID, actor)
	if pos == nil {
		return 0, fmt.Errorf("%w: no position in market %d", core.ErrNotFound, marketID)
	}

	payout, err := core.MulChecked(core.PayoutPerShare, pos.Shares(m.Outcome))
	if err != nil {
		return 0, err
	}
	if payout > 0 {
		if err := a.ledger.Credit(actor, payout); err != nil {
			return 0, err
		}
	}
	pos.Yes = 0
	pos.No = 0

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetPosition(pos); err != nil {
		return 0, err
	}
	if payout > 0 {
		if err := batch.SetBalance(actor, a.ledger.Balance(actor)); err != nil {
			return 0, err
		}
	}
	if err := a.commit(batch); err != nil {
		return 0, err
	}

	a.log.Infow("claimed", "account", actor.Hex(), "market", marketID, "payout", payout)
	return payout, nil
}
