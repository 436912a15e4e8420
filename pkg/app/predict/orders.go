package predict

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/book"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/storage"
)

// PlaceResult reports what happened to a newly placed order: the fills
// executed immediately and the remainder left resting, if any. OrderID is
// assigned even when the order fills completely and is never persisted.
type PlaceResult struct {
	OrderID uint64      `json:"order_id"`
	Resting int64       `json:"resting_qty"`
	Fills   []book.Fill `json:"fills,omitempty"`
}

// PlaceOrder charges collateral, runs the matching pass, and rests any
// unfilled remainder in the book.
//
// The book is unified per market around the Yes axis, so a request on the
// No outcome has its bid flag inverted before anything else: buying No is
// selling Yes, selling No is buying Yes. After normalization a bid reserves
// price*qty from the ledger; an ask either liquidates owned Yes inventory
// or, when inventory does not cover the full quantity, becomes a short sale
// posting PayoutPerShare*qty and crediting qty No shares. The short branch
// never mixes with inventory within one call.
func (a *App) PlaceOrder(actor common.Address, marketID uint64, outcome market.Outcome, bid bool, price, qty int64) (*PlaceResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if price <= 0 || qty <= 0 {
		return nil, fmt.Errorf("%w: price %d qty %d", core.ErrInvalidArgument, price, qty)
	}
	if !outcome.Tradable() {
		return nil, fmt.Errorf("%w: outcome %s", core.ErrInvalidArgument, outcome)
	}
	m, err := a.markets.Get(marketID)
	if err != nil {
		return nil, err
	}
	if m.Resolved {
		return nil, fmt.Errorf("%w: market %d", core.ErrMarketResolved, marketID)
	}

	// Side normalization onto the Yes axis.
	if outcome == market.No {
		bid = !bid
	}

	// Checked up front so no arithmetic in this call can overflow later.
	notional, err := core.MulChecked(price, qty)
	if err != nil {
		return nil, err
	}
	shortCollateral, err := core.MulChecked(core.PayoutPerShare, qty)
	if err != nil {
		return nil, err
	}

	dirty := newDirtySet()
	short := false
	if bid {
		if err := a.ledger.Debit(actor, notional); err != nil {
			return nil, err
		}
		dirty.balance(actor)
	} else {
		pos := a.positions.GetOrCreate(marketID, actor)
		if pos.Yes >= qty {
			// Liquidating owned inventory; no new collateral.
			pos.Yes -= qty
		} else {
			// Short sale: full synthetic collateral in, opposite
			// outcome's shares out. Economically identical to a
			// fully margined short in a binary market.
			if err := a.ledger.Debit(actor, shortCollateral); err != nil {
				return nil, err
			}
			pos.No += qty
			short = true
			dirty.balance(actor)
		}
		dirty.position(marketID, actor)
	}

	order := &book.Order{
		ID:        a.state.NextOrderID,
		Market:    marketID,
		Owner:     actor,
		Bid:       bid,
		Price:     price,
		Qty:       qty,
		Short:     short,
		CreatedAt: a.now(),
	}
	a.state.NextOrderID++

	b := a.books[marketID]
	fills := b.Match(order)
	a.settle(order, fills, dirty)

	res := &PlaceResult{OrderID: order.ID, Resting: order.Qty, Fills: fills}
	if order.Qty > 0 {
		b.Add(order)
	}

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.SetState(&a.state); err != nil {
		return nil, err
	}
	if order.Qty > 0 {
		if err := batch.SetOrder(order); err != nil {
			return nil, err
		}
	}
	for _, f := range fills {
		maker := b.Get(f.MakerID)
		if maker == nil {
			if err := batch.DeleteOrder(marketID, f.MakerID); err != nil {
				return nil, err
			}
		} else {
			if err := batch.SetOrder(maker); err != nil {
				return nil, err
			}
		}
	}
	if err := dirty.flush(a, batch); err != nil {
		return nil, err
	}
	if err := a.commit(batch); err != nil {
		return nil, err
	}

	a.log.Infow("order_placed",
		"account", actor.Hex(), "market", marketID, "order", order.ID,
		"bid", bid, "price", price, "qty", qty, "short", short,
		"fills", len(fills), "resting", order.Qty,
	)
	return res, nil
}

// settle applies the monetary effects of a matching pass. Every trade
// executes at the maker's price: the bid-side party gains Yes shares, the
// ask-side party is paid notional minus the house fee (0.01%, floored).
// When the taker is the bid and crossed down to a cheaper maker, the
// difference against the collateral it reserved at its own limit price is
// credited straight back; nothing else may absorb that surplus.
//
// All arithmetic here is bounded by collateral already debited, so credit
// failures indicate ledger corruption and panic rather than leaving a call
// half-applied.
func (a *App) settle(taker *book.Order, fills []book.Fill, dirty *dirtySet) {
	for _, f := range fills {
		notional := f.Price * f.Qty
		fee := core.Fee(notional)

		buyer, seller := taker.Owner, f.Maker
		if f.MakerBid {
			buyer, seller = f.Maker, taker.Owner
		}

		pos := a.positions.GetOrCreate(taker.Market, buyer)
		pos.Yes += f.Qty
		dirty.position(taker.Market, buyer)

		if payout := notional - fee; payout > 0 {
			a.mustCredit(seller, payout)
			dirty.balance(seller)
		}
		a.state.FeeBalance += fee

		if taker.Bid && taker.Price > f.Price {
			a.mustCredit(taker.Owner, (taker.Price-f.Price)*f.Qty)
			dirty.balance(taker.Owner)
		}

		a.log.Infow("trade",
			"market", taker.Market, "taker", taker.ID, "maker", f.MakerID,
			"price", f.Price, "qty", f.Qty, "fee", fee,
		)
	}
}

// CancelOrder removes a resting order and refunds exactly the collateral
// reserved at placement for the remaining quantity: a bid gets its reserved
// notional back, an inventory ask gets its Yes shares back, and a short ask
// unwinds its posted collateral against the No shares it was credited — but
// only up to the No shares the owner still holds. Shares already traded
// away leave that part of the short standing, refund skipped.
func (a *App) CancelOrder(actor common.Address, marketID, orderID uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.books[marketID]
	if !ok {
		return fmt.Errorf("%w: market %d", core.ErrNotFound, marketID)
	}
	order := b.Get(orderID)
	if order == nil {
		return fmt.Errorf("%w: order %d", core.ErrNotFound, orderID)
	}
	if order.Owner != actor {
		return fmt.Errorf("%w: order %d", core.ErrNotOwner, orderID)
	}

	dirty := newDirtySet()
	switch {
	case order.Bid:
		refund, err := core.MulChecked(order.Price, order.Qty)
		if err != nil {
			return err
		}
		if err := a.ledger.Credit(actor, refund); err != nil {
			return err
		}
		dirty.balance(actor)
	case !order.Short:
		pos := a.positions.GetOrCreate(marketID, actor)
		pos.Yes += order.Qty
		dirty.position(marketID, actor)
	default:
		pos := a.positions.GetOrCreate(marketID, actor)
		unwind := order.Qty
		if pos.No < unwind {
			unwind = pos.No
		}
		if unwind > 0 {
			pos.No -= unwind
			refund, err := core.MulChecked(core.PayoutPerShare, unwind)
			if err != nil {
				return err
			}
			if err := a.ledger.Credit(actor, refund); err != nil {
				return err
			}
			dirty.balance(actor)
		}
		dirty.position(marketID, actor)
	}
	b.Remove(orderID)

	batch := a.store.NewBatch()
	defer batch.Close()
	if err := batch.DeleteOrder(marketID, orderID); err != nil {
		return err
	}
	if err := dirty.flush(a, batch); err != nil {
		return err
	}
	if err := a.commit(batch); err != nil {
		return err
	}

	a.log.Infow("order_cancelled", "account", actor.Hex(), "market", marketID, "order", orderID)
	return nil
}

// mustCredit is for settlement credits whose amounts are bounded by
// collateral already inside the engine. A failure here means the ledger
// arithmetic is corrupt and the process must not continue.
func (a *App) mustCredit(addr common.Address, amount int64) {
	if err := a.ledger.Credit(addr, amount); err != nil {
		panic(fmt.Sprintf("ledger corruption crediting %s: %v", addr.Hex(), err))
	}
}

// dirtySet records which balance and position rows a call touched so the
// final batch writes each row once.
type dirtySet struct {
	balances map[common.Address]struct{}
	posKeys  []posKey
	posSeen  map[posKey]struct{}
}

type posKey struct {
	market uint64
	owner  common.Address
}

func newDirtySet() *dirtySet {
	return &dirtySet{
		balances: make(map[common.Address]struct{}),
		posSeen:  make(map[posKey]struct{}),
	}
}

func (d *dirtySet) balance(addr common.Address) {
	d.balances[addr] = struct{}{}
}

func (d *dirtySet) position(marketID uint64, owner common.Address) {
	k := posKey{marketID, owner}
	if _, ok := d.posSeen[k]; ok {
		return
	}
	d.posSeen[k] = struct{}{}
	d.posKeys = append(d.posKeys, k)
}

func (d *dirtySet) flush(a *App, batch *storage.Batch) error {
	for addr := range d.balances {
		if err := batch.SetBalance(addr, a.ledger.Balance(addr)); err != nil {
			return err
		}
	}
	for _, k := range d.posKeys {
		if err := batch.SetPosition(a.positions.Get(k.market, k.owner)); err != nil {
			return err
		}
	}
	return nil
}
