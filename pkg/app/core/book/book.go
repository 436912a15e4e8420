// Package book implements the per-market order book. The book is a single
// unified book on the Yes axis: a bid stands to receive Yes shares on fill,
// an ask delivers them. Matching scans resting orders in insertion order
// (ascending order id), NOT price priority, and executes at the resting
// order's price. The scan order is a load-bearing behavioral property of
// the engine; changing it to best-price-first changes matching outcomes.
package book

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Order is one open order. Price and Qty stay strictly positive for the
// order's whole life; the row is removed the moment Qty reaches zero.
type Order struct {
	ID     uint64         `json:"id"`
	Market uint64         `json:"market"`
	Owner  common.Address `json:"owner"`
	Bid    bool           `json:"bid"`   // normalized: true = standing to receive Yes shares
	Price  int64          `json:"price"` // collateral units per share
	Qty    int64          `json:"qty"`   // shares remaining
	// Short marks an ask whose collateral was posted synthetically
	// (PayoutPerShare per share) rather than taken from Yes inventory.
	// Cancellation refunds the two kinds differently.
	Short     bool  `json:"short"`
	CreatedAt int64 `json:"created_at"`
}

// Crosses reports whether a resting order can trade against the taker.
func (o *Order) Crosses(taker *Order) bool {
	if o.Bid == taker.Bid {
		return false
	}
	if taker.Bid {
		return o.Price <= taker.Price
	}
	return o.Price >= taker.Price
}

// Fill is one execution against a resting order, at the maker's price.
type Fill struct {
	MakerID  uint64         `json:"maker_id"`
	Maker    common.Address `json:"maker"`
	MakerBid bool           `json:"maker_bid"`
	Price    int64          `json:"price"`
	Qty      int64          `json:"qty"`
}

// Book holds a market's open orders keyed by id, with ids kept in ascending
// order for the insertion-order scan. Order ids are allocated monotonically
// by the engine, so appending preserves sortedness.
type Book struct {
	orders map[uint64]*Order
	ids    []uint64
}

func New() *Book {
	return &Book{orders: make(map[uint64]*Order)}
}

// Add inserts an order. Ids arrive in increasing order during live
// operation; the sort covers out-of-order inserts when rebuilding from
// storage.
func (b *Book) Add(o *Order) {
	if _, exists := b.orders[o.ID]; exists {
		return
	}
	b.orders[o.ID] = o
	if n := len(b.ids); n > 0 && b.ids[n-1] > o.ID {
		i := sort.Search(n, func(i int) bool { return b.ids[i] > o.ID })
		b.ids = append(b.ids, 0)
		copy(b.ids[i+1:], b.ids[i:])
		b.ids[i] = o.ID
		return
	}
	b.ids = append(b.ids, o.ID)
}

// Get returns the order or nil.
func (b *Book) Get(id uint64) *Order {
	return b.orders[id]
}

// Remove deletes an order, returning it, or nil if absent.
func (b *Book) Remove(id uint64) *Order {
	o, ok := b.orders[id]
	if !ok {
		return nil
	}
	delete(b.orders, id)
	i := sort.Search(len(b.ids), func(i int) bool { return b.ids[i] >= id })
	if i < len(b.ids) && b.ids[i] == id {
		b.ids = append(b.ids[:i], b.ids[i+1:]...)
	}
	return o
}

// Match walks the book from its earliest still-open order and trades the
// taker against the first crossing orders encountered, at each maker's
// price, until the taker is filled or the scan runs out. Maker and taker
// quantities are decremented in place; makers that reach zero are removed.
// The returned fills preserve execution order.
func (b *Book) Match(taker *Order) []Fill {
	var fills []Fill
	var filled []uint64
	for _, id := range b.ids {
		if taker.Qty == 0 {
			break
		}
		maker := b.orders[id]
		if !maker.Crosses(taker) {
			continue
		}
		qty := maker.Qty
		if taker.Qty < qty {
			qty = taker.Qty
		}
		maker.Qty -= qty
		taker.Qty -= qty
		fills = append(fills, Fill{
			MakerID:  maker.ID,
			Maker:    maker.Owner,
			MakerBid: maker.Bid,
			Price:    maker.Price,
			Qty:      qty,
		})
		if maker.Qty == 0 {
			filled = append(filled, id)
		}
	}
	for _, id := range filled {
		b.Remove(id)
	}
	return fills
}

// Orders returns the open orders in insertion order.
func (b *Book) Orders() []*Order {
	out := make([]*Order, 0, len(b.ids))
	for _, id := range b.ids {
		out = append(out, b.orders[id])
	}
	return out
}

func (b *Book) Len() int {
	return len(b.ids)
}
