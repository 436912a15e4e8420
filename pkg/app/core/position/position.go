// Package position tracks per-account, per-market share holdings.
// Shares on both sides are non-negative; rows are created on first trade or
// short sale and zeroed, not deleted, on claim so a repeated claim stays a
// no-op instead of an error.
package position

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
)

// Position is one (account, market) holdings row.
type Position struct {
	Market uint64         `json:"market"`
	Owner  common.Address `json:"owner"`
	Yes    int64          `json:"yes_shares"`
	No     int64          `json:"no_shares"`
}

// Shares returns the holding for one outcome.
func (p *Position) Shares(o market.Outcome) int64 {
	if o == market.Yes {
		return p.Yes
	}
	return p.No
}

// AddShares adjusts the holding for one outcome by delta.
func (p *Position) AddShares(o market.Outcome, delta int64) {
	if o == market.Yes {
		p.Yes += delta
	} else {
		p.No += delta
	}
}

type key struct {
	market uint64
	owner  common.Address
}

// Store is the in-memory position table, mutated under the engine's call
// lock only.
type Store struct {
	rows map[key]*Position
}

func NewStore() *Store {
	return &Store{rows: make(map[key]*Position)}
}

// Get returns the row or nil if the account has never traded the market.
func (s *Store) Get(marketID uint64, owner common.Address) *Position {
	return s.rows[key{marketID, owner}]
}

// GetOrCreate returns the row, creating an empty one on first use.
func (s *Store) GetOrCreate(marketID uint64, owner common.Address) *Position {
	k := key{marketID, owner}
	if p, ok := s.rows[k]; ok {
		return p
	}
	p := &Position{Market: marketID, Owner: owner}
	s.rows[k] = p
	return p
}

// Put installs a row directly when rebuilding state from storage.
func (s *Store) Put(p *Position) {
	s.rows[key{p.Market, p.Owner}] = p
}

// ByOwner returns the account's rows across all markets, ascending by
// market id.
func (s *Store) ByOwner(owner common.Address) []*Position {
	var out []*Position
	for k, p := range s.rows {
		if k.owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out
}

// ByMarket returns every row for a market. Ordering is by owner address so
// iteration is deterministic.
func (s *Store) ByMarket(marketID uint64) []*Position {
	var out []*Position
	for k, p := range s.rows {
		if k.market == marketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Owner.Hex() < out[j].Owner.Hex()
	})
	return out
}

// All returns every row in the store.
func (s *Store) All() []*Position {
	out := make([]*Position, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Market != out[j].Market {
			return out[i].Market < out[j].Market
		}
		return out[i].Owner.Hex() < out[j].Owner.Hex()
	})
	return out
}
