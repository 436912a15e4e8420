package market

import (
	"fmt"
	"sort"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
)

// Registry indexes markets by id. Like the rest of the engine state it is
// mutated only under the engine's call lock.
type Registry struct {
	markets map[uint64]*Market
}

func NewRegistry() *Registry {
	return &Registry{markets: make(map[uint64]*Market)}
}

// Add registers a market. Ids are allocated monotonically by the engine, so
// a duplicate means a counter bug rather than caller error.
func (r *Registry) Add(m *Market) error {
	if m == nil {
		return fmt.Errorf("%w: nil market", core.ErrInvalidArgument)
	}
	if _, exists := r.markets[m.ID]; exists {
		return fmt.Errorf("market %d already registered", m.ID)
	}
	r.markets[m.ID] = m
	return nil
}

// Get returns the market or ErrNotFound.
func (r *Registry) Get(id uint64) (*Market, error) {
	m, ok := r.markets[id]
	if !ok {
		return nil, fmt.Errorf("%w: market %d", core.ErrNotFound, id)
	}
	return m, nil
}

// List returns all markets in ascending id order.
func (r *Registry) List() []*Market {
	out := make([]*Market, 0, len(r.markets))
	for _, m := range r.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Count() int {
	return len(r.markets)
}
