// Package storage persists the engine's durable state in Pebble: the
// global counter/fee row, ledger balances, markets, open orders, and
// positions. Every mutating entry point of the engine flushes its dirty
// rows through a single Batch so a call commits all of its writes or none.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/book"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/position"
)

// EngineState is the single persisted configuration row: the monotonic id
// counters (never reused for the engine's lifetime) and the accrued house
// fee balance.
type EngineState struct {
	NextMarketID uint64 `json:"next_market_id"`
	NextOrderID  uint64 `json:"next_order_id"`
	FeeBalance   int64  `json:"fee_balance"`
}

// Store wraps a Pebble database. All access is serialized by the engine's
// call lock.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:                 pebble.NewCache(64 << 20),
		MemTableSize:          32 << 20,
		L0CompactionThreshold: 2,
		MaxOpenFiles:          1000,
		BytesPerSync:          512 << 10,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble db at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadState returns the persisted engine state, or nil on first boot.
func (s *Store) LoadState() (*EngineState, error) {
	var st EngineState
	found, err := s.get(stateKey(), &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

// LoadBalances reads every ledger balance row.
func (s *Store) LoadBalances() (map[common.Address]int64, error) {
	out := make(map[common.Address]int64)
	err := s.scan([]byte(prefixBalance), func(key, value []byte) error {
		addrHex := string(key[len(prefixBalance):])
		if !common.IsHexAddress(addrHex) {
			return fmt.Errorf("bad balance key %q", key)
		}
		var bal int64
		if err := json.Unmarshal(value, &bal); err != nil {
			return fmt.Errorf("decode balance %q: %w", key, err)
		}
		out[common.HexToAddress(addrHex)] = bal
		return nil
	})
	return out, err
}

// LoadMarkets reads every market row, ascending by id.
func (s *Store) LoadMarkets() ([]*market.Market, error) {
	var out []*market.Market
	err := s.scan([]byte(prefixMarket), func(key, value []byte) error {
		var m market.Market
		if err := json.Unmarshal(value, &m); err != nil {
			return fmt.Errorf("decode market %q: %w", key, err)
		}
		out = append(out, &m)
		return nil
	})
	return out, err
}

// LoadOrders reads one market's open orders in ascending order id: the
// book's insertion order falls straight out of the key schema.
func (s *Store) LoadOrders(marketID uint64) ([]*book.Order, error) {
	var out []*book.Order
	err := s.scan(orderPrefix(marketID), func(key, value []byte) error {
		var o book.Order
		if err := json.Unmarshal(value, &o); err != nil {
			return fmt.Errorf("decode order %q: %w", key, err)
		}
		out = append(out, &o)
		return nil
	})
	return out, err
}

// LoadPositions reads every position row across all markets.
func (s *Store) LoadPositions() ([]*position.Position, error) {
	var out []*position.Position
	err := s.scan([]byte(prefixPosition), func(key, value []byte) error {
		var p position.Position
		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("decode position %q: %w", key, err)
		}
		out = append(out, &p)
		return nil
	})
	return out, err
}

func (s *Store) get(key []byte, v any) (bool, error) {
	data, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) scan(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("iterator for %q: %w", prefix, err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Batch accumulates one call's row writes and deletes for an atomic,
// synced commit.
type Batch struct {
	batch *pebble.Batch
}

func (s *Store) NewBatch() *Batch {
	return &Batch{batch: s.db.NewBatch()}
}

func (b *Batch) set(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return b.batch.Set(key, data, nil)
}

func (b *Batch) SetState(st *EngineState) error {
	return b.set(stateKey(), st)
}

func (b *Batch) SetBalance(addr common.Address, balance int64) error {
	return b.set(balanceKey(addr), balance)
}

func (b *Batch) SetMarket(m *market.Market) error {
	return b.set(marketKey(m.ID), m)
}

func (b *Batch) SetOrder(o *book.Order) error {
	return b.set(orderKey(o.Market, o.ID), o)
}

func (b *Batch) DeleteOrder(marketID, orderID uint64) error {
	return b.batch.Delete(orderKey(marketID, orderID), nil)
}

func (b *Batch) SetPosition(p *position.Position) error {
	return b.set(positionKey(p.Market, p.Owner), p)
}

// Commit flushes the batch with fsync. A call's mutations become durable
// all at once here.
func (b *Batch) Commit() error {
	return b.batch.Commit(pebble.Sync)
}

// Close discards the batch without committing.
func (b *Batch) Close() error {
	return b.batch.Close()
}
