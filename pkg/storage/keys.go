package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Pebble key schema. Numeric ids are zero-padded to 20 digits so that
// lexicographic key order equals numeric order: a prefix scan over a
// market's orders visits them in ascending order id, which is exactly the
// matching engine's traversal order.
const (
	prefixState    = "cfg:"
	prefixBalance  = "bal:"
	prefixMarket   = "mkt:"
	prefixOrder    = "ord:"
	prefixPosition = "pos:"
)

// stateKey holds the global counters and house fee balance.
// Format: "cfg:state"
func stateKey() []byte {
	return []byte(prefixState + "state")
}

// balanceKey formats "bal:{address}".
func balanceKey(addr common.Address) []byte {
	return []byte(prefixBalance + addr.Hex())
}

// marketKey formats "mkt:{id:020d}".
func marketKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixMarket, id))
}

// orderKey formats "ord:{market:020d}:{order:020d}".
func orderKey(marketID, orderID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", prefixOrder, marketID, orderID))
}

// orderPrefix covers all of one market's orders.
func orderPrefix(marketID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", prefixOrder, marketID))
}

// positionKey formats "pos:{market:020d}:{address}".
func positionKey(marketID uint64, owner common.Address) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixPosition, marketID, owner.Hex()))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
