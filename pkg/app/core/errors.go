// Package core holds the shared vocabulary of the prediction market engine:
// error kinds, fixed-point money arithmetic, and the payout constant.
package core

import "errors"

// Error kinds surfaced by the engine. Every failing entry point wraps one of
// these sentinels, so callers can classify with errors.Is and decide whether
// a resubmit makes sense.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrNotOwner          = errors.New("not owner")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMarketResolved    = errors.New("market resolved")
	ErrNotResolved       = errors.New("market not resolved")
	ErrAlreadyResolved   = errors.New("already resolved")
	ErrInvalidDeposit    = errors.New("invalid deposit")

	// ErrOverflow means the integer money arithmetic left int64 range.
	// It aborts the whole call before any state mutation; balances are
	// never saturated or wrapped.
	ErrOverflow = errors.New("arithmetic overflow")
)
