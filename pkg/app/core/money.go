package core

import "math"

// All monetary values are int64 in 4-decimal fixed point: 10000 = 1.0000 of
// the collateral currency. Prices are collateral units per share, quantities
// are whole shares.

// PayoutPerShare is the amount each winning share redeems for at claim time:
// exactly 1.0000 collateral. It is also the synthetic collateral a short
// seller posts per share.
const PayoutPerShare int64 = 10000

// feeDivisor makes the house fee 0.01% of traded notional, floored.
const feeDivisor int64 = 10000

// Fee returns the house cut of a trade's notional, rounded down.
func Fee(notional int64) int64 {
	return notional / feeDivisor
}

// MulChecked multiplies two non-negative amounts, failing with ErrOverflow
// instead of wrapping.
func MulChecked(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidArgument
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// AddChecked adds two non-negative amounts, failing with ErrOverflow
// instead of wrapping.
func AddChecked(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidArgument
	}
	if a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}
