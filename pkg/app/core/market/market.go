// Package market defines binary-outcome markets and their lifecycle.
// A market is created unresolved, trades until an admin resolves it to Yes
// or No, and is never un-resolved: resolution trades flexibility for
// settlement finality.
package market

import (
	"fmt"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
)

// Outcome is the tri-state result of a market.
type Outcome int8

const (
	Unresolved Outcome = iota
	Yes
	No
)

func (o Outcome) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Tradable reports whether the outcome is one a position can be taken on.
func (o Outcome) Tradable() bool {
	return o == Yes || o == No
}

// Opposite returns the other tradable outcome.
func (o Outcome) Opposite() Outcome {
	switch o {
	case Yes:
		return No
	case No:
		return Yes
	default:
		return Unresolved
	}
}

// Market is one binary proposition. IDs are assigned monotonically by the
// engine and never reused.
type Market struct {
	ID        uint64  `json:"id"`
	Question  string  `json:"question"`
	Category  string  `json:"category"`
	Expire    int64   `json:"expire"` // unix seconds
	Resolved  bool    `json:"resolved"`
	Outcome   Outcome `json:"outcome"`
	CreatedAt int64   `json:"created_at"` // unix seconds
}

// New validates and builds an unresolved market row.
func New(id uint64, question, category string, expire, now int64) (*Market, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", core.ErrInvalidArgument)
	}
	if category == "" {
		return nil, fmt.Errorf("%w: empty category", core.ErrInvalidArgument)
	}
	return &Market{
		ID:        id,
		Question:  question,
		Category:  category,
		Expire:    expire,
		Outcome:   Unresolved,
		CreatedAt: now,
	}, nil
}

// Resolve fixes the market's outcome. Resolved and Outcome are set together
// and exactly once; a second resolution fails with ErrAlreadyResolved.
func (m *Market) Resolve(outcome Outcome) error {
	if m.Resolved {
		return fmt.Errorf("%w: market %d resolved %s", core.ErrAlreadyResolved, m.ID, m.Outcome)
	}
	if !outcome.Tradable() {
		return fmt.Errorf("%w: outcome %s", core.ErrInvalidArgument, outcome)
	}
	m.Resolved = true
	m.Outcome = outcome
	return nil
}
