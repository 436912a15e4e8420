package position

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
)

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestShares(t *testing.T) {
	p := &Position{Market: 1, Owner: alice, Yes: 5, No: 3}
	if p.Shares(market.Yes) != 5 || p.Shares(market.No) != 3 {
		t.Fatalf("shares = %d/%d", p.Shares(market.Yes), p.Shares(market.No))
	}
	p.AddShares(market.Yes, 2)
	p.AddShares(market.No, -1)
	if p.Yes != 7 || p.No != 2 {
		t.Fatalf("after AddShares: %+v", p)
	}
}

func TestGetOrCreate(t *testing.T) {
	s := NewStore()
	if s.Get(1, alice) != nil {
		t.Fatal("fresh store must return nil")
	}
	p := s.GetOrCreate(1, alice)
	if p.Market != 1 || p.Owner != alice || p.Yes != 0 || p.No != 0 {
		t.Fatalf("new row = %+v", p)
	}
	p.Yes = 4
	if got := s.GetOrCreate(1, alice); got != p {
		t.Fatal("GetOrCreate must return the same row")
	}
	if got := s.Get(1, alice); got == nil || got.Yes != 4 {
		t.Fatalf("Get = %+v", got)
	}
}

func TestByOwnerSorted(t *testing.T) {
	s := NewStore()
	s.GetOrCreate(3, alice)
	s.GetOrCreate(1, alice)
	s.GetOrCreate(2, bob)
	s.GetOrCreate(2, alice)

	rows := s.ByOwner(alice)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, want := range []uint64{1, 2, 3} {
		if rows[i].Market != want {
			t.Fatalf("row %d market = %d, want %d", i, rows[i].Market, want)
		}
	}
}

func TestByMarket(t *testing.T) {
	s := NewStore()
	s.GetOrCreate(1, alice)
	s.GetOrCreate(1, bob)
	s.GetOrCreate(2, alice)

	rows := s.ByMarket(1)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, p := range rows {
		if p.Market != 1 {
			t.Fatalf("foreign market row %+v", p)
		}
	}
}
