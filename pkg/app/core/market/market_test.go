package market

import (
	"errors"
	"testing"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
)

func TestNewValidates(t *testing.T) {
	cases := []struct {
		name     string
		question string
		category string
		wantErr  bool
	}{
		{"ok", "Will it rain tomorrow?", "weather", false},
		{"empty question", "", "weather", true},
		{"empty category", "Will it rain tomorrow?", "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, err := New(7, c.question, c.category, 1700000000, 1690000000)
			if c.wantErr {
				if !errors.Is(err, core.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if m.ID != 7 || m.Resolved || m.Outcome != Unresolved {
				t.Fatalf("unexpected market row: %+v", m)
			}
		})
	}
}

func TestResolveOnce(t *testing.T) {
	m, err := New(0, "q", "c", 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.Resolve(Unresolved); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("resolving to Unresolved: %v", err)
	}
	if err := m.Resolve(Yes); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !m.Resolved || m.Outcome != Yes {
		t.Fatalf("resolved flag and outcome must be set together: %+v", m)
	}
	if err := m.Resolve(No); !errors.Is(err, core.ErrAlreadyResolved) {
		t.Fatalf("second resolve: %v", err)
	}
	if m.Outcome != Yes {
		t.Fatalf("failed resolve changed outcome to %s", m.Outcome)
	}
}

func TestOutcomeHelpers(t *testing.T) {
	if Unresolved.Tradable() || !Yes.Tradable() || !No.Tradable() {
		t.Fatal("tradable outcomes are exactly Yes and No")
	}
	if Yes.Opposite() != No || No.Opposite() != Yes {
		t.Fatal("Opposite must swap Yes and No")
	}
	if Yes.String() != "yes" || No.String() != "no" || Unresolved.String() != "unresolved" {
		t.Fatal("unexpected outcome strings")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, id := range []uint64{2, 0, 1} {
		m, err := New(id, "q", "c", 0, 0)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := r.Add(m); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}
	if r.Count() != 3 {
		t.Fatalf("count = %d, want 3", r.Count())
	}

	list := r.List()
	for i, m := range list {
		if m.ID != uint64(i) {
			t.Fatalf("List not ascending by id: %v", list)
		}
	}

	if _, err := r.Get(99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing market: %v", err)
	}
}
