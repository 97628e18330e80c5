package reproduction

import (
	"testing"

	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/rng"
)

// rampHeights makes height equal to x, independent of y.
type rampHeights struct{}

func (rampHeights) HeightAt(x, _ int) float64 { return float64(x) }

// flatHeights is level everywhere.
type flatHeights struct{}

func (flatHeights) HeightAt(_, _ int) float64 { return 1 }

func TestSelectOrdersByHeight(t *testing.T) {
	src := rng.New(1)
	orgs := []*organism.Organism{
		{ID: 1, RoundsLived: 1, Position: organism.Position{X: 3}},
		{ID: 2, RoundsLived: 1, Position: organism.Position{X: 9}},
		{ID: 3, RoundsLived: 0, Position: organism.Position{X: 50}},
		{ID: 4, RoundsLived: 5, MarkedForDeath: true, Position: organism.Position{X: 7}},
		{ID: 5, RoundsLived: 2, Position: organism.Position{X: 1}},
	}

	got := Select(orgs, rampHeights{}, src, 10)

	want := []uint64{2, 4, 1, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d parents, got %d", len(want), len(got))
	}
	for i, o := range got {
		if o.ID != want[i] {
			t.Errorf("position %d: expected ID %d, got %d", i, want[i], o.ID)
		}
	}
	if src.Draws() != 0 {
		t.Errorf("distinct heights should not draw, got %d draws", src.Draws())
	}
}

func TestSelectQuota(t *testing.T) {
	orgs := []*organism.Organism{
		{ID: 1, RoundsLived: 1, Position: organism.Position{X: 3}},
		{ID: 2, RoundsLived: 1, Position: organism.Position{X: 9}},
		{ID: 3, RoundsLived: 1, Position: organism.Position{X: 6}},
	}

	got := Select(orgs, rampHeights{}, rng.New(1), 2)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("expected IDs [2 3], got %v", ids(got))
	}

	if got := Select(orgs, rampHeights{}, rng.New(1), 0); got != nil {
		t.Errorf("expected nil for zero quota, got %v", ids(got))
	}
}

func TestSelectNoEligible(t *testing.T) {
	orgs := []*organism.Organism{{ID: 1}, {ID: 2}}
	if got := Select(orgs, rampHeights{}, rng.New(1), 5); len(got) != 0 {
		t.Errorf("expected no parents, got %v", ids(got))
	}
}

func TestSelectTiesAreReproducible(t *testing.T) {
	make10 := func() []*organism.Organism {
		orgs := make([]*organism.Organism, 10)
		for i := range orgs {
			orgs[i] = &organism.Organism{ID: uint64(i + 1), RoundsLived: 1}
		}
		return orgs
	}

	a := Select(make10(), flatHeights{}, rng.New(77), 10)
	b := Select(make10(), flatHeights{}, rng.New(77), 10)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("tie order differs at %d: %v vs %v", i, ids(a), ids(b))
		}
	}

	// Every comparison of a 10-element merge sort is a tie and draws once
	src := rng.New(77)
	Select(make10(), flatHeights{}, src, 10)
	if src.Draws() < 9 || src.Draws() > 25 {
		t.Errorf("expected between 9 and 25 tie draws, got %d", src.Draws())
	}

	seen := map[uint64]bool{}
	for _, o := range a {
		seen[o.ID] = true
	}
	if len(seen) != 10 {
		t.Errorf("expected a permutation of 10 organisms, got %v", ids(a))
	}
}

func ids(orgs []*organism.Organism) []uint64 {
	out := make([]uint64, len(orgs))
	for i, o := range orgs {
		out[i] = o.ID
	}
	return out
}
