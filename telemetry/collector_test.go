package telemetry

import (
	"testing"

	"github.com/pthm-cable/hillclimb/config"
)

func TestCollectorRecord(t *testing.T) {
	s := newTestSim(t, config.StrategyRandom)
	c := NewCollector(s)

	res, err := s.RunRound()
	if err != nil {
		t.Fatal(err)
	}
	stats := c.Record(res)

	if stats.Round != 1 || stats.Births != res.Births || stats.Population != s.OrganismCount() {
		t.Errorf("stats do not match round result: %+v vs %+v", stats, res)
	}
	if stats.Draws != s.Draws() {
		t.Errorf("draws = %d, want %d", stats.Draws, s.Draws())
	}
	if stats.OccupiedRegions < 1 {
		t.Errorf("expected at least one occupied region, got %d", stats.OccupiedRegions)
	}
	maxAge := float64(s.Config().Population.MaxLifeSpan)
	if stats.AgeMean < 0 || stats.AgeMean > maxAge || stats.AgeP90 > maxAge {
		t.Errorf("age stats out of range: %+v", stats)
	}
	if stats.HeightMean < 0 || stats.HeightMean > s.Config().World.MaxHeight {
		t.Errorf("height mean out of range: %v", stats.HeightMean)
	}
}

func TestCollectorRegions(t *testing.T) {
	s := newTestSim(t, config.StrategyRandom)
	c := NewCollector(s)

	total := 0
	for i := 0; i < 3; i++ {
		res, err := s.RunRound()
		if err != nil {
			t.Fatal(err)
		}
		c.Record(res)
		total += res.Births
	}

	regs := c.Regions()
	if len(regs) != 9 {
		t.Fatalf("expected 9 regions, got %d", len(regs))
	}

	births, occupants, highest := 0, 0, 0
	for _, r := range regs {
		births += r.Births
		occupants += r.Occupants
		if r.Highest {
			highest++
			if r.Index != s.HighestRegion().Index {
				t.Errorf("region %d flagged highest, want %d", r.Index, s.HighestRegion().Index)
			}
		}
	}
	if births != total {
		t.Errorf("region births sum to %d, want %d", births, total)
	}
	if occupants != s.OrganismCount() {
		t.Errorf("occupants sum to %d, want %d", occupants, s.OrganismCount())
	}
	if highest != 1 {
		t.Errorf("expected exactly one highest region, got %d", highest)
	}

	c.Reset()
	for _, r := range c.Regions() {
		if r.Births != 0 {
			t.Fatalf("region %d births not cleared", r.Index)
		}
	}
}
