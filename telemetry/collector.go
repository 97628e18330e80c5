package telemetry

import (
	"github.com/pthm-cable/hillclimb/regions"
	"github.com/pthm-cable/hillclimb/sim"
)

// RegionStats is the per-region summary written to regions.csv.
type RegionStats struct {
	Index            int     `csv:"region"`
	StartX           int     `csv:"start_x"`
	StartY           int     `csv:"start_y"`
	AverageHeight    float64 `csv:"average_height"`
	CarryingCapacity int     `csv:"carrying_capacity"`
	HighestX         int     `csv:"highest_x"`
	HighestY         int     `csv:"highest_y"`
	HighestHeight    float64 `csv:"highest_height"`
	Highest          bool    `csv:"highest"`
	Births           int     `csv:"births"`
	Occupants        int     `csv:"occupants"`
}

// Collector turns round results into RoundStats and accumulates per-region
// birth totals over the run.
type Collector struct {
	sim    *sim.Simulation
	births []int
}

// NewCollector creates a collector reading from s.
func NewCollector(s *sim.Simulation) *Collector {
	return &Collector{
		sim:    s,
		births: make([]int, len(s.Regions())),
	}
}

// Record computes the stats for a finished round.
func (c *Collector) Record(res sim.RoundResult) RoundStats {
	for i, n := range res.RegionBirths {
		if i < len(c.births) {
			c.births[i] += n
		}
	}

	orgs := c.sim.Organisms()
	ages := make([]float64, len(orgs))
	heights := make([]float64, len(orgs))
	for i, o := range orgs {
		ages[i] = float64(o.RoundsLived)
		heights[i] = c.sim.Height(float64(o.Position.X), float64(o.Position.Y))
	}
	mean, std, p50, p90 := Distribution(ages)
	heightMean, _, _, _ := Distribution(heights)

	occupied := 0
	for _, n := range c.occupancy() {
		if n > 0 {
			occupied++
		}
	}

	return RoundStats{
		Round:           res.Round,
		Births:          res.Births,
		Deaths:          res.Deaths,
		PendingDeaths:   res.PendingDeaths,
		Population:      res.Population,
		OccupiedRegions: occupied,
		AgeMean:         mean,
		AgeStd:          std,
		AgeP50:          p50,
		AgeP90:          p90,
		HeightMean:      heightMean,
		Draws:           c.sim.Draws(),
	}
}

// Regions returns the per-region summary as of now.
func (c *Collector) Regions() []RegionStats {
	hi := c.sim.HighestRegion()
	occ := c.occupancy()

	all := c.sim.Regions()
	out := make([]RegionStats, len(all))
	for i, r := range all {
		out[i] = RegionStats{
			Index:            r.Index,
			StartX:           r.Bounds.StartX,
			StartY:           r.Bounds.StartY,
			AverageHeight:    r.AverageHeight,
			CarryingCapacity: r.CarryingCapacity,
			HighestX:         r.HighestPoint.X,
			HighestY:         r.HighestPoint.Y,
			HighestHeight:    r.HighestPoint.Height,
			Highest:          r.Index == hi.Index,
			Births:           c.births[i],
			Occupants:        occ[i],
		}
	}
	return out
}

// Reset clears the accumulated birth totals.
func (c *Collector) Reset() {
	clear(c.births)
}

func (c *Collector) occupancy() []int {
	all := c.sim.Regions()
	occ := make([]int, len(all))
	for _, o := range c.sim.Organisms() {
		if idx := indexOf(all, o.Position.X, o.Position.Y); idx >= 0 {
			occ[idx]++
		}
	}
	return occ
}

func indexOf(all []regions.Region, x, y int) int {
	for _, r := range all {
		if r.Bounds.Contains(x, y) {
			return r.Index
		}
	}
	return -1
}
