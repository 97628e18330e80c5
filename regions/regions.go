// Package regions partitions the world into equal square cells and caches
// the per-region terrain statistics that drive carrying capacity.
package regions

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/terrain"
)

// SamplesPerAxis is the side of the fixed sample grid taken inside each region.
const SamplesPerAxis = 10

var (
	// ErrRegionCount is returned when the region count is not a positive perfect square.
	ErrRegionCount = errors.New("region count must be a positive perfect square")
	// ErrRegionSize is returned when the world does not split evenly into regions.
	ErrRegionSize = errors.New("world size not divisible by regions per side")
)

// Bounds is a half-open rectangle [StartX, EndX) × [StartY, EndY).
type Bounds struct {
	StartX int `json:"start_x" csv:"start_x"`
	EndX   int `json:"end_x" csv:"end_x"`
	StartY int `json:"start_y" csv:"start_y"`
	EndY   int `json:"end_y" csv:"end_y"`
}

// Contains reports whether (x, y) lies inside b.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.StartX && x < b.EndX && y >= b.StartY && y < b.EndY
}

// Point is a sampled location and its height.
type Point struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Height float64 `json:"height"`
}

// Region is one cell of the partition. Its statistics are fixed at startup.
type Region struct {
	Index            int
	Bounds           Bounds
	AverageHeight    float64
	CarryingCapacity int
	HighestPoint     Point
}

// Partition is the full set of regions, in row-major order.
type Partition struct {
	regions []Region
	perSide int
	size    int
	highest int // index of the region holding the world's highest sampled point
}

// New splits the field into count regions and computes their statistics.
// The capacity budget startingOrganisms is shared in proportion to average height.
func New(field *terrain.HeightField, count, startingOrganisms int) (*Partition, error) {
	side, ok := config.RegionsPerSide(count)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRegionCount, count)
	}
	size := field.Size()
	if size%side != 0 {
		return nil, fmt.Errorf("%w: size %d, %d per side", ErrRegionSize, size, side)
	}

	cell := size / side
	p := &Partition{
		regions: make([]Region, 0, count),
		perSide: side,
		size:    size,
	}

	for ry := 0; ry < side; ry++ {
		for rx := 0; rx < side; rx++ {
			r := Region{
				Index: len(p.regions),
				Bounds: Bounds{
					StartX: rx * cell, EndX: (rx + 1) * cell,
					StartY: ry * cell, EndY: (ry + 1) * cell,
				},
			}
			r.sample(field)
			p.regions = append(p.regions, r)
		}
	}

	p.assignCapacity(startingOrganisms)
	p.findHighest()
	return p, nil
}

// sample takes a SamplesPerAxis² grid inside the bounds, recording the mean
// and the single highest point (first seen wins ties).
func (r *Region) sample(field *terrain.HeightField) {
	w := r.Bounds.EndX - r.Bounds.StartX
	h := r.Bounds.EndY - r.Bounds.StartY

	heights := make([]float64, 0, SamplesPerAxis*SamplesPerAxis)
	r.HighestPoint = Point{Height: math.Inf(-1)}

	for j := 0; j < SamplesPerAxis; j++ {
		y := r.Bounds.StartY + j*h/SamplesPerAxis
		for i := 0; i < SamplesPerAxis; i++ {
			x := r.Bounds.StartX + i*w/SamplesPerAxis
			v := field.HeightAt(x, y)
			heights = append(heights, v)
			if v > r.HighestPoint.Height {
				r.HighestPoint = Point{X: x, Y: y, Height: v}
			}
		}
	}

	r.AverageHeight = stat.Mean(heights, nil)
}

func (p *Partition) assignCapacity(starting int) {
	avgs := make([]float64, len(p.regions))
	for i := range p.regions {
		avgs[i] = p.regions[i].AverageHeight
	}
	total := floats.Sum(avgs)
	if total <= 0 {
		return
	}
	for i := range p.regions {
		p.regions[i].CarryingCapacity = int(math.Floor(float64(starting) * avgs[i] / total))
	}
}

func (p *Partition) findHighest() {
	for i := range p.regions {
		if p.regions[i].HighestPoint.Height > p.regions[p.highest].HighestPoint.Height {
			p.highest = i
		}
	}
}

// RegionAt returns the first region containing (x, y). Coordinates outside
// the world yield false; callers are expected to wrap first.
func (p *Partition) RegionAt(x, y int) (*Region, bool) {
	for i := range p.regions {
		if p.regions[i].Bounds.Contains(x, y) {
			return &p.regions[i], true
		}
	}
	return nil, false
}

// IndexAt is RegionAt returning only the index, or -1.
func (p *Partition) IndexAt(x, y int) int {
	if r, ok := p.RegionAt(x, y); ok {
		return r.Index
	}
	return -1
}

// Region returns the region with index i.
func (p *Partition) Region(i int) *Region { return &p.regions[i] }

// Len returns the number of regions.
func (p *Partition) Len() int { return len(p.regions) }

// PerSide returns the number of regions along each axis.
func (p *Partition) PerSide() int { return p.perSide }

// Highest returns the region containing the world's highest sampled point.
func (p *Partition) Highest() *Region { return &p.regions[p.highest] }

// TotalCapacity sums the carrying capacity of every region.
func (p *Partition) TotalCapacity() int {
	total := 0
	for i := range p.regions {
		total += p.regions[i].CarryingCapacity
	}
	return total
}

// Regions returns a copy of every region.
func (p *Partition) Regions() []Region {
	return append([]Region(nil), p.regions...)
}
