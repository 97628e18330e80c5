// Package terrain generates the static height field of the toroidal world.
package terrain

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/rng"
)

// Bump is one Gaussian contribution to the height field.
type Bump struct {
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Sigma     float64 `json:"sigma" yaml:"sigma"`
}

// HeightField is a dense size×size grid of heights in [0, maxHeight].
// It is computed once and never changes afterwards.
type HeightField struct {
	size      int
	maxHeight float64
	bumps     []Bump
	cells     []float64 // row-major, index y*size + x
}

// Generate draws the bump parameters from src and builds the field.
//
// Per bump the draw order is amplitude, center x, center y, sigma.
// The raw sum is min-max normalized onto [0, maxHeight] and then clamped,
// so the lowest cell is always 0 and the highest is always maxHeight
// (unless the raw field is flat, in which case every cell is 0).
func Generate(cfg config.TerrainConfig, size int, maxHeight float64, src *rng.Source) *HeightField {
	bumps := make([]Bump, cfg.BumpCount)
	for i := range bumps {
		amp := src.Float(cfg.AmplitudeMin*maxHeight, cfg.AmplitudeMax*maxHeight)
		x := src.Float(0, float64(size))
		y := src.Float(0, float64(size))
		sigma := src.Float(cfg.SigmaMin*float64(size), cfg.SigmaMax*float64(size))
		bumps[i] = Bump{X: x, Y: y, Amplitude: amp, Sigma: sigma}
	}
	return FromBumps(bumps, size, maxHeight)
}

// FromBumps builds a field from explicit bump parameters. No randomness is
// consumed; Generate uses it after drawing, and snapshots use it to rebuild.
func FromBumps(bumps []Bump, size int, maxHeight float64) *HeightField {
	h := &HeightField{
		size:      size,
		maxHeight: maxHeight,
		bumps:     append([]Bump(nil), bumps...),
		cells:     make([]float64, size*size),
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			h.cells[y*size+x] = h.raw(float64(x), float64(y))
		}
	}
	h.normalize()
	return h
}

// raw sums every bump at (x, y) using toroidal minimum distances.
func (h *HeightField) raw(x, y float64) float64 {
	w := float64(h.size)
	var sum float64
	for _, b := range h.bumps {
		dx := ToroidalDistance(x, b.X, w)
		dy := ToroidalDistance(y, b.Y, w)
		sum += b.Amplitude * math.Exp(-(dx*dx+dy*dy)/(2*b.Sigma*b.Sigma))
	}
	return sum
}

func (h *HeightField) normalize() {
	lo := floats.Min(h.cells)
	hi := floats.Max(h.cells)
	span := hi - lo

	for i, v := range h.cells {
		n := 0.0
		if span > 0 {
			n = (v - lo) / span * h.maxHeight
		}
		h.cells[i] = clamp(n, 0, h.maxHeight)
	}
}

// Height returns the height at (x, y). Non-integer coordinates are floored
// and both axes wrap, so any finite coordinate is valid.
func (h *HeightField) Height(x, y float64) float64 {
	return h.HeightAt(int(math.Floor(x)), int(math.Floor(y)))
}

// HeightAt returns the height at integer coordinates, wrapping both axes.
func (h *HeightField) HeightAt(x, y int) float64 {
	x, y = Wrap(x, h.size), Wrap(y, h.size)
	return h.cells[y*h.size+x]
}

// Size returns the side length of the field.
func (h *HeightField) Size() int { return h.size }

// MaxHeight returns the configured upper bound.
func (h *HeightField) MaxHeight() float64 { return h.maxHeight }

// Bumps returns a copy of the Gaussian parameters the field was built from.
func (h *HeightField) Bumps() []Bump { return append([]Bump(nil), h.bumps...) }

// Values returns a copy of the row-major height grid.
func (h *HeightField) Values() []float64 { return append([]float64(nil), h.cells...) }

// Wrap applies toroidal wrapping to a single coordinate.
func Wrap(v, size int) int {
	return (v%size + size) % size
}

// ToroidalDistance returns the shortest distance between a and b on a ring
// of circumference w.
func ToroidalDistance(a, b, w float64) float64 {
	d := math.Abs(a - b)
	if w-d < d {
		return w - d
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
