// Package rng provides the seeded random source shared by every stochastic
// decision in a simulation run.
//
// Every public draw consumes exactly one 64-bit output of the underlying PCG
// generator, regardless of its arguments. Callers rely on that: two sources
// with the same seed, asked the same sequence of questions, give the same
// answers.
package rng

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidRange is wrapped by every RangeError.
var ErrInvalidRange = errors.New("invalid range")

// RangeError describes a draw requested with impossible bounds.
type RangeError struct {
	Op       string
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("rng: %s: invalid range [%v, %v]", e.Op, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// Source is a deterministic random source. It is not safe for concurrent use.
type Source struct {
	seed  uint32
	pcg   *rand.PCG
	draws uint64
}

// New creates a source seeded with seed.
func New(seed uint32) *Source {
	s := &Source{pcg: rand.NewPCG(0, 0)}
	s.Reseed(seed)
	return s
}

// Reseed resets the source so the following sequence matches New(seed).
func (s *Source) Reseed(seed uint32) {
	s.seed = seed
	s.pcg.Seed(uint64(seed), 0)
	s.draws = 0
}

// Seed returns the seed the source was last (re)seeded with.
func (s *Source) Seed() uint32 { return s.seed }

// Draws returns the number of outputs consumed since the last reseed.
func (s *Source) Draws() uint64 { return s.draws }

// unit returns a float in [0, 1) built from the top 53 bits of one output.
func (s *Source) unit() float64 {
	s.draws++
	return float64(s.pcg.Uint64()>>11) / (1 << 53)
}

// Int returns an integer in [min, max], both inclusive.
// It panics with a *RangeError if min > max.
func (s *Source) Int(min, max int) int {
	if min > max {
		panic(&RangeError{Op: "Int", Min: float64(min), Max: float64(max)})
	}
	u := s.unit()
	if min == max {
		return min
	}
	// The span is computed in uint64; 0 means the full 64-bit range.
	span := uint64(max) - uint64(min) + 1
	width := float64(span)
	if span == 0 {
		width = 1 << 64
	}
	off := uint64(u * width)
	if span != 0 && off >= span {
		off = span - 1
	}
	return int(uint64(min) + off)
}

// Float returns a float in [min, max).
// It panics with a *RangeError if min >= max.
func (s *Source) Float(min, max float64) float64 {
	if min >= max {
		panic(&RangeError{Op: "Float", Min: min, Max: max})
	}
	v := min + s.unit()*(max-min)
	if v >= max {
		v = math.Nextafter(max, min)
	}
	return v
}

// Bool returns true with probability p.
// It panics with a *RangeError if p is outside [0, 1].
func (s *Source) Bool(p float64) bool {
	if p < 0 || p > 1 || p != p {
		panic(&RangeError{Op: "Bool", Min: p, Max: p})
	}
	return s.unit() < p
}

// Chance is a fair coin flip.
func (s *Source) Chance() bool { return s.Bool(0.5) }
