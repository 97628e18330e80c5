// Package reproduction implements the interchangeable breeding strategies and
// the height-ranked parent selection they share.
//
// Every function here draws from the shared random source in a fixed order.
// Reordering or skipping a draw changes every later outcome of the run, so
// the draw order of each strategy is part of its contract and is documented
// next to it.
package reproduction

import (
	"fmt"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/rng"
	"github.com/pthm-cable/hillclimb/terrain"
)

// Context carries the run-wide values a strategy needs.
type Context struct {
	Rand                *rng.Source
	WorldSize           int
	HalfRegion          int     // offset and relative-mutation clamp bound
	MutationProbability float64 // deliberateMutationProbability
}

// NewContext builds a Context from a validated config.
func NewContext(cfg *config.Config, src *rng.Source) *Context {
	return &Context{
		Rand:                src,
		WorldSize:           cfg.World.Size,
		HalfRegion:          cfg.Derived.HalfRegion,
		MutationProbability: cfg.Reproduction.MutationProbability,
	}
}

// Strategy produces offspring from selected parents.
type Strategy interface {
	// Name returns the config name of the strategy.
	Name() string
	// Seed returns the payload of a founder spawned at pos.
	Seed(ctx *Context, pos organism.Position) organism.Payload
	// Reproduce returns the offspring of parents, which are already in
	// selection order. Offspring have RoundsLived 0 and no ID.
	Reproduce(ctx *Context, parents []*organism.Organism) []organism.Organism
}

// ByName returns the strategy registered under name.
func ByName(name string) (Strategy, error) {
	switch name {
	case config.StrategyDirect:
		return DirectOffset{}, nil
	case config.StrategyRandom:
		return RandomOffset{}, nil
	case config.StrategyDominance:
		return Dominance(), nil
	case config.StrategyProbabilistic:
		return Probabilistic(), nil
	}
	return nil, fmt.Errorf("unknown reproduction strategy %q", name)
}

func (c *Context) wrap(v int) int { return terrain.Wrap(v, c.WorldSize) }

func (c *Context) clampOffset(v int) int {
	if v > c.HalfRegion {
		return c.HalfRegion
	}
	if v < -c.HalfRegion {
		return -c.HalfRegion
	}
	return v
}

// child returns a newborn copy of parent's position with the given payload.
func child(pos organism.Position, payload organism.Payload) organism.Organism {
	return organism.Organism{Position: pos, Payload: payload}
}
