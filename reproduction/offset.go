package reproduction

import (
	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/organism"
)

// RandomSpread is the maximum per-axis displacement of a random-offset child.
const RandomSpread = 5

// DirectOffset breeds one child per parent. The child drifts along each axis
// where the parent carries a non-zero mutation, by the parent's accumulated
// distance.
//
// Draw order per parent: for X then Y, Bool(p) to trigger a mutation and, if
// it fired on a zero value, Chance() for the sign.
type DirectOffset struct{}

func (DirectOffset) Name() string { return config.StrategyDirect }

// Seed returns a zero payload; founders do not draw.
func (DirectOffset) Seed(*Context, organism.Position) organism.Payload {
	return organism.DirectOffset{}
}

func (s DirectOffset) Reproduce(ctx *Context, parents []*organism.Organism) []organism.Organism {
	out := make([]organism.Organism, 0, len(parents))
	for _, p := range parents {
		out = append(out, s.breed(ctx, p))
	}
	return out
}

func (DirectOffset) breed(ctx *Context, parent *organism.Organism) organism.Organism {
	pp, _ := parent.Payload.(organism.DirectOffset)

	kid := pp
	kid.MutationX = mutateDirection(ctx, pp.MutationX)
	kid.MutationY = mutateDirection(ctx, pp.MutationY)

	// Distances accumulate the parent's pre-mutation direction
	kid.DistanceX = ctx.clampOffset(pp.DistanceX + pp.MutationX)
	kid.DistanceY = ctx.clampOffset(pp.DistanceY + pp.MutationY)

	var dx, dy int
	if pp.MutationX != 0 {
		dx = pp.DistanceX
	}
	if pp.MutationY != 0 {
		dy = pp.DistanceY
	}
	pos := organism.Position{
		X: ctx.wrap(parent.Position.X + dx),
		Y: ctx.wrap(parent.Position.Y + dy),
	}
	return child(pos, kid)
}

// mutateDirection flips v with the mutation probability: ±1 becomes 0 and
// 0 becomes +1 or -1 with equal chance.
func mutateDirection(ctx *Context, v int) int {
	if !ctx.Rand.Bool(ctx.MutationProbability) {
		return v
	}
	if v != 0 {
		return 0
	}
	if ctx.Rand.Chance() {
		return 1
	}
	return -1
}

// RandomOffset breeds one child per parent, displaced by a uniform draw of
// Int(-RandomSpread, RandomSpread) on X and then on Y.
type RandomOffset struct{}

func (RandomOffset) Name() string { return config.StrategyRandom }

func (RandomOffset) Seed(*Context, organism.Position) organism.Payload {
	return organism.RandomOffset{}
}

func (RandomOffset) Reproduce(ctx *Context, parents []*organism.Organism) []organism.Organism {
	out := make([]organism.Organism, 0, len(parents))
	for _, p := range parents {
		dx := ctx.Rand.Int(-RandomSpread, RandomSpread)
		dy := ctx.Rand.Int(-RandomSpread, RandomSpread)
		pos := organism.Position{
			X: ctx.wrap(p.Position.X + dx),
			Y: ctx.wrap(p.Position.Y + dy),
		}
		out = append(out, child(pos, organism.RandomOffset{}))
	}
	return out
}
