package reproduction

import (
	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/organism"
)

// Placement decides which of two homologous genes expresses its position.
// It returns true when the gene from Set1 wins.
type Placement func(ctx *Context, g1, g2 organism.Gene) bool

// StrictDominance expresses the gene with the higher dominance factor.
// Ties favor Set1. It never draws.
func StrictDominance(_ *Context, g1, g2 organism.Gene) bool {
	return g1.DominanceFactor >= g2.DominanceFactor
}

// ProbabilisticDominance treats dominance as a tendency. It draws
// R = Int(0, MaxDominance) against the mean M of both factors: with equal
// factors R < M picks Set1; otherwise R < M picks the weaker gene and
// anything else the stronger one.
func ProbabilisticDominance(ctx *Context, g1, g2 organism.Gene) bool {
	m := float64(g1.DominanceFactor+g2.DominanceFactor) / 2
	r := float64(ctx.Rand.Int(0, organism.MaxDominance))
	if g1.DominanceFactor == g2.DominanceFactor {
		return r < m
	}
	firstWeaker := g1.DominanceFactor < g2.DominanceFactor
	if r < m {
		return firstWeaker
	}
	return !firstWeaker
}

// Genetic is the diploid crossover strategy. Parents are taken in selection
// order: the one at each odd index mates with its predecessor and yields two
// children; a trailing parent of an odd-length list clones itself; the rest
// yield nothing directly.
//
// Draw order per mating: every gene of the first child, then every gene of
// the second, each in Set1.X, Set1.Y, Set2.X, Set2.Y order (see mutateGene);
// then placement of the first child (X, Y) and of the second.
type Genetic struct {
	name      string
	placement Placement
}

// Dominance is the genetic strategy with strict dominance placement.
func Dominance() Genetic {
	return Genetic{name: config.StrategyDominance, placement: StrictDominance}
}

// Probabilistic is the genetic strategy with probabilistic dominance placement.
func Probabilistic() Genetic {
	return Genetic{name: config.StrategyProbabilistic, placement: ProbabilisticDominance}
}

func (g Genetic) Name() string { return g.name }

// Seed returns founder genes positioned at pos with no pending mutation.
// It draws four dominance factors: Set1.X, Set1.Y, Set2.X, Set2.Y.
func (g Genetic) Seed(ctx *Context, pos organism.Position) organism.Payload {
	p := organism.Genetic{StrategyName: g.Name()}
	for i, gene := range p.Genes() {
		gene.AbsolutePosition = pos.X
		if i%2 == 1 {
			gene.AbsolutePosition = pos.Y
		}
		gene.DominanceFactor = ctx.Rand.Int(0, organism.MaxDominance)
	}
	return p
}

func (g Genetic) Reproduce(ctx *Context, parents []*organism.Organism) []organism.Organism {
	out := make([]organism.Organism, 0, len(parents))
	for i, cur := range parents {
		switch {
		case i%2 == 1:
			out = append(out, g.mate(ctx, genesOf(cur), genesOf(parents[i-1]))...)
		case i == len(parents)-1:
			out = append(out, g.clone(ctx, genesOf(cur)))
		}
	}
	return out
}

// mate crosses a (current) with b (previous) into two children.
func (g Genetic) mate(ctx *Context, a, b organism.Genetic) []organism.Organism {
	first := organism.Genetic{
		StrategyName: g.Name(),
		Set1:         organism.GeneSet{X: a.Set1.X, Y: b.Set2.Y},
		Set2:         organism.GeneSet{X: a.Set2.X, Y: b.Set1.Y},
	}
	second := organism.Genetic{
		StrategyName: g.Name(),
		Set1:         organism.GeneSet{X: b.Set1.X, Y: a.Set2.Y},
		Set2:         organism.GeneSet{X: b.Set2.X, Y: a.Set1.Y},
	}

	mutateAll(ctx, &first)
	mutateAll(ctx, &second)

	return []organism.Organism{
		child(g.place(ctx, first), first),
		child(g.place(ctx, second), second),
	}
}

func (g Genetic) clone(ctx *Context, parent organism.Genetic) organism.Organism {
	kid := parent
	kid.StrategyName = g.Name()
	mutateAll(ctx, &kid)
	return child(g.place(ctx, kid), kid)
}

func (g Genetic) place(ctx *Context, p organism.Genetic) organism.Position {
	x := p.Set2.X.AbsolutePosition
	if g.placement(ctx, p.Set1.X, p.Set2.X) {
		x = p.Set1.X.AbsolutePosition
	}
	y := p.Set2.Y.AbsolutePosition
	if g.placement(ctx, p.Set1.Y, p.Set2.Y) {
		y = p.Set1.Y.AbsolutePosition
	}
	return organism.Position{X: x, Y: y}
}

func mutateAll(ctx *Context, p *organism.Genetic) {
	for _, gene := range p.Genes() {
		mutateGene(ctx, gene)
	}
}

// mutateGene applies one round of mutation:
//  1. Bool(p) flips DeliberateMutation.
//  2. While the flag is set, Int(-1,1) nudges SizeOfRelativeMutation (clamped)
//     and the gene moves by it; if the step is non-zero, Bool(p) may redraw the
//     dominance factor with Int(0, MaxDominance).
func mutateGene(ctx *Context, g *organism.Gene) {
	if ctx.Rand.Bool(ctx.MutationProbability) {
		g.DeliberateMutation = !g.DeliberateMutation
	}
	if !g.DeliberateMutation {
		return
	}

	g.SizeOfRelativeMutation = ctx.clampOffset(g.SizeOfRelativeMutation + ctx.Rand.Int(-1, 1))
	g.AbsolutePosition = ctx.wrap(g.AbsolutePosition + g.SizeOfRelativeMutation)

	if g.SizeOfRelativeMutation != 0 && ctx.Rand.Bool(ctx.MutationProbability) {
		g.DominanceFactor = ctx.Rand.Int(0, organism.MaxDominance)
	}
}

// genesOf returns o's genetic payload. Organisms seeded by another strategy
// carry no genes and are treated as having zero-valued ones.
func genesOf(o *organism.Organism) organism.Genetic {
	g, _ := o.Payload.(organism.Genetic)
	return g
}
