// Package organism defines individuals, their heritable payloads, and the
// ordered population that owns them.
package organism

import (
	"fmt"

	"github.com/pthm-cable/hillclimb/config"
)

// Position is an integer world coordinate, always wrapped into [0, size).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Organism is one live individual.
type Organism struct {
	ID             uint64   `json:"id"`
	Position       Position `json:"position"`
	RoundsLived    int      `json:"rounds_lived"`
	MarkedForDeath bool     `json:"marked_for_death"`
	Payload        Payload  `json:"payload"`
}

// Payload is the strategy-specific heritable state of an organism.
// Implementations are plain values, so copying an Organism copies its payload.
type Payload interface {
	// Kind returns the reproduction strategy name the payload belongs to.
	Kind() string
	sealed()
}

// DirectOffset is the payload of the direct-offset mutation strategy.
// Mutation values are in {-1, 0, 1}; distances are clamped to ±half a region.
type DirectOffset struct {
	MutationX int `json:"mutation_x"`
	MutationY int `json:"mutation_y"`
	DistanceX int `json:"distance_x"`
	DistanceY int `json:"distance_y"`
}

func (DirectOffset) Kind() string { return config.StrategyDirect }
func (DirectOffset) sealed()      {}

// RandomOffset is the empty payload of the random-offset strategy.
type RandomOffset struct{}

func (RandomOffset) Kind() string { return config.StrategyRandom }
func (RandomOffset) sealed()      {}

// MaxDominance is the upper bound of Gene.DominanceFactor.
const MaxDominance = 10000

// Gene controls one axis of offspring placement.
type Gene struct {
	DeliberateMutation     bool `json:"deliberate_mutation"`
	SizeOfRelativeMutation int  `json:"size_of_relative_mutation"` // clamped to ±half a region
	AbsolutePosition       int  `json:"absolute_position"`         // in [0, worldSize)
	DominanceFactor        int  `json:"dominance_factor"`          // in [0, MaxDominance]
}

// GeneSet holds the genes of both axes.
type GeneSet struct {
	X Gene `json:"x"`
	Y Gene `json:"y"`
}

// Genetic is the diploid payload shared by both dominance strategies.
// StrategyName records which of the two produced it.
type Genetic struct {
	StrategyName string  `json:"strategy"`
	Set1         GeneSet `json:"set1"`
	Set2         GeneSet `json:"set2"`
}

func (g Genetic) Kind() string { return g.StrategyName }
func (Genetic) sealed()        {}

// Genes returns pointers to the four genes in mutation order:
// Set1.X, Set1.Y, Set2.X, Set2.Y.
func (g *Genetic) Genes() [4]*Gene {
	return [4]*Gene{&g.Set1.X, &g.Set1.Y, &g.Set2.X, &g.Set2.Y}
}

// Eligible reports whether o may be selected as a parent this round.
// Organisms marked for death are still eligible.
func (o *Organism) Eligible() bool { return o.RoundsLived >= 1 }
