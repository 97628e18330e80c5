// Package sim drives a simulation run: world construction, the starting
// cohort, round advancement, and detection of the terminal event.
package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/regions"
	"github.com/pthm-cable/hillclimb/reproduction"
	"github.com/pthm-cable/hillclimb/rng"
	"github.com/pthm-cable/hillclimb/terrain"
)

var (
	// ErrTerminated is returned by RunRound once the terminal event was recorded.
	ErrTerminated = errors.New("simulation terminated")
	// ErrAlreadyInitialized is returned by Initialize on a run that has started.
	ErrAlreadyInitialized = errors.New("simulation already initialized")
)

// TerminalEvent records the first organism found inside the region holding
// the world's highest sampled point.
type TerminalEvent struct {
	OrganismID  uint64            `json:"organism_id"`
	Position    organism.Position `json:"position"`
	RegionIndex int               `json:"region_index"`
	Round       int               `json:"round"`
}

// Options holds optional simulation settings.
type Options struct {
	Logger *slog.Logger // nil = slog.Default()
}

// Simulation is one deterministic run. It is not safe for concurrent use.
type Simulation struct {
	cfg    *config.Config
	logger *slog.Logger

	rand     *rng.Source
	field    *terrain.HeightField
	regions  *regions.Partition
	strategy reproduction.Strategy
	repro    *reproduction.Context

	pop      *organism.Population
	round    int
	terminal *TerminalEvent
}

// New builds a simulation from cfg with default options.
func New(cfg *config.Config) (*Simulation, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions validates cfg, seeds the random source, and generates the
// height field and region partition. The population starts empty.
func NewWithOptions(cfg *config.Config, opts Options) (*Simulation, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strategy, err := reproduction.ByName(cfg.Reproduction.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Simulation{
		cfg:      cfg,
		logger:   logger,
		rand:     rng.New(cfg.World.Seed),
		strategy: strategy,
		pop:      organism.NewPopulation(),
	}
	if err := s.buildWorld(); err != nil {
		return nil, err
	}
	return s, nil
}

// buildWorld draws the height field from a freshly seeded source and
// partitions it. It is the first consumer of the random source.
func (s *Simulation) buildWorld() error {
	s.rand.Reseed(s.cfg.World.Seed)
	s.field = terrain.Generate(s.cfg.Terrain, s.cfg.World.Size, s.cfg.World.MaxHeight, s.rand)

	part, err := regions.New(s.field, s.cfg.Regions.Count, s.cfg.Population.Starting)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	s.regions = part
	s.repro = reproduction.NewContext(s.cfg, s.rand)

	hi := part.Highest()
	s.logger.Debug("world generated",
		"seed", s.cfg.World.Seed,
		"size", s.cfg.World.Size,
		"regions", part.Len(),
		"total_capacity", part.TotalCapacity(),
		"highest_region", hi.Index,
		"highest_point", fmt.Sprintf("(%d,%d)", hi.HighestPoint.X, hi.HighestPoint.Y),
	)
	return nil
}

// Initialize spawns the starting cohort at the world center. Per organism it
// draws the age, Int(0, cfg.InitialAgeMax()), and then the strategy's founder
// payload.
func (s *Simulation) Initialize() error {
	if s.round != 0 || s.pop.Len() != 0 {
		return ErrAlreadyInitialized
	}
	c := s.cfg.Derived.Center
	for i := 0; i < s.cfg.Population.Starting; i++ {
		age := s.rand.Int(0, s.cfg.InitialAgeMax())
		s.Spawn(organism.Position{X: c, Y: c}, age)
	}
	s.logger.Debug("population initialized", "organisms", s.pop.Len(), "strategy", s.strategy.Name())
	return nil
}

// Spawn adds one founder at pos (wrapped) with the given age, drawing its
// payload from the active strategy, and returns a copy of it. A negative age
// is clamped to 0.
func (s *Simulation) Spawn(pos organism.Position, roundsLived int) organism.Organism {
	roundsLived = max(roundsLived, 0)
	pos.X = terrain.Wrap(pos.X, s.cfg.World.Size)
	pos.Y = terrain.Wrap(pos.Y, s.cfg.World.Size)
	o := s.pop.Add(organism.Organism{
		Position:    pos,
		RoundsLived: roundsLived,
		Payload:     s.strategy.Seed(s.repro, pos),
	})
	return *o
}

// MarkForDeath marks the organism with the given ID for removal at the end of
// the next round. It reports whether the organism exists.
func (s *Simulation) MarkForDeath(id uint64) bool { return s.pop.MarkForDeath(id) }

// Reset returns the run to round 0 with no organisms. The random source is
// reseeded and the world redrawn, so a reset run replays a fresh one exactly.
func (s *Simulation) Reset() error {
	s.pop.Reset()
	s.round = 0
	s.terminal = nil
	return s.buildWorld()
}

// Round returns the number of completed rounds.
func (s *Simulation) Round() int { return s.round }

// OrganismCount returns the number of live organisms.
func (s *Simulation) OrganismCount() int { return s.pop.Len() }

// Organisms returns a copy of every live organism, in population order.
func (s *Simulation) Organisms() []organism.Organism { return s.pop.Snapshot() }

// Height returns the terrain height at (x, y), wrapping both axes.
func (s *Simulation) Height(x, y float64) float64 { return s.field.Height(x, y) }

// HeightField returns the run's height field. It is never modified.
func (s *Simulation) HeightField() *terrain.HeightField { return s.field }

// Regions returns a copy of every region with its statistics.
func (s *Simulation) Regions() []regions.Region { return s.regions.Regions() }

// HighestRegion returns the region containing the world's highest sampled point.
func (s *Simulation) HighestRegion() regions.Region { return *s.regions.Highest() }

// Terminal returns the terminal event, if one was recorded.
func (s *Simulation) Terminal() (TerminalEvent, bool) {
	if s.terminal == nil {
		return TerminalEvent{}, false
	}
	return *s.terminal, true
}

// Config returns a copy of the run configuration.
func (s *Simulation) Config() *config.Config { return s.cfg.Clone() }

// StrategyName returns the active reproduction strategy.
func (s *Simulation) StrategyName() string { return s.strategy.Name() }

// Draws returns how many random outputs the run has consumed.
func (s *Simulation) Draws() uint64 { return s.rand.Draws() }
