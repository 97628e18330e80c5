// Package config provides configuration loading and validation for a simulation run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Reproduction strategy names accepted by reproduction.strategy.
const (
	StrategyDirect        = "direct"        // direct-offset mutation
	StrategyRandom        = "random"        // random offset
	StrategyDominance     = "dominance"     // genetic crossover, strict dominance
	StrategyProbabilistic = "probabilistic" // genetic crossover, probabilistic dominance
)

// InitialAgeFullSpan sets the starting-age policy. When true each founder
// draws its age from [0, max_life_span-1]; when false the draw is Int(0, 0)
// and every founder starts at age 0. Either way one draw is consumed.
const InitialAgeFullSpan = true

// Strategies lists every known strategy name.
var Strategies = []string{StrategyDirect, StrategyRandom, StrategyDominance, StrategyProbabilistic}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all parameters of one simulation run. It is immutable once a
// simulation has been built from it.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Regions      RegionsConfig      `yaml:"regions"`
	Terrain      TerrainConfig      `yaml:"terrain"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world dimensions and the run seed.
type WorldConfig struct {
	Size      int     `yaml:"size"`       // Side length of the square toroidal world
	MaxHeight float64 `yaml:"max_height"` // Upper bound of the height field
	Seed      uint32  `yaml:"seed"`
}

// PopulationConfig holds population parameters.
type PopulationConfig struct {
	Starting    int `yaml:"starting"`      // Size of the initial cohort, also the capacity budget
	MaxLifeSpan int `yaml:"max_life_span"` // Rounds lived at which an organism is marked for death
}

// ReproductionConfig selects the strategy and its mutation rate.
type ReproductionConfig struct {
	Strategy            string  `yaml:"strategy"`
	MutationProbability float64 `yaml:"mutation_probability"` // deliberateMutationProbability
}

// RegionsConfig holds the region partition parameters.
type RegionsConfig struct {
	Count int `yaml:"count"` // Must be a perfect square
}

// TerrainConfig holds the Gaussian bump parameters of the height field.
// Amplitudes are fractions of world.max_height, sigmas fractions of world.size.
type TerrainConfig struct {
	BumpCount    int     `yaml:"bump_count"`
	AmplitudeMin float64 `yaml:"amplitude_min"`
	AmplitudeMax float64 `yaml:"amplitude_max"`
	SigmaMin     float64 `yaml:"sigma_min"`
	SigmaMax     float64 `yaml:"sigma_max"`
}

// TelemetryConfig holds run output parameters.
type TelemetryConfig struct {
	LogEvery int `yaml:"log_every"` // Rounds between summary log lines (0 = never)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	RegionsPerSide int // sqrt(regions.count)
	RegionSize     int // world.size / RegionsPerSide
	HalfRegion     int // floor(RegionSize / 2), the offset clamp bound
	Center         int // world.size / 2, spawn coordinate on both axes
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the run invariants and computes derived values.
// Configurations that would fail mid-run are rejected here.
func (c *Config) Validate() error {
	if c.World.Size <= 0 {
		return fmt.Errorf("%w: world.size must be positive, got %d", ErrInvalidConfig, c.World.Size)
	}
	if !(c.World.MaxHeight > 0) {
		return fmt.Errorf("%w: world.max_height must be positive, got %v", ErrInvalidConfig, c.World.MaxHeight)
	}
	if c.Population.Starting < 0 {
		return fmt.Errorf("%w: population.starting must not be negative, got %d", ErrInvalidConfig, c.Population.Starting)
	}
	if c.Population.MaxLifeSpan < 1 {
		return fmt.Errorf("%w: population.max_life_span must be at least 1, got %d", ErrInvalidConfig, c.Population.MaxLifeSpan)
	}
	p := c.Reproduction.MutationProbability
	if p < 0 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("%w: reproduction.mutation_probability must be in [0,1], got %v", ErrInvalidConfig, p)
	}
	if !knownStrategy(c.Reproduction.Strategy) {
		return fmt.Errorf("%w: unknown reproduction.strategy %q", ErrInvalidConfig, c.Reproduction.Strategy)
	}

	side, ok := RegionsPerSide(c.Regions.Count)
	if !ok {
		return fmt.Errorf("%w: regions.count must be a perfect square, got %d", ErrInvalidConfig, c.Regions.Count)
	}
	if c.World.Size%side != 0 {
		return fmt.Errorf("%w: world.size %d is not divisible by %d regions per side", ErrInvalidConfig, c.World.Size, side)
	}

	t := c.Terrain
	if t.BumpCount < 1 {
		return fmt.Errorf("%w: terrain.bump_count must be at least 1, got %d", ErrInvalidConfig, t.BumpCount)
	}
	if t.AmplitudeMin < 0 || t.AmplitudeMin >= t.AmplitudeMax {
		return fmt.Errorf("%w: terrain amplitude range [%v,%v) is empty", ErrInvalidConfig, t.AmplitudeMin, t.AmplitudeMax)
	}
	if t.SigmaMin <= 0 || t.SigmaMin >= t.SigmaMax {
		return fmt.Errorf("%w: terrain sigma range [%v,%v) is empty", ErrInvalidConfig, t.SigmaMin, t.SigmaMax)
	}

	c.computeDerived(side)
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived(side int) {
	c.Derived.RegionsPerSide = side
	c.Derived.RegionSize = c.World.Size / side
	c.Derived.HalfRegion = c.Derived.RegionSize / 2
	c.Derived.Center = c.World.Size / 2
}

// InitialAgeMax returns the upper bound of a founder's starting age.
func (c *Config) InitialAgeMax() int {
	if !InitialAgeFullSpan {
		return 0
	}
	return c.Population.MaxLifeSpan - 1
}

// Clone returns a copy that can be modified without affecting c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func knownStrategy(name string) bool {
	for _, s := range Strategies {
		if s == name {
			return true
		}
	}
	return false
}

// RegionsPerSide returns the side of a square grid of count regions. It
// reports false unless count is a positive perfect square.
func RegionsPerSide(count int) (int, bool) {
	if count <= 0 {
		return 0, false
	}
	r := int(math.Sqrt(float64(count)))
	for r*r > count {
		r--
	}
	for (r+1)*(r+1) <= count {
		r++
	}
	return r, r*r == count
}
