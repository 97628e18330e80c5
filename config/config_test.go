package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.World.Size != 100 {
		t.Errorf("expected world size 100, got %d", cfg.World.Size)
	}
	if cfg.Derived.RegionsPerSide != 4 {
		t.Errorf("expected 4 regions per side, got %d", cfg.Derived.RegionsPerSide)
	}
	if cfg.Derived.RegionSize != 25 {
		t.Errorf("expected region size 25, got %d", cfg.Derived.RegionSize)
	}
	if cfg.Derived.HalfRegion != 12 {
		t.Errorf("expected half region 12, got %d", cfg.Derived.HalfRegion)
	}
	if cfg.Derived.Center != 50 {
		t.Errorf("expected center 50, got %d", cfg.Derived.Center)
	}
}

func TestUserFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	data := []byte("world:\n  seed: 7\nreproduction:\n  strategy: random\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.World.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.World.Seed)
	}
	if cfg.Reproduction.Strategy != StrategyRandom {
		t.Errorf("expected strategy %q, got %q", StrategyRandom, cfg.Reproduction.Strategy)
	}
	// Untouched keys keep their defaults
	if cfg.World.Size != 100 {
		t.Errorf("expected default world size 100, got %d", cfg.World.Size)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-square regions", func(c *Config) { c.Regions.Count = 8 }},
		{"zero regions", func(c *Config) { c.Regions.Count = 0 }},
		{"indivisible world", func(c *Config) { c.World.Size = 101 }},
		{"probability above one", func(c *Config) { c.Reproduction.MutationProbability = 1.5 }},
		{"negative probability", func(c *Config) { c.Reproduction.MutationProbability = -0.1 }},
		{"unknown strategy", func(c *Config) { c.Reproduction.Strategy = "asexual" }},
		{"zero life span", func(c *Config) { c.Population.MaxLifeSpan = 0 }},
		{"empty sigma range", func(c *Config) { c.Terrain.SigmaMax = c.Terrain.SigmaMin }},
		{"no bumps", func(c *Config) { c.Terrain.BumpCount = 0 }},
		{"flat world", func(c *Config) { c.World.MaxHeight = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.World.Seed = 999
	cfg.Reproduction.Strategy = StrategyProbabilistic

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.World.Seed != 999 || loaded.Reproduction.Strategy != StrategyProbabilistic {
		t.Errorf("round trip lost values: seed=%d strategy=%q", loaded.World.Seed, loaded.Reproduction.Strategy)
	}
}

func TestRegionsPerSide(t *testing.T) {
	for n, want := range map[int]int{1: 1, 4: 2, 16: 4, 100: 10} {
		if got, ok := RegionsPerSide(n); !ok || got != want {
			t.Errorf("RegionsPerSide(%d) = %d, %v, want %d, true", n, got, ok, want)
		}
	}
	for _, n := range []int{0, -1, -16, 15, 99, math.MinInt} {
		if _, ok := RegionsPerSide(n); ok {
			t.Errorf("RegionsPerSide(%d) should report false", n)
		}
	}
}

func TestInitialAgeMax(t *testing.T) {
	cfg := Default()
	cfg.Population.MaxLifeSpan = 7
	want := 6
	if !InitialAgeFullSpan {
		want = 0
	}
	if got := cfg.InitialAgeMax(); got != want {
		t.Errorf("InitialAgeMax() = %d, want %d", got, want)
	}
}
