package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/sim"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxRounds  int
	seeds      []uint32
	baseConfig *config.Config
	logger     *slog.Logger

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestTerminal *sim.TerminalEvent
	lastReached  float64 // fraction of seeds reaching the terminal event in the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxRounds int, seeds []uint32, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxRounds:   maxRounds,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestTerminal returns a terminal event from the best evaluation, if any seed reached one.
func (fe *FitnessEvaluator) BestTerminal() *sim.TerminalEvent {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestTerminal
}

// LastReached returns the fraction of seeds that reached the terminal event
// in the most recent evaluation.
func (fe *FitnessEvaluator) LastReached() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastReached
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	rounds   float64
	terminal *sim.TerminalEvent
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the mean number of rounds to the terminal event; seeds that
// never reach it count as twice the round cap.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel; every simulation owns its state.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint32) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	rounds := make([]float64, len(results))
	reached := 0
	var bestSeed *sim.TerminalEvent
	bestRounds := math.Inf(1)
	for i, r := range results {
		rounds[i] = r.rounds
		if r.terminal != nil {
			reached++
			if r.rounds < bestRounds {
				bestRounds = r.rounds
				bestSeed = r.terminal
			}
		}
	}
	fitness := stat.Mean(rounds, nil)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestTerminal = bestSeed
	}
	fe.lastReached = float64(reached) / float64(len(results))
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run with the given seed.
func (fe *FitnessEvaluator) runSimulation(base *config.Config, seed uint32) seedResult {
	cfg := base.Clone()
	cfg.World.Seed = seed

	sum, err := sim.Trial(context.Background(), cfg, fe.maxRounds, sim.Options{Logger: fe.logger})
	if err != nil || sum.Terminal == nil {
		return seedResult{rounds: float64(2 * fe.maxRounds)}
	}
	return seedResult{rounds: float64(sum.Terminal.Round), terminal: sum.Terminal}
}
