package main

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hillclimb/config"
)

func TestSweepIsDeterministic(t *testing.T) {
	cfg := config.Default()
	names := []string{config.StrategyRandom, config.StrategyDominance}

	a := sweep(context.Background(), cfg, names, 7, 3, 30, 4)
	b := sweep(context.Background(), cfg, names, 7, 3, 30, 1)

	require.Len(t, a, 6)
	assert.Equal(t, a, b, "worker count must not change results")

	assert.Equal(t, config.StrategyRandom, a[0].Strategy)
	assert.Equal(t, uint32(7), a[0].Seed)
	assert.Equal(t, config.StrategyDominance, a[5].Strategy)
	assert.Equal(t, uint32(9), a[5].Seed)
}

func TestSweepRecordsBadStrategy(t *testing.T) {
	recs := sweep(context.Background(), config.Default(), []string{"teleport"}, 1, 1, 10, 1)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].Error)
}

func TestSummarize(t *testing.T) {
	records := []SweepRecord{
		{Strategy: "a", Reached: true, TerminalRound: 10},
		{Strategy: "a", Reached: true, TerminalRound: 20},
		{Strategy: "a", Extinct: true},
		{Strategy: "b", Reached: true, TerminalRound: 99},
	}

	s := summarize(records, "a")
	assert.Equal(t, 3, s.Runs)
	assert.Equal(t, 2, s.Reached)
	assert.Equal(t, 1, s.Extinct)
	assert.Equal(t, 15.0, s.Mean)
	assert.InDelta(t, math.Sqrt(50), s.Std, 1e-9)

	s = summarize(records, "b")
	assert.Equal(t, 99.0, s.Mean)
	assert.Zero(t, s.Std)
}
