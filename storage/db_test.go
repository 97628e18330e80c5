package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/sim"
	"github.com/pthm-cable/hillclimb/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestOpenSetsPragmas(t *testing.T) {
	db := openTestDB(t)

	var mode string
	require.NoError(t, db.conn.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.conn.Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, 5000, timeout)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	run, err := db.CreateRun(ctx, RunRecord{
		Seed:        12345,
		Strategy:    config.StrategyDominance,
		WorldSize:   100,
		Regions:     16,
		Starting:    100,
		MaxLifeSpan: 10,
		ConfigYAML:  "world:\n  seed: 12345\n",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.NotZero(t, run.CreatedAt)

	ev := sim.TerminalEvent{OrganismID: 9, Position: organism.Position{X: 71, Y: 12}, RegionIndex: 6, Round: 4}
	require.NoError(t, db.FinishRun(ctx, run.ID, sim.Summary{Rounds: 4, Population: 37, Terminal: &ev}))

	loaded, err := db.Run(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(12345), loaded.Seed)
	assert.Equal(t, config.StrategyDominance, loaded.Strategy)
	assert.Equal(t, run.ConfigYAML, loaded.ConfigYAML)
	assert.Equal(t, 4, loaded.Rounds)
	assert.Equal(t, 37, loaded.Population)
	assert.True(t, loaded.Terminated)
	assert.False(t, loaded.Extinct)

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestRunNotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Run(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, db.FinishRun(ctx, "missing", sim.Summary{}), ErrRunNotFound)
}

func TestRoundsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	run, err := db.CreateRun(ctx, RunRecord{ID: "r1", Strategy: config.StrategyRandom})
	require.NoError(t, err)

	for i := 3; i >= 1; i-- {
		stats := telemetry.RoundStats{Round: i, Births: i, Population: 100 + i, AgeMean: 2.5, Draws: uint64(i * 1000)}
		require.NoError(t, db.SaveRound(ctx, run.ID, stats))
	}
	assert.Error(t, db.SaveRound(ctx, run.ID, telemetry.RoundStats{Round: 2}), "duplicate round")

	rounds, err := db.Rounds(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for i, r := range rounds {
		assert.Equal(t, i+1, r.Round)
	}
	assert.Equal(t, 103, rounds[2].Population)
	assert.Equal(t, 2.5, rounds[2].AgeMean)
	assert.Equal(t, uint64(3000), rounds[2].Draws)
}

func TestTerminalRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	run, err := db.CreateRun(ctx, RunRecord{Strategy: config.StrategyDirect})
	require.NoError(t, err)

	_, ok, err := db.Terminal(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ev := sim.TerminalEvent{OrganismID: 1234, Position: organism.Position{X: 5, Y: 95}, RegionIndex: 12, Round: 88}
	require.NoError(t, db.SaveTerminal(ctx, run.ID, ev))

	got, ok, err := db.Terminal(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ev, got)
}

func TestOrganismsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	run, err := db.CreateRun(ctx, RunRecord{Strategy: config.StrategyProbabilistic})
	require.NoError(t, err)

	gene := organism.Gene{DeliberateMutation: true, SizeOfRelativeMutation: -3, AbsolutePosition: 42, DominanceFactor: 9001}
	orgs := []organism.Organism{
		{ID: 2, Position: organism.Position{X: 1, Y: 2}, RoundsLived: 3, Payload: organism.Genetic{
			StrategyName: config.StrategyProbabilistic,
			Set1:         organism.GeneSet{X: gene, Y: gene},
			Set2:         organism.GeneSet{X: gene},
		}},
		{ID: 5, Position: organism.Position{X: 9, Y: 8}, MarkedForDeath: true, Payload: organism.Genetic{
			StrategyName: config.StrategyProbabilistic,
		}},
	}

	require.NoError(t, db.SaveOrganisms(ctx, run.ID, 7, orgs))
	// Saving the same round again replaces it
	require.NoError(t, db.SaveOrganisms(ctx, run.ID, 7, orgs))

	got, err := db.Organisms(ctx, run.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, orgs, got)

	other, err := db.Organisms(ctx, run.ID, 8)
	require.NoError(t, err)
	assert.Empty(t, other)
}
