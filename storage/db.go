// Package storage provides SQLite-based persistence of runs, their per-round
// statistics, terminal events, and final populations.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/sim"
	"github.com/pthm-cable/hillclimb/telemetry"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID          string `db:"id"`
	Seed        uint32 `db:"seed"`
	Strategy    string `db:"strategy"`
	WorldSize   int    `db:"world_size"`
	Regions     int    `db:"regions"`
	Starting    int    `db:"starting"`
	MaxLifeSpan int    `db:"max_life_span"`
	ConfigYAML  string `db:"config_yaml"`
	CreatedAt   int64  `db:"created_at"` // unix seconds
	Rounds      int    `db:"rounds"`
	Population  int    `db:"population"`
	Terminated  bool   `db:"terminated"`
	Extinct     bool   `db:"extinct"`
}

type roundRow struct {
	RunID string `db:"run_id"`
	telemetry.RoundStats
}

type terminalRow struct {
	RunID       string `db:"run_id"`
	OrganismID  uint64 `db:"organism_id"`
	X           int    `db:"x"`
	Y           int    `db:"y"`
	RegionIndex int    `db:"region_index"`
	Round       int    `db:"round"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		world_size INTEGER NOT NULL,
		regions INTEGER NOT NULL,
		starting INTEGER NOT NULL,
		max_life_span INTEGER NOT NULL,
		config_yaml TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		rounds INTEGER NOT NULL DEFAULT 0,
		population INTEGER NOT NULL DEFAULT 0,
		terminated INTEGER NOT NULL DEFAULT 0,
		extinct INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS rounds (
		run_id TEXT NOT NULL REFERENCES runs(id),
		round INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		pending_deaths INTEGER NOT NULL,
		population INTEGER NOT NULL,
		occupied_regions INTEGER NOT NULL,
		age_mean REAL NOT NULL,
		age_std REAL NOT NULL,
		age_p50 REAL NOT NULL,
		age_p90 REAL NOT NULL,
		height_mean REAL NOT NULL,
		draws INTEGER NOT NULL,
		PRIMARY KEY (run_id, round)
	);

	CREATE TABLE IF NOT EXISTS terminal_events (
		run_id TEXT PRIMARY KEY REFERENCES runs(id),
		organism_id INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		region_index INTEGER NOT NULL,
		round INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS organisms (
		run_id TEXT NOT NULL REFERENCES runs(id),
		round INTEGER NOT NULL,
		id INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		rounds_lived INTEGER NOT NULL,
		kind TEXT NOT NULL,
		state_json TEXT NOT NULL,
		PRIMARY KEY (run_id, round, id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun inserts a run. An empty ID is replaced by a fresh UUID; the
// stored record is returned.
func (db *DB) CreateRun(ctx context.Context, run RunRecord) (RunRecord, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().Unix()
	}
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO runs
		(id, seed, strategy, world_size, regions, starting, max_life_span,
		 config_yaml, created_at, rounds, population, terminated, extinct)
		VALUES (:id, :seed, :strategy, :world_size, :regions, :starting, :max_life_span,
		 :config_yaml, :created_at, :rounds, :population, :terminated, :extinct)`, run)
	if err != nil {
		return run, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records how a run ended.
func (db *DB) FinishRun(ctx context.Context, runID string, sum sim.Summary) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE runs SET rounds = ?, population = ?, terminated = ?, extinct = ? WHERE id = ?",
		sum.Rounds, sum.Population, sum.Terminal != nil, sum.Extinct, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Run loads one run by ID.
func (db *DB) Run(ctx context.Context, runID string) (RunRecord, error) {
	var run RunRecord
	err := db.conn.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// Runs lists every run, oldest first.
func (db *DB) Runs(ctx context.Context) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.SelectContext(ctx, &runs, "SELECT * FROM runs ORDER BY created_at, id")
	return runs, err
}

// SaveRound appends one round of statistics.
func (db *DB) SaveRound(ctx context.Context, runID string, stats telemetry.RoundStats) error {
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO rounds
		(run_id, round, births, deaths, pending_deaths, population, occupied_regions,
		 age_mean, age_std, age_p50, age_p90, height_mean, draws)
		VALUES (:run_id, :round, :births, :deaths, :pending_deaths, :population, :occupied_regions,
		 :age_mean, :age_std, :age_p50, :age_p90, :height_mean, :draws)`,
		roundRow{RunID: runID, RoundStats: stats})
	if err != nil {
		return fmt.Errorf("insert round %d: %w", stats.Round, err)
	}
	return nil
}

// Rounds returns a run's round statistics in round order.
func (db *DB) Rounds(ctx context.Context, runID string) ([]telemetry.RoundStats, error) {
	var rows []roundRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM rounds WHERE run_id = ? ORDER BY round", runID,
	); err != nil {
		return nil, err
	}
	out := make([]telemetry.RoundStats, len(rows))
	for i, r := range rows {
		out[i] = r.RoundStats
	}
	return out, nil
}

// SaveTerminal records the run's terminal event.
func (db *DB) SaveTerminal(ctx context.Context, runID string, ev sim.TerminalEvent) error {
	_, err := db.conn.NamedExecContext(ctx, `INSERT OR REPLACE INTO terminal_events
		(run_id, organism_id, x, y, region_index, round)
		VALUES (:run_id, :organism_id, :x, :y, :region_index, :round)`,
		terminalRow{
			RunID:       runID,
			OrganismID:  ev.OrganismID,
			X:           ev.Position.X,
			Y:           ev.Position.Y,
			RegionIndex: ev.RegionIndex,
			Round:       ev.Round,
		})
	if err != nil {
		return fmt.Errorf("insert terminal event: %w", err)
	}
	return nil
}

// Terminal loads the run's terminal event, if any.
func (db *DB) Terminal(ctx context.Context, runID string) (sim.TerminalEvent, bool, error) {
	var row terminalRow
	err := db.conn.GetContext(ctx, &row, "SELECT * FROM terminal_events WHERE run_id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.TerminalEvent{}, false, nil
	}
	if err != nil {
		return sim.TerminalEvent{}, false, err
	}
	return sim.TerminalEvent{
		OrganismID:  row.OrganismID,
		Position:    organism.Position{X: row.X, Y: row.Y},
		RegionIndex: row.RegionIndex,
		Round:       row.Round,
	}, true, nil
}

// SaveOrganisms writes the population as of round (full replace for that round).
func (db *DB) SaveOrganisms(ctx context.Context, runID string, round int, orgs []organism.Organism) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM organisms WHERE run_id = ? AND round = ?", runID, round,
	); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO organisms
		(run_id, round, id, x, y, rounds_lived, kind, state_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range telemetry.States(orgs) {
		stateJSON, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal organism %d: %w", st.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, round, st.ID, st.X, st.Y, st.RoundsLived, st.Kind, string(stateJSON),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Organisms loads the population saved for round, in population order.
func (db *DB) Organisms(ctx context.Context, runID string, round int) ([]organism.Organism, error) {
	var blobs []string
	if err := db.conn.SelectContext(ctx, &blobs,
		"SELECT state_json FROM organisms WHERE run_id = ? AND round = ? ORDER BY id",
		runID, round,
	); err != nil {
		return nil, err
	}

	out := make([]organism.Organism, 0, len(blobs))
	for _, b := range blobs {
		var st telemetry.OrganismState
		if err := json.Unmarshal([]byte(b), &st); err != nil {
			return nil, fmt.Errorf("unmarshal organism: %w", err)
		}
		o, err := st.Organism()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
