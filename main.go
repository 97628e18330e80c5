package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/sim"
	"github.com/pthm-cable/hillclimb/storage"
	"github.com/pthm-cable/hillclimb/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", -1, "PRNG seed in [0, 4294967295] (-1 = use config)")
	strategy := flag.String("strategy", "", "Reproduction strategy: direct, random, dominance, probabilistic (empty = use config)")
	maxRounds := flag.Int("rounds", 1000, "Stop after N rounds")
	untilTerminal := flag.Bool("until-terminal", false, "Ignore -rounds and run until the terminal event or extinction")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config, and snapshots")
	dbPath := flag.String("db", "", "SQLite database to record the run in (empty = disabled)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	seedOverride, useSeed, err := parseSeed(*seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -seed: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if useSeed {
		cfg.World.Seed = seedOverride
	}
	if *strategy != "" {
		cfg.Reproduction.Strategy = *strategy
	}

	limit := *maxRounds
	if *untilTerminal {
		limit = 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, runOptions{
		maxRounds: limit,
		outputDir: *outputDir,
		dbPath:    *dbPath,
		logger:    logger,
	}); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// parseSeed checks a -seed value. -1 keeps the configured seed; anything else
// must fit in a uint32.
func parseSeed(v int64) (uint32, bool, error) {
	if v == -1 {
		return 0, false, nil
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, false, fmt.Errorf("%d is outside [0, %d]", v, uint64(math.MaxUint32))
	}
	return uint32(v), true, nil
}

type runOptions struct {
	maxRounds int
	outputDir string
	dbPath    string
	logger    *slog.Logger
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	s, err := sim.NewWithOptions(cfg, sim.Options{Logger: opts.logger})
	if err != nil {
		return fmt.Errorf("building simulation: %w", err)
	}
	cfg = s.Config()
	if err := s.Initialize(); err != nil {
		return err
	}

	om, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	rec, err := openRecorder(ctx, opts.dbPath, cfg)
	if err != nil {
		return err
	}
	defer rec.close()

	hi := s.HighestRegion()
	opts.logger.Info("starting simulation",
		"seed", cfg.World.Seed,
		"strategy", s.StrategyName(),
		"organisms", s.OrganismCount(),
		"highest_region", hi.Index,
		"max_rounds", opts.maxRounds,
	)

	collector := telemetry.NewCollector(s)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.LogEvery)
	// Writes are not cut short by an interrupt; the round in flight completes.
	writeCtx := context.WithoutCancel(ctx)
	var writeErr error
	last := time.Now()

	sum, runErr := s.Run(ctx, opts.maxRounds, func(res sim.RoundResult) {
		perf.Observe(time.Since(last))

		stats := collector.Record(res)
		if err := om.WriteRound(stats); err != nil && writeErr == nil {
			writeErr = err
		}
		if err := rec.saveRound(writeCtx, stats); err != nil && writeErr == nil {
			writeErr = err
		}

		if every := cfg.Telemetry.LogEvery; every > 0 && res.Round%every == 0 {
			stats.LogStats(opts.logger)
			p := perf.Stats()
			p.LogStats(opts.logger)
			if err := om.WritePerf(p, res.Round); err != nil && writeErr == nil {
				writeErr = err
			}
		}
		last = time.Now()
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if writeErr != nil {
		return writeErr
	}

	if err := om.WriteRegions(collector.Regions()); err != nil {
		return err
	}
	if sum.Terminal != nil {
		if err := om.WriteTerminal(*sum.Terminal); err != nil {
			return err
		}
	}
	if om != nil {
		path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(s), om.Dir())
		if err != nil {
			return err
		}
		opts.logger.Info("snapshot saved", "path", path)
	}
	if err := rec.finish(writeCtx, s, sum); err != nil {
		return err
	}

	attrs := []any{
		"rounds", sum.Rounds,
		"population", sum.Population,
		"extinct", sum.Extinct,
		"draws", s.Draws(),
	}
	if sum.Terminal != nil {
		attrs = append(attrs,
			"terminal_round", sum.Terminal.Round,
			"terminal_organism", sum.Terminal.OrganismID,
			"terminal_position", sum.Terminal.Position.String(),
		)
	}
	if runErr != nil {
		attrs = append(attrs, "interrupted", true)
	}
	opts.logger.Info("simulation finished", attrs...)
	return nil
}

// recorder writes a run to the database. A nil recorder does nothing.
type recorder struct {
	db    *storage.DB
	runID string
}

func openRecorder(ctx context.Context, path string, cfg *config.Config) (*recorder, error) {
	if path == "" {
		return nil, nil
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := cfg.YAML()
	if err != nil {
		db.Close()
		return nil, err
	}
	run, err := db.CreateRun(ctx, storage.RunRecord{
		Seed:        cfg.World.Seed,
		Strategy:    cfg.Reproduction.Strategy,
		WorldSize:   cfg.World.Size,
		Regions:     cfg.Regions.Count,
		Starting:    cfg.Population.Starting,
		MaxLifeSpan: cfg.Population.MaxLifeSpan,
		ConfigYAML:  string(data),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("recording run", "db", path, "run_id", run.ID)
	return &recorder{db: db, runID: run.ID}, nil
}

func (r *recorder) saveRound(ctx context.Context, stats telemetry.RoundStats) error {
	if r == nil {
		return nil
	}
	return r.db.SaveRound(ctx, r.runID, stats)
}

func (r *recorder) finish(ctx context.Context, s *sim.Simulation, sum sim.Summary) error {
	if r == nil {
		return nil
	}
	if sum.Terminal != nil {
		if err := r.db.SaveTerminal(ctx, r.runID, *sum.Terminal); err != nil {
			return err
		}
	}
	if err := r.db.SaveOrganisms(ctx, r.runID, s.Round(), s.Organisms()); err != nil {
		return fmt.Errorf("saving organisms: %w", err)
	}
	return r.db.FinishRun(ctx, r.runID, sum)
}

func (r *recorder) close() {
	if r == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}
