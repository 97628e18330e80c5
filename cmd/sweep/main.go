// Package main runs every reproduction strategy over a range of seeds and
// reports how quickly each reaches the highest region.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/sim"
)

// SweepRecord is one row of sweep.csv.
type SweepRecord struct {
	Strategy      string `csv:"strategy"`
	Seed          uint32 `csv:"seed"`
	Rounds        int    `csv:"rounds"`
	Reached       bool   `csv:"reached"`
	TerminalRound int    `csv:"terminal_round"`
	Extinct       bool   `csv:"extinct"`
	Population    int    `csv:"population"`
	Error         string `csv:"error"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 20, "Number of seeds per strategy")
	firstSeed := flag.Uint("first-seed", 1, "First seed; the rest follow consecutively")
	strategies := flag.String("strategies", strings.Join(config.Strategies, ","), "Comma-separated strategies to sweep")
	maxRounds := flag.Int("max-rounds", 1000, "Round cap per run")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent runs")
	outputDir := flag.String("output", ".", "Directory for sweep.csv")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *firstSeed > math.MaxUint32 {
		slog.Error("invalid -first-seed", "value", *firstSeed, "max", uint64(math.MaxUint32))
		os.Exit(2)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	names := strings.Split(*strategies, ",")
	records := sweep(ctx, baseCfg, names, uint32(*firstSeed), *seeds, *maxRounds, *workers)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("creating output directory", "error", err)
		os.Exit(1)
	}
	path := filepath.Join(*outputDir, "sweep.csv")
	f, err := os.Create(path)
	if err != nil {
		slog.Error("creating sweep.csv", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&records, f); err != nil {
		slog.Error("writing sweep.csv", "error", err)
		os.Exit(1)
	}

	for _, name := range names {
		s := summarize(records, name)
		slog.Info("strategy summary",
			"strategy", name,
			"runs", s.Runs,
			"reached", s.Reached,
			"extinct", s.Extinct,
			"mean_rounds", s.Mean,
			"std_rounds", s.Std,
		)
	}
	slog.Info("sweep written", "path", path, "runs", len(records))
}

// sweep runs every strategy × seed combination on a bounded worker pool.
// Records come back in strategy-then-seed order regardless of scheduling.
func sweep(ctx context.Context, base *config.Config, names []string, first uint32, seeds, maxRounds, workers int) []SweepRecord {
	if workers < 1 {
		workers = 1
	}
	quiet := sim.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	records := make([]SweepRecord, len(names)*seeds)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, name := range names {
		for j := 0; j < seeds; j++ {
			idx := i*seeds + j
			cfg := base.Clone()
			cfg.Reproduction.Strategy = name
			cfg.World.Seed = first + uint32(j)

			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				rec := SweepRecord{Strategy: name, Seed: cfg.World.Seed}
				sum, err := sim.Trial(ctx, cfg, maxRounds, quiet)
				if err != nil {
					rec.Error = err.Error()
				}
				rec.Rounds = sum.Rounds
				rec.Extinct = sum.Extinct
				rec.Population = sum.Population
				if sum.Terminal != nil {
					rec.Reached = true
					rec.TerminalRound = sum.Terminal.Round
				}
				records[idx] = rec
			}()
		}
	}
	wg.Wait()
	return records
}

// strategySummary aggregates the runs of one strategy.
type strategySummary struct {
	Runs    int
	Reached int
	Extinct int
	Mean    float64 // mean terminal round over runs that reached it
	Std     float64
}

func summarize(records []SweepRecord, name string) strategySummary {
	var s strategySummary
	var rounds []float64
	for _, r := range records {
		if r.Strategy != name {
			continue
		}
		s.Runs++
		if r.Extinct {
			s.Extinct++
		}
		if r.Reached {
			s.Reached++
			rounds = append(rounds, float64(r.TerminalRound))
		}
	}
	switch len(rounds) {
	case 0:
	case 1:
		s.Mean = rounds[0]
	default:
		s.Mean, s.Std = stat.MeanStdDev(rounds, nil)
	}
	return s
}
