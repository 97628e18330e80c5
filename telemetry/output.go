package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/sim"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	roundsFile *os.File
	perfFile   *os.File

	// Track if headers have been written
	roundsHeaderWritten bool
	perfHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "rounds.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating rounds.csv: %w", err)
	}
	om.roundsFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.roundsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteRound appends a round record to rounds.csv.
func (om *OutputManager) WriteRound(stats RoundStats) error {
	if om == nil {
		return nil
	}

	records := []RoundStats{stats}

	if !om.roundsHeaderWritten {
		if err := gocsv.Marshal(records, om.roundsFile); err != nil {
			return fmt.Errorf("writing round: %w", err)
		}
		om.roundsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.roundsFile); err != nil {
			return fmt.Errorf("writing round: %w", err)
		}
	}

	return nil
}

// WritePerf appends a timing record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, round int) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(round)}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// WriteRegions writes the region table to regions.csv, replacing any previous one.
func (om *OutputManager) WriteRegions(stats []RegionStats) error {
	if om == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(om.dir, "regions.csv"))
	if err != nil {
		return fmt.Errorf("creating regions.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&stats, f); err != nil {
		return fmt.Errorf("writing regions: %w", err)
	}
	return nil
}

// WriteTerminal saves the terminal event as JSON.
func (om *OutputManager) WriteTerminal(ev sim.TerminalEvent) error {
	if om == nil {
		return nil
	}

	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling terminal event: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "terminal.json"), data, 0644); err != nil {
		return fmt.Errorf("writing terminal.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.roundsFile != nil {
		if err := om.roundsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
