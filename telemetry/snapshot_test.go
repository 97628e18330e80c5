package telemetry

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/sim"
)

func newTestSim(t *testing.T, strategy string) *sim.Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.World.Size = 60
	cfg.Regions.Count = 9
	cfg.Population.Starting = 90
	cfg.Reproduction.Strategy = strategy

	s, err := sim.NewWithOptions(cfg, sim.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("NewWithOptions failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return s
}

func TestSnapshotSaveLoad(t *testing.T) {
	for _, strategy := range config.Strategies {
		t.Run(strategy, func(t *testing.T) {
			s := newTestSim(t, strategy)
			for i := 0; i < 3; i++ {
				if _, err := s.RunRound(); err != nil {
					break
				}
			}
			s.CheckTerminal()

			path, err := SaveSnapshot(NewSnapshot(s), t.TempDir())
			if err != nil {
				t.Fatalf("SaveSnapshot failed: %v", err)
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Fatalf("Snapshot file not created at %s", path)
			}

			loaded, err := LoadSnapshot(path)
			if err != nil {
				t.Fatalf("LoadSnapshot failed: %v", err)
			}
			if loaded.Round != s.Round() || loaded.Strategy != strategy || loaded.Seed != s.Config().World.Seed {
				t.Errorf("header mismatch: %+v", loaded)
			}
			if ev, ok := s.Terminal(); ok != (loaded.Terminal != nil) || (ok && *loaded.Terminal != ev) {
				t.Errorf("terminal mismatch: got %+v", loaded.Terminal)
			}

			want := s.Organisms()
			if len(loaded.Organisms) != len(want) {
				t.Fatalf("organism count: got %d, want %d", len(loaded.Organisms), len(want))
			}
			for i, st := range loaded.Organisms {
				o, err := st.Organism()
				if err != nil {
					t.Fatalf("restoring organism %d: %v", i, err)
				}
				if o != want[i] {
					t.Fatalf("organism %d: got %+v, want %+v", i, o, want[i])
				}
			}

			got, orig := loaded.HeightField().Values(), s.HeightField().Values()
			for i := range orig {
				if got[i] != orig[i] {
					t.Fatalf("height %d differs after reload: %v vs %v", i, got[i], orig[i])
				}
			}
		})
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion, Round: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version mismatch error")
	}
}

func TestOrganismStateUnknownKind(t *testing.T) {
	if _, err := (OrganismState{ID: 7, Kind: "teleport"}).Organism(); err == nil {
		t.Error("expected error for unknown kind")
	}
}
