package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/sim"
	"github.com/pthm-cable/hillclimb/terrain"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the world and population of a run at a round boundary.
type Snapshot struct {
	Version  int    `json:"version"`
	Seed     uint32 `json:"seed"`
	Strategy string `json:"strategy"`

	WorldSize int            `json:"world_size"`
	MaxHeight float64        `json:"max_height"`
	Bumps     []terrain.Bump `json:"bumps"`

	Round     int                `json:"round"`
	Organisms []OrganismState    `json:"organisms"`
	Terminal  *sim.TerminalEvent `json:"terminal,omitempty"`
}

// OrganismState is the JSON form of one organism. Exactly one of the payload
// fields is set, matching Kind, except for the random strategy which has none.
type OrganismState struct {
	ID             uint64 `json:"id"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
	RoundsLived    int    `json:"rounds_lived"`
	MarkedForDeath bool   `json:"marked_for_death,omitempty"`
	Kind           string `json:"kind"`

	Direct  *organism.DirectOffset `json:"direct,omitempty"`
	Genetic *organism.Genetic      `json:"genetic,omitempty"`
}

// NewSnapshot captures the current state of s.
func NewSnapshot(s *sim.Simulation) *Snapshot {
	cfg := s.Config()
	field := s.HeightField()

	snap := &Snapshot{
		Version:   SnapshotVersion,
		Seed:      cfg.World.Seed,
		Strategy:  s.StrategyName(),
		WorldSize: field.Size(),
		MaxHeight: field.MaxHeight(),
		Bumps:     field.Bumps(),
		Round:     s.Round(),
	}
	if ev, ok := s.Terminal(); ok {
		snap.Terminal = &ev
	}

	snap.Organisms = States(s.Organisms())
	return snap
}

// States converts organisms to their JSON form, keeping order.
func States(orgs []organism.Organism) []OrganismState {
	out := make([]OrganismState, len(orgs))
	for i, o := range orgs {
		out[i] = stateOf(o)
	}
	return out
}

func stateOf(o organism.Organism) OrganismState {
	st := OrganismState{
		ID:             o.ID,
		X:              o.Position.X,
		Y:              o.Position.Y,
		RoundsLived:    o.RoundsLived,
		MarkedForDeath: o.MarkedForDeath,
	}
	if o.Payload == nil {
		return st
	}
	st.Kind = o.Payload.Kind()
	switch p := o.Payload.(type) {
	case organism.DirectOffset:
		st.Direct = &p
	case organism.Genetic:
		st.Genetic = &p
	}
	return st
}

// Organism converts the state back into an organism.
func (st OrganismState) Organism() (organism.Organism, error) {
	o := organism.Organism{
		ID:             st.ID,
		Position:       organism.Position{X: st.X, Y: st.Y},
		RoundsLived:    st.RoundsLived,
		MarkedForDeath: st.MarkedForDeath,
	}
	switch {
	case st.Kind == config.StrategyDirect && st.Direct != nil:
		o.Payload = *st.Direct
	case st.Kind == config.StrategyRandom:
		o.Payload = organism.RandomOffset{}
	case st.Genetic != nil && st.Genetic.StrategyName == st.Kind:
		o.Payload = *st.Genetic
	default:
		return o, fmt.Errorf("organism %d: unknown payload kind %q", st.ID, st.Kind)
	}
	return o, nil
}

// HeightField rebuilds the snapshot's terrain from its bumps.
func (s *Snapshot) HeightField() *terrain.HeightField {
	return terrain.FromBumps(s.Bumps, s.WorldSize, s.MaxHeight)
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Round))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
