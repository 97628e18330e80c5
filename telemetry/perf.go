package telemetry

import (
	"log/slog"
	"time"
)

// PerfCollector tracks round wall-clock durations over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []time.Duration
	writeIndex  int
	sampleCount int
	roundStart  time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of rounds to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 10
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]time.Duration, windowSize),
	}
}

// StartRound begins timing a round.
func (p *PerfCollector) StartRound() {
	p.roundStart = time.Now()
}

// EndRound finishes timing the current round and records the sample.
func (p *PerfCollector) EndRound() {
	p.Observe(time.Since(p.roundStart))
}

// Observe records one round duration.
func (p *PerfCollector) Observe(d time.Duration) {
	p.samples[p.writeIndex] = d
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgRoundDuration time.Duration
	MinRoundDuration time.Duration
	MaxRoundDuration time.Duration
	RoundsPerSecond  float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{}
	}

	var total, minD, maxD time.Duration
	for i := 0; i < p.sampleCount; i++ {
		d := p.samples[i]
		total += d
		if i == 0 || d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}

	avg := total / time.Duration(p.sampleCount)
	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgRoundDuration: avg,
		MinRoundDuration: minD,
		MaxRoundDuration: maxD,
		RoundsPerSecond:  perSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	logger.Info("perf",
		"avg_round_us", s.AvgRoundDuration.Microseconds(),
		"min_round_us", s.MinRoundDuration.Microseconds(),
		"max_round_us", s.MaxRoundDuration.Microseconds(),
		"rounds_per_sec", int(s.RoundsPerSecond),
	)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Round        int     `csv:"round"`
	AvgRoundUS   int64   `csv:"avg_round_us"`
	MinRoundUS   int64   `csv:"min_round_us"`
	MaxRoundUS   int64   `csv:"max_round_us"`
	RoundsPerSec float64 `csv:"rounds_per_sec"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(round int) PerfStatsCSV {
	return PerfStatsCSV{
		Round:        round,
		AvgRoundUS:   s.AvgRoundDuration.Microseconds(),
		MinRoundUS:   s.MinRoundDuration.Microseconds(),
		MaxRoundUS:   s.MaxRoundDuration.Microseconds(),
		RoundsPerSec: s.RoundsPerSecond,
	}
}
