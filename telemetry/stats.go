// Package telemetry provides per-round statistics, CSV/JSON run output, and
// snapshots.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RoundStats holds aggregated statistics for one round.
type RoundStats struct {
	Round int `csv:"round" db:"round"`

	// Events during the round
	Births        int `csv:"births" db:"births"`
	Deaths        int `csv:"deaths" db:"deaths"`
	PendingDeaths int `csv:"pending_deaths" db:"pending_deaths"`

	// Population at round end
	Population      int `csv:"population" db:"population"`
	OccupiedRegions int `csv:"occupied_regions" db:"occupied_regions"`

	// Age distribution (rounds lived)
	AgeMean float64 `csv:"age_mean" db:"age_mean"`
	AgeStd  float64 `csv:"age_std" db:"age_std"`
	AgeP50  float64 `csv:"age_p50" db:"age_p50"`
	AgeP90  float64 `csv:"age_p90" db:"age_p90"`

	// Mean height under the living population
	HeightMean float64 `csv:"height_mean" db:"height_mean"`

	// Cumulative random draws consumed by the run
	Draws uint64 `csv:"draws" db:"draws"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution returns the population mean and standard deviation together
// with the median and 90th percentile of values.
func Distribution(values []float64) (mean, std, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s RoundStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("round", s.Round),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("population", s.Population),
		slog.Int("occupied_regions", s.OccupiedRegions),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("age_p90", s.AgeP90),
		slog.Float64("height_mean", s.HeightMean),
		slog.Uint64("draws", s.Draws),
	)
}

// LogStats logs the round stats using slog.
func (s RoundStats) LogStats(logger *slog.Logger) {
	logger.Info("stats",
		"round", s.Round,
		"births", s.Births,
		"deaths", s.Deaths,
		"pending_deaths", s.PendingDeaths,
		"population", s.Population,
		"occupied_regions", s.OccupiedRegions,
		"age_mean", s.AgeMean,
		"age_std", s.AgeStd,
		"age_p50", s.AgeP50,
		"age_p90", s.AgeP90,
		"height_mean", s.HeightMean,
		"draws", s.Draws,
	)
}
