package reproduction

import (
	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/rng"
)

// HeightSource answers terrain height queries.
type HeightSource interface {
	HeightAt(x, y int) float64
}

// Select returns up to quota eligible organisms from candidates, highest
// ground first. candidates keep their population order going in; that order
// and the random source fully determine the result.
//
// Equal heights are ordered by a coin drawn as Float(0,1)-0.5: a non-positive result keeps
// the left element first. Only ties draw. The sort is a top-down merge sort so
// the sequence of comparisons, and therefore of draws, is fixed.
func Select(candidates []*organism.Organism, heights HeightSource, src *rng.Source, quota int) []*organism.Organism {
	if quota <= 0 {
		return nil
	}

	eligible := make([]ranked, 0, len(candidates))
	for _, o := range candidates {
		if o.Eligible() {
			eligible = append(eligible, ranked{o: o, h: heights.HeightAt(o.Position.X, o.Position.Y)})
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sorted := mergeSort(eligible, func(a, b ranked) float64 {
		if d := b.h - a.h; d != 0 {
			return d
		}
		return src.Float(0, 1) - 0.5
	})

	if quota > len(sorted) {
		quota = len(sorted)
	}
	out := make([]*organism.Organism, quota)
	for i := range out {
		out[i] = sorted[i].o
	}
	return out
}

type ranked struct {
	o *organism.Organism
	h float64
}

// mergeSort sorts s by cmp (negative or zero keeps a before b), returning a
// new slice. Left halves are sorted before right halves.
func mergeSort(s []ranked, cmp func(a, b ranked) float64) []ranked {
	if len(s) <= 1 {
		return append([]ranked(nil), s...)
	}
	mid := len(s) / 2
	left := mergeSort(s[:mid], cmp)
	right := mergeSort(s[mid:], cmp)

	out := make([]ranked, 0, len(s))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if cmp(left[i], right[j]) <= 0 {
			out = append(out, left[i])
			i++
		} else {
			out = append(out, right[j])
			j++
		}
	}
	out = append(out, left[i:]...)
	return append(out, right[j:]...)
}
