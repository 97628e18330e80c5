package terrain

import (
	"math"
	"testing"

	"github.com/pthm-cable/hillclimb/config"
	"github.com/pthm-cable/hillclimb/rng"
)

func testField(t *testing.T, seed uint32) *HeightField {
	t.Helper()
	cfg := config.Default()
	return Generate(cfg.Terrain, 60, 100, rng.New(seed))
}

func TestHeightBounds(t *testing.T) {
	h := testField(t, 12345)

	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < h.Size(); y++ {
		for x := 0; x < h.Size(); x++ {
			v := h.HeightAt(x, y)
			if v < 0 || v > h.MaxHeight() {
				t.Fatalf("height at (%d,%d) = %v outside [0,%v]", x, y, v, h.MaxHeight())
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	// Min-max normalization stretches the field over the full range
	if lo != 0 {
		t.Errorf("expected minimum height 0, got %v", lo)
	}
	if math.Abs(hi-h.MaxHeight()) > 1e-9 {
		t.Errorf("expected maximum height %v, got %v", h.MaxHeight(), hi)
	}
}

func TestToroidalWrap(t *testing.T) {
	h := testField(t, 7)
	n := float64(h.Size())

	for y := 0.0; y < n; y += 7 {
		for x := 0.0; x < n; x += 3 {
			base := h.Height(x, y)
			if got := h.Height(x+n, y); got != base {
				t.Fatalf("Height(%v+size,%v) = %v, want %v", x, y, got, base)
			}
			if got := h.Height(x-n, y); got != base {
				t.Fatalf("Height(%v-size,%v) = %v, want %v", x, y, got, base)
			}
			if got := h.Height(x, y-n); got != base {
				t.Fatalf("Height(%v,%v-size) = %v, want %v", x, y, got, base)
			}
		}
	}
}

func TestHeightFloorsCoordinates(t *testing.T) {
	h := testField(t, 3)
	if h.Height(10.9, 4.2) != h.HeightAt(10, 4) {
		t.Error("expected fractional coordinates to floor")
	}
	if h.Height(-0.5, 0) != h.HeightAt(h.Size()-1, 0) {
		t.Error("expected -0.5 to floor to -1 and wrap to size-1")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := testField(t, 42)
	b := testField(t, 42)

	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("cell %d differs: %v vs %v", i, av[i], bv[i])
		}
	}
}

func TestGenerateDrawCount(t *testing.T) {
	cfg := config.Default()
	src := rng.New(1)
	Generate(cfg.Terrain, 40, 50, src)

	want := uint64(cfg.Terrain.BumpCount * 4)
	if src.Draws() != want {
		t.Errorf("expected %d draws, got %d", want, src.Draws())
	}
}

func TestSingleBumpPeaksAtCenter(t *testing.T) {
	h := FromBumps([]Bump{{X: 2, Y: 5, Amplitude: 10, Sigma: 3}}, 40, 100)

	if got := h.HeightAt(2, 5); got != 100 {
		t.Errorf("expected peak of 100 at bump center, got %v", got)
	}
	// (38,5) is 4 away across the seam, (7,5) is 5 away directly
	if h.HeightAt(38, 5) <= h.HeightAt(7, 5) {
		t.Error("expected toroidal distance to make (38,5) higher than (7,5)")
	}
}

func TestFlatFieldIsZero(t *testing.T) {
	h := FromBumps(nil, 10, 50)
	for _, v := range h.Values() {
		if v != 0 {
			t.Fatalf("expected flat field to be 0, got %v", v)
		}
	}
}

func TestToroidalDistance(t *testing.T) {
	tests := []struct {
		a, b, w, want float64
	}{
		{0, 1, 10, 1},
		{0, 9, 10, 1},
		{2, 7, 10, 5},
		{9.5, 0.5, 10, 1},
	}
	for _, tt := range tests {
		if got := ToroidalDistance(tt.a, tt.b, tt.w); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ToroidalDistance(%v,%v,%v) = %v, want %v", tt.a, tt.b, tt.w, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	for _, tt := range []struct{ v, size, want int }{
		{0, 10, 0}, {10, 10, 0}, {-1, 10, 9}, {-21, 10, 9}, {25, 10, 5},
	} {
		if got := Wrap(tt.v, tt.size); got != tt.want {
			t.Errorf("Wrap(%d,%d) = %d, want %d", tt.v, tt.size, got, tt.want)
		}
	}
}
