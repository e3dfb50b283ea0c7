package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireGridNearlyEqual fails t if the grids differ in shape or if any
// sample pair exceeds eps.
func RequireGridNearlyEqual(t *testing.T, got, want core.Grid, eps float64) {
	t.Helper()
	if !got.SameShape(want) {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", got.Nfreq, got.Nt, want.Nfreq, want.Nt)
	}
	for f := 0; f < got.Nfreq; f++ {
		g, w := got.Row(f), want.Row(f)
		for i := range g {
			if diff := math.Abs(g[i] - w[i]); diff > eps {
				t.Fatalf("(%d, %d): got %v, want %v (diff %v > eps %v)", f, i, g[i], w[i], diff, eps)
			}
		}
	}
}

// RequireGridFinite fails t if any sample of g is NaN or Inf.
func RequireGridFinite(t *testing.T, g core.Grid) {
	t.Helper()
	for f := 0; f < g.Nfreq; f++ {
		for i, v := range g.Row(f) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("(%d, %d): non-finite value %v", f, i, v)
			}
		}
	}
}
