package core

import "testing"

func TestClampInt64(t *testing.T) {
	for _, tc := range []struct {
		v, want int64
	}{
		{-3, 0},
		{5, 5},
		{12, 10},
	} {
		if got := ClampInt64(tc.v, 0, 10); got != tc.want {
			t.Fatalf("ClampInt64(%d, 0, 10) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}
	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}
