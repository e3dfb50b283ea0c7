package core

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two arrays that must agree in shape do not.
var ErrShapeMismatch = errors.New("shape mismatch")

// Grid is a frequency × time view over row-major float64 storage.
// Row f occupies Data[f*Stride : f*Stride+Nt].
type Grid struct {
	Nfreq  int
	Nt     int
	Stride int
	Data   []float64
}

// NewGrid returns a zero-filled contiguous grid.
func NewGrid(nfreq, nt int) Grid {
	if nfreq < 0 {
		nfreq = 0
	}
	if nt < 0 {
		nt = 0
	}
	return Grid{Nfreq: nfreq, Nt: nt, Stride: nt, Data: make([]float64, nfreq*nt)}
}

// GridFromSlice wraps data (length nfreq*nt) without copying.
func GridFromSlice(nfreq, nt int, data []float64) (Grid, error) {
	if nfreq <= 0 || nt <= 0 {
		return Grid{}, fmt.Errorf("grid dimensions must be > 0: %dx%d", nfreq, nt)
	}
	if len(data) != nfreq*nt {
		return Grid{}, fmt.Errorf("%w: %d values for a %dx%d grid", ErrShapeMismatch, len(data), nfreq, nt)
	}
	return Grid{Nfreq: nfreq, Nt: nt, Stride: nt, Data: data}, nil
}

// Row returns the time samples of channel f. The slice aliases the grid.
func (g Grid) Row(f int) []float64 {
	off := f * g.Stride
	return g.Data[off : off+g.Nt : off+g.Nt]
}

// At returns the sample at channel f, time t.
func (g Grid) At(f, t int) float64 {
	return g.Data[f*g.Stride+t]
}

// Set stores v at channel f, time t.
func (g Grid) Set(f, t int, v float64) {
	g.Data[f*g.Stride+t] = v
}

// Sub returns the time window [t0, t1) as a view sharing g's storage.
func (g Grid) Sub(t0, t1 int) Grid {
	if t0 < 0 || t1 < t0 || t1 > g.Nt {
		panic(fmt.Sprintf("core: Grid.Sub(%d, %d) out of range [0, %d]", t0, t1, g.Nt))
	}
	if g.Nfreq == 0 {
		return Grid{Nt: t1 - t0, Stride: g.Stride}
	}
	return Grid{Nfreq: g.Nfreq, Nt: t1 - t0, Stride: g.Stride, Data: g.Data[t0:]}
}

// SameShape reports whether g and o have identical dimensions.
func (g Grid) SameShape(o Grid) bool {
	return g.Nfreq == o.Nfreq && g.Nt == o.Nt
}

// Clone returns a contiguous deep copy of the view.
func (g Grid) Clone() Grid {
	out := NewGrid(g.Nfreq, g.Nt)
	out.CopyFrom(g)
	return out
}

// CopyFrom copies src into g. Shapes must match.
func (g Grid) CopyFrom(src Grid) {
	if !g.SameShape(src) {
		panic(fmt.Sprintf("core: Grid.CopyFrom %dx%d into %dx%d", src.Nfreq, src.Nt, g.Nfreq, g.Nt))
	}
	for f := 0; f < g.Nfreq; f++ {
		copy(g.Row(f), src.Row(f))
	}
}

// Fill sets every sample of the view to v.
func (g Grid) Fill(v float64) {
	for f := 0; f < g.Nfreq; f++ {
		row := g.Row(f)
		for i := range row {
			row[i] = v
		}
	}
}

// Flatten returns the view's samples as a new contiguous row-major slice.
func (g Grid) Flatten() []float64 {
	if g.Stride == g.Nt {
		out := make([]float64, g.Nfreq*g.Nt)
		copy(out, g.Data)
		return out
	}
	return g.Clone().Data
}

// MinMax returns the smallest and largest sample. An empty grid yields (0, 0).
func (g Grid) MinMax() (lo, hi float64) {
	if g.Nfreq == 0 || g.Nt == 0 {
		return 0, 0
	}
	lo, hi = g.At(0, 0), g.At(0, 0)
	for f := 0; f < g.Nfreq; f++ {
		for _, v := range g.Row(f) {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
