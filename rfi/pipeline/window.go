package pipeline

import "github.com/cwbudde/algo-rfi/rfi/core"

// window is the driver-owned sliding buffer of one substream. It holds the
// absolute time range [base, base+n) for every channel, intensity and
// weights in separate strided grids.
type window struct {
	nfreq     int
	cap       int
	base      int64
	n         int
	intensity []float64
	weights   []float64
}

func newWindow(nfreq, capacity int) *window {
	w := &window{nfreq: nfreq}
	w.resize(max(capacity, 1))
	return w
}

// end returns the absolute time just past the buffered data.
func (w *window) end() int64 {
	return w.base + int64(w.n)
}

// reset empties the window and anchors it at t0.
func (w *window) reset(t0 int64) {
	w.base = t0
	w.n = 0
}

// reserve makes room for extra more samples. Data before keep is dropped
// first; the backing arrays grow only if that is not enough.
func (w *window) reserve(extra int, keep int64) {
	if w.n+extra <= w.cap {
		return
	}
	w.discard(keep)
	if w.n+extra <= w.cap {
		return
	}
	w.resize(max(2*w.cap, w.n+extra))
}

// discard drops samples before absolute time keep.
func (w *window) discard(keep int64) {
	drop := int(keep - w.base)
	if drop <= 0 {
		return
	}
	drop = min(drop, w.n)
	for f := 0; f < w.nfreq; f++ {
		off := f * w.cap
		copy(w.intensity[off:off+w.n-drop], w.intensity[off+drop:off+w.n])
		copy(w.weights[off:off+w.n-drop], w.weights[off+drop:off+w.n])
	}
	w.base += int64(drop)
	w.n -= drop
}

func (w *window) resize(capacity int) {
	intensity := make([]float64, w.nfreq*capacity)
	weights := make([]float64, w.nfreq*capacity)
	for f := 0; f < w.nfreq; f++ {
		copy(intensity[f*capacity:f*capacity+w.n], w.intensity[f*w.cap:f*w.cap+w.n])
		copy(weights[f*capacity:f*capacity+w.n], w.weights[f*w.cap:f*w.cap+w.n])
	}
	w.intensity, w.weights, w.cap = intensity, weights, capacity
}

// append copies a block to the end of the window.
func (w *window) append(intensity, weights core.Grid, keep int64) {
	nt := intensity.Nt
	w.reserve(nt, keep)
	for f := 0; f < w.nfreq; f++ {
		off := f*w.cap + w.n
		copy(w.intensity[off:off+nt], intensity.Row(f))
		copy(w.weights[off:off+nt], weights.Row(f))
	}
	w.n += nt
}

// padZeros extends the window to absolute time t1 with zero intensity and
// zero weight.
func (w *window) padZeros(t1 int64, keep int64) {
	extra := int(t1 - w.end())
	if extra <= 0 {
		return
	}
	w.reserve(extra, keep)
	for f := 0; f < w.nfreq; f++ {
		off := f*w.cap + w.n
		clear(w.intensity[off : off+extra])
		clear(w.weights[off : off+extra])
	}
	w.n += extra
}

// views returns grids over the absolute range [t0, t1).
func (w *window) views(t0, t1 int64) (core.Grid, core.Grid) {
	i0, i1 := int(t0-w.base), int(t1-w.base)
	if i0 < 0 || i1 > w.n || i1 < i0 {
		panic("pipeline: window range out of bounds")
	}
	return w.grid(w.intensity).Sub(i0, i1), w.grid(w.weights).Sub(i0, i1)
}

func (w *window) grid(data []float64) core.Grid {
	return core.Grid{Nfreq: w.nfreq, Nt: w.n, Stride: w.cap, Data: data}
}
