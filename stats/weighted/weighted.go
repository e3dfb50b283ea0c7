package weighted

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// VarianceFloor is the relative threshold below which a variance is zero:
// var < VarianceFloor·mean² → 0.
const VarianceFloor = 1e-10

var (
	errShape      = errors.New("weighted: values and weights must have the same shape")
	errIterations = errors.New("weighted: iterations must be >= 1")
	errClip       = errors.New("weighted: clip threshold must be > 0 when iterating")
	errAxis       = errors.New("weighted: invalid axis")
)

// Moments holds one pass of weighted first and second moments per slice.
type Moments struct {
	Mean      []float64
	Variance  []float64
	WeightSum []float64
}

// Result holds the final statistics per slice along Axis.
type Result struct {
	Axis      core.Axis
	Mean      []float64
	RMS       []float64
	WeightSum []float64 // total weight of the last round, after clipping
}

// Valid reports whether slice i has a usable statistic.
func (r Result) Valid(i int) bool {
	return r.RMS[i] > 0
}

// Engine reuses scratch storage across calls. The zero value is ready to use.
// An Engine is not safe for concurrent use.
type Engine struct {
	tmp  []float64
	tmp2 []float64
	work core.Grid
}

// MeanRMS computes weighted mean and RMS along axis with iterations-1
// rounds of sigma clipping at clip·σ. It allocates; use an Engine in
// streaming loops.
func MeanRMS(values, weights core.Grid, axis core.Axis, iterations int, clip float64) (Result, error) {
	var e Engine
	return e.MeanRMS(values, weights, axis, iterations, clip)
}

// Reduce computes one unclipped pass of weighted moments along axis.
func Reduce(values, weights core.Grid, axis core.Axis) (Moments, error) {
	var e Engine
	return e.Reduce(values, weights, axis)
}

// FloorVariance applies the VarianceFloor rule.
func FloorVariance(variance, mean float64) float64 {
	if variance < VarianceFloor*mean*mean || variance < 0 {
		return 0
	}
	return variance
}

func validate(values, weights core.Grid, axis core.Axis) error {
	if !values.SameShape(weights) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", errShape, values.Nfreq, values.Nt, weights.Nfreq, weights.Nt)
	}
	if !axis.Valid() {
		return fmt.Errorf("%w: %v", errAxis, axis)
	}
	return nil
}

// MeanRMS is the Engine form of the package-level MeanRMS.
func (e *Engine) MeanRMS(values, weights core.Grid, axis core.Axis, iterations int, clip float64) (Result, error) {
	if err := validate(values, weights, axis); err != nil {
		return Result{}, err
	}
	if iterations < 1 {
		return Result{}, fmt.Errorf("%w: %d", errIterations, iterations)
	}
	if iterations > 1 && !(clip > 0) {
		return Result{}, fmt.Errorf("%w: %f", errClip, clip)
	}

	w := weights
	if iterations > 1 {
		// Clipping edits a private copy so callers' weights are untouched.
		e.work = ensureGrid(e.work, weights.Nfreq, weights.Nt)
		e.work.CopyFrom(weights)
		w = e.work
	}

	var res Result
	for iter := 0; iter < iterations; iter++ {
		m := e.reduce(values, w, axis)
		res = finalize(axis, m)
		if iter == iterations-1 {
			break
		}
		if clipRound(values, w, axis, res, clip) == 0 {
			break
		}
	}
	return res, nil
}

// Reduce is the Engine form of the package-level Reduce.
func (e *Engine) Reduce(values, weights core.Grid, axis core.Axis) (Moments, error) {
	if err := validate(values, weights, axis); err != nil {
		return Moments{}, err
	}
	return e.reduce(values, weights, axis), nil
}

func finalize(axis core.Axis, m Moments) Result {
	res := Result{
		Axis:      axis,
		Mean:      m.Mean,
		RMS:       make([]float64, len(m.Mean)),
		WeightSum: m.WeightSum,
	}
	for i := range res.RMS {
		if m.WeightSum[i] <= 0 {
			res.Mean[i] = 0
			continue
		}
		res.RMS[i] = math.Sqrt(FloorVariance(m.Variance[i], m.Mean[i]))
	}
	return res
}

// clipRound zeroes weights of samples at or beyond clip·σ from their slice
// mean and returns how many were removed. Slices without a usable σ are
// left as they are.
func clipRound(values, w core.Grid, axis core.Axis, res Result, clip float64) int {
	removed := 0
	for f := 0; f < values.Nfreq; f++ {
		xrow := values.Row(f)
		wrow := w.Row(f)
		for t, x := range xrow {
			if wrow[t] == 0 {
				continue
			}
			i := axis.Index(f, t)
			sigma := res.RMS[i]
			if sigma == 0 {
				continue
			}
			if !(math.Abs(x-res.Mean[i]) < clip*sigma) {
				wrow[t] = 0
				removed++
			}
		}
	}
	return removed
}

func (e *Engine) reduce(values, weights core.Grid, axis core.Axis) Moments {
	n := axis.ReducedLen(values.Nfreq, values.Nt)
	m := Moments{
		Mean:      make([]float64, n),
		Variance:  make([]float64, n),
		WeightSum: make([]float64, n),
	}
	if values.Nfreq == 0 || values.Nt == 0 {
		return m
	}
	switch axis {
	case core.AxisFreq:
		e.reduceAcrossFreq(values, weights, m)
	case core.AxisTime:
		e.reduceAcrossTime(values, weights, m)
	default:
		e.reduceAll(values, weights, m)
	}
	return m
}

// reduceAcrossTime yields one statistic per channel.
func (e *Engine) reduceAcrossTime(values, weights core.Grid, m Moments) {
	e.tmp = core.EnsureLen(e.tmp, values.Nt)
	for f := 0; f < values.Nfreq; f++ {
		x, w := values.Row(f), weights.Row(f)
		sw := floats.Sum(w)
		m.WeightSum[f] = sw
		if sw <= 0 {
			continue
		}
		vecmath.MulBlock(e.tmp, w, x)
		mean := floats.Sum(e.tmp) / sw
		m.Mean[f] = mean
		m.Variance[f] = e.centeredSum(x, w, mean) / sw
	}
}

// reduceAcrossFreq yields one statistic per time sample.
func (e *Engine) reduceAcrossFreq(values, weights core.Grid, m Moments) {
	nt := values.Nt
	e.tmp = core.EnsureLen(e.tmp, nt)
	e.tmp2 = core.EnsureLen(e.tmp2, nt)
	swx := e.tmp2
	core.Zero(swx)
	for f := 0; f < values.Nfreq; f++ {
		x, w := values.Row(f), weights.Row(f)
		vecmath.AddBlockInPlace(m.WeightSum, w)
		vecmath.MulBlock(e.tmp, w, x)
		vecmath.AddBlockInPlace(swx, e.tmp)
	}
	for t := 0; t < nt; t++ {
		if m.WeightSum[t] > 0 {
			m.Mean[t] = swx[t] / m.WeightSum[t]
		}
	}
	acc := m.Variance
	for f := 0; f < values.Nfreq; f++ {
		x, w := values.Row(f), weights.Row(f)
		for t := range e.tmp {
			d := x[t] - m.Mean[t]
			e.tmp[t] = d * d
		}
		vecmath.MulBlockInPlace(e.tmp, w)
		vecmath.AddBlockInPlace(acc, e.tmp)
	}
	for t := 0; t < nt; t++ {
		if m.WeightSum[t] > 0 {
			acc[t] /= m.WeightSum[t]
		} else {
			acc[t] = 0
		}
	}
}

func (e *Engine) reduceAll(values, weights core.Grid, m Moments) {
	e.tmp = core.EnsureLen(e.tmp, values.Nt)
	var sw, swx float64
	for f := 0; f < values.Nfreq; f++ {
		x, w := values.Row(f), weights.Row(f)
		sw += floats.Sum(w)
		vecmath.MulBlock(e.tmp, w, x)
		swx += floats.Sum(e.tmp)
	}
	m.WeightSum[0] = sw
	if sw <= 0 {
		return
	}
	mean := swx / sw
	var acc float64
	for f := 0; f < values.Nfreq; f++ {
		acc += e.centeredSum(values.Row(f), weights.Row(f), mean)
	}
	m.Mean[0] = mean
	m.Variance[0] = acc / sw
}

// centeredSum returns Σ w·(x-mean)².
func (e *Engine) centeredSum(x, w []float64, mean float64) float64 {
	d := e.tmp[:len(x)]
	for i, v := range x {
		d[i] = v - mean
	}
	vecmath.MulBlockInPlace(d, d)
	return floats.Dot(w, d)
}

func ensureGrid(g core.Grid, nfreq, nt int) core.Grid {
	if g.Nfreq == nfreq && g.Nt == nt && g.Stride == nt {
		return g
	}
	return core.NewGrid(nfreq, nt)
}
