package resolution

import (
	"errors"
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// ErrNotDivisible is returned when the coarse shape does not tile the
// native grid.
var ErrNotDivisible = errors.New("resolution: coarse shape does not divide grid")

var errShape = errors.New("resolution: intensity and weights differ in shape")

// Factors returns the block size (bf, bt) mapping an nfreq × nt grid onto
// newNfreq × newNt cells.
func Factors(nfreq, nt, newNfreq, newNt int) (bf, bt int, err error) {
	if newNfreq <= 0 || newNt <= 0 {
		return 0, 0, fmt.Errorf("%w: target %dx%d must be positive", ErrNotDivisible, newNfreq, newNt)
	}
	if nfreq%newNfreq != 0 || nt%newNt != 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d into %dx%d", ErrNotDivisible, nfreq, nt, newNfreq, newNt)
	}
	return nfreq / newNfreq, nt / newNt, nil
}

// Downsample returns the weighted block average of intensity and the mean
// weight per native sample of every newNfreq × newNt block. Blocks with zero
// total weight get intensity 0 and weight 0.
func Downsample(intensity, weights core.Grid, newNfreq, newNt int) (core.Grid, core.Grid, error) {
	var d Downsampler
	outI, outW := core.NewGrid(newNfreq, newNt), core.NewGrid(newNfreq, newNt)
	if err := d.Into(outI, outW, intensity, weights, true); err != nil {
		return core.Grid{}, core.Grid{}, err
	}
	return outI, outW, nil
}

// DownsampleSum is Downsample returning the raw block-summed weight.
func DownsampleSum(intensity, weights core.Grid, newNfreq, newNt int) (core.Grid, core.Grid, error) {
	var d Downsampler
	outI, outW := core.NewGrid(newNfreq, newNt), core.NewGrid(newNfreq, newNt)
	if err := d.Into(outI, outW, intensity, weights, false); err != nil {
		return core.Grid{}, core.Grid{}, err
	}
	return outI, outW, nil
}

// Downsampler holds scratch rows for repeated downsampling. The zero value
// is ready to use.
type Downsampler struct {
	wx   []float64
	wsum []float64
	prod []float64
}

// Into downsamples into dstI and dstW, whose shape selects the coarse
// resolution. With normalize set the output weight is divided by the block
// size.
func (d *Downsampler) Into(dstI, dstW, intensity, weights core.Grid, normalize bool) error {
	if !intensity.SameShape(weights) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", errShape, intensity.Nfreq, intensity.Nt, weights.Nfreq, weights.Nt)
	}
	if !dstI.SameShape(dstW) {
		return fmt.Errorf("%w: destination %dx%d vs %dx%d", errShape, dstI.Nfreq, dstI.Nt, dstW.Nfreq, dstW.Nt)
	}
	bf, bt, err := Factors(intensity.Nfreq, intensity.Nt, dstI.Nfreq, dstI.Nt)
	if err != nil {
		return err
	}

	nt := intensity.Nt
	d.wx = core.EnsureLen(d.wx, nt)
	d.wsum = core.EnsureLen(d.wsum, nt)
	d.prod = core.EnsureLen(d.prod, nt)
	norm := 1.0
	if normalize {
		norm = 1 / float64(bf*bt)
	}

	for F := 0; F < dstI.Nfreq; F++ {
		core.Zero(d.wx)
		core.Zero(d.wsum)
		for f := F * bf; f < (F+1)*bf; f++ {
			w := weights.Row(f)
			vecmath.MulBlock(d.prod, w, intensity.Row(f))
			vecmath.AddBlockInPlace(d.wx, d.prod)
			vecmath.AddBlockInPlace(d.wsum, w)
		}
		outI, outW := dstI.Row(F), dstW.Row(F)
		for T := range outI {
			sw := floats.Sum(d.wsum[T*bt : (T+1)*bt])
			swx := floats.Sum(d.wx[T*bt : (T+1)*bt])
			if sw > 0 {
				outI[T] = swx / sw
			} else {
				outI[T] = 0
				sw = 0
			}
			outW[T] = sw * norm
		}
	}
	return nil
}

// Upsample replicates each coarse mask cell across its nfreq/m.Nfreq ×
// nt/m.Nt native block.
func Upsample(m core.Mask, nfreq, nt int) (core.Mask, error) {
	out := core.NewMask(nfreq, nt)
	if err := UpsampleInto(out, m); err != nil {
		return core.Mask{}, err
	}
	return out, nil
}

// UpsampleInto is Upsample writing into dst, whose shape selects the native
// resolution.
func UpsampleInto(dst, m core.Mask) error {
	bf, bt, err := Factors(dst.Nfreq, dst.Nt, m.Nfreq, m.Nt)
	if err != nil {
		return err
	}
	for f := 0; f < dst.Nfreq; f++ {
		src := m.Row(f / bf)
		row := dst.Row(f)
		for t := range row {
			row[t] = src[t/bt]
		}
	}
	return nil
}

// DownsampleMask marks a coarse cell when any native cell in its block is
// set.
func DownsampleMask(m core.Mask, newNfreq, newNt int) (core.Mask, error) {
	bf, bt, err := Factors(m.Nfreq, m.Nt, newNfreq, newNt)
	if err != nil {
		return core.Mask{}, err
	}
	out := core.NewMask(newNfreq, newNt)
	for f := 0; f < m.Nfreq; f++ {
		dst := out.Row(f / bf)
		for t, b := range m.Row(f) {
			if b {
				dst[t/bt] = true
			}
		}
	}
	return out, nil
}

// ThresholdMask marks cells whose weight is at or below cutoff.
func ThresholdMask(weights core.Grid, cutoff float64) core.Mask {
	out := core.NewMask(weights.Nfreq, weights.Nt)
	for f := 0; f < weights.Nfreq; f++ {
		dst := out.Row(f)
		for t, w := range weights.Row(f) {
			dst[t] = w <= cutoff
		}
	}
	return out
}
