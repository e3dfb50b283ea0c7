package maskfill

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/stats/weighted"
)

// bucket accumulates weighted moments of one time bucket per channel.
type bucket struct {
	sw   []float64
	mean []float64
	m2   []float64
}

// Estimator is a read-only stage that measures a variance Profile.
type Estimator struct {
	nvs        int
	ntChunk    int
	iterations int
	clip       float64

	nfreq   int
	origin  int64
	seen    bool
	buckets []bucket
	engine  weighted.Engine
}

// EstimatorOption configures an Estimator.
type EstimatorOption func(*Estimator)

// WithEstimatorNtChunk sets the chunk length.
func WithEstimatorNtChunk(n int) EstimatorOption {
	return func(e *Estimator) { e.ntChunk = n }
}

// WithClipping sigma-clips each bucket segment before it is accumulated.
func WithClipping(iterations int, clip float64) EstimatorOption {
	return func(e *Estimator) {
		e.iterations = iterations
		e.clip = clip
	}
}

// NewEstimator returns an Estimator with buckets of nVarSamples samples.
func NewEstimator(nVarSamples int, opts ...EstimatorOption) (*Estimator, error) {
	e := &Estimator{nvs: nVarSamples, ntChunk: core.DefaultNtChunk, iterations: 1}
	for _, opt := range opts {
		opt(e)
	}
	if e.nvs <= 0 {
		return nil, fmt.Errorf("%w: n_varsamples must be > 0: %d", ErrInvalidConfig, e.nvs)
	}
	if e.ntChunk <= 0 {
		return nil, fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidConfig, e.ntChunk)
	}
	if e.iterations < 1 || (e.iterations > 1 && !(e.clip > 0)) {
		return nil, fmt.Errorf("%w: clipping needs iterations >= 1 and clip > 0: %d, %g", ErrInvalidConfig, e.iterations, e.clip)
	}
	return e, nil
}

// Name describes the estimator.
func (e *Estimator) Name() string {
	return fmt.Sprintf("variance_estimator(n_varsamples=%d, nt_chunk=%d, iterations=%d, clip=%g)",
		e.nvs, e.ntChunk, e.iterations, e.clip)
}

// ChunkSpec reports an unpadded chunk.
func (e *Estimator) ChunkSpec() core.ChunkSpec {
	return core.ChunkSpec{NtChunk: e.ntChunk}
}

// Attach resets the accumulated profile.
func (e *Estimator) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("maskfill: %w", err)
	}
	e.nfreq = info.Nfreq
	e.buckets = nil
	e.seen = false
	return nil
}

// StartSubstream anchors bucket 0 at the start of the first substream.
func (e *Estimator) StartSubstream(_ int, t0 int64) {
	if !e.seen {
		e.origin = t0
		e.seen = true
	}
}

// EndSubstream is a no-op.
func (e *Estimator) EndSubstream() {}

// ProcessChunk accumulates the chunk bucket by bucket.
func (e *Estimator) ProcessChunk(c *core.Chunk) {
	s0 := c.T0 - e.origin
	nt := c.Nt()
	for t := 0; t < nt; {
		b := int((s0 + int64(t)) / int64(e.nvs))
		end := min(nt, int(int64(b+1)*int64(e.nvs)-s0))
		res, err := e.engine.MeanRMS(c.Intensity.Sub(t, end), c.Weights.Sub(t, end), core.AxisTime, e.iterations, e.clip)
		if err != nil {
			panic(err)
		}
		e.merge(b, res)
		t = end
	}
}

func (e *Estimator) merge(b int, res weighted.Result) {
	for len(e.buckets) <= b {
		e.buckets = append(e.buckets, bucket{
			sw:   make([]float64, e.nfreq),
			mean: make([]float64, e.nfreq),
			m2:   make([]float64, e.nfreq),
		})
	}
	acc := e.buckets[b]
	for f := range acc.sw {
		nb := res.WeightSum[f]
		if nb <= 0 {
			continue
		}
		na := acc.sw[f]
		n := na + nb
		delta := res.Mean[f] - acc.mean[f]
		acc.mean[f] += delta * nb / n
		acc.m2[f] += res.RMS[f]*res.RMS[f]*nb + delta*delta*na*nb/n
		acc.sw[f] = n
	}
}

// Profile returns the variances measured so far. Buckets that saw no
// weight are zero; trailing buckets without any weight are dropped.
func (e *Estimator) Profile() (*Profile, error) {
	nb := 0
	for b, acc := range e.buckets {
		for _, sw := range acc.sw {
			if sw > 0 {
				nb = b + 1
				break
			}
		}
	}
	if nb == 0 {
		return nil, fmt.Errorf("%w: no data accumulated", errProfile)
	}
	m := mat.NewDense(e.nfreq, nb, nil)
	for b, acc := range e.buckets[:nb] {
		for f := range acc.sw {
			if acc.sw[f] > 0 {
				m.Set(f, b, weighted.FloorVariance(acc.m2[f]/acc.sw[f], acc.mean[f]))
			}
		}
	}
	return NewProfile(m)
}
