package clip

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/resolution"
	"github.com/cwbudde/algo-rfi/stats/weighted"
)

// Clipper is the standard-deviation clipping stage.
type Clipper struct {
	cfg Config

	nfreq   int
	dsNfreq int
	dsNt    int
	coarse  bool

	ds     resolution.Downsampler
	dsI    core.Grid
	dsW    core.Grid
	engine weighted.Engine
	second weighted.Engine
	sd     []float64
	valid  []float64
	flags  core.Mask
	mask   core.Mask
}

// New returns a Clipper configured by opts on top of DefaultConfig.
func New(opts ...Option) (*Clipper, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Clipper{cfg: cfg}, nil
}

// Config returns the clipper configuration.
func (c *Clipper) Config() Config { return c.cfg }

// Name describes the clipper.
func (c *Clipper) Name() string {
	s := fmt.Sprintf("std_dev_clipper(thr=%g, axis=%d, nt_chunk=%d", c.cfg.Threshold, int(c.cfg.Axis), c.cfg.NtChunk)
	if c.cfg.DsNfreq > 0 {
		s += fmt.Sprintf(", dsample_nfreq=%d", c.cfg.DsNfreq)
	}
	if c.cfg.DsNt > 0 {
		s += fmt.Sprintf(", dsample_nt=%d", c.cfg.DsNt)
	}
	if c.cfg.Mode != ModeStdDev {
		s += ", mode=" + c.cfg.Mode.String()
	}
	return s + ")"
}

// ChunkSpec reports an unpadded chunk of NtChunk samples.
func (c *Clipper) ChunkSpec() core.ChunkSpec {
	return core.ChunkSpec{NtChunk: c.cfg.NtChunk}
}

// Attach checks the frequency downsampling against the stream.
func (c *Clipper) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("clip: %w", err)
	}
	dsNfreq := c.cfg.DsNfreq
	if dsNfreq == 0 {
		dsNfreq = info.Nfreq
	}
	if dsNfreq > info.Nfreq || info.Nfreq%dsNfreq != 0 {
		return fmt.Errorf("%w: dsample_nfreq=%d must divide stream nfreq=%d", ErrInvalidConfig, dsNfreq, info.Nfreq)
	}
	dsNt := c.cfg.DsNt
	if dsNt == 0 {
		dsNt = c.cfg.NtChunk
	}

	c.nfreq = info.Nfreq
	c.dsNfreq, c.dsNt = dsNfreq, dsNt
	c.coarse = dsNfreq < info.Nfreq || dsNt < c.cfg.NtChunk
	if c.coarse {
		c.dsI = core.NewGrid(dsNfreq, dsNt)
		c.dsW = core.NewGrid(dsNfreq, dsNt)
		c.mask = core.NewMask(info.Nfreq, c.cfg.NtChunk)
	}
	c.flags = core.NewMask(dsNfreq, dsNt)
	return nil
}

// StartSubstream is a no-op; the clipper keeps no state across chunks.
func (c *Clipper) StartSubstream(int, int64) {}

// EndSubstream is a no-op.
func (c *Clipper) EndSubstream() {}

// ProcessChunk zeroes the weights of every outlying slice.
func (c *Clipper) ProcessChunk(ch *core.Chunk) {
	intensity, weights := ch.Intensity, ch.Weights
	if c.coarse {
		if err := c.ds.Into(c.dsI, c.dsW, ch.Intensity, ch.Weights, true); err != nil {
			panic(err)
		}
		intensity, weights = c.dsI, c.dsW
	}

	if !c.computeFlags(intensity, weights) {
		return
	}
	if c.coarse {
		if err := resolution.UpsampleInto(c.mask, c.flags); err != nil {
			panic(err)
		}
		c.mask.ApplyTo(ch.Weights)
		return
	}
	c.flags.ApplyTo(ch.Weights)
}

// computeFlags fills c.flags and reports whether anything was flagged.
func (c *Clipper) computeFlags(intensity, weights core.Grid) bool {
	axis := c.cfg.Axis
	m, err := c.engine.Reduce(intensity, weights, axis)
	if err != nil {
		panic(err)
	}

	n := len(m.Mean)
	c.sd = core.EnsureLen(c.sd, n)
	c.valid = core.EnsureLen(c.valid, n)
	for i := range n {
		c.sd[i], c.valid[i] = c.spread(m, i)
	}

	sdGrid, validGrid := sliceGrid(axis, c.sd), sliceGrid(axis, c.valid)
	res, err := c.second.MeanRMS(sdGrid, validGrid, axis.Orthogonal(), 1, 0)
	if err != nil {
		panic(err)
	}
	mean, stdv := res.Mean[0], res.RMS[0]
	clear(c.flags.Data)
	if stdv == 0 {
		return false
	}

	thresh := c.cfg.Threshold * stdv
	flagged := false
	for i := range n {
		// zero-weight slices are already fully masked
		if c.valid[i] == 0 || math.Abs(c.sd[i]-mean) < thresh {
			continue
		}
		flagged = true
		if axis == core.AxisTime {
			row := c.flags.Row(i)
			for t := range row {
				row[t] = true
			}
			continue
		}
		for f := 0; f < c.flags.Nfreq; f++ {
			c.flags.Set(f, i, true)
		}
	}
	return flagged
}

// sliceGrid lays per-slice values out the way a reduction along axis
// produced them: a column of channels for AxisTime, a row of samples for
// AxisFreq.
func sliceGrid(axis core.Axis, v []float64) core.Grid {
	if axis == core.AxisTime {
		return core.Grid{Nfreq: len(v), Nt: 1, Stride: 1, Data: v}
	}
	return core.Grid{Nfreq: 1, Nt: len(v), Stride: len(v), Data: v}
}

// spread returns the slice statistic and its validity weight (0 or 1).
// Only slices without weight are invalid; a trusted slice whose variance
// floors to zero takes part with spread 0.
func (c *Clipper) spread(m weighted.Moments, i int) (float64, float64) {
	if m.WeightSum[i] <= 0 {
		return 0, 0
	}
	switch c.cfg.Mode {
	case ModeRMS:
		return math.Sqrt(m.Variance[i] + m.Mean[i]*m.Mean[i]), 1
	default:
		return math.Sqrt(weighted.FloorVariance(m.Variance[i], m.Mean[i])), 1
	}
}
