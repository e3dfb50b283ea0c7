package maskcount

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// ErrInvalidConfig is returned for unusable counter parameters.
var ErrInvalidConfig = errors.New("maskcount: invalid configuration")

// Option configures a Counter.
type Option func(*Counter)

// WithNtChunk sets the chunk length.
func WithNtChunk(n int) Option {
	return func(c *Counter) { c.ntChunk = n }
}

// WithSink adds a measurement sink.
func WithSink(s Sink) Option {
	return func(c *Counter) { c.sinks = append(c.sinks, s) }
}

// WithBitmaskSink receives a packed bitmask of every chunk. The chunk
// length must be a multiple of 8.
func WithBitmaskSink(fn func(pos int64, b Bitmask)) Option {
	return func(c *Counter) { c.bitmask = fn }
}

// Counter is the mask-counting stage.
type Counter struct {
	where   string
	ntChunk int
	sinks   []Sink
	bitmask func(pos int64, b Bitmask)
	nfreq   int
}

// New returns a Counter labelled where.
func New(where string, opts ...Option) (*Counter, error) {
	c := &Counter{where: where, ntChunk: core.DefaultNtChunk}
	for _, opt := range opts {
		opt(c)
	}
	if c.ntChunk <= 0 {
		return nil, fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidConfig, c.ntChunk)
	}
	if c.bitmask != nil && c.ntChunk%8 != 0 {
		return nil, fmt.Errorf("%w: nt_chunk=%d must be a multiple of 8 for bitmasks", ErrInvalidConfig, c.ntChunk)
	}
	return c, nil
}

// Name describes the counter.
func (c *Counter) Name() string {
	return fmt.Sprintf("mask_counter(nt_chunk=%d, where=%s)", c.ntChunk, c.where)
}

// ChunkSpec reports an unpadded chunk.
func (c *Counter) ChunkSpec() core.ChunkSpec {
	return core.ChunkSpec{NtChunk: c.ntChunk}
}

// Attach records the channel count.
func (c *Counter) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("maskcount: %w", err)
	}
	if info.Nfreq > math.MaxUint16 || c.ntChunk > math.MaxUint16 {
		return fmt.Errorf("%w: %d channels × %d samples overflow per-slice counts", ErrInvalidConfig, info.Nfreq, c.ntChunk)
	}
	c.nfreq = info.Nfreq
	return nil
}

// StartSubstream is a no-op.
func (c *Counter) StartSubstream(int, int64) {}

// EndSubstream is a no-op.
func (c *Counter) EndSubstream() {}

// ProcessChunk counts the chunk and notifies the sinks.
func (c *Counter) ProcessChunk(ch *core.Chunk) {
	m := Count(ch.Weights)
	m.Where = c.where
	m.Pos = ch.T0
	for _, s := range c.sinks {
		s.MaskCount(m)
	}
	if c.bitmask != nil {
		b, err := MakeBitmask(ch.Weights)
		if err != nil {
			panic(err)
		}
		c.bitmask(ch.T0, b)
	}
}

// Count builds the measurement of a weight array. Where and Pos are left
// empty.
func Count(weights core.Grid) Measurement {
	nfreq, nt := weights.Nfreq, weights.Nt
	m := Measurement{
		NSamples:    nfreq * nt,
		Nt:          nt,
		Nf:          nfreq,
		FreqsMasked: make([]uint16, nfreq),
		TimesMasked: make([]uint16, nt),
	}
	for f := 0; f < nfreq; f++ {
		for t, w := range weights.Row(f) {
			if w == 0 {
				m.NSamplesMasked++
				m.FreqsMasked[f]++
				m.TimesMasked[t]++
			}
		}
	}
	for _, n := range m.FreqsMasked {
		if int(n) == nt {
			m.NfMasked++
		}
	}
	for _, n := range m.TimesMasked {
		if int(n) == nfreq {
			m.NtMasked++
		}
	}
	return m
}
