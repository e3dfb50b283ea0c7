package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// DefaultBlockNt is the block length ArrayStream uses unless told otherwise.
const DefaultBlockNt = 512

var errBlockShape = errors.New("stream: block shape mismatch")

// Block is a contiguous run of samples starting at absolute time T0.
type Block struct {
	T0        int64
	Intensity core.Grid
	Weights   core.Grid
}

// Nt returns the block length.
func (b Block) Nt() int { return b.Intensity.Nt }

// T1 returns the end of the block's half-open time interval.
func (b Block) T1() int64 { return b.T0 + int64(b.Intensity.Nt) }

// Validate checks that the block fits a stream of nfreq channels.
func (b Block) Validate(nfreq int) error {
	if !b.Intensity.SameShape(b.Weights) {
		return fmt.Errorf("%w: intensity %dx%d, weights %dx%d", errBlockShape,
			b.Intensity.Nfreq, b.Intensity.Nt, b.Weights.Nfreq, b.Weights.Nt)
	}
	if b.Intensity.Nfreq != nfreq {
		return fmt.Errorf("%w: %d channels, stream has %d", errBlockShape, b.Intensity.Nfreq, nfreq)
	}
	if b.Intensity.Nt <= 0 {
		return fmt.Errorf("%w: empty block", errBlockShape)
	}
	return nil
}

// Stream produces blocks in increasing time order. Next returns io.EOF
// after the last block. Returned grids may be reused by later calls.
type Stream interface {
	Nfreq() int
	Next(ctx context.Context) (Block, error)
}

// ArrayStream replays in-memory grids as a stream.
type ArrayStream struct {
	intensity core.Grid
	weights   core.Grid
	t0        int64
	blockNt   int
	pos       int
}

// ArrayOption configures an ArrayStream.
type ArrayOption func(*ArrayStream)

// WithStartTime sets the absolute time of the first sample.
func WithStartTime(t0 int64) ArrayOption {
	return func(s *ArrayStream) { s.t0 = t0 }
}

// WithBlockNt sets the number of samples per block.
func WithBlockNt(n int) ArrayOption {
	return func(s *ArrayStream) { s.blockNt = n }
}

// NewArrayStream wraps intensity and weights, which must share a shape.
func NewArrayStream(intensity, weights core.Grid, opts ...ArrayOption) (*ArrayStream, error) {
	s := &ArrayStream{intensity: intensity, weights: weights, blockNt: DefaultBlockNt}
	for _, opt := range opts {
		opt(s)
	}
	if s.blockNt <= 0 {
		return nil, fmt.Errorf("stream: block length must be > 0: %d", s.blockNt)
	}
	if !intensity.SameShape(weights) {
		return nil, fmt.Errorf("%w: intensity %dx%d, weights %dx%d", errBlockShape,
			intensity.Nfreq, intensity.Nt, weights.Nfreq, weights.Nt)
	}
	if intensity.Nfreq <= 0 {
		return nil, fmt.Errorf("stream: nfreq must be > 0: %d", intensity.Nfreq)
	}
	return s, nil
}

// Nfreq returns the channel count.
func (s *ArrayStream) Nfreq() int { return s.intensity.Nfreq }

// Next returns the next block as a view into the wrapped grids.
func (s *ArrayStream) Next(ctx context.Context) (Block, error) {
	if err := ctx.Err(); err != nil {
		return Block{}, err
	}
	if s.pos >= s.intensity.Nt {
		return Block{}, io.EOF
	}
	end := min(s.pos+s.blockNt, s.intensity.Nt)
	b := Block{
		T0:        s.t0 + int64(s.pos),
		Intensity: s.intensity.Sub(s.pos, end),
		Weights:   s.weights.Sub(s.pos, end),
	}
	s.pos = end
	return b, nil
}

// Concat plays several streams back to back. All must share a channel
// count, and each must start no earlier than the previous one ends.
type Concat struct {
	parts []Stream
	cur   int
	last  int64
	seen  bool
}

// NewConcat joins parts into one stream.
func NewConcat(parts ...Stream) (*Concat, error) {
	if len(parts) == 0 {
		return nil, errors.New("stream: concat needs at least one part")
	}
	for i, p := range parts[1:] {
		if p.Nfreq() != parts[0].Nfreq() {
			return nil, fmt.Errorf("%w: part %d has %d channels, want %d", errBlockShape, i+1, p.Nfreq(), parts[0].Nfreq())
		}
	}
	return &Concat{parts: parts}, nil
}

// Nfreq returns the shared channel count.
func (c *Concat) Nfreq() int { return c.parts[0].Nfreq() }

// Next returns the next block of the current part, moving on at io.EOF.
func (c *Concat) Next(ctx context.Context) (Block, error) {
	for c.cur < len(c.parts) {
		b, err := c.parts[c.cur].Next(ctx)
		if errors.Is(err, io.EOF) {
			c.cur++
			continue
		}
		if err != nil {
			return Block{}, err
		}
		if c.seen && b.T0 < c.last {
			return Block{}, fmt.Errorf("stream: block at t0=%d precedes previous end %d", b.T0, c.last)
		}
		c.seen = true
		c.last = b.T1()
		return b, nil
	}
	return Block{}, io.EOF
}
