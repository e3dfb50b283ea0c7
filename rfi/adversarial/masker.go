package adversarial

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// Defaults.
const (
	DefaultNtReset = 65536
	NumRectangles  = 8
)

// ErrInvalidConfig is returned for unusable masker parameters.
var ErrInvalidConfig = errors.New("adversarial: invalid configuration")

// Rect is a region to zero-weight: channels [FreqLo, FreqHi) and samples
// [TLo, THi) counted from the start of the substream.
type Rect struct {
	FreqLo, FreqHi int
	TLo, THi       int64
}

// Ladder returns the default gap pattern for a stream of nfreq channels.
func Ladder(nfreq int, ntReset int64) []Rect {
	rects := make([]Rect, 0, NumRectangles)
	tmax := ntReset
	for i := 0; i < NumRectangles; i++ {
		gap := ntReset >> i
		rects = append(rects, Rect{FreqLo: 0, FreqHi: nfreq, TLo: tmax, THi: tmax + gap})
		tmax += gap + ntReset
	}
	return rects
}

// Option configures a Masker.
type Option func(*Masker)

// WithNtChunk sets the chunk length.
func WithNtChunk(n int) Option {
	return func(m *Masker) { m.ntChunk = n }
}

// WithNtReset sets the gap and spacing scale of the default ladder.
func WithNtReset(n int64) Option {
	return func(m *Masker) { m.ntReset = n }
}

// WithRectangles replaces the default ladder. With no rectangles the
// masker passes data through.
func WithRectangles(rects ...Rect) Option {
	return func(m *Masker) { m.custom = append(make([]Rect, 0, len(rects)), rects...) }
}

// substreamState is the part of the masker reset at every substream.
type substreamState struct {
	pending     []Rect
	ntProcessed int64
}

// Masker is the adversarial masking stage.
type Masker struct {
	ntChunk int
	ntReset int64
	custom  []Rect

	template []Rect
	state    substreamState
}

// New returns a Masker.
func New(opts ...Option) (*Masker, error) {
	m := &Masker{ntChunk: core.DefaultNtChunk, ntReset: DefaultNtReset}
	for _, opt := range opts {
		opt(m)
	}
	if m.ntChunk <= 0 {
		return nil, fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidConfig, m.ntChunk)
	}
	if m.custom == nil && m.ntReset < 1<<(NumRectangles-1) {
		return nil, fmt.Errorf("%w: nt_reset must be >= %d: %d", ErrInvalidConfig, 1<<(NumRectangles-1), m.ntReset)
	}
	for i, r := range m.custom {
		if r.FreqLo < 0 || r.FreqHi <= r.FreqLo || r.TLo < 0 || r.THi <= r.TLo {
			return nil, fmt.Errorf("%w: rectangle %d is empty or negative: %+v", ErrInvalidConfig, i, r)
		}
	}
	return m, nil
}

// Name describes the masker.
func (m *Masker) Name() string {
	if m.custom != nil {
		return fmt.Sprintf("adversarial_masker(nt_chunk=%d, rectangles=%d)", m.ntChunk, len(m.custom))
	}
	return fmt.Sprintf("adversarial_masker(nt_chunk=%d, nt_reset=%d)", m.ntChunk, m.ntReset)
}

// ChunkSpec reports an unpadded chunk.
func (m *Masker) ChunkSpec() core.ChunkSpec {
	return core.ChunkSpec{NtChunk: m.ntChunk}
}

// Attach builds the rectangle pattern for the stream.
func (m *Masker) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("adversarial: %w", err)
	}
	if m.custom == nil {
		m.template = Ladder(info.Nfreq, m.ntReset)
		return nil
	}
	for i, r := range m.custom {
		if r.FreqHi > info.Nfreq {
			return fmt.Errorf("%w: rectangle %d reaches channel %d of %d", ErrInvalidConfig, i, r.FreqHi, info.Nfreq)
		}
	}
	m.template = m.custom
	return nil
}

// Rectangles returns the pattern built at Attach.
func (m *Masker) Rectangles() []Rect {
	return append([]Rect(nil), m.template...)
}

// NominalLength is the number of samples the pattern spans, including
// the trailing nt_reset of clean data.
func (m *Masker) NominalLength() int64 {
	var end int64
	for _, r := range m.template {
		end = max(end, r.THi)
	}
	return end + m.ntReset
}

// StartSubstream restores the full pattern and restarts the sample count.
func (m *Masker) StartSubstream(int, int64) {
	m.state = substreamState{pending: append([]Rect(nil), m.template...)}
}

// EndSubstream drops the per-substream state.
func (m *Masker) EndSubstream() {
	m.state = substreamState{}
}

// ProcessChunk zeroes the weights under every rectangle overlapping the
// chunk.
func (m *Masker) ProcessChunk(c *core.Chunk) {
	n := int64(m.ntChunk)
	done := m.state.ntProcessed
	kept := m.state.pending[:0]
	for _, r := range m.state.pending {
		t0 := max(0, min(n, r.TLo-done))
		t1 := max(0, min(n, r.THi-done))
		if t0 < t1 {
			for f := r.FreqLo; f < r.FreqHi; f++ {
				clear(c.Weights.Row(f)[t0:t1])
			}
		}
		if r.THi > done+n {
			kept = append(kept, r)
		}
	}
	m.state.pending = kept
	m.state.ntProcessed += n
}
