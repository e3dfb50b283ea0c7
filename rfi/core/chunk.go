package core

import (
	"errors"
	"fmt"
)

// ErrInvalidChunkSpec is returned for non-positive chunk sizes or negative padding.
var ErrInvalidChunkSpec = errors.New("invalid chunk spec")

// DefaultNtChunk is the chunk length used when a stage does not choose one.
const DefaultNtChunk = 1024

// ChunkSpec is the padding contract a stage declares to the driver.
type ChunkSpec struct {
	NtChunk   int // samples per chunk, > 0
	NtPrepad  int // samples of context required before the chunk, >= 0
	NtPostpad int // samples of context required after the chunk, >= 0
}

// Validate checks the spec.
func (s ChunkSpec) Validate() error {
	if s.NtChunk <= 0 {
		return fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidChunkSpec, s.NtChunk)
	}
	if s.NtPrepad < 0 {
		return fmt.Errorf("%w: nt_prepad must be >= 0: %d", ErrInvalidChunkSpec, s.NtPrepad)
	}
	if s.NtPostpad < 0 {
		return fmt.Errorf("%w: nt_postpad must be >= 0: %d", ErrInvalidChunkSpec, s.NtPostpad)
	}
	return nil
}

// StreamInfo is what a stage learns about its stream at attach time.
type StreamInfo struct {
	Nfreq int
}

// Validate checks the stream metadata.
func (s StreamInfo) Validate() error {
	if s.Nfreq <= 0 {
		return fmt.Errorf("stream nfreq must be > 0: %d", s.Nfreq)
	}
	return nil
}

// Chunk is one unit of work handed to a stage.
//
// Intensity and Weights cover the core window [T0, T1). PPIntensity and
// PPWeights cover [T0-Prepad, T1+Postpad) and share storage with the core
// grids. Prepad and Postpad are the lengths actually supplied, which are
// shorter than requested at substream boundaries.
type Chunk struct {
	T0 int64
	T1 int64

	Intensity Grid
	Weights   Grid

	PPIntensity Grid
	PPWeights   Grid
	Prepad      int
	Postpad     int
}

// NewChunk builds a chunk over padded grids, deriving the core views.
func NewChunk(t0 int64, ppIntensity, ppWeights Grid, prepad, postpad int) *Chunk {
	if !ppIntensity.SameShape(ppWeights) {
		panic(fmt.Sprintf("core: chunk intensity %dx%d and weights %dx%d differ",
			ppIntensity.Nfreq, ppIntensity.Nt, ppWeights.Nfreq, ppWeights.Nt))
	}
	nt := ppIntensity.Nt - prepad - postpad
	if nt <= 0 || prepad < 0 || postpad < 0 {
		panic(fmt.Sprintf("core: bad chunk padding prepad=%d postpad=%d nt=%d", prepad, postpad, ppIntensity.Nt))
	}
	return &Chunk{
		T0:          t0,
		T1:          t0 + int64(nt),
		Intensity:   ppIntensity.Sub(prepad, prepad+nt),
		Weights:     ppWeights.Sub(prepad, prepad+nt),
		PPIntensity: ppIntensity,
		PPWeights:   ppWeights,
		Prepad:      prepad,
		Postpad:     postpad,
	}
}

// Nfreq returns the channel count.
func (c *Chunk) Nfreq() int {
	return c.Intensity.Nfreq
}

// Nt returns the core window length.
func (c *Chunk) Nt() int {
	return c.Intensity.Nt
}
