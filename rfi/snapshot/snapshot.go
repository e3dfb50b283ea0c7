package snapshot

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// ErrInvalidConfig is returned for unusable saver or reverter parameters.
var ErrInvalidConfig = errors.New("snapshot: invalid configuration")

// Restore selects which arrays a Reverter overwrites.
type Restore int

const (
	RestoreWeights Restore = 1 << iota
	RestoreIntensity
	RestoreBoth = RestoreWeights | RestoreIntensity
)

func (r Restore) String() string {
	switch r {
	case RestoreWeights:
		return "weights"
	case RestoreIntensity:
		return "intensity"
	case RestoreBoth:
		return "both"
	default:
		return fmt.Sprintf("Restore(%d)", int(r))
	}
}

// ParseRestore parses "weights", "intensity" or "both".
func ParseRestore(s string) (Restore, error) {
	switch s {
	case "weights", "":
		return RestoreWeights, nil
	case "intensity":
		return RestoreIntensity, nil
	case "both":
		return RestoreBoth, nil
	}
	return 0, fmt.Errorf("%w: unknown restore target %q", ErrInvalidConfig, s)
}

type entry struct {
	intensity core.Grid
	weights   core.Grid
	pending   int
}

// Saver snapshots each chunk's core.
type Saver struct {
	ntChunk   int
	reverters int
	saved     map[int64]*entry
	pool      *gridPool
}

// NewSaver returns a Saver with the given chunk length.
func NewSaver(ntChunk int) (*Saver, error) {
	if ntChunk <= 0 {
		return nil, fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidConfig, ntChunk)
	}
	return &Saver{ntChunk: ntChunk, saved: make(map[int64]*entry), pool: newGridPool()}, nil
}

// NewReverter returns a Reverter reading from s. All reverters must be
// created before the pipeline runs.
func (s *Saver) NewReverter(restore Restore) (*Reverter, error) {
	if restore&RestoreBoth == 0 || restore&^RestoreBoth != 0 {
		return nil, fmt.Errorf("%w: restore target %v", ErrInvalidConfig, restore)
	}
	s.reverters++
	return &Reverter{saver: s, restore: restore}, nil
}

// Name describes the saver.
func (s *Saver) Name() string {
	return fmt.Sprintf("saver(nt_chunk=%d)", s.ntChunk)
}

// ChunkSpec reports an unpadded chunk.
func (s *Saver) ChunkSpec() core.ChunkSpec { return core.ChunkSpec{NtChunk: s.ntChunk} }

// Attach fails if no reverter reads from the saver.
func (s *Saver) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if s.reverters == 0 {
		return fmt.Errorf("%w: saver has no reverter", ErrInvalidConfig)
	}
	return nil
}

// StartSubstream drops snapshots left from an earlier substream.
func (s *Saver) StartSubstream(int, int64) { s.releaseAll() }

// EndSubstream is a no-op; snapshots stay until the reverters consume them.
func (s *Saver) EndSubstream() {}

// ProcessChunk stores a copy of the chunk core.
func (s *Saver) ProcessChunk(ch *core.Chunk) {
	if old, ok := s.saved[ch.T0]; ok {
		s.release(ch.T0, old)
	}
	s.saved[ch.T0] = &entry{
		intensity: s.pool.clone(ch.Intensity),
		weights:   s.pool.clone(ch.Weights),
		pending:   s.reverters,
	}
}

// Pending returns the number of snapshots not yet consumed by every
// reverter.
func (s *Saver) Pending() int { return len(s.saved) }

func (s *Saver) release(t0 int64, e *entry) {
	s.pool.put(e.intensity)
	s.pool.put(e.weights)
	delete(s.saved, t0)
}

func (s *Saver) releaseAll() {
	for t0, e := range s.saved {
		s.release(t0, e)
	}
}

// Reverter restores chunks saved by its Saver.
type Reverter struct {
	saver   *Saver
	restore Restore
}

// Name describes the reverter.
func (r *Reverter) Name() string {
	return fmt.Sprintf("reverter(nt_chunk=%d, restore=%v)", r.saver.ntChunk, r.restore)
}

// ChunkSpec matches the saver's chunk length.
func (r *Reverter) ChunkSpec() core.ChunkSpec { return core.ChunkSpec{NtChunk: r.saver.ntChunk} }

// Attach validates the stream.
func (r *Reverter) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// StartSubstream is a no-op.
func (r *Reverter) StartSubstream(int, int64) {}

// EndSubstream is a no-op.
func (r *Reverter) EndSubstream() {}

// ProcessChunk overwrites the chunk with its snapshot. It panics if the
// saver never saw a chunk starting at the same time, which means the
// saver is missing from the chain or sits after the reverter.
func (r *Reverter) ProcessChunk(ch *core.Chunk) {
	e, ok := r.saver.saved[ch.T0]
	if !ok {
		panic(fmt.Sprintf("snapshot: no saved chunk at t0=%d", ch.T0))
	}
	if r.restore&RestoreIntensity != 0 {
		ch.Intensity.CopyFrom(e.intensity)
	}
	if r.restore&RestoreWeights != 0 {
		ch.Weights.CopyFrom(e.weights)
	}
	e.pending--
	if e.pending == 0 {
		r.saver.release(ch.T0, e)
	}
}
