package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rfi/internal/testutil"
	"github.com/cwbudde/algo-rfi/rfi/core"
)

func chunkAt(t0 int64, nfreq, nt int) *core.Chunk {
	return core.NewChunk(t0, testutil.RampGrid(nfreq, nt), testutil.Ones(nfreq, nt), 0, 0)
}

func TestReverterRestores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		restore       Restore
		wantIntensity bool
		wantWeights   bool
	}{
		{RestoreWeights, false, true},
		{RestoreIntensity, true, false},
		{RestoreBoth, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.restore.String(), func(t *testing.T) {
			t.Parallel()

			s, err := NewSaver(4)
			require.NoError(t, err)
			r, err := s.NewReverter(tt.restore)
			require.NoError(t, err)
			require.NoError(t, s.Attach(core.StreamInfo{Nfreq: 2}))
			require.NoError(t, r.Attach(core.StreamInfo{Nfreq: 2}))

			ch := chunkAt(8, 2, 4)
			orig := ch.Intensity.Clone()
			s.StartSubstream(0, 8)
			s.ProcessChunk(ch)
			assert.Equal(t, 1, s.Pending())

			ch.Intensity.Fill(-1)
			ch.Weights.Fill(0)
			r.ProcessChunk(ch)
			assert.Equal(t, 0, s.Pending())

			if tt.wantIntensity {
				testutil.RequireGridNearlyEqual(t, ch.Intensity, orig, 0)
			} else {
				assert.Equal(t, -1.0, ch.Intensity.At(1, 3))
			}
			if tt.wantWeights {
				assert.Equal(t, 0, testutil.ZeroCount(ch.Weights))
			} else {
				assert.Equal(t, 8, testutil.ZeroCount(ch.Weights))
			}
		})
	}
}

func TestSnapshotSharedByReverters(t *testing.T) {
	t.Parallel()

	s, err := NewSaver(4)
	require.NoError(t, err)
	r1, err := s.NewReverter(RestoreWeights)
	require.NoError(t, err)
	r2, err := s.NewReverter(RestoreIntensity)
	require.NoError(t, err)

	ch := chunkAt(0, 1, 4)
	s.ProcessChunk(ch)
	r1.ProcessChunk(ch)
	assert.Equal(t, 1, s.Pending())
	r2.ProcessChunk(ch)
	assert.Equal(t, 0, s.Pending())
	assert.Panics(t, func() { r1.ProcessChunk(ch) })
}

func TestSaverDropsStaleSnapshots(t *testing.T) {
	t.Parallel()

	s, err := NewSaver(4)
	require.NoError(t, err)
	_, err = s.NewReverter(RestoreBoth)
	require.NoError(t, err)
	s.ProcessChunk(chunkAt(0, 1, 4))
	s.ProcessChunk(chunkAt(4, 1, 4))
	assert.Equal(t, 2, s.Pending())
	s.StartSubstream(1, 100)
	assert.Equal(t, 0, s.Pending())
}

func TestSnapshotValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSaver(0)
	require.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewSaver(4)
	require.NoError(t, err)
	require.ErrorIs(t, s.Attach(core.StreamInfo{Nfreq: 1}), ErrInvalidConfig)
	_, err = s.NewReverter(0)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseRestore("mask")
	require.ErrorIs(t, err, ErrInvalidConfig)
	got, err := ParseRestore("both")
	require.NoError(t, err)
	assert.Equal(t, RestoreBoth, got)
}
