package stream

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rfi/internal/testutil"
	"github.com/cwbudde/algo-rfi/rfi/core"
)

func drain(t *testing.T, s Stream) []Block {
	t.Helper()
	var out []Block
	for {
		b, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, b)
	}
}

func TestArrayStreamBlocks(t *testing.T) {
	t.Parallel()

	intensity := testutil.RampGrid(3, 10)
	s, err := NewArrayStream(intensity, testutil.Ones(3, 10), WithBlockNt(4), WithStartTime(100))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Nfreq())

	blocks := drain(t, s)
	require.Len(t, blocks, 3)
	assert.Equal(t, []int64{100, 104, 108}, []int64{blocks[0].T0, blocks[1].T0, blocks[2].T0})
	assert.Equal(t, 2, blocks[2].Nt())
	assert.Equal(t, int64(110), blocks[2].T1())
	assert.InDelta(t, 19.0, blocks[2].Intensity.At(1, 1), 0)
	require.NoError(t, blocks[0].Validate(3))
	require.Error(t, blocks[0].Validate(4))
}

func TestArrayStreamRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewArrayStream(core.NewGrid(2, 4), core.NewGrid(2, 5))
	require.Error(t, err)
	_, err = NewArrayStream(core.NewGrid(2, 4), core.NewGrid(2, 4), WithBlockNt(0))
	require.Error(t, err)
}

func TestArrayStreamHonoursContext(t *testing.T) {
	t.Parallel()

	s, err := NewArrayStream(testutil.Ones(1, 4), testutil.Ones(1, 4))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcatKeepsGaps(t *testing.T) {
	t.Parallel()

	a, _ := NewArrayStream(testutil.Ones(2, 8), testutil.Ones(2, 8), WithBlockNt(8))
	b, _ := NewArrayStream(testutil.Ones(2, 4), testutil.Ones(2, 4), WithStartTime(20))
	c, err := NewConcat(a, b)
	require.NoError(t, err)

	blocks := drain(t, c)
	require.Len(t, blocks, 2)
	assert.Equal(t, int64(0), blocks[0].T0)
	assert.Equal(t, int64(20), blocks[1].T0)
}

func TestConcatRejectsOverlapAndShape(t *testing.T) {
	t.Parallel()

	a, _ := NewArrayStream(testutil.Ones(2, 8), testutil.Ones(2, 8))
	b, _ := NewArrayStream(testutil.Ones(2, 4), testutil.Ones(2, 4), WithStartTime(4))
	c, err := NewConcat(a, b)
	require.NoError(t, err)
	_, err = c.Next(context.Background())
	require.NoError(t, err)
	_, err = c.Next(context.Background())
	require.Error(t, err)

	d, _ := NewArrayStream(testutil.Ones(3, 4), testutil.Ones(3, 4))
	_, err = NewConcat(a, d)
	require.Error(t, err)
}

func TestNpyRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ipath := filepath.Join(dir, "intensity.npy")
	wpath := filepath.Join(dir, "weights.npy")

	intensity := testutil.GaussianGrid(5, 4, 12, 0, 1)
	weights := testutil.Ones(4, 12)
	weights.Set(2, 3, 0)
	require.NoError(t, WriteGrid(ipath, intensity))
	require.NoError(t, WriteGrid(wpath, weights))

	s, err := OpenNpy(ipath, wpath, WithBlockNt(12))
	require.NoError(t, err)
	b, err := s.Next(context.Background())
	require.NoError(t, err)
	testutil.RequireGridNearlyEqual(t, b.Intensity, intensity, 0)
	testutil.RequireGridNearlyEqual(t, b.Weights, weights, 0)

	s, err = OpenNpy(ipath, "")
	require.NoError(t, err)
	b, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.ZeroCount(b.Weights))
}
