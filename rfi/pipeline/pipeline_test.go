package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rfi/internal/testutil"
	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/stream"
	"github.com/cwbudde/algo-rfi/rfi/transform"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, errNoStages)

	_, err = New([]transform.Transform{nil})
	require.ErrorIs(t, err, errNilStage)

	_, err = New([]transform.Transform{&recorder{spec: core.ChunkSpec{NtChunk: 0}}})
	require.ErrorIs(t, err, core.ErrInvalidChunkSpec)

	_, err = New([]transform.Transform{&recorder{spec: core.ChunkSpec{NtChunk: 4, NtPrepad: -1}}})
	require.ErrorIs(t, err, core.ErrInvalidChunkSpec)
}

func TestRunIdentityCoversEverySampleOnce(t *testing.T) {
	t.Parallel()

	rec := &recorder{name: "a", spec: core.ChunkSpec{NtChunk: 8}}
	var out Collector
	p, err := New([]transform.Transform{rec}, WithSink(&out))
	require.NoError(t, err)

	sum, err := p.Run(context.Background(), timeStream(3, 37, 0, 5))
	require.NoError(t, err)

	assert.Equal(t, int64(37), sum.Samples)
	assert.Equal(t, 1, sum.Substreams)
	require.Len(t, sum.Stages, 1)
	assert.Equal(t, 5, sum.Stages[0].Chunks)
	assert.Equal(t, "recorder(a)", sum.Stages[0].Name)

	for i, c := range rec.chunks {
		assert.Equal(t, int64(8*i), c.t0)
		assert.Equal(t, int64(8*i+8), c.t1)
	}
	assert.Equal(t, []core.StreamInfo{{Nfreq: 3}}, rec.attached)
	assert.Equal(t, []int64{0}, rec.starts)
	assert.Equal(t, 1, rec.ends)

	intensity, weights := out.Grids()
	testutil.RequireGridNearlyEqual(t, intensity, timeGrid(3, 37, 0), 0)
	testutil.RequireGridNearlyEqual(t, weights, onesGrid(3, 37), 0)
}

func TestRunPaddingIsRealDataAndTruncated(t *testing.T) {
	t.Parallel()

	rec := &recorder{spec: core.ChunkSpec{NtChunk: 8, NtPrepad: 3, NtPostpad: 5}}
	p, err := New([]transform.Transform{rec})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), timeStream(2, 20, 1000, 7))
	require.NoError(t, err)

	require.Len(t, rec.chunks, 3)
	want := []struct {
		t0              int64
		prepad, postpad int
	}{
		{1000, 0, 5},
		{1008, 3, 4},
		{1016, 3, 0},
	}
	for i, w := range want {
		c := rec.chunks[i]
		assert.Equal(t, w.t0, c.t0, "chunk %d", i)
		assert.Equal(t, w.prepad, c.prepad, "chunk %d prepad", i)
		assert.Equal(t, w.postpad, c.postpad, "chunk %d postpad", i)
		require.Len(t, c.ppIntensity, w.prepad+8+w.postpad)
		// Every padded sample holds its own absolute time, except the zero
		// padding past the end of data.
		for j, v := range c.ppIntensity {
			abs := c.t0 - int64(c.prepad) + int64(j)
			if abs < 1020 {
				assert.InDelta(t, float64(abs), v, 0, "chunk %d sample %d", i, j)
			} else {
				assert.Zero(t, v, "chunk %d sample %d", i, j)
			}
		}
	}
}

func TestRunZeroPaddingHasZeroWeightAndIsNotEmitted(t *testing.T) {
	t.Parallel()

	var sawPad bool
	rec := &recorder{spec: core.ChunkSpec{NtChunk: 16}}
	rec.onChunk = func(c *core.Chunk) {
		for tt := 0; tt < c.Nt(); tt++ {
			if c.T0+int64(tt) >= 10 {
				sawPad = true
				assert.Zero(t, c.Weights.At(0, tt))
			}
		}
	}
	var out Collector
	p, err := New([]transform.Transform{rec}, WithSink(&out))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), timeStream(1, 10, 0, 10))
	require.NoError(t, err)
	assert.True(t, sawPad)
	intensity, _ := out.Grids()
	assert.Equal(t, 10, intensity.Nt)
}

func TestRunStagesSeeUpstreamOutput(t *testing.T) {
	t.Parallel()

	a := &recorder{name: "a", spec: core.ChunkSpec{NtChunk: 8}, offset: 1000}
	b := &recorder{name: "b", spec: core.ChunkSpec{NtChunk: 5, NtPrepad: 2, NtPostpad: 3}, offset: 1e6}
	var out Collector
	p, err := New([]transform.Transform{a, b}, WithSink(&out))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), timeStream(2, 41, 0, 6))
	require.NoError(t, err)

	for _, c := range b.chunks {
		for j, v := range c.ppIntensity {
			abs := c.t0 - int64(c.prepad) + int64(j)
			switch {
			case abs >= 41:
				continue
			case abs < c.t0:
				// Prepad was already processed by b itself.
				assert.InDelta(t, float64(abs)+1000+1e6, v, 0)
			default:
				assert.InDelta(t, float64(abs)+1000, v, 0)
			}
		}
	}

	intensity, _ := out.Grids()
	require.Equal(t, 41, intensity.Nt)
	for tt := 0; tt < 41; tt++ {
		assert.InDelta(t, float64(tt)+1000+1e6, intensity.At(1, tt), 0)
	}
}

func TestRunSubstreams(t *testing.T) {
	t.Parallel()

	first := timeStream(2, 12, 0, 4)
	second := timeStream(2, 9, 100, 4)
	s, err := stream.NewConcat(first, second)
	require.NoError(t, err)

	rec := &recorder{spec: core.ChunkSpec{NtChunk: 8, NtPrepad: 4}}
	var out Collector
	p, err := New([]transform.Transform{rec}, WithSink(&out))
	require.NoError(t, err)

	sum, err := p.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Substreams)
	assert.Equal(t, []int64{0, 100}, rec.starts)
	assert.Equal(t, 2, rec.ends)
	assert.Equal(t, []int64{0, 100}, out.Starts)

	var t0s []int64
	for _, c := range rec.chunks {
		t0s = append(t0s, c.t0)
		if c.t0 == 100 {
			assert.Zero(t, c.prepad, "prepad must not cross a substream start")
			assert.Equal(t, 1, c.isubstream)
		}
	}
	assert.Equal(t, []int64{0, 8, 100, 108}, t0s)

	intensity, _ := out.Grids()
	assert.Equal(t, 21, intensity.Nt)
	assert.InDelta(t, 100.0, intensity.At(0, 12), 0)
}

func TestRunCancellationEndsSubstream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &cancelAfter{Stream: timeStream(1, 64, 0, 8), n: 2, cancel: cancel}

	rec := &recorder{spec: core.ChunkSpec{NtChunk: 8}}
	var out Collector
	p, err := New([]transform.Transform{rec}, WithSink(&out))
	require.NoError(t, err)

	_, err = p.Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.starts, 1)
	assert.Equal(t, 1, rec.ends)
	assert.Len(t, rec.chunks, 2)
	assert.Equal(t, 2, s.calls)
}

func TestRunAttachErrorStopsBeforeData(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := &recorder{name: "ok", spec: core.ChunkSpec{NtChunk: 4}}
	bad := &recorder{name: "bad", spec: core.ChunkSpec{NtChunk: 4}, attachErr: boom}
	s := &cancelAfter{Stream: timeStream(1, 16, 0, 4), n: -1, cancel: func() {}}

	p, err := New([]transform.Transform{ok, bad})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), s)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "recorder(bad)")
	assert.Zero(t, s.calls)
	assert.Empty(t, ok.starts)
	assert.Empty(t, ok.chunks)
}

func TestRunSinkErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	rec := &recorder{spec: core.ChunkSpec{NtChunk: 4}}
	p, err := New([]transform.Transform{rec}, WithSink(SinkFunc(func(stream.Block) error { return boom })))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), timeStream(1, 16, 0, 4))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.ends)
}

func TestRunLargeBlocksAndSmallChunks(t *testing.T) {
	t.Parallel()

	a := &recorder{spec: core.ChunkSpec{NtChunk: 3, NtPrepad: 7, NtPostpad: 11}, offset: 1}
	var out Collector
	p, err := New([]transform.Transform{a}, WithSink(&out))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), timeStream(4, 500, 0, 128))
	require.NoError(t, err)

	intensity, _ := out.Grids()
	require.Equal(t, 500, intensity.Nt)
	for tt := 0; tt < 500; tt++ {
		require.InDelta(t, float64(tt)+1, intensity.At(3, tt), 0)
	}
	assert.Len(t, a.chunks, 167)
}
