package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowAppendDiscardGrow(t *testing.T) {
	t.Parallel()

	w := newWindow(2, 4)
	w.reset(10)
	w.append(timeGrid(2, 3, 10), onesGrid(2, 3), 10)
	assert.Equal(t, int64(13), w.end())

	// Needs room: drops [10, 12) and then fits without growing.
	w.append(timeGrid(2, 3, 13), onesGrid(2, 3), 12)
	assert.Equal(t, int64(12), w.base)
	assert.Equal(t, 4, w.cap)

	// Nothing can be dropped, so the window grows.
	w.append(timeGrid(2, 5, 16), onesGrid(2, 5), 12)
	assert.GreaterOrEqual(t, w.cap, 9)

	ii, ww := w.views(12, 21)
	for tt := 0; tt < 9; tt++ {
		require.InDelta(t, float64(12+tt), ii.At(1, tt), 0)
		require.InDelta(t, 1.0, ww.At(0, tt), 0)
	}

	w.padZeros(24, 12)
	ii, ww = w.views(21, 24)
	assert.Zero(t, ii.At(0, 2))
	assert.Zero(t, ww.At(1, 0))
}

func TestWindowViewsPanicOutOfRange(t *testing.T) {
	t.Parallel()

	w := newWindow(1, 4)
	w.reset(0)
	w.append(timeGrid(1, 2, 0), onesGrid(1, 2), 0)
	assert.Panics(t, func() { w.views(0, 3) })
}
