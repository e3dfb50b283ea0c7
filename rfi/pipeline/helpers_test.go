package pipeline

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/stream"
)

type chunkRecord struct {
	t0, t1          int64
	prepad, postpad int
	ppIntensity     []float64 // channel 0 of the padded intensity
	isubstream      int
}

// recorder logs every hook call and optionally adds offset to the core
// intensity.
type recorder struct {
	name      string
	spec      core.ChunkSpec
	offset    float64
	attachErr error

	attached []core.StreamInfo
	starts   []int64
	ends     int
	chunks   []chunkRecord
	current  int
	onChunk  func(c *core.Chunk)
}

func (r *recorder) Name() string { return fmt.Sprintf("recorder(%s)", r.name) }

func (r *recorder) ChunkSpec() core.ChunkSpec { return r.spec }

func (r *recorder) Attach(info core.StreamInfo) error {
	r.attached = append(r.attached, info)
	return r.attachErr
}

func (r *recorder) StartSubstream(isubstream int, t0 int64) {
	r.current = isubstream
	r.starts = append(r.starts, t0)
}

func (r *recorder) ProcessChunk(c *core.Chunk) {
	r.chunks = append(r.chunks, chunkRecord{
		t0:          c.T0,
		t1:          c.T1,
		prepad:      c.Prepad,
		postpad:     c.Postpad,
		ppIntensity: append([]float64(nil), c.PPIntensity.Row(0)...),
		isubstream:  r.current,
	})
	if r.onChunk != nil {
		r.onChunk(c)
	}
	if r.offset != 0 {
		for f := 0; f < c.Nfreq(); f++ {
			row := c.Intensity.Row(f)
			for i := range row {
				row[i] += r.offset
			}
		}
	}
}

func (r *recorder) EndSubstream() { r.ends++ }

// timeGrid returns an nfreq × nt grid whose sample (f, t) is t0+t.
func timeGrid(nfreq, nt int, t0 int64) core.Grid {
	g := core.NewGrid(nfreq, nt)
	for f := 0; f < nfreq; f++ {
		row := g.Row(f)
		for t := range row {
			row[t] = float64(t0 + int64(t))
		}
	}
	return g
}

func onesGrid(nfreq, nt int) core.Grid {
	g := core.NewGrid(nfreq, nt)
	g.Fill(1)
	return g
}

func timeStream(nfreq, nt int, t0 int64, blockNt int) *stream.ArrayStream {
	s, err := stream.NewArrayStream(timeGrid(nfreq, nt, t0), onesGrid(nfreq, nt),
		stream.WithStartTime(t0), stream.WithBlockNt(blockNt))
	if err != nil {
		panic(err)
	}
	return s
}

// cancelAfter cancels its context after n blocks have been delivered.
type cancelAfter struct {
	stream.Stream
	n      int
	cancel context.CancelFunc
	calls  int
}

func (c *cancelAfter) Next(ctx context.Context) (stream.Block, error) {
	c.calls++
	b, err := c.Stream.Next(ctx)
	if c.calls == c.n {
		c.cancel()
	}
	return b, err
}
