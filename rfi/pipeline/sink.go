package pipeline

import (
	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/stream"
)

// Sink consumes processed samples. The block's grids alias the driver's
// window and are valid only for the duration of the call.
type Sink interface {
	Consume(b stream.Block) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(b stream.Block) error

// Consume calls f.
func (f SinkFunc) Consume(b stream.Block) error { return f(b) }

// Collector copies every emitted block. Gaps between substreams are not
// represented; Starts records where each substream begins.
type Collector struct {
	Starts []int64

	intensity [][]float64
	weights   [][]float64
	last      int64
}

// Consume appends b.
func (c *Collector) Consume(b stream.Block) error {
	if c.intensity == nil {
		c.intensity = make([][]float64, b.Intensity.Nfreq)
		c.weights = make([][]float64, b.Intensity.Nfreq)
	}
	if len(c.Starts) == 0 || b.T0 != c.last {
		c.Starts = append(c.Starts, b.T0)
	}
	c.last = b.T1()
	for f := range c.intensity {
		c.intensity[f] = append(c.intensity[f], b.Intensity.Row(f)...)
		c.weights[f] = append(c.weights[f], b.Weights.Row(f)...)
	}
	return nil
}

// Grids returns everything collected so far as contiguous grids.
func (c *Collector) Grids() (intensity, weights core.Grid) {
	return pack(c.intensity), pack(c.weights)
}

func pack(rows [][]float64) core.Grid {
	if len(rows) == 0 {
		return core.Grid{}
	}
	g := core.NewGrid(len(rows), len(rows[0]))
	for f, r := range rows {
		copy(g.Row(f), r)
	}
	return g
}
