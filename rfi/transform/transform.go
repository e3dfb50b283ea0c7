package transform

import "github.com/cwbudde/algo-rfi/rfi/core"

// Transform is one stage of a cleaning pipeline.
type Transform interface {
	// Name describes the stage and its configuration. It is used for
	// logging only.
	Name() string
	// ChunkSpec reports the chunk length and padding the stage needs.
	ChunkSpec() core.ChunkSpec
	// Attach is called once before any data, with the stream's fixed shape.
	Attach(info core.StreamInfo) error
	// StartSubstream begins a contiguous run starting at absolute time t0.
	StartSubstream(isubstream int, t0 int64)
	// ProcessChunk handles one chunk. Chunks arrive in time order.
	ProcessChunk(c *core.Chunk)
	// EndSubstream closes the current run and drops per-run state.
	EndSubstream()
}

// Failer is implemented by transforms with side effects that can fail,
// such as writing files. The driver checks Err at the end of every
// substream and stops the run on the first error.
type Failer interface {
	Err() error
}
