package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/stream"
	"github.com/cwbudde/algo-rfi/rfi/transform"
)

var (
	errNoStages = errors.New("pipeline: no transforms")
	errNilStage = errors.New("pipeline: nil transform")
)

// StageStats summarizes the work one transform did during a run.
type StageStats struct {
	Name    string
	Chunks  int
	Elapsed time.Duration
}

// Summary describes a finished run.
type Summary struct {
	Nfreq      int
	Substreams int
	Samples    int64
	Stages     []StageStats
}

// Pipeline runs a fixed list of transforms over a stream.
type Pipeline struct {
	stages []transform.Transform
	specs  []core.ChunkSpec
	cfg    config
}

// New validates every transform's chunk spec. Transforms are attached
// later, by Run.
func New(stages []transform.Transform, opts ...Option) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, errNoStages
	}
	cfg := config{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Pipeline{stages: stages, specs: make([]core.ChunkSpec, len(stages)), cfg: cfg}
	for i, t := range stages {
		if t == nil {
			return nil, fmt.Errorf("%w at index %d", errNilStage, i)
		}
		spec := t.ChunkSpec()
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", t.Name(), err)
		}
		p.specs[i] = spec
	}
	return p, nil
}

// Stages returns the transforms in pipeline order.
func (p *Pipeline) Stages() []transform.Transform {
	return p.stages
}

// Run attaches every transform to s and processes it to the end, or until
// ctx is done or the stream or sink fails. Every started substream is
// ended before Run returns.
func (p *Pipeline) Run(ctx context.Context, s stream.Stream) (Summary, error) {
	info := core.StreamInfo{Nfreq: s.Nfreq()}
	if err := info.Validate(); err != nil {
		return Summary{}, fmt.Errorf("pipeline: %w", err)
	}
	for _, t := range p.stages {
		if err := t.Attach(info); err != nil {
			return Summary{}, fmt.Errorf("pipeline: attach %s: %w", t.Name(), err)
		}
		p.cfg.log.Debugw("attached", "transform", t.Name(), "nfreq", info.Nfreq)
	}

	r := newRun(p, info.Nfreq)
	err := r.loop(ctx, s)
	if r.active {
		if err == nil {
			err = r.finish()
		} else {
			r.endStages()
		}
	}
	sum := r.summary()
	if err != nil {
		return sum, err
	}
	p.cfg.log.Infow("pipeline finished",
		"substreams", sum.Substreams, "samples", sum.Samples, "nfreq", sum.Nfreq)
	for _, st := range sum.Stages {
		p.cfg.log.Infow("transform summary", "transform", st.Name, "chunks", st.Chunks, "elapsed", st.Elapsed)
	}
	return sum, nil
}

// run is the state of one Run call.
type run struct {
	p     *Pipeline
	nfreq int
	win   *window

	active     bool
	isubstream int
	t0         int64   // substream start
	ended      bool    // no more input for this substream
	realEnd    int64   // end of real data, valid once ended
	padEnd     int64   // end of zero padding, valid once ended
	pos        []int64 // per stage: processed through here
	emitted    int64

	samples int64
	stats   []StageStats
}

func newRun(p *Pipeline, nfreq int) *run {
	capacity := 0
	for _, s := range p.specs {
		capacity = max(capacity, 2*(s.NtChunk+s.NtPrepad+s.NtPostpad))
	}
	r := &run{
		p:          p,
		nfreq:      nfreq,
		win:        newWindow(nfreq, capacity),
		isubstream: -1,
		pos:        make([]int64, len(p.stages)),
		stats:      make([]StageStats, len(p.stages)),
	}
	for i, t := range p.stages {
		r.stats[i].Name = t.Name()
	}
	return r
}

func (r *run) loop(ctx context.Context, s stream.Stream) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pipeline: stream: %w", err)
		}
		if err := b.Validate(r.nfreq); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		if r.active && b.T0 != r.win.end() {
			if b.T0 < r.win.end() {
				return fmt.Errorf("pipeline: block at t0=%d overlaps data ending at %d", b.T0, r.win.end())
			}
			if err := r.finish(); err != nil {
				return err
			}
		}
		if !r.active {
			r.start(b.T0)
		}
		r.win.append(b.Intensity, b.Weights, r.keepFrom())
		r.samples += int64(b.Nt())
		r.advance()
		if err := r.emit(r.pos[len(r.pos)-1]); err != nil {
			return err
		}
	}
}

func (r *run) start(t0 int64) {
	r.active = true
	r.isubstream++
	r.t0 = t0
	r.ended = false
	r.emitted = t0
	r.win.reset(t0)
	for i := range r.pos {
		r.pos[i] = t0
	}
	r.p.cfg.log.Debugw("substream start", "index", r.isubstream, "t0", t0)
	for _, t := range r.p.stages {
		t.StartSubstream(r.isubstream, t0)
	}
}

// finish flushes the current substream: zero-pads to the longest stage
// extent, runs every stage to completion and ends the substream.
func (r *run) finish() error {
	r.ended = true
	r.realEnd = r.win.end()
	r.padEnd = r.realEnd
	for i := range r.p.stages {
		r.padEnd = max(r.padEnd, r.extent(i))
	}
	r.win.padZeros(r.padEnd, r.keepFrom())
	r.advance()
	err := r.emit(r.realEnd)
	r.endStages()
	if err != nil {
		return err
	}
	return r.stageErr()
}

// stageErr returns the first error reported by a Failer stage.
func (r *run) stageErr() error {
	for _, t := range r.p.stages {
		if f, ok := t.(transform.Failer); ok {
			if err := f.Err(); err != nil {
				return fmt.Errorf("pipeline: %s: %w", t.Name(), err)
			}
		}
	}
	return nil
}

func (r *run) endStages() {
	for _, t := range r.p.stages {
		t.EndSubstream()
	}
	r.p.cfg.log.Debugw("substream end", "index", r.isubstream, "t0", r.t0, "t1", r.win.end())
	r.active = false
}

// extent is the end of stage i's last chunk once the substream has ended.
func (r *run) extent(i int) int64 {
	n := int64(r.p.specs[i].NtChunk)
	length := r.realEnd - r.t0
	return r.t0 + (length+n-1)/n*n
}

// upstream reports how far stage i's input is final, and whether no more
// input will follow.
func (r *run) upstream(i int) (avail int64, done bool) {
	if i == 0 {
		if r.ended {
			return r.padEnd, true
		}
		return r.win.end(), false
	}
	if r.ended && r.pos[i-1] >= r.extent(i-1) {
		return r.padEnd, true
	}
	return r.pos[i-1], false
}

// advance processes every chunk that has become ready, stage by stage.
func (r *run) advance() {
	for i := range r.p.stages {
		for r.step(i) {
		}
	}
}

// step processes the next chunk of stage i if its input is ready.
func (r *run) step(i int) bool {
	spec := r.p.specs[i]
	t0 := r.pos[i]
	t1 := t0 + int64(spec.NtChunk)
	avail, done := r.upstream(i)

	postpad := int64(spec.NtPostpad)
	if done {
		if t0 >= r.extent(i) {
			return false
		}
		postpad = min(postpad, max(r.realEnd-t1, 0))
	} else if t1+postpad > avail {
		return false
	}
	prepad := min(int64(spec.NtPrepad), t0-r.t0)

	ppI, ppW := r.win.views(t0-prepad, t1+postpad)
	c := core.NewChunk(t0, ppI, ppW, int(prepad), int(postpad))

	start := time.Now()
	r.p.stages[i].ProcessChunk(c)
	r.stats[i].Elapsed += time.Since(start)
	r.stats[i].Chunks++
	r.pos[i] = t1
	return true
}

// emit hands finished samples up to t to the sink.
func (r *run) emit(t int64) error {
	if r.ended {
		t = min(t, r.realEnd)
	}
	if t <= r.emitted {
		return nil
	}
	if r.p.cfg.sink != nil {
		ii, ww := r.win.views(r.emitted, t)
		if err := r.p.cfg.sink.Consume(stream.Block{T0: r.emitted, Intensity: ii, Weights: ww}); err != nil {
			return fmt.Errorf("pipeline: sink: %w", err)
		}
	}
	r.emitted = t
	return nil
}

// keepFrom is the oldest absolute time still needed by any stage or the
// sink.
func (r *run) keepFrom() int64 {
	keep := r.emitted
	for i, spec := range r.p.specs {
		keep = min(keep, max(r.pos[i]-int64(spec.NtPrepad), r.t0))
	}
	return keep
}

func (r *run) summary() Summary {
	stats := make([]StageStats, len(r.stats))
	copy(stats, r.stats)
	return Summary{
		Nfreq:      r.nfreq,
		Substreams: r.isubstream + 1,
		Samples:    r.samples,
		Stages:     stats,
	}
}
