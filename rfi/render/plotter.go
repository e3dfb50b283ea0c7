package render

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/resolution"
)

// ErrInvalidConfig is returned for unusable plotter parameters.
var ErrInvalidConfig = errors.New("render: invalid configuration")

// PlotterOption configures a Plotter.
type PlotterOption func(*Plotter)

// WithNtChunk sets the chunk length.
func WithNtChunk(n int) PlotterOption {
	return func(p *Plotter) { p.ntChunk = n }
}

// WithGroup sets how many chunks go into one image.
func WithGroup(n int) PlotterOption {
	return func(p *Plotter) { p.group = n }
}

// WithImageSize downsamples every image to nfreq rows and nt columns.
// Zero keeps the native resolution along that axis.
func WithImageSize(nfreq, nt int) PlotterOption {
	return func(p *Plotter) {
		p.imgNfreq = nfreq
		p.imgNt = nt
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) PlotterOption {
	return func(p *Plotter) { p.log = l }
}

// Plotter writes the chunks it sees as PNG images, one per group of
// chunks, named <prefix>_<n>.png in its directory. It never modifies the
// chunk.
type Plotter struct {
	capability Capability
	dir        string
	prefix     string
	ntChunk    int
	group      int
	imgNfreq   int
	imgNt      int
	log        *zap.SugaredLogger

	accI    core.Grid
	accW    core.Grid
	filled  int
	groupT0 int64
	ifile   int
	files   []string
	err     error
}

// NewPlotter returns a Plotter writing into dir.
func NewPlotter(capability Capability, dir, prefix string, opts ...PlotterOption) (*Plotter, error) {
	p := &Plotter{
		capability: capability,
		dir:        dir,
		prefix:     prefix,
		ntChunk:    core.DefaultNtChunk,
		group:      1,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ntChunk <= 0 || p.group <= 0 {
		return nil, fmt.Errorf("%w: nt_chunk=%d group=%d must be > 0", ErrInvalidConfig, p.ntChunk, p.group)
	}
	if p.prefix == "" {
		return nil, fmt.Errorf("%w: empty file prefix", ErrInvalidConfig)
	}
	if p.imgNt < 0 || p.imgNfreq < 0 {
		return nil, fmt.Errorf("%w: negative image size", ErrInvalidConfig)
	}
	if p.imgNt > 0 {
		// Every chunk must cover whole pixels, so partial groups downsample too.
		span := p.ntChunk * p.group
		if span%p.imgNt != 0 || p.ntChunk%(span/p.imgNt) != 0 {
			return nil, fmt.Errorf("%w: image width %d does not tile %d chunks of %d samples",
				ErrInvalidConfig, p.imgNt, p.group, p.ntChunk)
		}
	}
	return p, nil
}

// Name describes the plotter.
func (p *Plotter) Name() string {
	return fmt.Sprintf("plotter(prefix='%s', nt_chunk=%d, group=%d, img_nfreq=%d, img_nt=%d)",
		p.prefix, p.ntChunk, p.group, p.imgNfreq, p.imgNt)
}

// ChunkSpec reports an unpadded chunk.
func (p *Plotter) ChunkSpec() core.ChunkSpec { return core.ChunkSpec{NtChunk: p.ntChunk} }

// Attach allocates the group buffers.
func (p *Plotter) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if p.imgNfreq > 0 && info.Nfreq%p.imgNfreq != 0 {
		return fmt.Errorf("%w: image height %d does not divide nfreq=%d", ErrInvalidConfig, p.imgNfreq, info.Nfreq)
	}
	if !p.capability {
		p.log.Warnw("rendering disabled, plotter passes chunks through", "plotter", p.Name())
		return nil
	}
	p.accI = core.NewGrid(info.Nfreq, p.ntChunk*p.group)
	p.accW = core.NewGrid(info.Nfreq, p.ntChunk*p.group)
	return nil
}

// StartSubstream starts a new group.
func (p *Plotter) StartSubstream(int, int64) { p.filled = 0 }

// ProcessChunk copies the chunk into the current group and writes the
// group once it is full.
func (p *Plotter) ProcessChunk(ch *core.Chunk) {
	if !p.capability || p.err != nil {
		return
	}
	if p.filled == 0 {
		p.groupT0 = ch.T0
	}
	n := ch.Nt()
	p.accI.Sub(p.filled, p.filled+n).CopyFrom(ch.Intensity)
	p.accW.Sub(p.filled, p.filled+n).CopyFrom(ch.Weights)
	p.filled += n
	if p.filled == p.accI.Nt {
		p.flush()
	}
}

// EndSubstream writes a partial group.
func (p *Plotter) EndSubstream() {
	if p.capability && p.err == nil && p.filled > 0 {
		p.flush()
	}
	p.filled = 0
}

// Err returns the first write error.
func (p *Plotter) Err() error { return p.err }

// Files returns the images written so far.
func (p *Plotter) Files() []string { return p.files }

func (p *Plotter) flush() {
	intensity := p.accI.Sub(0, p.filled)
	weights := p.accW.Sub(0, p.filled)
	p.filled = 0

	newNfreq, newNt := intensity.Nfreq, intensity.Nt
	if p.imgNfreq > 0 {
		newNfreq = p.imgNfreq
	}
	if p.imgNt > 0 {
		newNt = intensity.Nt / (p.ntChunk * p.group / p.imgNt)
	}
	if newNfreq != intensity.Nfreq || newNt != intensity.Nt {
		var err error
		intensity, weights, err = resolution.Downsample(intensity, weights, newNfreq, newNt)
		if err != nil {
			p.err = err
			return
		}
	}

	path := filepath.Join(p.dir, fmt.Sprintf("%s_%d.png", p.prefix, p.ifile))
	if err := WritePNGFile(path, intensity, weights); err != nil {
		p.err = err
		return
	}
	p.ifile++
	p.files = append(p.files, path)
	p.log.Debugw("wrote image", "path", path, "t0", p.groupT0, "nt", weights.Nt)
}
