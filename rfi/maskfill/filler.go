package maskfill

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-rfi/internal/interp"
	"github.com/cwbudde/algo-rfi/rfi/core"
)

// TrustedWeight is the weight given to every sample the filler keeps or
// fills.
const TrustedWeight = 2.0

// ErrInvalidConfig is returned for parameters the filler cannot run with.
var ErrInvalidConfig = errors.New("maskfill: invalid configuration")

type fillerConfig struct {
	ntChunk int
	seed    uint64
	mode    interp.Mode
	source  string
	trusted float64
}

// Option configures a Filler.
type Option func(*fillerConfig)

// WithNtChunk sets the chunk length. It must be a multiple of n_varsamples.
func WithNtChunk(n int) Option {
	return func(c *fillerConfig) { c.ntChunk = n }
}

// WithSeed seeds the noise generator.
func WithSeed(seed uint64) Option {
	return func(c *fillerConfig) { c.seed = seed }
}

// WithInterpolation interpolates the profile between bucket centres.
func WithInterpolation(m interp.Mode) Option {
	return func(c *fillerConfig) { c.mode = m }
}

// WithSource records where the profile came from, for Name.
func WithSource(s string) Option {
	return func(c *fillerConfig) { c.source = s }
}

// Filler is the mask-filling stage. Profile entries are variances: fill
// noise is drawn with standard deviation sqrt(v), not v.
type Filler struct {
	cfg     fillerConfig
	profile *Profile
	nvs     int
	cutoff  float64

	noise  distuv.Normal
	origin int64
	seen   bool
}

// New returns a Filler drawing variances from profile, with buckets of
// nVarSamples samples, keeping samples whose weight exceeds cutoff.
func New(profile *Profile, nVarSamples int, cutoff float64, opts ...Option) (*Filler, error) {
	cfg := fillerConfig{ntChunk: core.DefaultNtChunk, trusted: TrustedWeight, mode: interp.Nearest}
	for _, opt := range opts {
		opt(&cfg)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: nil profile", ErrInvalidConfig)
	}
	if nVarSamples <= 0 {
		return nil, fmt.Errorf("%w: n_varsamples must be > 0: %d", ErrInvalidConfig, nVarSamples)
	}
	if cfg.ntChunk <= 0 {
		return nil, fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidConfig, cfg.ntChunk)
	}
	if cfg.ntChunk%nVarSamples != 0 {
		return nil, fmt.Errorf("%w: nt_chunk=%d must be a multiple of n_varsamples=%d", ErrInvalidConfig, cfg.ntChunk, nVarSamples)
	}
	if math.IsNaN(cutoff) {
		return nil, fmt.Errorf("%w: weight cutoff is NaN", ErrInvalidConfig)
	}
	return &Filler{
		cfg:     cfg,
		profile: profile,
		nvs:     nVarSamples,
		cutoff:  cutoff,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewPCG(cfg.seed, cfg.seed^0xda3e39cb94b95bdb),
		},
	}, nil
}

// Name describes the filler.
func (m *Filler) Name() string {
	return fmt.Sprintf("mask_filler(var_file='%s', w_cutoff=%g, nt_chunk=%d)", m.cfg.source, m.cutoff, m.cfg.ntChunk)
}

// ChunkSpec reports an unpadded chunk.
func (m *Filler) ChunkSpec() core.ChunkSpec {
	return core.ChunkSpec{NtChunk: m.cfg.ntChunk}
}

// Attach checks that the profile covers every channel.
func (m *Filler) Attach(info core.StreamInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("maskfill: %w", err)
	}
	if m.profile.Nfreq() != info.Nfreq {
		return fmt.Errorf("%w: profile has %d channels, stream has %d", ErrInvalidConfig, m.profile.Nfreq(), info.Nfreq)
	}
	m.seen = false
	return nil
}

// StartSubstream anchors bucket 0 at the start of the first substream.
func (m *Filler) StartSubstream(_ int, t0 int64) {
	if !m.seen {
		m.origin = t0
		m.seen = true
	}
}

// EndSubstream is a no-op.
func (m *Filler) EndSubstream() {}

// ProcessChunk trusts, fills or masks every sample of the chunk. A zero
// profile variance masks the sample whatever its weight.
func (m *Filler) ProcessChunk(c *core.Chunk) {
	s0 := c.T0 - m.origin
	for f := 0; f < c.Nfreq(); f++ {
		irow, wrow := c.Intensity.Row(f), c.Weights.Row(f)
		for t, w := range wrow {
			v := m.profile.Variance(f, s0+int64(t), m.nvs, m.cfg.mode)
			switch {
			case v == 0:
				wrow[t] = 0
			case w > m.cutoff:
				wrow[t] = m.cfg.trusted
			default:
				irow[t] = m.noise.Rand() * math.Sqrt(v)
				wrow[t] = m.cfg.trusted
			}
		}
	}
}
