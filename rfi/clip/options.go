package clip

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// Mode selects the per-slice spread estimate.
type Mode int

const (
	// ModeStdDev uses the weighted standard deviation about the slice
	// mean. A slice whose variance is below 1e-10·mean² has no usable
	// statistic.
	ModeStdDev Mode = iota
	// ModeRMS uses the weighted RMS about zero, sqrt(Σwx²/Σw). Any slice
	// with nonzero total weight is usable.
	ModeRMS
)

func (m Mode) String() string {
	switch m {
	case ModeStdDev:
		return "stddev"
	case ModeRMS:
		return "rms"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name back to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "stddev", "":
		return ModeStdDev, nil
	case "rms":
		return ModeRMS, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// ErrInvalidConfig is returned for parameters the clipper cannot run with.
var ErrInvalidConfig = errors.New("clip: invalid configuration")

// Defaults.
const (
	DefaultThreshold = 3.0
	DefaultAxis      = core.AxisTime
)

// Config holds the clipper parameters.
type Config struct {
	Threshold float64
	Axis      core.Axis
	NtChunk   int
	DsNfreq   int // 0 keeps native frequency resolution
	DsNt      int // 0 keeps native time resolution
	Mode      Mode
}

// DefaultConfig returns the default clipper configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Axis:      DefaultAxis,
		NtChunk:   core.DefaultNtChunk,
		Mode:      ModeStdDev,
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithThreshold sets the clipping threshold in units of the spread of
// spreads. Must be >= 1.
func WithThreshold(thr float64) Option {
	return func(c *Config) { c.Threshold = thr }
}

// WithAxis selects the axis each spread is computed along.
func WithAxis(a core.Axis) Option {
	return func(c *Config) { c.Axis = a }
}

// WithNtChunk sets the chunk length.
func WithNtChunk(n int) Option {
	return func(c *Config) { c.NtChunk = n }
}

// WithDownsample computes statistics on an nfreq × nt coarse grid. Zero
// keeps the native resolution along that axis.
func WithDownsample(nfreq, nt int) Option {
	return func(c *Config) {
		c.DsNfreq = nfreq
		c.DsNt = nt
	}
}

// WithMode selects the spread estimate.
func WithMode(m Mode) Option {
	return func(c *Config) { c.Mode = m }
}

// Validate checks everything that does not depend on the stream.
func (c Config) Validate() error {
	if c.Axis != core.AxisFreq && c.Axis != core.AxisTime {
		return fmt.Errorf("%w: axis must be 0 (along freq) or 1 (along time): %d", ErrInvalidConfig, int(c.Axis))
	}
	if !(c.Threshold >= 1) {
		return fmt.Errorf("%w: threshold must be >= 1: %g", ErrInvalidConfig, c.Threshold)
	}
	if c.NtChunk <= 0 {
		return fmt.Errorf("%w: nt_chunk must be > 0: %d", ErrInvalidConfig, c.NtChunk)
	}
	if c.DsNfreq < 0 || c.DsNt < 0 {
		return fmt.Errorf("%w: downsampled shape must be > 0: %dx%d", ErrInvalidConfig, c.DsNfreq, c.DsNt)
	}
	if c.DsNt > 0 && (c.DsNt > c.NtChunk || c.NtChunk%c.DsNt != 0) {
		return fmt.Errorf("%w: dsample_nt=%d must divide nt_chunk=%d", ErrInvalidConfig, c.DsNt, c.NtChunk)
	}
	if c.Mode != ModeStdDev && c.Mode != ModeRMS {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Mode)
	}
	return nil
}
