package maskfill

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rfi/internal/interp"
	"github.com/cwbudde/algo-rfi/rfi/core"
)

var errProfile = errors.New("maskfill: invalid variance profile")

// Profile is an nfreq × nbuckets array of variances. A zero entry means no
// usable calibration for that channel and bucket.
type Profile struct {
	m *mat.Dense
}

// NewProfile wraps m after checking that every entry is finite and
// non-negative.
func NewProfile(m *mat.Dense) (*Profile, error) {
	if m == nil || m.IsEmpty() {
		return nil, fmt.Errorf("%w: empty", errProfile)
	}
	r, _ := m.Dims()
	for f := 0; f < r; f++ {
		for b, v := range m.RawRowView(f) {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: entry (%d, %d) = %v", errProfile, f, b, v)
			}
		}
	}
	return &Profile{m: m}, nil
}

// LoadProfile reads a 2D .npy variance file of shape (nfreq, nbuckets).
func LoadProfile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("maskfill: open profile: %w", err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("maskfill: read profile %s: %w", path, err)
	}
	return NewProfile(&m)
}

// Save writes the profile as a 2D .npy file.
func (p *Profile) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("maskfill: create profile: %w", err)
	}
	if err := npyio.Write(f, p.m); err != nil {
		_ = f.Close()
		return fmt.Errorf("maskfill: write profile %s: %w", path, err)
	}
	return f.Close()
}

// Nfreq returns the channel count.
func (p *Profile) Nfreq() int {
	r, _ := p.m.Dims()
	return r
}

// Nbuckets returns the number of time buckets.
func (p *Profile) Nbuckets() int {
	_, c := p.m.Dims()
	return c
}

// At returns the variance of channel f in bucket b.
func (p *Profile) At(f, b int) float64 {
	return p.m.At(f, b)
}

// Matrix returns the underlying matrix.
func (p *Profile) Matrix() *mat.Dense {
	return p.m
}

// DeadChannels lists channels whose variance is zero in every bucket.
func (p *Profile) DeadChannels() []int {
	var out []int
	for f := 0; f < p.Nfreq(); f++ {
		dead := true
		for _, v := range p.m.RawRowView(f) {
			if v != 0 {
				dead = false
				break
			}
		}
		if dead {
			out = append(out, f)
		}
	}
	return out
}

// Variance returns the variance for channel f at sample index s counted
// from the start of the stream, with buckets of nvs samples. A zero own
// bucket always yields zero; interpolation never reads across a zero
// bucket.
func (p *Profile) Variance(f int, s int64, nvs int, mode interp.Mode) float64 {
	row := p.m.RawRowView(f)
	nb := len(row)
	own := bucketOf(s, nvs, nb)
	v := row[own]
	if v == 0 || mode == interp.Nearest || nb == 1 {
		return v
	}
	x := (float64(s)+0.5)/float64(nvs) - 0.5
	lo, hi := interp.Support(nb, x, mode)
	for b := lo; b <= hi; b++ {
		if row[b] == 0 {
			return v
		}
	}
	return max(interp.At(row, x, mode), 0)
}

func bucketOf(s int64, nvs, nb int) int {
	return int(core.ClampInt64(s/int64(nvs), 0, int64(nb-1)))
}
