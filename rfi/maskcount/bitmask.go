package maskcount

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

var errBitmaskShape = errors.New("maskcount: bitmask needs nt to be a positive multiple of 8")

// Bitmask packs one bit per sample, row-major, 8 samples per byte with
// the earliest sample in the lowest bit. A set bit means the sample has
// positive weight.
type Bitmask struct {
	Nfreq int
	Nt    int
	Bits  []byte
}

// MakeBitmask packs weights into a Bitmask.
func MakeBitmask(weights core.Grid) (Bitmask, error) {
	if weights.Nt <= 0 || weights.Nt%8 != 0 {
		return Bitmask{}, fmt.Errorf("%w: nt=%d", errBitmaskShape, weights.Nt)
	}
	b := Bitmask{Nfreq: weights.Nfreq, Nt: weights.Nt, Bits: make([]byte, weights.Nfreq*weights.Nt/8)}
	for f := 0; f < weights.Nfreq; f++ {
		row := weights.Row(f)
		out := b.Bits[f*weights.Nt/8 : (f+1)*weights.Nt/8]
		for i := range out {
			var v byte
			for j := 0; j < 8; j++ {
				if row[8*i+j] > 0 {
					v |= 1 << j
				}
			}
			out[i] = v
		}
	}
	return b, nil
}

// Unmasked reports whether sample (f, t) had positive weight.
func (b Bitmask) Unmasked(f, t int) bool {
	i := f*b.Nt + t
	return b.Bits[i/8]&(1<<(i%8)) != 0
}
