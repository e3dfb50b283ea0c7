package maskcount

import "fmt"

// Measurement is the mask census of one chunk.
type Measurement struct {
	Where          string // label of the counter that produced it
	Pos            int64  // absolute time of the first sample
	NSamples       int
	NSamplesMasked int
	Nt             int
	NtMasked       int // time samples masked in every channel
	Nf             int
	NfMasked       int // channels masked at every time sample
	FreqsMasked    []uint16
	TimesMasked    []uint16
}

// Fraction returns the masked fraction of samples.
func (m Measurement) Fraction() float64 {
	if m.NSamples == 0 {
		return 0
	}
	return float64(m.NSamplesMasked) / float64(m.NSamples)
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s pos %d: samples masked %d/%d; times %d/%d; freqs %d/%d",
		m.Where, m.Pos, m.NSamplesMasked, m.NSamples, m.NtMasked, m.Nt, m.NfMasked, m.Nf)
}

// Sink receives measurements as they are made.
type Sink interface {
	MaskCount(m Measurement)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(m Measurement)

// MaskCount calls f.
func (f SinkFunc) MaskCount(m Measurement) { f(m) }

// Totals accumulates measurements over a run.
type Totals struct {
	Chunks         int
	NSamples       int64
	NSamplesMasked int64
	FreqsMasked    []int64
}

// MaskCount adds m to the totals.
func (t *Totals) MaskCount(m Measurement) {
	t.Chunks++
	t.NSamples += int64(m.NSamples)
	t.NSamplesMasked += int64(m.NSamplesMasked)
	if len(t.FreqsMasked) < len(m.FreqsMasked) {
		t.FreqsMasked = append(t.FreqsMasked, make([]int64, len(m.FreqsMasked)-len(t.FreqsMasked))...)
	}
	for f, n := range m.FreqsMasked {
		t.FreqsMasked[f] += int64(n)
	}
}

// Fraction returns the overall masked fraction.
func (t *Totals) Fraction() float64 {
	if t.NSamples == 0 {
		return 0
	}
	return float64(t.NSamplesMasked) / float64(t.NSamples)
}
