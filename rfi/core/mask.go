package core

import "fmt"

// Mask is a contiguous frequency × time boolean array.
type Mask struct {
	Nfreq int
	Nt    int
	Data  []bool
}

// NewMask returns an all-false mask.
func NewMask(nfreq, nt int) Mask {
	return Mask{Nfreq: nfreq, Nt: nt, Data: make([]bool, nfreq*nt)}
}

// At reports the mask value at channel f, time t.
func (m Mask) At(f, t int) bool {
	return m.Data[f*m.Nt+t]
}

// Set stores v at channel f, time t.
func (m Mask) Set(f, t int, v bool) {
	m.Data[f*m.Nt+t] = v
}

// Row returns the time samples of channel f.
func (m Mask) Row(f int) []bool {
	return m.Data[f*m.Nt : (f+1)*m.Nt]
}

// Count returns the number of set entries.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.Data {
		if b {
			n++
		}
	}
	return n
}

// ApplyTo zeroes the weight at every set location. Shapes must match.
func (m Mask) ApplyTo(weights Grid) {
	if m.Nfreq != weights.Nfreq || m.Nt != weights.Nt {
		panic(fmt.Sprintf("core: Mask.ApplyTo %dx%d onto %dx%d", m.Nfreq, m.Nt, weights.Nfreq, weights.Nt))
	}
	for f := 0; f < m.Nfreq; f++ {
		row := weights.Row(f)
		for t, b := range m.Row(f) {
			if b {
				row[t] = 0
			}
		}
	}
}
