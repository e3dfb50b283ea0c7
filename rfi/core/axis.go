package core

import "fmt"

// Axis selects the direction a statistic is reduced along.
type Axis int

const (
	// AxisNone reduces over the whole array.
	AxisNone Axis = -1
	// AxisFreq reduces across frequency, yielding one value per time sample.
	AxisFreq Axis = 0
	// AxisTime reduces across time, yielding one value per channel.
	AxisTime Axis = 1
)

// ParseAxis converts the integer convention (0 = freq, 1 = time) to an Axis.
func ParseAxis(v int) (Axis, error) {
	switch Axis(v) {
	case AxisFreq, AxisTime:
		return Axis(v), nil
	default:
		return AxisNone, fmt.Errorf("axis must be 0 (along freq) or 1 (along time): %d", v)
	}
}

// Orthogonal returns the other axis. AxisNone maps to itself.
func (a Axis) Orthogonal() Axis {
	switch a {
	case AxisFreq:
		return AxisTime
	case AxisTime:
		return AxisFreq
	default:
		return AxisNone
	}
}

// Valid reports whether a is one of the defined axes.
func (a Axis) Valid() bool {
	return a == AxisNone || a == AxisFreq || a == AxisTime
}

// ReducedLen is the number of statistics produced when reducing an
// nfreq × nt array along a.
func (a Axis) ReducedLen(nfreq, nt int) int {
	switch a {
	case AxisFreq:
		return nt
	case AxisTime:
		return nfreq
	default:
		return 1
	}
}

// Index maps (f, t) to the statistic index it belongs to.
func (a Axis) Index(f, t int) int {
	switch a {
	case AxisFreq:
		return t
	case AxisTime:
		return f
	default:
		return 0
	}
}

func (a Axis) String() string {
	switch a {
	case AxisFreq:
		return "freq"
	case AxisTime:
		return "time"
	case AxisNone:
		return "none"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}
