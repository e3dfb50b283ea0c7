package interp

import (
	"fmt"
	"math"
)

// Mode selects an interpolation method.
type Mode int

const (
	Nearest Mode = iota
	Linear
	Cubic
)

func (m Mode) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a method name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "nearest", "":
		return Nearest, nil
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	default:
		return Nearest, fmt.Errorf("interp: unknown mode %q", s)
	}
}

// Linear2 interpolates from x0 (frac 0) to x1 (frac 1).
func Linear2(frac, x0, x1 float64) float64 {
	return x0 + frac*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Support returns the inclusive index range of samples that At reads for
// position x in a sequence of n samples.
func Support(n int, x float64, mode Mode) (lo, hi int) {
	if n <= 0 {
		return 0, -1
	}
	switch mode {
	case Linear:
		i0 := clamp(int(math.Floor(x)), 0, n-1)
		return i0, clamp(i0+1, 0, n-1)
	case Cubic:
		i0 := int(math.Floor(x))
		return clamp(i0-1, 0, n-1), clamp(i0+2, 0, n-1)
	default:
		i := clamp(int(math.Floor(x+0.5)), 0, n-1)
		return i, i
	}
}

// At evaluates samples, located at integer positions, at position x.
func At(samples []float64, x float64, mode Mode) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	if x <= 0 {
		return samples[0]
	}
	if x >= float64(n-1) {
		return samples[n-1]
	}
	i0 := int(math.Floor(x))
	frac := x - float64(i0)
	switch mode {
	case Linear:
		return Linear2(frac, samples[i0], samples[i0+1])
	case Cubic:
		xm1 := samples[clamp(i0-1, 0, n-1)]
		x2 := samples[clamp(i0+2, 0, n-1)]
		return Hermite4(frac, xm1, samples[i0], samples[i0+1], x2)
	default:
		return samples[clamp(int(math.Floor(x+0.5)), 0, n-1)]
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
