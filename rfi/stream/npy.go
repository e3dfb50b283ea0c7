package stream

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// ReadGrid loads a 2D float64 .npy file of shape (nfreq, nt).
func ReadGrid(path string) (core.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Grid{}, fmt.Errorf("stream: open %s: %w", path, err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return core.Grid{}, fmt.Errorf("stream: read %s: %w", path, err)
	}
	return FromDense(&m), nil
}

// WriteGrid stores g as a 2D float64 .npy file.
func WriteGrid(path string, g core.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stream: create %s: %w", path, err)
	}
	if err := npyio.Write(f, ToDense(g)); err != nil {
		_ = f.Close()
		return fmt.Errorf("stream: write %s: %w", path, err)
	}
	return f.Close()
}

// FromDense copies a matrix into a contiguous grid.
func FromDense(m *mat.Dense) core.Grid {
	r, c := m.Dims()
	g := core.NewGrid(r, c)
	for f := 0; f < r; f++ {
		mat.Row(g.Row(f), f, m)
	}
	return g
}

// ToDense copies a grid into a new matrix.
func ToDense(g core.Grid) *mat.Dense {
	return mat.NewDense(g.Nfreq, g.Nt, g.Flatten())
}

// OpenNpy builds an ArrayStream from an intensity file and an optional
// weights file. Without weights every sample gets weight 1.
func OpenNpy(intensityPath, weightsPath string, opts ...ArrayOption) (*ArrayStream, error) {
	intensity, err := ReadGrid(intensityPath)
	if err != nil {
		return nil, err
	}
	var weights core.Grid
	if weightsPath == "" {
		weights = core.NewGrid(intensity.Nfreq, intensity.Nt)
		weights.Fill(1)
	} else if weights, err = ReadGrid(weightsPath); err != nil {
		return nil, err
	}
	return NewArrayStream(intensity, weights, opts...)
}
