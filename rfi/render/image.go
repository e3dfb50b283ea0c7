package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

var (
	errNegativeWeight = errors.New("render: negative weights are treated as an error")
	errEmpty          = errors.New("render: empty array")
)

// colorScale maps one standard deviation to this fraction of the colour
// range.
const colorScale = 0.16

// ImageOption configures Image.
type ImageOption func(*imageConfig)

type imageConfig struct {
	channelZeroTop bool
}

// WithChannelZeroTop draws channel 0 in the top row instead of the
// bottom row.
func WithChannelZeroTop() ImageOption {
	return func(c *imageConfig) { c.channelZeroTop = true }
}

// Image maps intensity to a raster with time along x and frequency along
// y. Values are centred on the array mean and scaled by its standard
// deviation; high values are red, low values blue. If weights is
// non-empty each pixel is dimmed by its weight relative to the largest
// weight, so masked samples are black.
func Image(intensity, weights core.Grid, opts ...ImageOption) (*image.RGBA, error) {
	var cfg imageConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if intensity.Nfreq == 0 || intensity.Nt == 0 {
		return nil, errEmpty
	}
	useWeights := weights.Nfreq != 0 || weights.Nt != 0
	wmax := 1.0
	if useWeights {
		if !weights.SameShape(intensity) {
			return nil, fmt.Errorf("render: %w: weights %dx%d, intensity %dx%d",
				core.ErrShapeMismatch, weights.Nfreq, weights.Nt, intensity.Nfreq, intensity.Nt)
		}
		lo, hi := weights.MinMax()
		if lo < 0 {
			return nil, fmt.Errorf("%w: min %g", errNegativeWeight, lo)
		}
		if hi > 0 {
			wmax = hi
		}
	}

	mean, variance := stat.PopMeanVariance(intensity.Flatten(), nil)
	rms := math.Sqrt(variance)
	img := image.NewRGBA(image.Rect(0, 0, intensity.Nt, intensity.Nfreq))
	for f := 0; f < intensity.Nfreq; f++ {
		y := intensity.Nfreq - 1 - f
		if cfg.channelZeroTop {
			y = f
		}
		row := intensity.Row(f)
		for t, v := range row {
			c := 0.5
			if rms > 0 {
				c = 0.5 + colorScale*(v-mean)/rms
			}
			c = math.Min(math.Max(c, 0), 0.999999)
			red, blue := 256*c, 256*(1-c)
			if useWeights {
				w := weights.At(f, t) / wmax
				red *= w
				blue *= w
			}
			img.SetRGBA(t, y, color.RGBA{R: channel(red), B: channel(blue), A: 255})
		}
	}
	return img, nil
}

func channel(v float64) uint8 {
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// WritePNGFile renders intensity and weights to a PNG file at path.
func WritePNGFile(path string, intensity, weights core.Grid, opts ...ImageOption) error {
	img, err := Image(intensity, weights, opts...)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
