package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-rfi/internal/interp"
	"github.com/cwbudde/algo-rfi/rfi/adversarial"
	"github.com/cwbudde/algo-rfi/rfi/clip"
	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/maskcount"
	"github.com/cwbudde/algo-rfi/rfi/maskfill"
	"github.com/cwbudde/algo-rfi/rfi/render"
	"github.com/cwbudde/algo-rfi/rfi/snapshot"
	"github.com/cwbudde/algo-rfi/rfi/transform"
)

// Transform type names understood by NewRegistry.
const (
	TypeStdDevClipper     = "std_dev_clipper"
	TypeMaskFiller        = "mask_filler"
	TypeVarianceEstimator = "variance_estimator"
	TypeAdversarialMasker = "adversarial_masker"
	TypeMaskCounter       = "mask_counter"
	TypeSaver             = "saver"
	TypeReverter          = "reverter"
	TypePlotter           = "plotter"
)

var errSaver = errors.New("saver reference")

// Env carries the collaborators stage factories need.
type Env struct {
	Logger *zap.SugaredLogger
	// Render gates the plotter stage.
	Render render.Capability
	// OutputDir is where plotters write; relative profile paths are
	// resolved against ProfileDir.
	OutputDir  string
	ProfileDir string
	// CountSinks receive every mask_counter measurement.
	CountSinks []maskcount.Sink
}

// NewRegistry returns a registry of every built-in transform type.
// Savers and reverters are paired by name within one registry, so use a
// fresh registry per pipeline.
func NewRegistry(env Env) *transform.Registry {
	if env.Logger == nil {
		env.Logger = zap.NewNop().Sugar()
	}
	savers := make(map[string]*snapshot.Saver)

	reg := transform.NewRegistry()
	reg.MustRegister(TypeStdDevClipper, func(p transform.Params) (transform.Transform, error) {
		mode, err := clip.ParseMode(p.GetStr("mode", ""))
		if err != nil {
			return nil, err
		}
		axis, err := axisParam(p, core.AxisTime)
		if err != nil {
			return nil, err
		}
		def := clip.DefaultConfig()
		return clip.New(
			clip.WithThreshold(p.GetNum("threshold", def.Threshold)),
			clip.WithAxis(axis),
			clip.WithNtChunk(p.GetInt("nt_chunk", def.NtChunk)),
			clip.WithDownsample(p.GetInt("dsample_nfreq", 0), p.GetInt("dsample_nt", 0)),
			clip.WithMode(mode),
		)
	})
	reg.MustRegister(TypeMaskFiller, func(p transform.Params) (transform.Transform, error) {
		path := p.GetStr("profile", "")
		if path == "" {
			return nil, fmt.Errorf("%w: missing profile path", maskfill.ErrInvalidConfig)
		}
		if !filepath.IsAbs(path) && env.ProfileDir != "" {
			path = filepath.Join(env.ProfileDir, path)
		}
		prof, err := maskfill.LoadProfile(path)
		if err != nil {
			return nil, err
		}
		mode, err := interp.ParseMode(p.GetStr("interpolation", ""))
		if err != nil {
			return nil, err
		}
		opts := []maskfill.Option{
			maskfill.WithNtChunk(p.GetInt("nt_chunk", core.DefaultNtChunk)),
			maskfill.WithInterpolation(mode),
			maskfill.WithSource(p.GetStr("profile", "")),
		}
		if p.Has("seed") {
			opts = append(opts, maskfill.WithSeed(uint64(p.GetInt("seed", 0))))
		}
		return maskfill.New(prof, p.GetInt("n_varsamples", 0), p.GetNum("w_cutoff", 0.5), opts...)
	})
	reg.MustRegister(TypeVarianceEstimator, func(p transform.Params) (transform.Transform, error) {
		return maskfill.NewEstimator(p.GetInt("n_varsamples", 0),
			maskfill.WithEstimatorNtChunk(p.GetInt("nt_chunk", core.DefaultNtChunk)),
			maskfill.WithClipping(p.GetInt("iterations", 1), p.GetNum("clip", 3)),
		)
	})
	reg.MustRegister(TypeAdversarialMasker, func(p transform.Params) (transform.Transform, error) {
		return adversarial.New(
			adversarial.WithNtChunk(p.GetInt("nt_chunk", core.DefaultNtChunk)),
			adversarial.WithNtReset(int64(p.GetInt("nt_reset", adversarial.DefaultNtReset))),
		)
	})
	reg.MustRegister(TypeMaskCounter, func(p transform.Params) (transform.Transform, error) {
		opts := []maskcount.Option{maskcount.WithNtChunk(p.GetInt("nt_chunk", core.DefaultNtChunk))}
		for _, s := range env.CountSinks {
			opts = append(opts, maskcount.WithSink(s))
		}
		return maskcount.New(p.GetStr("where", "mask_counter"), opts...)
	})
	reg.MustRegister(TypeSaver, func(p transform.Params) (transform.Transform, error) {
		name := p.GetStr("name", "default")
		if _, ok := savers[name]; ok {
			return nil, fmt.Errorf("%w: duplicate saver %q", errSaver, name)
		}
		s, err := snapshot.NewSaver(p.GetInt("nt_chunk", core.DefaultNtChunk))
		if err != nil {
			return nil, err
		}
		savers[name] = s
		return s, nil
	})
	reg.MustRegister(TypeReverter, func(p transform.Params) (transform.Transform, error) {
		name := p.GetStr("saver", "default")
		s, ok := savers[name]
		if !ok {
			return nil, fmt.Errorf("%w: reverter before saver %q", errSaver, name)
		}
		restore, err := snapshot.ParseRestore(p.GetStr("restore", ""))
		if err != nil {
			return nil, err
		}
		return s.NewReverter(restore)
	})
	reg.MustRegister(TypePlotter, func(p transform.Params) (transform.Transform, error) {
		return render.NewPlotter(env.Render, env.OutputDir, p.GetStr("prefix", "plot"),
			render.WithNtChunk(p.GetInt("nt_chunk", core.DefaultNtChunk)),
			render.WithGroup(p.GetInt("group", 1)),
			render.WithImageSize(p.GetInt("img_nfreq", 0), p.GetInt("img_nt", 0)),
			render.WithLogger(env.Logger),
		)
	})
	return reg
}

// axisParam reads "axis" as 0/1 or as "freq"/"time".
func axisParam(p transform.Params, def core.Axis) (core.Axis, error) {
	switch p.GetStr("axis", "") {
	case "freq":
		return core.AxisFreq, nil
	case "time":
		return core.AxisTime, nil
	case "":
		return core.ParseAxis(p.GetInt("axis", int(def)))
	default:
		return core.AxisNone, fmt.Errorf("unknown axis %q", p.GetStr("axis", ""))
	}
}

// Build constructs every stage described by params through reg and
// returns the pipeline.
func Build(reg *transform.Registry, params []transform.Params, opts ...Option) (*Pipeline, error) {
	stages := make([]transform.Transform, len(params))
	for i, tp := range params {
		t, err := reg.Build(tp)
		if err != nil {
			return nil, fmt.Errorf("pipeline: transform %d: %w", i, err)
		}
		stages[i] = t
	}
	return New(stages, opts...)
}
