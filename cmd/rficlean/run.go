package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-rfi/internal/config"
	"github.com/cwbudde/algo-rfi/internal/maskstore"
	"github.com/cwbudde/algo-rfi/rfi/maskcount"
	"github.com/cwbudde/algo-rfi/rfi/maskfill"
	"github.com/cwbudde/algo-rfi/rfi/pipeline"
	"github.com/cwbudde/algo-rfi/rfi/render"
	"github.com/cwbudde/algo-rfi/rfi/stream"
	"github.com/cwbudde/algo-rfi/rfi/transform"
)

type options struct {
	intensity    string
	weights      string
	config       string
	threshold    float64
	axis         string
	ntChunk      int
	blockNt      int
	outIntensity string
	outWeights   string
	pngDir       string
	chart        string
	db           string
	profileOut   string
	nvs          int
	logLevel     string
}

// outputCounter is appended when counts are requested but the pipeline
// has no counter of its own.
const outputCounter = "output"

func run(ctx context.Context, o options, log *zap.SugaredLogger) error {
	capability := render.Disabled
	if o.pngDir != "" {
		if err := os.MkdirAll(o.pngDir, 0o755); err != nil {
			return fmt.Errorf("create image directory: %w", err)
		}
		capability = render.Enabled
	}

	src, err := stream.OpenNpy(o.intensity, o.weights, stream.WithBlockNt(o.blockNt))
	if err != nil {
		return err
	}

	if o.profileOut != "" {
		return estimateProfile(ctx, o, src, log)
	}

	params, err := stageParams(o)
	if err != nil {
		return err
	}

	var measurements []maskcount.Measurement
	sinks := []maskcount.Sink{maskcount.SinkFunc(func(m maskcount.Measurement) {
		measurements = append(measurements, m)
	})}

	if (o.chart != "" || o.db != "") && !hasCounter(params) {
		params = append(params, transform.Params{
			Type: pipeline.TypeMaskCounter,
			Num:  map[string]float64{"nt_chunk": float64(o.ntChunk)},
			Str:  map[string]string{"where": outputCounter},
		})
	}

	profileDir := ""
	if o.config != "" {
		profileDir = filepath.Dir(o.config)
	}
	reg := pipeline.NewRegistry(pipeline.Env{
		Logger:     log,
		Render:     capability,
		OutputDir:  o.pngDir,
		ProfileDir: profileDir,
		CountSinks: sinks,
	})

	var out pipeline.Collector
	p, err := pipeline.Build(reg, params, pipeline.WithLogger(log), pipeline.WithSink(&out))
	if err != nil {
		return err
	}
	if _, err := p.Run(ctx, src); err != nil {
		return err
	}
	if o.db != "" {
		if err := recordRun(ctx, o.db, describe(params), src.Nfreq(), measurements, log); err != nil {
			return err
		}
	}

	intensity, weights := out.Grids()
	if o.outIntensity != "" {
		if err := stream.WriteGrid(o.outIntensity, intensity); err != nil {
			return err
		}
	}
	if o.outWeights != "" {
		if err := stream.WriteGrid(o.outWeights, weights); err != nil {
			return err
		}
	}
	if capability {
		path := filepath.Join(o.pngDir, "cleaned.png")
		if err := render.WritePNGFile(path, intensity, weights); err != nil {
			return err
		}
		log.Infow("wrote image", "path", path)
	}
	if o.chart != "" {
		if err := writeChart(o.chart, measurements); err != nil {
			return err
		}
	}

	var totals maskcount.Totals
	for _, m := range measurements {
		if m.Where == lastCounter(params) {
			totals.MaskCount(m)
		}
	}
	if totals.Chunks > 0 {
		log.Infow("mask fraction", "where", lastCounter(params), "fraction", totals.Fraction())
	}
	return nil
}

// recordRun stores a finished run and its measurements in the database
// at path.
func recordRun(ctx context.Context, path, desc string, nfreq int, ms []maskcount.Measurement, log *zap.SugaredLogger) error {
	store, err := maskstore.Open(path, maskstore.WithLogger(log))
	if err != nil {
		return err
	}
	defer store.Close()
	id, err := store.Record(ctx, desc, nfreq, ms)
	if err != nil {
		return err
	}
	log.Infow("recorded mask counts", "db", path, "run", id, "measurements", len(ms))
	return nil
}

// stageParams returns the configured stages, or a single clipper built
// from flags.
func stageParams(o options) ([]transform.Params, error) {
	if o.config != "" {
		cfg, err := config.Load(o.config)
		if err != nil {
			return nil, err
		}
		return cfg.Params()
	}
	return []transform.Params{{
		Type: pipeline.TypeStdDevClipper,
		Num:  map[string]float64{"threshold": o.threshold, "nt_chunk": float64(o.ntChunk)},
		Str:  map[string]string{"axis": o.axis},
	}}, nil
}

func estimateProfile(ctx context.Context, o options, src stream.Stream, log *zap.SugaredLogger) error {
	est, err := maskfill.NewEstimator(o.nvs, maskfill.WithEstimatorNtChunk(o.ntChunk))
	if err != nil {
		return err
	}
	p, err := pipeline.New([]transform.Transform{est}, pipeline.WithLogger(log))
	if err != nil {
		return err
	}
	if _, err := p.Run(ctx, src); err != nil {
		return err
	}
	prof, err := est.Profile()
	if err != nil {
		return err
	}
	if err := prof.Save(o.profileOut); err != nil {
		return err
	}
	log.Infow("wrote variance profile", "path", o.profileOut,
		"nfreq", prof.Nfreq(), "buckets", prof.Nbuckets(), "dead_channels", len(prof.DeadChannels()))
	return nil
}

func hasCounter(params []transform.Params) bool {
	return lastCounter(params) != ""
}

// lastCounter returns the label of the last mask counter.
func lastCounter(params []transform.Params) string {
	where := ""
	for _, p := range params {
		if p.Type == pipeline.TypeMaskCounter {
			where = p.GetStr("where", "mask_counter")
		}
	}
	return where
}

func describe(params []transform.Params) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return strings.Join(types, " | ")
}

func writeChart(path string, ms []maskcount.Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := render.MaskFractionChart(f, "Masked fraction", ms); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printTypes(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Type\tParameters\n")
	fmt.Fprintf(tw, "----\t----------\n")
	for _, typ := range pipeline.NewRegistry(pipeline.Env{}).Types() {
		fmt.Fprintf(tw, "%s\t%s\n", typ, typeParams[typ])
	}
	_ = tw.Flush()
}

var typeParams = map[string]string{
	pipeline.TypeStdDevClipper:     "threshold, axis, nt_chunk, dsample_nfreq, dsample_nt, mode",
	pipeline.TypeMaskFiller:        "profile, n_varsamples, w_cutoff, nt_chunk, interpolation, seed",
	pipeline.TypeVarianceEstimator: "n_varsamples, nt_chunk, iterations, clip",
	pipeline.TypeAdversarialMasker: "nt_chunk, nt_reset",
	pipeline.TypeMaskCounter:       "where, nt_chunk",
	pipeline.TypeSaver:             "name, nt_chunk",
	pipeline.TypeReverter:          "saver, restore",
	pipeline.TypePlotter:           "prefix, nt_chunk, group, img_nfreq, img_nt",
}
