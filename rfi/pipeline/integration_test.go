package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	pipecfg "github.com/cwbudde/algo-rfi/internal/config"
	"github.com/cwbudde/algo-rfi/internal/testutil"
	"github.com/cwbudde/algo-rfi/rfi/adversarial"
	"github.com/cwbudde/algo-rfi/rfi/clip"
	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/maskcount"
	"github.com/cwbudde/algo-rfi/rfi/maskfill"
	"github.com/cwbudde/algo-rfi/rfi/render"
	"github.com/cwbudde/algo-rfi/rfi/stream"
	"github.com/cwbudde/algo-rfi/rfi/transform"
)

func arrayStream(t *testing.T, intensity, weights core.Grid, blockNt int) stream.Stream {
	t.Helper()
	s, err := stream.NewArrayStream(intensity, weights, stream.WithBlockNt(blockNt))
	require.NoError(t, err)
	return s
}

func TestRectangleSurvivesClipping(t *testing.T) {
	t.Parallel()

	const nfreq, nt = 16, 1024
	masker, err := adversarial.New(
		adversarial.WithNtChunk(nt),
		adversarial.WithRectangles(adversarial.Rect{FreqLo: 0, FreqHi: 16, TLo: 100, THi: 200}),
	)
	require.NoError(t, err)
	clipper, err := clip.New(clip.WithThreshold(3), clip.WithNtChunk(nt))
	require.NoError(t, err)

	var out Collector
	p, err := New([]transform.Transform{masker, clipper}, WithSink(&out))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), arrayStream(t, testutil.ConstantGrid(nfreq, nt, 1), testutil.Ones(nfreq, nt), 256))
	require.NoError(t, err)

	_, weights := out.Grids()
	want := core.NewMask(nfreq, nt)
	for f := 0; f < nfreq; f++ {
		for tt := 100; tt < 200; tt++ {
			want.Set(f, tt, true)
		}
	}
	got := core.NewMask(nfreq, nt)
	for f := 0; f < nfreq; f++ {
		for tt, w := range weights.Row(f) {
			got.Set(f, tt, w == 0)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("masked region mismatch (-want +got):\n%s", diff)
	}
}

const saverChain = `{
  "transforms": [
    {"type": "saver", "params": {"name": "s", "nt_chunk": 256}},
    {"type": "std_dev_clipper", "params": {"threshold": 3, "axis": "time", "nt_chunk": 256}},
    {"type": "mask_counter", "params": {"where": "after-clip", "nt_chunk": 256}},
    {"type": "reverter", "params": {"saver": "s", "restore": "weights"}}
  ]
}`

func TestConfiguredChainCountsThenReverts(t *testing.T) {
	t.Parallel()

	const nfreq, nt, loud = 16, 1024, 3
	intensity := testutil.GaussianGrid(7, nfreq, nt, 0, 1)
	for i, v := range intensity.Row(loud) {
		intensity.Row(loud)[i] = 20 * v
	}
	weights := testutil.Ones(nfreq, nt)

	var totals maskcount.Totals
	cfg, err := pipecfg.Parse([]byte(saverChain))
	require.NoError(t, err)
	params, err := cfg.Params()
	require.NoError(t, err)
	reg := NewRegistry(Env{CountSinks: []maskcount.Sink{&totals}})

	var out Collector
	p, err := Build(reg, params, WithSink(&out))
	require.NoError(t, err)
	sum, err := p.Run(context.Background(), arrayStream(t, intensity, weights, 100))
	require.NoError(t, err)
	require.Len(t, sum.Stages, 4)
	for _, st := range sum.Stages {
		assert.Equal(t, 4, st.Chunks, st.Name)
	}

	// The counter saw the loud channel masked.
	want := make([]int64, nfreq)
	want[loud] = nt
	assert.Equal(t, want, totals.FreqsMasked)

	// The reverter undid it.
	gotI, gotW := out.Grids()
	testutil.RequireGridNearlyEqual(t, gotW, weights, 0)
	testutil.RequireGridNearlyEqual(t, gotI, intensity, 0)
}

func TestPlotterWriteErrorStopsRun(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(Env{Render: render.Enabled, OutputDir: filepath.Join(t.TempDir(), "missing")})
	p, err := Build(reg, []transform.Params{{Type: TypePlotter, Num: map[string]float64{"nt_chunk": 8}}})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), timeStream(2, 16, 0, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plotter(")
}

func TestPlotterWritesThroughDriver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reg := NewRegistry(Env{Render: render.Enabled, OutputDir: dir})
	p, err := Build(reg, []transform.Params{{
		Type: TypePlotter,
		Num:  map[string]float64{"nt_chunk": 8, "group": 2},
		Str:  map[string]string{"prefix": "raw"},
	}})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), timeStream(2, 20, 0, 8))
	require.NoError(t, err)

	plotter := p.Stages()[0].(*render.Plotter)
	assert.Equal(t, []string{filepath.Join(dir, "raw_0.png"), filepath.Join(dir, "raw_1.png")}, plotter.Files())
}

func TestEstimatedProfileFeedsFiller(t *testing.T) {
	t.Parallel()

	const nfreq, nt, nvs = 4, 512, 64
	intensity := testutil.GaussianGrid(11, nfreq, nt, 0, 2)
	weights := testutil.Ones(nfreq, nt)
	for tt := 0; tt < nt; tt++ {
		weights.Set(2, tt, 0)
	}

	reg := NewRegistry(Env{})
	est, err := Build(reg, []transform.Params{{
		Type: TypeVarianceEstimator,
		Num:  map[string]float64{"n_varsamples": nvs, "nt_chunk": 128},
	}})
	require.NoError(t, err)
	_, err = est.Run(context.Background(), arrayStream(t, intensity, weights, 128))
	require.NoError(t, err)

	prof, err := est.Stages()[0].(*maskfill.Estimator).Profile()
	require.NoError(t, err)
	assert.Equal(t, nt/nvs, prof.Nbuckets())
	assert.Equal(t, []int{2}, prof.DeadChannels())

	dir := t.TempDir()
	require.NoError(t, prof.Save(filepath.Join(dir, "var.npy")))

	reg = NewRegistry(Env{ProfileDir: dir})
	fill, err := Build(reg, []transform.Params{{
		Type: TypeMaskFiller,
		Num:  map[string]float64{"n_varsamples": nvs, "nt_chunk": 128, "w_cutoff": 0.5, "seed": 3},
		Str:  map[string]string{"profile": "var.npy"},
	}})
	require.NoError(t, err)

	var out Collector
	fill, err = New(fill.Stages(), WithSink(&out))
	require.NoError(t, err)
	_, err = fill.Run(context.Background(), arrayStream(t, intensity, weights, 128))
	require.NoError(t, err)

	_, gotW := out.Grids()
	for f := 0; f < nfreq; f++ {
		want := maskfill.TrustedWeight
		if f == 2 {
			want = 0
		}
		for tt, w := range gotW.Row(f) {
			require.Equal(t, want, w, "(%d, %d)", f, tt)
		}
	}
}

func TestRegistryTypes(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(Env{})
	assert.Equal(t, []string{
		TypeAdversarialMasker, TypeMaskCounter, TypeMaskFiller, TypePlotter,
		TypeReverter, TypeSaver, TypeStdDevClipper, TypeVarianceEstimator,
	}, reg.Types())
}

func TestRegistryParams(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(Env{})

	c, err := reg.Build(transform.Params{
		Type: TypeStdDevClipper,
		Num:  map[string]float64{"threshold": 4, "axis": 0, "nt_chunk": 512, "dsample_nfreq": 8},
		Str:  map[string]string{"mode": "rms"},
	})
	require.NoError(t, err)
	cfg := c.(*clip.Clipper).Config()
	assert.Equal(t, 4.0, cfg.Threshold)
	assert.Equal(t, core.AxisFreq, cfg.Axis)
	assert.Equal(t, 512, cfg.NtChunk)
	assert.Equal(t, 8, cfg.DsNfreq)
	assert.Equal(t, clip.ModeRMS, cfg.Mode)

	_, err = reg.Build(transform.Params{Type: TypeStdDevClipper, Str: map[string]string{"axis": "diagonal"}})
	require.Error(t, err)

	_, err = reg.Build(transform.Params{Type: TypeReverter})
	require.ErrorIs(t, err, errSaver)
	_, err = reg.Build(transform.Params{Type: TypeSaver})
	require.NoError(t, err)
	_, err = reg.Build(transform.Params{Type: TypeSaver})
	require.ErrorIs(t, err, errSaver)

	_, err = reg.Build(transform.Params{Type: TypeMaskFiller})
	require.ErrorIs(t, err, maskfill.ErrInvalidConfig)

	m, err := reg.Build(transform.Params{Type: TypeAdversarialMasker, Num: map[string]float64{"nt_reset": 1024}})
	require.NoError(t, err)
	require.NoError(t, m.Attach(core.StreamInfo{Nfreq: 256}))
	assert.Len(t, m.(*adversarial.Masker).Rectangles(), adversarial.NumRectangles)
}

func TestProfileFileMustMatchStream(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prof, err := maskfill.NewProfile(mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1}))
	require.NoError(t, err)
	require.NoError(t, prof.Save(filepath.Join(dir, "var.npy")))

	reg := NewRegistry(Env{ProfileDir: dir})
	p, err := Build(reg, []transform.Params{{
		Type: TypeMaskFiller,
		Num:  map[string]float64{"n_varsamples": 8, "nt_chunk": 16},
		Str:  map[string]string{"profile": "var.npy"},
	}})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), timeStream(4, 32, 0, 16))
	require.ErrorIs(t, err, maskfill.ErrInvalidConfig)
}
