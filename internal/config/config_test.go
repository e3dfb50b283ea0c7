package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/transform"
)

const sample = `{
  "transforms": [
    {"type": "std_dev_clipper", "params": {"threshold": 3.5, "axis": "time", "rms": false}},
    {"type": "noop"}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	p, err := Load(writeFile(t, "p.json", sample))
	require.NoError(t, err)
	require.Len(t, p.Transforms, 2)

	params, err := p.Params()
	require.NoError(t, err)
	assert.Equal(t, "std_dev_clipper", params[0].Type)
	assert.InDelta(t, 3.5, params[0].GetNum("threshold", 0), 0)
	assert.Equal(t, "time", params[0].GetStr("axis", ""))
	assert.False(t, params[0].GetBool("rms", true))
	assert.True(t, params[0].Has("rms"))
	assert.False(t, params[1].Has("threshold"))
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, file, body, want string
	}{
		{"extension", "p.yaml", sample, ".json extension"},
		{"syntax", "p.json", `{"transforms": [`, "parse"},
		{"unknown field", "p.json", `{"stages": []}`, "parse"},
		{"empty", "p.json", `{"transforms": []}`, "no transforms"},
		{"no type", "p.json", `{"transforms": [{"params": {}}]}`, "has no type"},
		{"nested", "p.json", `{"transforms": [{"type": "x", "params": {"a": [1]}}]}`, "unsupported value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadTooLarge(t *testing.T) {
	t.Parallel()

	body := `{"transforms": [{"type": "x", "params": {"pad": "` + strings.Repeat("a", maxFileSize) + `"}}]}`
	_, err := Load(writeFile(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

type stubTransform struct{ name string }

func (s stubTransform) Name() string               { return s.name }
func (stubTransform) ChunkSpec() core.ChunkSpec    { return core.ChunkSpec{NtChunk: 8} }
func (stubTransform) Attach(core.StreamInfo) error { return nil }
func (stubTransform) StartSubstream(int, int64)    {}
func (stubTransform) ProcessChunk(*core.Chunk)     {}
func (stubTransform) EndSubstream()                {}

func TestBuild(t *testing.T) {
	t.Parallel()

	reg := transform.NewRegistry()
	reg.MustRegister("noop", func(p transform.Params) (transform.Transform, error) {
		return stubTransform{name: p.GetStr("label", "noop")}, nil
	})

	p, err := Parse([]byte(`{"transforms": [{"type": "noop", "params": {"label": "a"}}, {"type": "noop"}]}`))
	require.NoError(t, err)
	ts, err := p.Build(reg)
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "a", ts[0].Name())
	assert.Equal(t, "noop", ts[1].Name())

	p, err = Parse([]byte(sample))
	require.NoError(t, err)
	_, err = p.Build(reg)
	require.ErrorIs(t, err, transform.ErrUnknownType)
}
