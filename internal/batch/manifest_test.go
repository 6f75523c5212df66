package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vqerrors "github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/generator"
)

const sampleYAML = `
output_dir: out
defaults:
  error_correction: M
  border: 2
jobs:
  - name: home-wifi
    template: wifi-wpa
    params:
      ssid: Home
      password: hunter2
      hidden: true
    output: wifi.png
  - template: otp-totp
    params:
      label: alice
      secret: JBSWY3DPEHPK3PXP
      digits: 8
    render:
      format: svg
      border: 0
  - data: "https://example.com"
    output: site.txt
    render:
      invert: true
`

func TestParseYAML(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "out", m.OutputDir)
	assert.Equal(t, "M", m.Defaults.ErrorCorrection)
	require.NotNil(t, m.Defaults.Border)
	assert.Equal(t, 2, *m.Defaults.Border)

	require.Len(t, m.Jobs, 3)
	assert.Equal(t, "home-wifi", m.Jobs[0].Name)
	assert.Equal(t, Params{"ssid": "Home", "password": "hunter2", "hidden": "true"}, m.Jobs[0].Params)
	assert.Equal(t, "8", m.Jobs[1].Params["digits"], "scalars are kept as written")
	assert.Equal(t, "svg", m.Jobs[1].Render.Format)
	require.NotNil(t, m.Jobs[1].Render.Border)
	assert.Equal(t, 0, *m.Jobs[1].Render.Border)

	require.NotNil(t, m.Jobs[2].Data)
	assert.Equal(t, "https://example.com", *m.Jobs[2].Data)
	require.NotNil(t, m.Jobs[2].Render.Invert)
	assert.True(t, *m.Jobs[2].Render.Invert)
}

func TestParseJSON(t *testing.T) {
	m, err := Parse([]byte(`{"jobs": [` +
		`{"template": "geo", "params": {"lat": 37.7749, "lon": -122.4194}},` +
		`{"data": "", "output": "empty.png"}]}`))
	require.NoError(t, err)

	require.Len(t, m.Jobs, 2)
	assert.Equal(t, "37.7749", m.Jobs[0].Params["lat"])
	assert.Equal(t, "-122.4194", m.Jobs[0].Params["lon"])
	require.NotNil(t, m.Jobs[1].Data, "an explicit empty data value is still a data source")
	assert.Equal(t, "", *m.Jobs[1].Data)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		schema bool
	}{
		{"not yaml", "jobs: [", false},
		{"empty", "", false},
		{"no jobs key", "output_dir: out\n", true},
		{"empty jobs", "jobs: []\n", true},
		{"template and data", "jobs:\n  - template: text\n    data: x\n", true},
		{"neither source", "jobs:\n  - output: a.png\n", true},
		{"unknown job field", "jobs:\n  - data: x\n    colour: red\n", true},
		{"zero box size", "jobs:\n  - data: x\n    render:\n      box_size: 0\n", true},
		{"coverage one", "defaults:\n  logo_coverage: 1\njobs:\n  - data: x\n", true},
		{"bad level", "jobs:\n  - data: x\n    render:\n      error_correction: Z\n", true},
		{"unknown format", "jobs:\n  - data: x\n    render:\n      format: gif\n", true},
		{"nested param", "jobs:\n  - template: text\n    params:\n      text: [a, b]\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, vqerrors.ErrManifest))

			if tt.schema {
				var typed *vqerrors.Error
				require.True(t, errors.As(err, &typed))
				assert.NotEmpty(t, typed.Context["errors"])
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Len(t, m.Jobs, 3)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.True(t, errors.Is(err, vqerrors.ErrIO))

	_, err = Load(filepath.Join(dir, "jobs.toml"))
	assert.True(t, errors.Is(err, vqerrors.ErrManifest))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"jobs": []}`), 0o644))
	_, err = Load(bad)
	var typed *vqerrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, bad, typed.Context["path"])
}

func TestRenderMerge(t *testing.T) {
	zero, two := 0, 2
	yes := true

	base := Render{ErrorCorrection: "H", BoxSize: 10, Border: &two, FillColor: "black"}
	over := Render{Format: "svg", BoxSize: 3, Border: &zero, Invert: &yes}

	merged := base.Merge(over)
	assert.Equal(t, "svg", merged.Format)
	assert.Equal(t, "H", merged.ErrorCorrection)
	assert.Equal(t, 3, merged.BoxSize)
	assert.Equal(t, 0, *merged.Border, "explicit zero border overrides")
	assert.Equal(t, "black", merged.FillColor)
	assert.True(t, *merged.Invert)

	assert.Equal(t, base, base.Merge(Render{}), "empty layer changes nothing")
}

func TestJobSource(t *testing.T) {
	data := "hello"

	_, err := generator.New().Resolve(Job{Data: &data}.Source())
	assert.NoError(t, err)

	_, err = generator.New().Resolve(Job{Template: "text", Data: &data}.Source())
	assert.True(t, errors.Is(err, vqerrors.ErrInvalidSourceSelection))

	_, err = generator.New().Resolve(Job{}.Source())
	assert.True(t, errors.Is(err, vqerrors.ErrInvalidSourceSelection))
}
