package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vqerrors "github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/generator"
	"github.com/conneroisu/virsqr/internal/logging"
	"github.com/conneroisu/virsqr/internal/qr"
)

func strPtr(s string) *string { return &s }

func writeManifest(t *testing.T, dir, body string) *Manifest {
	t.Helper()
	path := filepath.Join(dir, "jobs.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	m, err := Load(path)
	require.NoError(t, err)
	return m
}

func TestRunWritesOutputsAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	m := writeManifest(t, dir, `
output_dir: out
jobs:
  - name: wifi
    template: wifi-wpa
    params: {ssid: Home, password: hunter2}
  - name: site
    data: https://example.com
    output: site.svg
  - name: evil
    data: "javascript:alert(1)"
  - name: text
    template: text
    params: {text: hello}
    output: nested/hello.txt
  - name: missing
    template: sms
`)

	summary, err := NewRunner(WithConcurrency(2)).Run(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Zero(t, summary.Skipped)
	assert.False(t, summary.OK())
	assert.Error(t, summary.Err())
	assert.NotEmpty(t, summary.RunID)

	require.Len(t, summary.Jobs, 5)
	byName := make(map[string]JobResult)
	ids := make(map[string]bool)
	for i, res := range summary.Jobs {
		assert.Equal(t, i, res.Index, "results keep manifest order")
		byName[res.Name] = res
		ids[res.ID] = true
	}
	assert.Len(t, ids, 5, "job ids are unique")

	out := filepath.Join(dir, "out")
	assert.Equal(t, filepath.Join(out, "wifi.png"), byName["wifi"].Output)
	assert.FileExists(t, filepath.Join(out, "wifi.png"))
	assert.FileExists(t, filepath.Join(out, "site.svg"))
	assert.FileExists(t, filepath.Join(out, "nested", "hello.txt"))
	assert.NoFileExists(t, filepath.Join(out, "evil.png"))

	assert.True(t, vqerrors.IsRejection(byName["evil"].Err))
	assert.Equal(t, StatusFailed, byName["evil"].Status)
	assert.True(t, errors.Is(byName["missing"].Err, vqerrors.ErrMissingParameter))
	assert.NotEmpty(t, byName["missing"].Error)

	svg, err := os.ReadFile(filepath.Join(out, "site.svg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<?xml"))

	f, err := os.Open(filepath.Join(out, "wifi.png"))
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestRunLayersSettings(t *testing.T) {
	dir := t.TempDir()
	m := writeManifest(t, dir, `
defaults:
  border: 0
  format: ascii
jobs:
  - name: forced-version
    data: hi
    render:
      version: 5
  - name: inverted
    data: hi
    render:
      invert: true
      border: 1
`)

	summary, err := NewRunner(WithOutputDir(filepath.Join(dir, "codes"))).Run(context.Background(), m)
	require.NoError(t, err)
	require.True(t, summary.OK(), "%v", summary.Err())

	forced, err := os.ReadFile(filepath.Join(dir, "codes", "forced-version.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(forced), "\n"), "\n")
	assert.Len(t, lines, 37, "version 5 with no border")

	inverted, err := os.ReadFile(filepath.Join(dir, "codes", "inverted.txt"))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSuffix(string(inverted), "\n"), "\n")
	assert.Len(t, lines, 21+2)
	assert.Equal(t, strings.Repeat("██", 23), lines[0], "inverted border is dark")
}

func TestRunBaseRenderFromConfig(t *testing.T) {
	dir := t.TempDir()
	border := 0
	base := Render{ErrorCorrection: "L", BoxSize: 1, Border: &border, FillColor: "black", BackColor: "white"}

	m := &Manifest{Jobs: []Job{{Name: "tiny", Data: strPtr("hello")}}}
	summary, err := NewRunner(WithBaseRender(base), WithOutputDir(dir)).Run(context.Background(), m)
	require.NoError(t, err)
	require.True(t, summary.OK())

	f, err := os.Open(filepath.Join(dir, "tiny.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 21, img.Bounds().Dx(), "one pixel per module and no border")
}

func TestRunLogo(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.txt"), []byte("x"), 0o644))

	m := writeManifest(t, dir, `
defaults:
  logo: logo.png
jobs:
  - name: raster
    data: hi
  - name: vector
    data: hi
    output: vector.svg
  - name: bad-logo
    data: hi
    render:
      logo: logo.txt
`)

	summary, err := NewRunner(WithOutputDir(dir)).Run(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, summary.Jobs[0].Status)
	assert.True(t, errors.Is(summary.Jobs[1].Err, vqerrors.ErrRenderConfig), "logos are raster only")
	assert.True(t, errors.Is(summary.Jobs[2].Err, vqerrors.ErrRenderConfig))
}

func TestRunDuplicateOutputs(t *testing.T) {
	m := &Manifest{Jobs: []Job{
		{Data: strPtr("a"), Output: "same.png"},
		{Data: strPtr("b"), Output: "./same.png"},
	}}

	_, err := NewRunner(WithOutputDir(t.TempDir())).Run(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vqerrors.ErrManifest))
}

func TestRunEmptyManifest(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), &Manifest{})
	assert.True(t, errors.Is(err, vqerrors.ErrManifest))

	_, err = NewRunner().Run(context.Background(), nil)
	assert.True(t, errors.Is(err, vqerrors.ErrManifest))
}

// slowEncoder tracks how many encodes run at once.
type slowEncoder struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *slowEncoder) Encode(string, qr.Level) (qr.Matrix, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	s.calls.Add(1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return qr.Matrix{{true}}, nil
}

func manyJobs(n int) *Manifest {
	m := &Manifest{}
	for i := 0; i < n; i++ {
		m.Jobs = append(m.Jobs, Job{Data: strPtr("x"), Render: Render{Format: "ascii"}})
	}
	return m
}

func TestRunRespectsConcurrency(t *testing.T) {
	enc := &slowEncoder{}
	r := NewRunner(
		WithConcurrency(3),
		WithGenerator(generator.New(generator.WithEncoder(enc))),
		WithOutputDir(t.TempDir()),
	)

	summary, err := r.Run(context.Background(), manyJobs(12))
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Succeeded)
	assert.Equal(t, int32(12), enc.calls.Load())
	assert.LessOrEqual(t, enc.peak.Load(), int32(3))
}

func TestRunCancelled(t *testing.T) {
	enc := &slowEncoder{}
	dir := t.TempDir()
	r := NewRunner(WithGenerator(generator.New(generator.WithEncoder(enc))), WithOutputDir(dir))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, manyJobs(4))
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Skipped)
	assert.Zero(t, enc.calls.Load())
	for _, res := range summary.Jobs {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunLogsRedactSecrets(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Format: "json", Output: &logs})

	m := &Manifest{Jobs: []Job{{
		Template: "wifi-wpa",
		Params:   Params{"ssid": "Home", "password": "hunter2"},
	}}}
	summary, err := NewRunner(WithLogger(logger), WithOutputDir(t.TempDir())).Run(context.Background(), m)
	require.NoError(t, err)
	require.True(t, summary.OK())

	out := logs.String()
	assert.Contains(t, out, summary.RunID)
	assert.Contains(t, out, "Batch finished")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "hunter2")
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  - data: one\n    output: one.png\n"), 0o644))

	var (
		mu        sync.Mutex
		summaries []*Summary
	)
	report := func(s *Summary, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			summaries = append(summaries, s)
		}
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(summaries)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRunner(WithOutputDir(dir)).Watch(ctx, path, 20*time.Millisecond, report)
	}()

	require.Eventually(t, func() bool { return count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, filepath.Join(dir, "one.png"))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  - data: two\n    output: two.png\n"), 0o644))

	require.Eventually(t, func() bool { return count() >= 2 }, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, filepath.Join(dir, "two.png"))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  - data: one\n    output: one.png\n"), 0o644))

	var runs atomic.Int32
	report := func(*Summary, error) { runs.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRunner(WithOutputDir(dir)).Watch(ctx, path, 20*time.Millisecond, report)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	tests := []string{".jobs.yml.swp", "jobs.yml~", "other.yml", "4913"}
	for _, name := range tests {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchMissingManifest(t *testing.T) {
	err := NewRunner().Watch(context.Background(), filepath.Join(t.TempDir(), "nope.yml"), time.Millisecond,
		func(*Summary, error) {})
	assert.True(t, errors.Is(err, vqerrors.ErrIO))
}
