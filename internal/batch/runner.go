package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/virsqr/internal/config"
	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/generator"
	"github.com/conneroisu/virsqr/internal/logging"
	"github.com/conneroisu/virsqr/internal/output"
	"github.com/conneroisu/virsqr/internal/qr"
	"github.com/conneroisu/virsqr/internal/renderer"
	"github.com/conneroisu/virsqr/internal/validation"
	"github.com/conneroisu/virsqr/internal/watcher"
)

// Runner executes manifests. Jobs run in parallel up to the configured
// concurrency; a failing job is recorded and does not stop the others.
type Runner struct {
	generator   *generator.Generator
	logger      logging.Logger
	concurrency int
	base        Render
	outputDir   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency caps the number of jobs in flight. Values below 1 mean
// runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithGenerator replaces the default generator.
func WithGenerator(g *generator.Generator) Option {
	return func(r *Runner) { r.generator = g }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithBaseRender sets the settings that manifest defaults and job
// overrides are layered on.
func WithBaseRender(base Render) Option {
	return func(r *Runner) { r.base = base }
}

// WithOutputDir sets the directory relative job outputs are written to when
// the manifest has no output_dir.
func WithOutputDir(dir string) Option {
	return func(r *Runner) { r.outputDir = dir }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		generator: generator.New(),
		logger:    logging.NewNop(),
		base:      RenderFromConfig(config.Default().Render),
		outputDir: ".",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = runtime.NumCPU()
	}
	r.logger = r.logger.WithComponent("batch")
	return r
}

// task is a planned job.
type task struct {
	index   int
	id      string
	name    string
	job     Job
	output  string
	format  renderer.Format
	level   qr.Level
	render  renderer.Config
	version int
	err     error
}

// Run executes every job in m and reports the outcome of each. The error
// is non-nil only when the manifest as a whole cannot run.
func (r *Runner) Run(ctx context.Context, m *Manifest) (*Summary, error) {
	if m == nil || len(m.Jobs) == 0 {
		return nil, errors.Manifest("manifest has no jobs", nil)
	}

	tasks, err := r.plan(m)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	logger.Info(ctx, "Batch started", "manifest", m.Path, "jobs", len(tasks), "concurrency", r.concurrency)

	results := make([]JobResult, len(tasks))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			results[i] = t.result(StatusSkipped, err)
			continue
		}
		g.Go(func() error {
			results[i] = r.execute(ctx, logger, t)
			return nil
		})
	}
	_ = g.Wait()

	summary := newSummary(runID, m.Path, results, time.Since(start))
	logger.Info(ctx, "Batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration_ms", summary.Duration.Milliseconds())

	return summary, nil
}

func (r *Runner) execute(ctx context.Context, logger logging.Logger, t task) JobResult {
	if err := ctx.Err(); err != nil {
		return t.result(StatusSkipped, err)
	}

	jobLogger := logger.With("job_id", t.id, "job", t.name)
	handler := errors.NewHandler(jobLogger)

	if t.err != nil {
		handler.Handle(ctx, t.err)
		return t.result(StatusFailed, t.err)
	}

	jobLogger.Debug(ctx, "Job started",
		"template", t.job.Template,
		"params", logging.SanitizeParams(t.job.Params),
		"output", t.output,
		"format", string(t.format))

	started := time.Now()
	perf := logging.StartOperation(jobLogger, "generate")

	gen := r.generator
	if t.version != 0 {
		gen = gen.With(generator.WithEncoder(qr.NewEncoder(qr.WithVersion(t.version))))
	}

	out, err := gen.Generate(generator.Request{
		Source: t.job.Source(),
		Level:  t.level,
		Render: t.render,
		Format: t.format,
	})
	if err == nil {
		err = output.Write(t.output, out)
	}
	if err != nil {
		handler.Handle(ctx, err)
		return t.result(StatusFailed, err)
	}

	perf.End(ctx, "bytes", len(out.Data))

	res := t.result(StatusSucceeded, nil)
	res.Bytes = len(out.Data)
	res.Duration = time.Since(started)
	return res
}

// plan resolves every job's settings and output path. Per-job problems are
// stored on the task; problems with the manifest as a whole are returned.
func (r *Runner) plan(m *Manifest) ([]task, error) {
	manifestDir := "."
	if m.Path != "" {
		manifestDir = filepath.Dir(m.Path)
	}

	outDir := r.outputDir
	if m.OutputDir != "" {
		outDir = resolve(manifestDir, m.OutputDir)
	}

	logos := make(map[string]logoResult)
	seen := make(map[string]int, len(m.Jobs))
	tasks := make([]task, len(m.Jobs))

	for i, job := range m.Jobs {
		settings := r.base.Merge(m.Defaults).Merge(job.Render)

		t := task{
			index:   i,
			id:      uuid.NewString(),
			name:    job.Name,
			job:     job,
			version: settings.Version,
		}
		if t.name == "" {
			t.name = fmt.Sprintf("job-%d", i+1)
		}

		t.format, t.err = jobFormat(job, settings)

		name := job.Output
		if name == "" {
			name = t.name + extension(t.format)
		}
		t.output = filepath.Clean(resolve(outDir, name))

		if prev, dup := seen[t.output]; dup {
			return nil, errors.Manifest(
				fmt.Sprintf("jobs %d and %d both write %s", prev+1, i+1, t.output), nil).
				WithContext("output", t.output)
		}
		seen[t.output] = i

		if t.err == nil {
			if err := validation.ValidateOutputPath(t.output); err != nil {
				t.err = errors.IO("invalid output path", err).WithContext("path", t.output)
			}
		}
		if t.err == nil {
			t.level, t.err = jobLevel(settings)
		}

		t.render = renderer.Config{
			FillColor:    settings.FillColor,
			BackColor:    settings.BackColor,
			Border:       4,
			BoxSize:      settings.BoxSize,
			LogoCoverage: settings.LogoCoverage,
		}
		if settings.Border != nil {
			t.render.Border = *settings.Border
		}
		if t.render.BoxSize == 0 {
			t.render.BoxSize = 10
		}
		if settings.Invert != nil {
			t.render.Invert = *settings.Invert
		}

		if t.err == nil && settings.Logo != "" {
			path := resolve(manifestDir, settings.Logo)
			lr, ok := logos[path]
			if !ok {
				lr.img, lr.err = loadLogo(path)
				logos[path] = lr
			}
			t.render.Logo, t.err = lr.img, lr.err
		}

		tasks[i] = t
	}

	return tasks, nil
}

func jobFormat(job Job, settings Render) (renderer.Format, error) {
	switch {
	case job.Render.Format != "":
		return parseFormat(job.Render.Format)
	case job.Output != "":
		return output.FormatForPath(job.Output), nil
	case settings.Format != "":
		return parseFormat(settings.Format)
	default:
		return renderer.FormatRaster, nil
	}
}

func parseFormat(s string) (renderer.Format, error) {
	f, err := renderer.ParseFormat(s)
	if err != nil {
		return "", errors.RenderConfig("format", err.Error())
	}
	return f, nil
}

func jobLevel(settings Render) (qr.Level, error) {
	level, err := qr.ParseLevel(settings.ErrorCorrection)
	if err != nil {
		return level, errors.RenderConfig("error_correction", err.Error())
	}
	return level, nil
}

func extension(f renderer.Format) string {
	switch f {
	case renderer.FormatVector:
		return ".svg"
	case renderer.FormatASCII:
		return ".txt"
	default:
		return ".png"
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

type logoResult struct {
	img image.Image
	err error
}

// LoadLogo validates and decodes a logo file.
func LoadLogo(path string) (image.Image, error) {
	return loadLogo(path)
}

func loadLogo(path string) (image.Image, error) {
	if err := validation.ValidateInputPath(path, renderer.LogoExtensions); err != nil {
		return nil, errors.RenderConfig("logo", err.Error()).WithContext("path", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO("failed to open logo", err).WithContext("path", path)
	}
	defer f.Close()

	img, err := renderer.DecodeLogo(f)
	if err != nil {
		return nil, errors.RenderConfig("logo", "logo is not a supported image").
			WithCause(err).
			WithContext("path", path)
	}
	return img, nil
}

func (t task) result(status Status, err error) JobResult {
	res := JobResult{
		ID:     t.id,
		Index:  t.index,
		Name:   t.name,
		Output: t.output,
		Format: t.format,
		Status: status,
		Err:    err,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// Watch runs the manifest at path, then runs it again after each change
// until ctx is cancelled. report receives every outcome.
func (r *Runner) Watch(ctx context.Context, path string, debounce time.Duration, report func(*Summary, error)) error {
	run := func(ctx context.Context) {
		m, err := Load(path)
		if err != nil {
			report(nil, err)
			return
		}
		report(r.Run(ctx, m))
	}

	fw, err := watcher.NewFileWatcher(debounce, r.logger)
	if err != nil {
		return errors.IO("failed to start watcher", err)
	}
	if err := fw.AddFile(path); err != nil {
		_ = fw.Stop()
		return errors.IO("failed to watch manifest", err).WithContext("path", path)
	}
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		r.logger.Info(ctx, "Manifest changed", "path", path, "events", len(events))
		run(ctx)
		return nil
	})

	run(ctx)
	return fw.Run(ctx)
}
