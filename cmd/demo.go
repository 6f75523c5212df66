package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/generator"
	"github.com/conneroisu/virsqr/internal/output"
	"github.com/conneroisu/virsqr/internal/registry"
	"github.com/conneroisu/virsqr/internal/renderer"
	"github.com/conneroisu/virsqr/internal/validation"
)

// Demo output files, relative to output.demo_dir.
const (
	DemoEICARFile    = "eicar_test.png"
	DemoSafeURLFile  = "safe_url.png"
	DemoRejectedFile = "should_fail.png"
)

const (
	demoSafeURL   = "https://sentry.io"
	demoMalicious = "javascript:alert('Exploit!')"
)

// runDemo shows the generator end to end: two codes that are written and
// one payload that is refused.
func runDemo(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg := currentConfig()
	dir := cfg.Output.DemoDir
	gen := newGenerator(cfg)
	w := stdout(cmd)

	write := func(data, name string) error {
		path := filepath.Join(dir, name)
		req := generator.NewRequest(generator.FromRaw(data))
		req.Level = cfg.Render.Level()
		req.Render = cfg.Render.RendererConfig()
		req.Format = renderer.FormatRaster

		out, err := gen.Generate(req)
		if err != nil {
			return err
		}
		if err := output.Write(path, out); err != nil {
			return err
		}
		fmt.Fprintf(w, "SUCCESS: QR code saved to %s\n", path)
		return nil
	}

	fmt.Fprintln(w, "--- Demo 1: Generating Ethical Test QR (EICAR) ---")
	if err := write(validation.EICAR, DemoEICARFile); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n--- Demo 2: Generating Safe URL QR ---")
	if err := write(demoSafeURL, DemoSafeURLFile); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n--- Demo 3: Rejecting Malicious Payload ---")
	err := write(demoMalicious, DemoRejectedFile)
	switch {
	case err == nil:
		return fmt.Errorf("malicious payload %q was not rejected", demoMalicious)
	case !errors.IsRejection(err):
		return err
	}
	logger.Debug(ctx, "Demo payload rejected", "error", err.Error())
	fmt.Fprintf(w, "EXPECTED FAILURE: %v\n", err)

	fmt.Fprintf(w, "\n--- Demo 4: Listing %d built-in templates ---\n", registry.TemplateCount)
	fmt.Fprintf(w, "Total templates: %d\n", registry.Default().Count())
	fmt.Fprintln(w, "Try: virsqr list-templates")

	return nil
}
