package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/virsqr/internal/batch"
	"github.com/conneroisu/virsqr/internal/config"
	"github.com/conneroisu/virsqr/internal/generator"
	"github.com/conneroisu/virsqr/internal/logging"
	"github.com/conneroisu/virsqr/internal/output"
	"github.com/conneroisu/virsqr/internal/qr"
	"github.com/conneroisu/virsqr/internal/renderer"
)

// DefaultOutputFile is written when --output is not given.
const DefaultOutputFile = "output_qr.png"

var (
	generateSource     SourceFlags
	generateRender     RenderFlags
	generateOutput     string
	generateFormat     string
	generatePrintASCII bool
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "g"},
	Short:   "Generate a QR code image from data or a template",
	Long: `Generate a QR code from raw data or from a payload template and write it
as PNG, SVG or text. The format follows the output file extension unless
--format is given. Payloads matching a known exploit pattern are refused.

Examples:
  virsqr generate --data "Hello" -o hello.png
  virsqr generate -t wifi-wpa -p ssid=Home -p password=secret -o wifi.svg
  virsqr generate -t url -p url=https://example.com --logo logo.png --print-ascii
  virsqr generate --data "Hello" --version 5 --error-correction M`,
	Args: cobra.NoArgs,
	RunE: runGenerateCommand,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addSourceFlags(generateCmd, &generateSource)
	addRenderFlags(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "",
		"Output file (default "+DefaultOutputFile+" in output.dir)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "",
		"Output format (raster, vector, ascii); defaults to the output extension")
	generateCmd.Flags().StringVar(&generateRender.Logo, "logo", "", "Logo image to embed in raster output")
	generateCmd.Flags().BoolVar(&generatePrintASCII, "print-ascii", false, "Also print the code to the terminal")
	generateCmd.Flags().BoolVar(&generateRender.Invert, "invert", false, "Swap dark and light in terminal output")

	AddFlagValidation(generateCmd, "format", func(value string) error {
		_, err := renderer.ParseFormat(value)
		return err
	})
}

func runGenerateCommand(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg := currentConfig()

	src, err := generateSource.Source(cmd)
	if err != nil {
		return err
	}

	path := generateOutput
	if path == "" {
		path = filepath.Join(cfg.Output.Dir, DefaultOutputFile)
	}
	if err := validateOutputArg(path); err != nil {
		return err
	}

	format := output.FormatForPath(path)
	if generateFormat != "" {
		if format, err = renderer.ParseFormat(generateFormat); err != nil {
			return err
		}
	}

	rcfg := cfg.Render.RendererConfig()
	rcfg.Invert = generateRender.Invert
	if generateRender.Logo != "" {
		logo, err := batch.LoadLogo(generateRender.Logo)
		if err != nil {
			return err
		}
		rcfg.Logo = logo
	}

	perf := logging.StartOperation(logger, "generate")

	m, err := newGenerator(cfg).Matrix(src, cfg.Render.Level())
	if err != nil {
		perf.EndWithError(ctx, err)
		return err
	}

	out, err := renderer.Render(m, rcfg, format)
	if err != nil {
		perf.EndWithError(ctx, err)
		return err
	}

	if err := output.Write(path, out); err != nil {
		perf.EndWithError(ctx, err)
		return err
	}
	perf.End(ctx, "path", path, "format", string(format), "modules", m.Size())

	w := stdout(cmd)
	fmt.Fprintf(w, "SUCCESS: QR code saved to %s\n", path)

	if generatePrintASCII {
		text, err := renderASCII(m, rcfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
	}

	return nil
}

// newGenerator returns a generator honouring render.version.
func newGenerator(cfg *config.Config) *generator.Generator {
	if cfg.Render.Version > 0 {
		return generator.New(generator.WithEncoder(qr.NewEncoder(qr.WithVersion(cfg.Render.Version))))
	}
	return generator.New()
}

// renderASCII draws m for the terminal. Logos only apply to raster output.
func renderASCII(m qr.Matrix, rcfg renderer.Config) (string, error) {
	rcfg.Logo = nil
	out, err := renderer.Render(m, rcfg, renderer.FormatASCII)
	if err != nil {
		return "", err
	}
	return string(out.Data), nil
}
