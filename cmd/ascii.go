package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	asciiSource SourceFlags
	asciiInvert bool
)

var asciiCmd = &cobra.Command{
	Use:   "ascii",
	Short: "Print a QR code to the terminal",
	Long: `Print a QR code as text using two characters per module. Use --invert on
terminals with a light background.

Examples:
  virsqr ascii --data https://example.com
  virsqr ascii -t geo -p lat=52.52 -p lon=13.405 --border 2 --invert`,
	Args: cobra.NoArgs,
	RunE: runASCII,
}

func init() {
	rootCmd.AddCommand(asciiCmd)

	addSourceFlags(asciiCmd, &asciiSource)
	addRenderFlags(asciiCmd)
	asciiCmd.Flags().BoolVar(&asciiInvert, "invert", false, "Swap dark and light modules")
}

func runASCII(cmd *cobra.Command, _ []string) error {
	cfg := currentConfig()

	src, err := asciiSource.Source(cmd)
	if err != nil {
		return err
	}

	m, err := newGenerator(cfg).Matrix(src, cfg.Render.Level())
	if err != nil {
		return err
	}

	rcfg := cfg.Render.RendererConfig()
	rcfg.Invert = asciiInvert
	text, err := renderASCII(m, rcfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout(cmd), text)
	return nil
}
