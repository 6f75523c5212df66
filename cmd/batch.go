package cmd

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/virsqr/internal/batch"
)

var (
	batchWatch  bool
	batchOutput string
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Generate every code listed in a manifest",
	Long: `Generate codes for every job in a YAML or JSON manifest. Jobs run
concurrently; a failing job is reported and does not stop the others.
With --watch the manifest is run again whenever it changes.

Manifest example:
  output_dir: codes
  defaults:
    error_correction: M
  jobs:
    - name: wifi
      template: wifi-wpa
      params: {ssid: Home, password: secret}
      output: wifi.png
    - data: https://example.com
      output: site.svg

Examples:
  virsqr batch jobs.yml
  virsqr batch jobs.yml --concurrency 2 -o json
  virsqr batch jobs.yml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "Jobs to run at once (default: number of CPUs)")
	batchCmd.Flags().Duration("debounce", 0, "Quiet period before a watched manifest is rerun")
	batchCmd.Flags().BoolVarP(&batchWatch, "watch", "w", false, "Rerun the manifest whenever it changes")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "table", "Summary format (table|json)")

	AddFlagValidation(batchCmd, "output", func(format string) error {
		return validateChoice("output format", format, []string{"table", "json"})
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	path := args[0]

	runner := batch.NewRunner(
		batch.WithConcurrency(cfg.Batch.Concurrency),
		batch.WithGenerator(newGenerator(cfg)),
		batch.WithLogger(logger),
		batch.WithBaseRender(batch.RenderFromConfig(cfg.Render)),
		batch.WithOutputDir(cfg.Output.Dir),
	)

	w := stdout(cmd)

	if !batchWatch {
		m, err := batch.Load(path)
		if err != nil {
			return err
		}
		summary, err := runner.Run(commandContext(cmd), m)
		if err != nil {
			return err
		}
		if err := writeSummary(w, summary); err != nil {
			return err
		}
		return summary.Err()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", path)
	err := runner.Watch(ctx, path, cfg.Batch.Debounce, func(summary *batch.Summary, err error) {
		if err != nil {
			reportError(ctx, cmd.ErrOrStderr(), err)
			return
		}
		if err := writeSummary(w, summary); err != nil {
			logger.Error(ctx, err, "Failed to write batch summary")
		}
	})
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writeSummary(w io.Writer, s *batch.Summary) error {
	if batchOutput == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTATUS\tFORMAT\tOUTPUT\tDURATION\tERROR")
	for _, job := range s.Jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			job.Name, job.Status, job.Format, job.Output,
			job.Duration.Round(time.Millisecond), job.Error)
	}
	fmt.Fprintf(tw, "\n%d succeeded, %d failed, %d skipped in %s\n",
		s.Succeeded, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
	return tw.Flush()
}
