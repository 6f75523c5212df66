package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/virsqr/internal/errors"
)

// ExitRejected is the exit status of validate for a rejected payload.
const ExitRejected = 2

var (
	validateSource SourceFlags
	validateFormat string
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Screen a payload without generating a code",
	Long: `Resolve the payload from --data or --template and run it through the
exploit pattern rules. Prints the verdict and exits with status 2 when the
payload is rejected.

Examples:
  virsqr validate --data "https://example.com"
  virsqr validate --data "javascript:alert(1)"
  virsqr validate -t url -p "url=<script>alert(1)</script>" -f json`,
	Args: cobra.NoArgs,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addSourceFlags(validateCmd, &validateSource)
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")

	AddFlagValidation(validateCmd, "format", func(format string) error {
		return validateChoice("format", format, []string{"text", "json"})
	})
}

// ValidationResult is the machine-readable verdict.
type ValidationResult struct {
	Payload  string `json:"payload"`
	Allowed  bool   `json:"allowed"`
	Rule     string `json:"rule,omitempty"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Match    string `json:"match,omitempty"`
}

func runValidateCommand(cmd *cobra.Command, _ []string) error {
	cfg := currentConfig()

	src, err := validateSource.Source(cmd)
	if err != nil {
		return err
	}

	payload, verdict, err := newGenerator(cfg).Check(src)
	if err != nil && !errors.IsRejection(err) {
		return err
	}

	result := ValidationResult{
		Payload:  payload,
		Allowed:  verdict.Allowed,
		Rule:     verdict.Rule,
		Category: verdict.Category,
		Reason:   verdict.Reason,
		Match:    verdict.Match,
	}

	w := stdout(cmd)
	if strings.EqualFold(validateFormat, "json") {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "Payload: %q\n", payload)
		fmt.Fprintf(w, "Verdict: %s\n", verdict)
	}

	if !verdict.Allowed {
		return &ExitError{Code: ExitRejected, Err: err}
	}
	return nil
}
