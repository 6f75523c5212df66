package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/generator"
	"github.com/conneroisu/virsqr/internal/qr"
	"github.com/conneroisu/virsqr/internal/renderer"
)

// SourceFlags select what gets encoded: raw data or a template.
type SourceFlags struct {
	Data     string
	Template string
	Params   []string
}

// RenderFlags hold the per-invocation rendering options that are not part
// of the config file.
type RenderFlags struct {
	Logo   string
	Invert bool
}

// addSourceFlags adds --data, --template and --param to a command.
func addSourceFlags(cmd *cobra.Command, flags *SourceFlags) {
	cmd.Flags().StringVarP(&flags.Data, "data", "d", "", "Raw data to encode")
	cmd.Flags().StringVarP(&flags.Template, "template", "t", "", "Template name (see list-templates)")
	cmd.Flags().StringArrayVarP(&flags.Params, "param", "p", nil, "Template parameter as key=value (repeatable)")
}

// addRenderFlags adds the flags that override render.* config keys.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("error-correction", "e", "H", "Error correction level (L, M, Q, H)")
	cmd.Flags().Int("box-size", 10, "Pixels per module")
	cmd.Flags().Int("border", 4, "Quiet zone width in modules")
	cmd.Flags().String("fill-color", "black", "Module colour (name or #hex)")
	cmd.Flags().String("back-color", "white", "Background colour (name or #hex)")
	cmd.Flags().Float64("logo-coverage", renderer.DefaultLogoCoverage, "Largest fraction of the image a logo may cover")
	cmd.Flags().Int("version", 0, "Fixed symbol version 1-40 (0 picks the smallest that fits)")

	AddFlagValidation(cmd, "error-correction", func(value string) error {
		_, err := qr.ParseLevel(value)
		return err
	})
}

// Source builds the generator source. --data counts as given whenever the
// flag was set, so an empty string is still a raw source.
func (f *SourceFlags) Source(cmd *cobra.Command) (generator.Source, error) {
	var src generator.Source

	if f.Template != "" {
		params, err := parseParams(f.Params)
		if err != nil {
			return src, err
		}
		src = generator.FromTemplate(f.Template, params)
	} else if len(f.Params) > 0 {
		return src, errors.InvalidSourceSelection("--param requires --template")
	}

	if cmd.Flags().Changed("data") {
		if f.Template != "" {
			return generator.Combine(src, generator.FromRaw(f.Data)), nil
		}
		src = generator.FromRaw(f.Data)
	}

	return src, nil
}

// parseParams turns key=value pairs into a map. The value may contain '='
// and a repeated key keeps its last value.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.KindInvalidParameter, "ERR_PARAM_SYNTAX",
				fmt.Sprintf("parameter %q must be key=value", pair))
		}
		params[key] = value
	}
	return params, nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	originalSet := flag.Value.Set

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// resetFlags restores every flag in fs to its default. Commands are
// package-level values, so repeated executions in one process need this.
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		value := f.Value
		if v, ok := value.(*validatingValue); ok {
			value = v.Value
		}
		if slice, ok := value.(pflag.SliceValue); ok {
			_ = slice.Replace(nil)
		} else {
			_ = value.Set(f.DefValue)
		}
		f.Changed = false
	})
}
