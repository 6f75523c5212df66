package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/virsqr/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list-templates",
	Aliases: []string{"list", "ls"},
	Short:   "List the payload templates",
	Long: `List every built-in payload template with its category, description and
parameters. Optional parameters are shown in brackets with their default.

Examples:
  virsqr list-templates                     # Table of all templates
  virsqr list-templates -o json             # JSON array
  virsqr list-templates --category network  # Only the WiFi templates`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat   string
	listCategory string
)

var listFormats = []string{"table", "json", "yaml", "csv"}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "output", "o", "table", "Output format (table|json|yaml|csv)")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only list templates in this category")

	AddFlagValidation(listCmd, "output", func(format string) error {
		return validateChoice("output format", format, listFormats)
	})
}

// templateInfo is the listing record for one template.
type templateInfo struct {
	Name        string                   `json:"name" yaml:"name"`
	Category    string                   `json:"category" yaml:"category"`
	Description string                   `json:"description" yaml:"description"`
	Parameters  []registry.ParameterInfo `json:"parameters" yaml:"parameters"`
}

func runList(cmd *cobra.Command, _ []string) error {
	templates := registry.List()
	if listCategory != "" {
		templates = registry.Default().ByCategory(strings.ToLower(listCategory))
		if len(templates) == 0 {
			return fmt.Errorf("unknown category %q, available: %s",
				listCategory, strings.Join(registry.Default().Categories(), ", "))
		}
	}

	infos := make([]templateInfo, len(templates))
	for i, t := range templates {
		infos[i] = templateInfo{
			Name:        t.Name,
			Category:    t.Category,
			Description: t.Description,
			Parameters:  t.Parameters(),
		}
	}

	w := stdout(cmd)
	switch strings.ToLower(listFormat) {
	case "json":
		return outputListJSON(w, infos)
	case "yaml":
		return outputListYAML(w, infos)
	case "csv":
		return outputListCSV(w, infos)
	default:
		return outputListTable(w, infos)
	}
}

func outputListJSON(w io.Writer, infos []templateInfo) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(infos)
}

func outputListYAML(w io.Writer, infos []templateInfo) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(infos)
}

func outputListTable(w io.Writer, infos []templateInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tCATEGORY\tPARAMETERS\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t--------\t----------\t-----------")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			info.Name, info.Category, formatParams(info.Parameters), info.Description)
	}
	fmt.Fprintf(tw, "\nTotal templates: %d\n", len(infos))

	return tw.Flush()
}

func outputListCSV(w io.Writer, infos []templateInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "category", "parameters", "description"}); err != nil {
		return err
	}
	for _, info := range infos {
		row := []string{info.Name, info.Category, formatParams(info.Parameters), info.Description}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatParams renders "ssid, password, [hidden=false]".
func formatParams(params []registry.ParameterInfo) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch {
		case !p.Optional:
			parts[i] = p.Name
		case p.Default != "":
			parts[i] = "[" + p.Name + "=" + p.Default + "]"
		default:
			parts[i] = "[" + p.Name + "]"
		}
	}
	return strings.Join(parts, ", ")
}

func validateChoice(what, value string, choices []string) error {
	for _, c := range choices {
		if strings.EqualFold(value, c) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q, must be one of: %s", what, value, strings.Join(choices, ", "))
}
