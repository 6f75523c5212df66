package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/virsqr/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for virsqr including the version, git commit,
build time, Go version, platform and the QR encoder library version.

Examples:
  virsqr version              # Version and commit
  virsqr version --detailed   # All build details
  virsqr version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show the version number only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	info := version.Get()
	w := stdout(cmd)

	switch versionFormat {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			*version.BuildInfo
			IsRelease bool `json:"is_release"`
		}{info, info.IsRelease()})
	case "text":
		switch {
		case versionShort:
			fmt.Fprintln(w, info.Version)
		case versionDetailed:
			fmt.Fprintln(w, info.Detailed())
			if info.IsRelease() {
				fmt.Fprintln(w, "Build type: release")
			} else {
				fmt.Fprintln(w, "Build type: development")
			}
		default:
			fmt.Fprintf(w, "virsqr %s\n", info.Short())
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
