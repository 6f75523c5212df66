package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/virsqr/internal/config"
	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/validation"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter config file and batch manifest",
	Long: `Write .virsqr.yml with the default settings and an example batch
manifest, jobs.yml. If no directory is given the current one is used.
Existing files are left alone unless --force is set.

Examples:
  virsqr init
  virsqr init codes --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

// ExampleManifest is the manifest written by init.
const ExampleManifest = "jobs.yml"

const exampleManifest = `# virsqr batch manifest. Run with: virsqr batch jobs.yml
output_dir: codes

defaults:
  error_correction: M
  box_size: 8

jobs:
  - name: website
    template: url-https
    params:
      url: example.com
    output: website.png

  - name: guest-wifi
    template: wifi-wpa2
    params:
      ssid: Guest
      password: change-me
    output: wifi.svg

  - name: contact
    template: vcard
    params:
      name: Jane Doe
      email: jane@example.com
    output: contact.png
    render:
      fill_color: "#1d3557"

  - name: terminal
    data: Hello from virsqr
    output: hello.txt
`

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := validation.ValidateOutputPath(dir); err != nil {
		return errors.IO("invalid project directory", err).WithContext("path", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IO("failed to create project directory", err).WithContext("path", dir)
	}

	settings, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}

	files := []struct {
		name string
		data []byte
	}{
		{defaultConfigFile, append([]byte("# virsqr configuration\n"), settings...)},
		{ExampleManifest, []byte(exampleManifest)},
	}

	w := stdout(cmd)
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !initForce {
			fmt.Fprintf(w, "Skipped %s (already exists, use --force to overwrite)\n", path)
			continue
		}
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return errors.IO("failed to write file", err).WithContext("path", path)
		}
		fmt.Fprintf(w, "Created %s\n", path)
	}

	return nil
}
