package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/virsqr/internal/config"
	"github.com/conneroisu/virsqr/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect virsqr configuration",
	Long: `Inspect the resolved configuration or check a configuration file.

Examples:
  virsqr config show                    # Resolved settings as YAML
  virsqr config show --format json
  virsqr config validate                # Check .virsqr.yml
  virsqr config validate --file ci.yml  # Check a specific file`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Display the configuration after the config file, VIRSQR_ environment
variables, flags and defaults have been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var (
	configFile   string
	configFormat string
)

// defaultConfigFile is looked up in the working directory.
const defaultConfigFile = ".virsqr.yml"

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: "+defaultConfigFile+")")
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	target := configFile
	if target == "" {
		target = defaultConfigFile
	}

	if _, err := os.Stat(target); err != nil {
		return errors.Config(fmt.Sprintf("configuration file %s does not exist", target), err).
			WithContext("path", target)
	}

	v := viper.New()
	v.SetConfigFile(target)
	if err := v.ReadInConfig(); err != nil {
		return errors.Config("failed to read configuration file", err).WithContext("path", target)
	}

	if _, err := config.LoadFrom(v); err != nil {
		return err
	}

	fmt.Fprintf(stdout(cmd), "Configuration %s is valid\n", target)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := currentConfig()
	w := stdout(cmd)

	switch configFormat {
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
