// Package config loads virsqr settings with viper from a YAML file,
// VIRSQR_ environment variables and bound command-line flags.
//
// Keys follow <section>.<option>, and the matching environment variable is
// VIRSQR_<SECTION>_<OPTION>, for example VIRSQR_RENDER_BOX_SIZE.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/logging"
	"github.com/conneroisu/virsqr/internal/qr"
	"github.com/conneroisu/virsqr/internal/renderer"
	"github.com/conneroisu/virsqr/internal/validation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIRSQR"

// ConfigFileEnv names a config file when --config is not given.
const ConfigFileEnv = "VIRSQR_CONFIG_FILE"

// DefaultDebounce is the batch watcher's quiet period.
const DefaultDebounce = 300 * time.Millisecond

type Config struct {
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
	Batch  BatchConfig  `mapstructure:"batch" yaml:"batch" json:"batch"`
	Log    LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
}

type RenderConfig struct {
	ErrorCorrection string  `mapstructure:"error_correction" yaml:"error_correction" json:"error_correction"`
	BoxSize         int     `mapstructure:"box_size" yaml:"box_size" json:"box_size"`
	Border          int     `mapstructure:"border" yaml:"border" json:"border"`
	FillColor       string  `mapstructure:"fill_color" yaml:"fill_color" json:"fill_color"`
	BackColor       string  `mapstructure:"back_color" yaml:"back_color" json:"back_color"`
	LogoCoverage    float64 `mapstructure:"logo_coverage" yaml:"logo_coverage" json:"logo_coverage"`
	Version         int     `mapstructure:"version" yaml:"version" json:"version"`
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir" json:"dir"`
	DemoDir string `mapstructure:"demo_dir" yaml:"demo_dir" json:"demo_dir"`
}

type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
	Debounce    time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Setup points the global viper instance at a config file and enables
// environment overrides. cfgFile wins over VIRSQR_CONFIG_FILE, which wins
// over .virsqr.yml in the working directory. It returns the file that was
// read, or "" when none was found. A missing default file is not an error;
// an explicit file that cannot be read is.
func Setup(cfgFile string) (string, error) {
	return setup(viper.GetViper(), cfgFile)
}

func setup(v *viper.Viper, cfgFile string) (string, error) {
	explicit := true
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case os.Getenv(ConfigFileEnv) != "":
		v.SetConfigFile(os.Getenv(ConfigFileEnv))
	default:
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".virsqr")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && !explicit {
			return "", nil
		}
		return "", errors.Config("failed to read config file", err)
	}
	return v.ConfigFileUsed(), nil
}

// keys lists every option so AutomaticEnv can see keys absent from the
// file during Unmarshal.
var keys = []string{
	"render.error_correction", "render.box_size", "render.border", "render.fill_color",
	"render.back_color", "render.logo_coverage", "render.version",
	"output.dir", "output.demo_dir",
	"batch.concurrency", "batch.debounce",
	"log.level", "log.format",
}

func bindEnv(v *viper.Viper) {
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v, applies defaults for unset options and validates
// the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Config("failed to decode configuration", err)
	}

	applyDefaults(v, &config)

	if err := validateConfig(&config); err != nil {
		return nil, errors.Config("invalid configuration", err)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	config := &Config{}
	applyDefaults(viper.New(), config)
	return config
}

func applyDefaults(v *viper.Viper, config *Config) {
	if config.Render.ErrorCorrection == "" {
		config.Render.ErrorCorrection = qr.DefaultLevel.String()
	}
	// 0 is a valid border, so only an unset key gets the default
	if !v.IsSet("render.border") {
		config.Render.Border = 4
	}
	if !v.IsSet("render.box_size") {
		config.Render.BoxSize = 10
	}
	if config.Render.FillColor == "" {
		config.Render.FillColor = "black"
	}
	if config.Render.BackColor == "" {
		config.Render.BackColor = "white"
	}

	if config.Output.Dir == "" {
		config.Output.Dir = "."
	}
	if config.Output.DemoDir == "" {
		config.Output.DemoDir = "."
	}

	if config.Batch.Concurrency == 0 {
		config.Batch.Concurrency = runtime.NumCPU()
	}
	if config.Batch.Debounce == 0 {
		config.Batch.Debounce = DefaultDebounce
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if err := validateRenderConfig(&config.Render); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	for name, dir := range map[string]string{"dir": config.Output.Dir, "demo_dir": config.Output.DemoDir} {
		if err := validation.ValidateOutputPath(dir); err != nil {
			return fmt.Errorf("output config: %s: %w", name, err)
		}
	}

	if config.Batch.Concurrency < 1 {
		return fmt.Errorf("batch config: concurrency must be at least 1, got %d", config.Batch.Concurrency)
	}
	if config.Batch.Debounce < 0 {
		return fmt.Errorf("batch config: debounce must not be negative, got %s", config.Batch.Debounce)
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: format must be text or json, got %q", config.Log.Format)
	}

	return nil
}

func validateRenderConfig(config *RenderConfig) error {
	if _, err := qr.ParseLevel(config.ErrorCorrection); err != nil {
		return err
	}
	if config.BoxSize <= 0 {
		return fmt.Errorf("box_size must be positive, got %d", config.BoxSize)
	}
	if config.Border < 0 {
		return fmt.Errorf("border must not be negative, got %d", config.Border)
	}
	if config.LogoCoverage < 0 || config.LogoCoverage >= 1 {
		return fmt.Errorf("logo_coverage must be in [0, 1), got %g", config.LogoCoverage)
	}
	if config.Version < 0 || config.Version > 40 {
		return fmt.Errorf("version must be between 1 and 40, or 0 for automatic, got %d", config.Version)
	}
	if _, err := renderer.ParseColor(config.FillColor); err != nil {
		return fmt.Errorf("fill_color: %w", err)
	}
	if _, err := renderer.ParseColor(config.BackColor); err != nil {
		return fmt.Errorf("back_color: %w", err)
	}
	return nil
}

// Level returns the parsed error correction level.
func (c RenderConfig) Level() qr.Level {
	level, err := qr.ParseLevel(c.ErrorCorrection)
	if err != nil {
		return qr.DefaultLevel
	}
	return level
}

// RendererConfig converts the render section into a renderer configuration
// without a logo.
func (c RenderConfig) RendererConfig() renderer.Config {
	return renderer.Config{
		FillColor:    c.FillColor,
		BackColor:    c.BackColor,
		Border:       c.Border,
		BoxSize:      c.BoxSize,
		LogoCoverage: c.LogoCoverage,
	}
}

// LoggerConfig converts the log section into a logger configuration.
func (c LogConfig) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Format
	return cfg
}
