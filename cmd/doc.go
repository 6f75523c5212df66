// Package cmd provides the virsqr command-line interface.
//
// The commands are built with cobra and read their settings through viper.
//
// # Available Commands
//
//   - (none): Run the demo
//   - list-templates: List the payload templates
//   - generate: Write a QR code to PNG, SVG or text
//   - ascii: Print a QR code to the terminal
//   - validate: Screen a payload without encoding it
//   - batch: Run a manifest of jobs, optionally rerunning it on change
//   - init: Write a starter config file and manifest
//   - config: Show or validate configuration
//   - version: Show build information
//
// # Configuration
//
// Settings are layered, highest priority first:
//
//  1. Command-line flags (--box-size, --log-level, ...)
//  2. VIRSQR_<SECTION>_<OPTION> environment variables
//  3. The config file: --config, else VIRSQR_CONFIG_FILE, else .virsqr.yml
//  4. Built-in defaults
//
// # Exit Status
//
// Commands exit 0 on success and 1 on any error. validate exits 2 when
// the payload is rejected.
package cmd
