// Package internal contains the core implementation packages for virsqr.
//
// # Package Organization
//
// The internal packages are organized by pipeline stage:
//
//   - registry: The catalog of 50 payload templates and their resolution
//   - validation: Exploit pattern screening and file path checks
//   - qr: Matrix encoding on top of github.com/skip2/go-qrcode
//   - renderer: PNG with optional logo, SVG and terminal text output
//   - generator: resolve, screen, encode and render as one call
//   - output: Writing rendered codes to disk
//   - batch: Manifest parsing, concurrent job runs and watch mode
//   - watcher: Debounced fsnotify file watching
//   - config: viper-backed settings
//   - errors: The structured error type shared by every package
//   - logging: slog-based structured logging
//   - version: Build metadata
//
// # Data Flow
//
// A request names either raw data or a template with parameters. The
// generator resolves it to a payload string, rejects it if any validation
// rule matches, encodes the accepted payload into a qr.Matrix and hands the
// matrix to the renderer. Nothing is encoded or written for a rejected
// payload.
//
// # Concurrency
//
// The registry, validator, encoder and generator are immutable after
// construction and safe for concurrent use. The batch runner relies on
// this to share one generator across its worker goroutines.
package internal
