// Package renderer projects a QR module matrix onto an output format: a PNG
// raster with an optional centred logo, an SVG vector image, or terminal
// text. It never sees the encoded payload.
package renderer

import (
	"fmt"
	"image"
	"strings"

	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/qr"
)

// Format selects the output representation.
type Format string

const (
	FormatRaster Format = "raster"
	FormatVector Format = "vector"
	FormatASCII  Format = "ascii"
)

// Formats lists every supported format.
var Formats = []Format{FormatRaster, FormatVector, FormatASCII}

// ParseFormat parses a format name. "png" and "svg" are accepted as
// aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raster", "png":
		return FormatRaster, nil
	case "vector", "svg":
		return FormatVector, nil
	case "ascii", "text", "txt":
		return FormatASCII, nil
	default:
		return "", fmt.Errorf("unknown format %q (want raster, vector or ascii)", s)
	}
}

// DefaultLogoCoverage is the logo area cap used when Config.LogoCoverage is 0.
const DefaultLogoCoverage = 0.04

// Config controls how a matrix is drawn.
type Config struct {
	// FillColor and BackColor accept CSS colour names, #rgb, #rrggbb or
	// #rrggbbaa.
	FillColor string
	BackColor string
	// Border is the quiet zone width in modules.
	Border int
	// BoxSize is the number of pixels per module.
	BoxSize int
	// Logo is composited over the centre of raster output.
	Logo image.Image
	// LogoCoverage caps the logo footprint as a fraction of the image area.
	LogoCoverage float64
	// Invert swaps dark and light cells in ASCII output.
	Invert bool
}

// DefaultConfig returns black-on-white with a four module border and ten
// pixel modules.
func DefaultConfig() Config {
	return Config{
		FillColor: "black",
		BackColor: "white",
		Border:    4,
		BoxSize:   10,
	}
}

// Output is a rendered image or text block.
type Output struct {
	Format      Format
	Data        []byte
	ContentType string
	// Width and Height are in pixels for images and in characters and
	// lines for ASCII.
	Width  int
	Height int
}

// Render draws m in format f.
func Render(m qr.Matrix, cfg Config, f Format) (*Output, error) {
	if !m.Square() {
		return nil, errors.RenderConfig("matrix", "matrix is empty or not square")
	}
	colors, err := cfg.validate(f)
	if err != nil {
		return nil, err
	}

	l := newLayout(m.Size(), cfg.Border, cfg.BoxSize)

	switch f {
	case FormatRaster:
		return renderRaster(m, l, colors, cfg)
	case FormatVector:
		return renderVector(m, l, colors)
	default:
		return renderASCII(m, l, cfg.Invert), nil
	}
}

type palette struct {
	fill rgba
	back rgba
}

// Check reports whether cfg can render format f, without needing a matrix.
func (cfg Config) Check(f Format) error {
	_, err := cfg.validate(f)
	return err
}

func (cfg Config) validate(f Format) (palette, error) {
	switch f {
	case FormatRaster, FormatVector, FormatASCII:
	default:
		return palette{}, errors.RenderConfig("format", fmt.Sprintf("unknown format %q", f))
	}

	if cfg.BoxSize <= 0 {
		return palette{}, errors.RenderConfig("box_size",
			fmt.Sprintf("box size must be positive, got %d", cfg.BoxSize))
	}
	if cfg.Border < 0 {
		return palette{}, errors.RenderConfig("border",
			fmt.Sprintf("border must not be negative, got %d", cfg.Border))
	}
	if cfg.LogoCoverage < 0 || cfg.LogoCoverage >= 1 {
		return palette{}, errors.RenderConfig("logo_coverage",
			fmt.Sprintf("logo coverage must be in [0, 1), got %g", cfg.LogoCoverage))
	}
	if cfg.Logo != nil && f != FormatRaster {
		return palette{}, errors.RenderConfig("logo",
			fmt.Sprintf("a logo can only be embedded in raster output, not %s", f))
	}

	fill, err := ParseColor(cfg.FillColor)
	if err != nil {
		return palette{}, errors.RenderConfig("fill_color", err.Error())
	}
	back, err := ParseColor(cfg.BackColor)
	if err != nil {
		return palette{}, errors.RenderConfig("back_color", err.Error())
	}

	return palette{fill: fill, back: back}, nil
}
