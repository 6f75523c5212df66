package renderer

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

type rgba = color.NRGBA

// ParseColor returns a non-premultiplied colour. It accepts a CSS/SVG colour name, "transparent", #rgb, #rrggbb or
// #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.NRGBA{}, fmt.Errorf("colour is empty")
	}

	if strings.HasPrefix(name, "#") {
		return parseHex(name[1:], s)
	}
	if name == "transparent" {
		return color.NRGBA{}, nil
	}
	if c, ok := colornames.Map[name]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}

	return color.NRGBA{}, fmt.Errorf("unknown colour %q", s)
}

func parseHex(hex, original string) (color.NRGBA, error) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("colour %q must have 3, 6 or 8 hex digits", original)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q is not valid hex", original)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// hexColor formats c as #rrggbb for SVG attributes; alpha is emitted
// separately.
func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
