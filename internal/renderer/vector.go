package renderer

import (
	"fmt"
	"strings"

	"github.com/conneroisu/virsqr/internal/qr"
)

func renderVector(m qr.Matrix, l layout, p palette) (*Output, error) {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`+"\n",
		l.pixels, l.pixels, l.side, l.side)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"%s/>`+"\n",
		l.side, l.side, hexColor(p.back), opacityAttr(p.back))

	if d := runPath(m, l); d != "" {
		fmt.Fprintf(&b, `<path fill="%s"%s d="%s"/>`+"\n", hexColor(p.fill), opacityAttr(p.fill), d)
	}
	b.WriteString("</svg>\n")

	return &Output{
		Format:      FormatVector,
		Data:        []byte(b.String()),
		ContentType: "image/svg+xml",
		Width:       l.pixels,
		Height:      l.pixels,
	}, nil
}

// runPath draws each horizontal run of dark modules as one rectangle, in
// module units offset by the border.
func runPath(m qr.Matrix, l layout) string {
	var d strings.Builder
	for y := 0; y < l.size; y++ {
		for x := 0; x < l.size; {
			if !m[y][x] {
				x++
				continue
			}
			start := x
			for x < l.size && m[y][x] {
				x++
			}
			fmt.Fprintf(&d, "M%d %dh%dv1h-%dz", start+l.border, y+l.border, x-start, x-start)
		}
	}
	return d.String()
}

func opacityAttr(c rgba) string {
	if c.A == 0xff {
		return ""
	}
	return fmt.Sprintf(` fill-opacity="%s"`, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", float64(c.A)/255), "0"), "."))
}
