package renderer

import (
	"strings"

	"github.com/conneroisu/virsqr/internal/qr"
)

// ASCII cells. Each module is two characters wide so it prints roughly
// square in a terminal.
const (
	DarkCell  = "██"
	LightCell = "  "
)

func renderASCII(m qr.Matrix, l layout, invert bool) *Output {
	dark, light := DarkCell, LightCell
	if invert {
		dark, light = light, dark
	}

	lines := make([]string, 0, l.side)
	var row strings.Builder
	for gy := 0; gy < l.side; gy++ {
		row.Reset()
		for gx := 0; gx < l.side; gx++ {
			x, y, ok := l.matrixCoord(gx, gy)
			if ok && m[y][x] {
				row.WriteString(dark)
			} else {
				row.WriteString(light)
			}
		}
		lines = append(lines, row.String())
	}

	return &Output{
		Format:      FormatASCII,
		Data:        []byte(strings.Join(lines, "\n")),
		ContentType: "text/plain; charset=utf-8",
		Width:       l.side * 2,
		Height:      l.side,
	}
}
