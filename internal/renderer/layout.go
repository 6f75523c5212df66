package renderer

// layout is the geometry shared by every format.
type layout struct {
	size   int // modules per side without border
	border int // quiet zone in modules
	box    int // pixels per module
	side   int // modules per side including border
	pixels int // pixels per side
}

func newLayout(size, border, box int) layout {
	side := size + 2*border
	return layout{
		size:   size,
		border: border,
		box:    box,
		side:   side,
		pixels: side * box,
	}
}

// matrixCoord maps a bordered-grid coordinate to the matrix. ok is false in
// the quiet zone.
func (l layout) matrixCoord(gx, gy int) (x, y int, ok bool) {
	x, y = gx-l.border, gy-l.border
	return x, y, x >= 0 && y >= 0 && x < l.size && y < l.size
}
