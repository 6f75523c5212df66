// Package qr defines the module matrix shared by the encoder and the
// renderers, and adapts github.com/skip2/go-qrcode to produce it.
package qr

import "fmt"

// Matrix is a square grid of modules without a quiet zone. true is dark.
// Rows are indexed first: m[y][x].
type Matrix [][]bool

// NewMatrix validates that rows form a non-empty square and returns a copy.
func NewMatrix(rows [][]bool) (Matrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("matrix is empty")
	}

	m := make(Matrix, n)
	for y, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d modules, want %d", y, len(row), n)
		}
		m[y] = append([]bool(nil), row...)
	}
	return m, nil
}

// Size returns the number of modules per side.
func (m Matrix) Size() int { return len(m) }

// Dark reports whether the module at column x, row y is dark. Coordinates
// outside the grid are light.
func (m Matrix) Dark(x, y int) bool {
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return m[y][x]
}

// Square reports whether m is non-empty and every row has Size modules.
func (m Matrix) Square() bool {
	if len(m) == 0 {
		return false
	}
	for _, row := range m {
		if len(row) != len(m) {
			return false
		}
	}
	return true
}

// Equal reports whether m and other have identical modules.
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for y := range m {
		if len(m[y]) != len(other[y]) {
			return false
		}
		for x := range m[y] {
			if m[y][x] != other[y][x] {
				return false
			}
		}
	}
	return true
}
