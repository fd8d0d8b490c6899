// Package render draws table frames onto a terminal screen.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/playmatatu/billiards/internal/game"
)

// Viewport maps table coordinates onto a grid of terminal cells. The whole
// table is stretched over Cols x Rows cells.
type Viewport struct {
	Cols, Rows int
	toCell     mgl64.Mat3
	toTable    mgl64.Mat3
}

// NewViewport builds the mapping for a table of the given size.
func NewViewport(width, height float64, cols, rows int) Viewport {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	m := mgl64.Scale2D(float64(cols)/width, float64(rows)/height)
	return Viewport{
		Cols:    cols,
		Rows:    rows,
		toCell:  m,
		toTable: m.Inv(),
	}
}

// ToCell returns the cell containing table point p, clamped to the grid.
func (v Viewport) ToCell(p game.Vec2) (x, y int) {
	c := v.toCell.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	x = clampInt(int(math.Floor(c[0])), 0, v.Cols-1)
	y = clampInt(int(math.Floor(c[1])), 0, v.Rows-1)
	return x, y
}

// ToTable returns the table point at the center of cell (x, y).
func (v Viewport) ToTable(x, y int) game.Vec2 {
	t := v.toTable.Mul3x1(mgl64.Vec3{float64(x) + 0.5, float64(y) + 0.5, 1})
	return game.NewVec2(t[0], t[1])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
