package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/playmatatu/billiards/internal/game"
)

const (
	ballRune = '●'
	aimRune  = '·'
	railRune = '▒'
)

var (
	feltStyle   = tcell.StyleDefault.Background(tcell.ColorDarkGreen)
	railStyle   = tcell.StyleDefault.Foreground(tcell.ColorSaddleBrown).Background(tcell.ColorMaroon)
	pocketStyle = tcell.StyleDefault.Background(tcell.ColorBlack)
	aimStyle    = feltStyle.Foreground(tcell.ColorWhite)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// Renderer draws frames of one table. The bottom screen row is kept for
// the status line.
type Renderer struct {
	screen tcell.Screen
	table  *game.Table
}

func New(screen tcell.Screen, table *game.Table) *Renderer {
	return &Renderer{screen: screen, table: table}
}

// Viewport returns the mapping for the current screen size.
func (r *Renderer) Viewport() Viewport {
	cols, rows := r.screen.Size()
	return NewViewport(r.table.Config.Width, r.table.Config.Height, cols, rows-1)
}

// Draw renders f and shows it.
func (r *Renderer) Draw(f game.Frame) {
	vp := r.Viewport()
	r.screen.Clear()

	r.drawCloth(vp)
	if f.Aim != nil {
		r.drawAim(vp, *f.Aim)
	}
	for _, b := range f.Balls {
		x, y := vp.ToCell(game.NewVec2(b.X, b.Y))
		style := feltStyle.Foreground(tcell.GetColor(b.Color))
		r.screen.SetContent(x, y, ballRune, nil, style)
	}
	r.drawStatus(vp, f)

	r.screen.Show()
}

// drawCloth paints every cell as rail, pocket or felt by the table point at
// its center.
func (r *Renderer) drawCloth(vp Viewport) {
	cfg := r.table.Config
	for y := 0; y < vp.Rows; y++ {
		for x := 0; x < vp.Cols; x++ {
			p := vp.ToTable(x, y)
			switch {
			case r.inPocket(p):
				r.screen.SetContent(x, y, ' ', nil, pocketStyle)
			case p.X < cfg.RailThickness || p.X > cfg.Width-cfg.RailThickness ||
				p.Y < cfg.RailThickness || p.Y > cfg.Height-cfg.RailThickness:
				r.screen.SetContent(x, y, railRune, nil, railStyle)
			default:
				r.screen.SetContent(x, y, ' ', nil, feltStyle)
			}
		}
	}
}

func (r *Renderer) inPocket(p game.Vec2) bool {
	_, ok := r.table.PocketAt(p)
	return ok
}

// drawAim plots the aim segment with Bresenham's line algorithm.
func (r *Renderer) drawAim(vp Viewport, line game.AimLine) {
	x0, y0 := vp.ToCell(line.From)
	x1, y1 := vp.ToCell(line.To)

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		r.screen.SetContent(x0, y0, aimRune, nil, aimStyle)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (r *Renderer) drawStatus(vp Viewport, f game.Frame) {
	motion := "moving"
	if f.Stopped {
		motion = "at rest"
	}
	text := fmt.Sprintf(" tick %d | %s | %d balls | %s | drag cue to aim, r rerack, p pause, q quit",
		f.Tick, f.Status, len(f.Balls), motion)
	for i, ch := range text {
		if i >= vp.Cols {
			break
		}
		r.screen.SetContent(i, vp.Rows, ch, nil, statusStyle)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
