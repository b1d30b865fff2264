package mapview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cell is one character of the rendered map.
type Cell struct {
	Rune    rune
	Color   lipgloss.Color
	Bold    bool
	Reverse bool
}

type grid struct {
	width, height int
	cells         []Cell
}

func newGrid(width, height int) *grid {
	return &grid{width: width, height: height, cells: make([]Cell, width*height)}
}

func (g *grid) inside(col, row int) bool {
	return col >= 0 && col < g.width && row >= 0 && row < g.height
}

func (g *grid) set(col, row int, c Cell) {
	if g.inside(col, row) {
		g.cells[row*g.width+col] = c
	}
}

func (g *grid) at(col, row int) Cell {
	if !g.inside(col, row) {
		return Cell{}
	}
	return g.cells[row*g.width+col]
}

// text writes s starting at col, clipped to the grid.
func (g *grid) text(col, row int, s string, color lipgloss.Color, bold bool) {
	for _, r := range s {
		g.set(col, row, Cell{Rune: r, Color: color, Bold: bold})
		col++
	}
}

// plain renders the grid without styling.
func (g *grid) plain() string {
	var b strings.Builder
	for row := 0; row < g.height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < g.width; col++ {
			r := g.at(col, row).Rune
			if r == 0 {
				r = ' '
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// styled renders the grid, grouping runs of equally styled cells into one
// lipgloss render call.
func (g *grid) styled() string {
	var b strings.Builder
	for row := 0; row < g.height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		var runStyle Cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle().Bold(runStyle.Bold).Reverse(runStyle.Reverse)
			if runStyle.Color != "" {
				style = style.Foreground(runStyle.Color)
			}
			b.WriteString(style.Render(run.String()))
			run.Reset()
		}
		for col := 0; col < g.width; col++ {
			c := g.at(col, row)
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			key := Cell{Color: c.Color, Bold: c.Bold, Reverse: c.Reverse}
			if key != runStyle {
				flush()
				runStyle = key
			}
			run.WriteRune(r)
		}
		flush()
	}
	return b.String()
}
