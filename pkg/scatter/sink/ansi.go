package sink

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/encoding"
)

// Terminal cells are treated as CellWidth x CellHeight pixel boxes. A chart
// drawn into a cols x rows terminal should be sized to
// cols*CellWidth x rows*CellHeight.
const (
	CellWidth  = 8
	CellHeight = 16
)

// regionTint is how strongly region colors show through the background.
const regionTint = 0.22

type cell struct {
	ch   rune
	fg   string
	bg   string
	bold bool
}

// CellAt converts a terminal cell to the container coordinate at its center.
func CellAt(col, row int) r2.Point {
	return r2.Point{X: (float64(col) + 0.5) * CellWidth, Y: (float64(row) + 0.5) * CellHeight}
}

// RenderANSI rasterizes the scene onto a cols x rows character grid styled
// with lipgloss. Regions become cell backgrounds, points become glyphs.
func RenderANSI(s scatter.Scene, cols, rows int, th Theme) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' ', bg: th.Background}
		}
	}

	if s.Empty() {
		writeText(grid, cols/2-len([]rune(s.Placeholder))/2, rows/2, s.Placeholder, th.MutedText, false)
		return flush(grid)
	}

	t := s.Transform
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			base := t.Invert(CellAt(x, y))
			if !s.Inner.ContainsPoint(base) {
				continue
			}
			if reg, ok := regionAt(s.Regions, base); ok {
				amount := regionTint
				if reg.Selected {
					amount *= 2
				}
				grid[y][x].bg = encoding.Tint(reg.Color, th.Background, amount)
			}
		}
	}
	for _, tk := range s.Grid.X {
		x := int(t.Apply(r2.Point{X: tk.Pos}).X / CellWidth)
		for _, tky := range s.Grid.Y {
			y := int(t.Apply(r2.Point{Y: tky.Pos}).Y / CellHeight)
			if inGrid(grid, x, y) && grid[y][x].ch == ' ' {
				grid[y][x].ch = '·'
				grid[y][x].fg = th.Grid
			}
		}
	}
	for _, m := range s.Points {
		p := t.Apply(m.At)
		x, y := int(p.X/CellWidth), int(p.Y/CellHeight)
		if !inGrid(grid, x, y) {
			continue
		}
		c := &grid[y][x]
		c.ch = glyph(m.Style)
		c.fg = encoding.Tint(m.Style.Fill, c.bg, m.Style.Opacity)
		c.bold = m.Style.Emphasized
	}
	for _, l := range s.Labels {
		p := t.Apply(l.At)
		x, y := int(p.X/CellWidth), int(p.Y/CellHeight)-1
		writeText(grid, x-len([]rune(l.Text))/2, y, l.Text, l.Color, true)
	}
	if tip := s.Tooltip; tip != nil {
		text := " " + tip.Text + " "
		x := int(tip.At.X/CellWidth) - len([]rune(text))/2
		y := int(tip.At.Y / CellHeight)
		writeText(grid, x, y, text, th.Text, true)
		for i := range len([]rune(text)) {
			if inGrid(grid, x+i, y) {
				grid[y][x+i].bg = th.Panel
			}
		}
	}
	return flush(grid)
}

func glyph(st encoding.Style) rune {
	switch {
	case st.Emphasized:
		return '◉'
	case st.Hovered:
		return '◎'
	default:
		return '●'
	}
}

func regionAt(regions []scatter.Region, p r2.Point) (scatter.Region, bool) {
	pt := orb.Point{p.X, p.Y}
	for _, r := range regions {
		if len(r.Ring) >= 3 && planar.RingContains(r.Ring, pt) {
			return r, true
		}
	}
	return scatter.Region{}, false
}

func inGrid(grid [][]cell, x, y int) bool {
	return y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y])
}

func writeText(grid [][]cell, x, y int, text, fg string, bold bool) {
	for i, r := range []rune(text) {
		if inGrid(grid, x+i, y) {
			c := &grid[y][x+i]
			c.ch, c.fg, c.bold = r, fg, bold
		}
	}
}

// flush renders runs of identically styled cells with one lipgloss style
// each, which keeps the escape sequence count proportional to color changes.
func flush(grid [][]cell) string {
	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && sameStyle(row[x], row[start]) {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:x] {
				run.WriteRune(c.ch)
			}
			st := lipgloss.NewStyle().Background(lipgloss.Color(row[start].bg)).Bold(row[start].bold)
			if row[start].fg != "" {
				st = st.Foreground(lipgloss.Color(row[start].fg))
			}
			b.WriteString(st.Render(run.String()))
			start = x
		}
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.bold == b.bold
}
