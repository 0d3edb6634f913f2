package desktop

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

// Debug font metrics.
const (
	glyphWidth  = 6
	glyphHeight = 16
)

// Draw paints the current scene.
func (w *Window) Draw(screen *ebiten.Image) {
	th := w.cfg.Theme
	screen.Fill(toNRGBA(th.Background, 1))

	s := w.chart.Scene()
	if s.Empty() {
		msg := s.Placeholder
		if w.lastErr != nil && !w.loading {
			msg = errors.UserMessage(w.lastErr)
		}
		ebitenutil.DebugPrintAt(screen, msg, int(s.Width/2)-len(msg)*glyphWidth/2, int(s.Height/2))
		return
	}

	t := s.Transform
	w.drawGrid(screen, s, t)
	w.drawRegions(screen, s, t)
	for _, m := range s.Points {
		p := t.Apply(m.At)
		r := float32(m.Style.Radius * t.K)
		if m.Style.StrokeWidth > 0 {
			vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), r+float32(m.Style.StrokeWidth), toNRGBA(m.Style.Stroke, 1), true)
		}
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), r, toNRGBA(m.Style.Fill, m.Style.Opacity), true)
	}
	for _, l := range s.Labels {
		p := t.Apply(l.At)
		ebitenutil.DebugPrintAt(screen, l.Text, int(p.X)-len(l.Text)*glyphWidth/2, int(p.Y)-glyphHeight)
	}

	w.drawLegend(screen, s)
	ebitenutil.DebugPrintAt(screen, w.status(s), 8, 4)
	if tip := s.Tooltip; tip != nil {
		width := float32(len(tip.Text)*glyphWidth + 12)
		x, y := float32(tip.At.X)-width/2, float32(tip.At.Y)-glyphHeight
		vector.DrawFilledRect(screen, x, y, width, glyphHeight+4, toNRGBA(th.Panel, 0.92), false)
		ebitenutil.DebugPrintAt(screen, tip.Text, int(x)+6, int(y)+1)
	}
}

func (w *Window) drawGrid(screen *ebiten.Image, s scatter.Scene, t viewport.Transform) {
	c := toNRGBA(w.cfg.Theme.Grid, 1)
	lo, hi := t.Apply(s.Inner.Lo()), t.Apply(s.Inner.Hi())
	for _, tk := range s.Grid.X {
		x := float32(tk.Pos*t.K + t.X)
		vector.StrokeLine(screen, x, float32(lo.Y), x, float32(hi.Y), 1, c, false)
	}
	for _, tk := range s.Grid.Y {
		y := float32(tk.Pos*t.K + t.Y)
		vector.StrokeLine(screen, float32(lo.X), y, float32(hi.X), y, 1, c, false)
	}
}

// drawRegions fills each cell as a triangle fan. Cells are clipped Voronoi
// polygons and therefore convex.
func (w *Window) drawRegions(screen *ebiten.Image, s scatter.Scene, t viewport.Transform) {
	if w.white == nil {
		w.white = ebiten.NewImage(3, 3)
		w.white.Fill(color.White)
	}
	src := w.white.SubImage(w.white.Bounds().Inset(1)).(*ebiten.Image)
	for _, reg := range s.Regions {
		opacity := reg.Opacity
		if reg.Selected {
			opacity *= 2
		}
		vs, is := fan(reg.Ring, t, toColorful(reg.Color), opacity)
		if len(is) == 0 {
			continue
		}
		screen.DrawTriangles(vs, is, src, &ebiten.DrawTrianglesOptions{AntiAlias: true})
	}
}

// fan triangulates a convex ring in screen space with premultiplied color.
func fan(ring orb.Ring, t viewport.Transform, c colorful.Color, alpha float64) ([]ebiten.Vertex, []uint16) {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, nil
	}
	vs := make([]ebiten.Vertex, len(ring))
	for i, p := range ring {
		vs[i] = ebiten.Vertex{
			DstX:   float32(p[0]*t.K + t.X),
			DstY:   float32(p[1]*t.K + t.Y),
			SrcX:   1,
			SrcY:   1,
			ColorR: float32(c.R * alpha),
			ColorG: float32(c.G * alpha),
			ColorB: float32(c.B * alpha),
			ColorA: float32(alpha),
		}
	}
	is := make([]uint16, 0, 3*(len(ring)-2))
	for i := 1; i < len(ring)-1; i++ {
		is = append(is, 0, uint16(i), uint16(i+1))
	}
	return vs, is
}

func (w *Window) drawLegend(screen *ebiten.Image, s scatter.Scene) {
	if len(s.Legend) == 0 {
		return
	}
	const rowH, width = 18, 200
	x := int(s.Width) - width - 12
	y := 28
	vector.DrawFilledRect(screen, float32(x), float32(y), width, float32(rowH*len(s.Legend)+8), toNRGBA(w.cfg.Theme.Panel, 0.85), false)
	for i, e := range s.Legend {
		ly := y + 4 + i*rowH
		vector.DrawFilledCircle(screen, float32(x+12), float32(ly+rowH/2), 5, toNRGBA(e.Color, 1), true)
		text := fmt.Sprintf("%s (%d)", e.Label, e.Count)
		if e.Selected {
			text = "> " + text
		}
		ebitenutil.DebugPrintAt(screen, text, x+24, ly)
	}
}

// status is the top line: grouping mode, zoom and selection.
func (w *Window) status(s scatter.Scene) string {
	mode := fmt.Sprintf("groups: %d", s.Grouping.Count)
	if s.Grouping.Automatic {
		mode = fmt.Sprintf("groups: auto (%d)", s.Grouping.Count)
	}
	line := fmt.Sprintf("%s  zoom: %.1fx", mode, s.Transform.K)
	if d := s.Detail; d != nil {
		line += fmt.Sprintf("  %s: %d players, %.0f%%", d.Label, d.Count, d.Share*100)
	}
	if w.loading {
		line += "  loading..."
	}
	return line
}

func toColorful(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	return c
}

// toNRGBA parses a hex color and applies alpha. Bad values become grey.
func toNRGBA(hex string, alpha float64) color.NRGBA {
	r, g, b := toColorful(hex).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(clamp01(alpha)*255 + 0.5)}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
