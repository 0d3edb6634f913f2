package sink

import (
	"bytes"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/scatter"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	theme    Theme
	scale    float64
	overlays bool
}

// WithPNGTheme sets the color theme.
func WithPNGTheme(t Theme) PNGOption { return func(r *pngRenderer) { r.theme = t } }

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPNGOverlays toggles the legend and axis titles.
func WithPNGOverlays(on bool) PNGOption { return func(r *pngRenderer) { r.overlays = on } }

// RenderPNG rasterizes the scene in-process.
func RenderPNG(s scatter.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{theme: DarkTheme(), scale: 2.0, overlays: true}
	for _, opt := range opts {
		opt(&r)
	}
	if s.Width < 1 || s.Height < 1 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "canvas has no area")
	}

	dc := gg.NewContext(int(s.Width*r.scale+0.5), int(s.Height*r.scale+0.5))
	dc.Scale(r.scale, r.scale)
	setColor(dc, r.theme.Background, 1)
	dc.DrawRectangle(0, 0, s.Width, s.Height)
	dc.Fill()

	if s.Empty() {
		setColor(dc, r.theme.MutedText, 1)
		dc.DrawStringAnchored(s.Placeholder, s.Width/2, s.Height/2, 0.5, 0.5)
		return encodePNG(dc)
	}

	dc.Push()
	t := s.Transform
	dc.Translate(t.X, t.Y)
	dc.Scale(t.K, t.K)
	r.drawGrid(dc, s)
	r.drawRegions(dc, s)
	r.drawPoints(dc, s)
	r.drawLabels(dc, s)
	dc.Pop()

	if r.overlays {
		r.drawTitles(dc, s)
		r.drawLegend(dc, s)
	}
	if tip := s.Tooltip; tip != nil {
		w, h := dc.MeasureString(tip.Text)
		setColor(dc, r.theme.Panel, 0.92)
		dc.DrawRoundedRectangle(tip.At.X-w/2-6, tip.At.Y-h-6, w+12, h+10, 4)
		dc.Fill()
		setColor(dc, r.theme.Text, 1)
		dc.DrawStringAnchored(tip.Text, tip.At.X, tip.At.Y-h/2-1, 0.5, 0.5)
	}
	return encodePNG(dc)
}

func (r pngRenderer) drawGrid(dc *gg.Context, s scatter.Scene) {
	in := s.Inner
	k := s.Transform.K
	dc.SetLineWidth(1 / k)
	for _, t := range s.Grid.X {
		setColor(dc, r.theme.Grid, 1)
		dc.DrawLine(t.Pos, in.Y.Lo, t.Pos, in.Y.Hi)
		dc.Stroke()
		setColor(dc, r.theme.MutedText, 1)
		dc.DrawStringAnchored(t.Label, t.Pos, in.Y.Hi+14, 0.5, 0.5)
	}
	for _, t := range s.Grid.Y {
		setColor(dc, r.theme.Grid, 1)
		dc.DrawLine(in.X.Lo, t.Pos, in.X.Hi, t.Pos)
		dc.Stroke()
		setColor(dc, r.theme.MutedText, 1)
		dc.DrawStringAnchored(t.Label, in.X.Lo-8, t.Pos, 1, 0.5)
	}
}

func (r pngRenderer) drawRegions(dc *gg.Context, s scatter.Scene) {
	for _, reg := range s.Regions {
		if len(reg.Ring) < 3 {
			continue
		}
		dc.NewSubPath()
		for _, p := range reg.Ring {
			dc.LineTo(p[0], p[1])
		}
		dc.ClosePath()
		opacity := reg.Opacity
		if reg.Selected {
			opacity *= 2
		}
		setColor(dc, reg.Color, opacity)
		dc.Fill()
	}
}

func (r pngRenderer) drawPoints(dc *gg.Context, s scatter.Scene) {
	for _, m := range s.Points {
		st := m.Style
		dc.DrawCircle(m.At.X, m.At.Y, st.Radius)
		setColor(dc, st.Fill, st.Opacity)
		if st.StrokeWidth > 0 {
			dc.FillPreserve()
			dc.SetLineWidth(st.StrokeWidth)
			setColor(dc, st.Stroke, 1)
			dc.Stroke()
			continue
		}
		dc.Fill()
	}
}

func (r pngRenderer) drawLabels(dc *gg.Context, s scatter.Scene) {
	for _, l := range s.Labels {
		setColor(dc, r.theme.Background, 0.8)
		w, h := dc.MeasureString(l.Text)
		dc.DrawRoundedRectangle(l.At.X-w/2-3, l.At.Y-10-h/2-3, w+6, h+6, 3)
		dc.Fill()
		setColor(dc, l.Color, 1)
		dc.DrawStringAnchored(l.Text, l.At.X, l.At.Y-10, 0.5, 0.5)
	}
}

func (r pngRenderer) drawTitles(dc *gg.Context, s scatter.Scene) {
	setColor(dc, r.theme.Text, 1)
	dc.DrawStringAnchored(s.XTitle, s.Inner.X.Center(), s.Height-14, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 16, s.Inner.Y.Center())
	dc.DrawStringAnchored(s.YTitle, 16, s.Inner.Y.Center(), 0.5, 0.5)
	dc.Pop()
}

func (r pngRenderer) drawLegend(dc *gg.Context, s scatter.Scene) {
	lines := legendLines(s)
	if len(lines) == 0 {
		return
	}
	const rowH, width = 18.0, 190.0
	x := s.Inner.X.Hi - width - 8
	y := s.Inner.Y.Lo + 8
	setColor(dc, r.theme.Panel, 0.85)
	dc.DrawRoundedRectangle(x, y, width, rowH*float64(len(lines))+10, 6)
	dc.Fill()
	for i, l := range lines {
		ly := y + 5 + rowH*float64(i) + rowH/2
		tx := x + 10
		if l.color != "" {
			setColor(dc, l.color, 1)
			dc.DrawCircle(x+14, ly, 5)
			dc.Fill()
			tx = x + 26
		}
		setColor(dc, r.theme.Text, 1)
		dc.DrawStringAnchored(l.text, tx, ly, 0, 0.5)
	}
}

// setColor parses hex colors with go-colorful; unparseable values fall back
// to mid grey so a bad palette entry never aborts a render.
func setColor(dc *gg.Context, hex string, alpha float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode png")
	}
	return buf.Bytes(), nil
}
