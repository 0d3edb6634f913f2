package sink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/matzehuels/landscape/pkg/scatter"
)

const svgCSS = `
    .point { transition: r 0.12s ease; }
    .point:hover { cursor: pointer; }
    .region { pointer-events: none; }
    .label, .tick, .title, .legend, .tooltip, .placeholder { pointer-events: none; user-select: none; }`

// hoverJS reproduces the tooltip of the live view in a static file: it
// reads the point's data attributes and moves the shared tooltip group.
const hoverJS = `
    (function() {
      const root = document.currentScript.closest('svg');
      const tip = root.querySelector('.static-tooltip');
      const text = tip.querySelector('text');
      const box = tip.querySelector('rect');
      root.querySelectorAll('.point').forEach(el => {
        el.addEventListener('mousemove', ev => {
          const pt = root.createSVGPoint();
          pt.x = ev.clientX; pt.y = ev.clientY;
          const p = pt.matrixTransform(root.getScreenCTM().inverse());
          text.textContent = el.dataset.label;
          const w = text.getComputedTextLength() + 12;
          box.setAttribute('width', w.toFixed(1));
          box.setAttribute('x', (-w / 2).toFixed(1));
          tip.setAttribute('transform', 'translate(' + p.x.toFixed(1) + ',' + (p.y - 20).toFixed(1) + ')');
          tip.setAttribute('visibility', 'visible');
        });
        el.addEventListener('mouseleave', () => tip.setAttribute('visibility', 'hidden'));
      });
    })();`

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme    Theme
	prefix   string
	overlays bool
	hover    bool
}

// WithTheme sets the color theme.
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithIDPrefix sets the prefix of element ids, for pages that embed more than
// one chart. The default is "landscape".
func WithIDPrefix(p string) SVGOption { return func(r *svgRenderer) { r.prefix = p } }

// WithoutOverlays drops the legend, detail and titles.
func WithoutOverlays() SVGOption { return func(r *svgRenderer) { r.overlays = false } }

// WithHoverScript embeds a script that shows point tooltips in a standalone
// file. Live views drive the tooltip from the server instead.
func WithHoverScript() SVGOption { return func(r *svgRenderer) { r.hover = true } }

// RenderSVG renders the scene as an SVG document.
func RenderSVG(s scatter.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{theme: DarkTheme(), prefix: "landscape", overlays: true}
	for _, opt := range opts {
		opt(&r)
	}
	th := r.theme

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f" id="%s" font-family="%s" font-size="%s">`+"\n",
		num(s.Width), num(s.Height), s.Width, s.Height, r.prefix, EscapeXML(th.Font), num(th.FontSize))
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgCSS)
	fmt.Fprintf(&buf, `  <rect class="background" width="%s" height="%s" fill="%s"/>`+"\n", num(s.Width), num(s.Height), th.Background)

	if s.Empty() {
		fmt.Fprintf(&buf, `  <text class="placeholder" x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			num(s.Width/2), num(s.Height/2), th.MutedText, EscapeXML(s.Placeholder))
		buf.WriteString("</svg>\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, `  <g id="%s-viewport" class="viewport" transform="%s">`+"\n", r.prefix, s.Transform)
	renderGrid(&buf, s, th)
	renderRegions(&buf, s)
	renderPoints(&buf, s)
	renderLabels(&buf, s, th)
	buf.WriteString("  </g>\n")

	if r.overlays {
		renderTitles(&buf, s, th)
		renderLegend(&buf, s, th)
	}
	renderTooltip(&buf, s, th, r.prefix)
	if r.hover {
		fmt.Fprintf(&buf, `  <g class="tooltip static-tooltip" visibility="hidden"><rect y="-16" height="22" rx="4" fill="%s" fill-opacity="0.92"/><text text-anchor="middle" y="0" fill="%s"></text></g>`+"\n",
			th.Panel, th.Text)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", hoverJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderGrid(buf *bytes.Buffer, s scatter.Scene, th Theme) {
	in := s.Inner
	buf.WriteString(`    <g class="grid">` + "\n")
	for _, t := range s.Grid.X {
		fmt.Fprintf(buf, `      <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1" vector-effect="non-scaling-stroke"/>`+"\n",
			num(t.Pos), num(in.Y.Lo), num(t.Pos), num(in.Y.Hi), th.Grid)
		fmt.Fprintf(buf, `      <text class="tick" x="%s" y="%s" text-anchor="middle" fill="%s">%s</text>`+"\n",
			num(t.Pos), num(in.Y.Hi+16), th.MutedText, EscapeXML(t.Label))
	}
	for _, t := range s.Grid.Y {
		fmt.Fprintf(buf, `      <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1" vector-effect="non-scaling-stroke"/>`+"\n",
			num(in.X.Lo), num(t.Pos), num(in.X.Hi), num(t.Pos), th.Grid)
		fmt.Fprintf(buf, `      <text class="tick" x="%s" y="%s" text-anchor="end" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			num(in.X.Lo-8), num(t.Pos), th.MutedText, EscapeXML(t.Label))
	}
	buf.WriteString("    </g>\n")
}

func renderRegions(buf *bytes.Buffer, s scatter.Scene) {
	buf.WriteString(`    <g class="regions">` + "\n")
	for _, r := range s.Regions {
		opacity := r.Opacity
		if r.Selected {
			opacity *= 2
		}
		fmt.Fprintf(buf, `      <path class="region" data-group="%s" d="%s" fill="%s" fill-opacity="%s"/>`+"\n",
			EscapeXML(r.Group), ringPath(r.Ring), r.Color, num(opacity))
	}
	buf.WriteString("    </g>\n")
}

func ringPath(ring orb.Ring) string {
	var b strings.Builder
	for i, p := range ring {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p[0]) + "," + num(p[1]))
	}
	b.WriteString(" Z")
	return b.String()
}

func renderPoints(buf *bytes.Buffer, s scatter.Scene) {
	buf.WriteString(`    <g class="points">` + "\n")
	for _, m := range s.Points {
		st := m.Style
		stroke := ""
		if st.StrokeWidth > 0 {
			stroke = fmt.Sprintf(` stroke="%s" stroke-width="%s"`, st.Stroke, num(st.StrokeWidth))
		}
		label := m.Name
		if m.Team != "" {
			label = fmt.Sprintf("%s (%s)", m.Name, m.Team)
		}
		fmt.Fprintf(buf, `      <circle class="point" data-id="%d" data-group="%s" data-label="%s" cx="%s" cy="%s" r="%s" fill="%s" fill-opacity="%s"%s><title>%s</title></circle>`+"\n",
			m.ID, EscapeXML(m.Group), EscapeXML(label), num(m.At.X), num(m.At.Y), num(st.Radius), st.Fill, num(st.Opacity), stroke, EscapeXML(label))
	}
	buf.WriteString("    </g>\n")
}

func renderLabels(buf *bytes.Buffer, s scatter.Scene, th Theme) {
	buf.WriteString(`    <g class="labels">` + "\n")
	for _, l := range s.Labels {
		fmt.Fprintf(buf, `      <text class="label" x="%s" y="%s" text-anchor="middle" fill="%s" stroke="%s" stroke-width="3" paint-order="stroke" font-weight="600">%s</text>`+"\n",
			num(l.At.X), num(l.At.Y-10), l.Color, th.Background, EscapeXML(l.Text))
	}
	buf.WriteString("    </g>\n")
}

func renderTitles(buf *bytes.Buffer, s scatter.Scene, th Theme) {
	in := s.Inner
	fmt.Fprintf(buf, `  <text class="title" x="%s" y="%s" text-anchor="middle" fill="%s">%s</text>`+"\n",
		num(in.X.Center()), num(s.Height-12), th.Text, EscapeXML(s.XTitle))
	fmt.Fprintf(buf, `  <text class="title" transform="translate(16,%s) rotate(-90)" text-anchor="middle" fill="%s">%s</text>`+"\n",
		num(in.Y.Center()), th.Text, EscapeXML(s.YTitle))
}

func renderLegend(buf *bytes.Buffer, s scatter.Scene, th Theme) {
	lines := legendLines(s)
	if len(lines) == 0 {
		return
	}
	const rowH, width = 18.0, 190.0
	x := s.Inner.X.Hi - width - 8
	y := s.Inner.Y.Lo + 8
	height := rowH*float64(len(lines)) + 10
	fmt.Fprintf(buf, `  <g class="legend" transform="translate(%s,%s)">`+"\n", num(x), num(y))
	fmt.Fprintf(buf, `    <rect width="%s" height="%s" rx="6" fill="%s" fill-opacity="0.85"/>`+"\n", num(width), num(height), th.Panel)
	for i, l := range lines {
		ly := 5 + rowH*float64(i) + rowH/2
		tx := 10.0
		if l.color != "" {
			fmt.Fprintf(buf, `    <circle cx="14" cy="%s" r="5" fill="%s"/>`+"\n", num(ly), l.color)
			tx = 26
		}
		weight := "400"
		if l.bold {
			weight = "700"
		}
		fmt.Fprintf(buf, `    <text x="%s" y="%s" dominant-baseline="middle" fill="%s" font-weight="%s">%s</text>`+"\n",
			num(tx), num(ly), th.Text, weight, EscapeXML(l.text))
	}
	buf.WriteString("  </g>\n")
}

func renderTooltip(buf *bytes.Buffer, s scatter.Scene, th Theme, prefix string) {
	if s.Tooltip == nil {
		fmt.Fprintf(buf, `  <g id="%s-tooltip" class="tooltip" visibility="hidden"></g>`+"\n", prefix)
		return
	}
	t := s.Tooltip
	w := float64(len([]rune(t.Text)))*th.FontSize*0.6 + 12
	fmt.Fprintf(buf, `  <g id="%s-tooltip" class="tooltip" transform="translate(%s,%s)">`, prefix, num(t.At.X), num(t.At.Y))
	fmt.Fprintf(buf, `<rect x="%s" y="-16" width="%s" height="22" rx="4" fill="%s" fill-opacity="0.92"/>`, num(-w/2), num(w), th.Panel)
	fmt.Fprintf(buf, `<text text-anchor="middle" fill="%s">%s</text></g>`+"\n", th.Text, EscapeXML(t.Text))
}

// RenderTooltip renders only the tooltip group of the scene, for live views
// that patch it in place between full renders.
func RenderTooltip(s scatter.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{theme: DarkTheme(), prefix: "landscape", overlays: true}
	for _, opt := range opts {
		opt(&r)
	}
	var buf bytes.Buffer
	renderTooltip(&buf, s, r.theme, r.prefix)
	return bytes.TrimSpace(buf.Bytes())
}
