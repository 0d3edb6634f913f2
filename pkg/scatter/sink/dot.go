package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/scatter"
)

// pointsPerPixel converts canvas pixels to Graphviz points at 96 dpi.
const pointsPerPixel = 72.0 / 96.0

// RenderDOT writes the scene as an undirected neato graph. Every point and
// group label is a node pinned at its canvas position; there are no edges.
// Graphviz puts the origin bottom-left, so y is flipped.
func RenderDOT(s scatter.Scene) string {
	var buf bytes.Buffer
	buf.WriteString("graph landscape {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  outputorder=nodesfirst;\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(s.Width*pointsPerPixel), num(s.Height*pointsPerPixel))
	fmt.Fprintf(&buf, "  label=%q;\n", s.XTitle)
	buf.WriteString("  node [shape=circle, style=filled, label=\"\", fixedsize=true, penwidth=0];\n")
	buf.WriteString("\n")

	if s.Empty() {
		fmt.Fprintf(&buf, "  placeholder [shape=plaintext, label=%q, pos=%q];\n", s.Placeholder, pos(s, s.Width/2, s.Height/2))
		buf.WriteString("}\n")
		return buf.String()
	}

	for _, m := range s.Points {
		st := m.Style
		attrs := []string{
			fmt.Sprintf("pos=%q", pos(s, m.At.X, m.At.Y)),
			fmt.Sprintf("width=%s", num(2*st.Radius*pointsPerPixel/72)),
			fmt.Sprintf("fillcolor=%q", st.Fill+alphaHex(st.Opacity)),
			fmt.Sprintf("tooltip=%q", m.Name),
		}
		if st.StrokeWidth > 0 {
			attrs = append(attrs, fmt.Sprintf("color=%q", st.Stroke), fmt.Sprintf("penwidth=%s", num(st.StrokeWidth)))
		}
		if m.Group != "" {
			attrs = append(attrs, fmt.Sprintf("class=%q", "group-"+m.Group))
		}
		fmt.Fprintf(&buf, "  p%d [%s];\n", m.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i, l := range s.Labels {
		fmt.Fprintf(&buf, "  g%d [shape=plaintext, style=\"\", fixedsize=false, label=%q, fontcolor=%q, pos=%q];\n",
			i, l.Text, l.Color, pos(s, l.At.X, l.At.Y-10))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func pos(s scatter.Scene, x, y float64) string {
	return fmt.Sprintf("%s,%s!", num(x*pointsPerPixel), num((s.Height-y)*pointsPerPixel))
}

func alphaHex(opacity float64) string {
	a := int(opacity*255 + 0.5)
	a = max(0, min(255, a))
	return fmt.Sprintf("%02x", a)
}

// RenderGraphviz lays out a DOT graph with neato and renders it to SVG.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one sized
// in plain user units so the output scales like [RenderSVG] output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w/pointsPerPixel, h/pointsPerPixel)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
