// Package sink renders a [scatter.Scene] to output formats.
//
// # Overview
//
// A sink takes the display list produced by [scatter.Chart.Scene] and
// writes it out:
//
//   - SVG: [RenderSVG], vector output with the viewport transform on a
//     single outer group (id "<prefix>-viewport") so pan and zoom only touch
//     one attribute
//   - PNG: [RenderPNG], rasterized in-process with fogleman/gg
//   - PDF: [RenderPDF], SVG converted with rsvg-convert
//   - JSON: [RenderJSON], the scene as data for other tools
//   - DOT: [RenderDOT] and [RenderGraphviz], a neato graph with pinned node
//     positions
//   - Terminal: [RenderANSI], a character-cell raster styled with lipgloss
//
// Every sink draws layers in the same order: grid, regions, points, labels,
// then overlays (axis titles, legend, group detail, tooltip). Placeholder
// scenes render the placeholder text alone.
//
// # Usage
//
//	svg := sink.RenderSVG(chart.Scene(), sink.WithTheme(sink.LightTheme()))
//	png, err := sink.RenderPNG(chart.Scene(), sink.WithScale(2))
package sink
