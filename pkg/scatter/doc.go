// Package scatter composes the Landscape rendering engine.
//
// A [Chart] takes a [projection.Snapshot], a highlight set and pointer
// events, and produces a [Scene]: a display list of grid, regions, points,
// labels and overlays in base canvas coordinates, plus the current viewport
// transform. Sinks in the sink subpackage turn a Scene into SVG, PNG, JSON,
// DOT or terminal output.
//
// # Layers
//
// The engine is split into leaf packages that the Chart wires together:
//
//   - geometry: value space to pixel scales (recomputed on snapshot or resize)
//   - viewport: the pan/zoom transform and its animations
//   - regions: nearest-center cells and group labels
//   - encoding: per-point radius, fill, stroke and opacity
//   - interaction: hover, click-to-select and drag detection
//   - grouping: automatic/manual group count control
//
// # Redraw Model
//
// Scene content is rebuilt in full whenever the snapshot, the selection, the
// hover or the highlight set changes, and [Chart.Version] increases. Pan and
// zoom never rebuild content: the transform is carried separately in
// [Scene.Transform] and applied by sinks as one outer transform.
//
// # Threading
//
// A Chart is single-threaded. Hosts call it from one event loop (a
// bubbletea program, an ebiten game, a websocket session goroutine) and
// hand it snapshots produced elsewhere.
package scatter
