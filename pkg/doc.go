// Package pkg holds the libraries behind landscape, an interactive map of
// principal-component projections.
//
// # Overview
//
// A projection service reduces per-player statistics for one position to two
// principal components and clusters the result. Landscape draws that
// snapshot as a scatter map: points colored by cluster, Voronoi regions
// behind them, group labels at the cluster centers, and a viewport that pans
// and zooms. Asking for a different number of groups fetches a new snapshot
// while the view stays where it is.
//
// # Architecture
//
//	projection service / JSON file
//	         ↓
//	    [fetch] (HTTP client, cache, latest-wins loader)
//	         ↓
//	    [projection] (snapshot model)
//	         ↓
//	    [scatter] (chart: geometry, viewport, regions, encoding, interaction, grouping)
//	         ↓
//	    [scatter/sink] (SVG, PNG, PDF, JSON, DOT, terminal)
//
// [pipeline] runs load, compose and render for one-shot renders, the CLI and
// the live server's static exports. [cache] and [session] provide file and
// Redis backends for snapshots, artifacts and live views. [observability]
// carries hooks for logging or metrics around each stage.
//
// # Quick Start
//
//	snap, _ := projection.Read(file)
//	chart, _ := scatter.New(scatter.DefaultConfig())
//	chart.SetSnapshot(snap)
//	chart.Viewport().Focus()
//	chart.Viewport().Settle()
//	svg := sink.RenderSVG(chart.Scene())
//
// # Testing
//
//	go test ./...
//	go test ./pkg/scatter/...
//
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/observability
//
// [fetch]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/fetch
// [projection]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/projection
// [scatter]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/scatter
// [scatter/sink]: https://pkg.go.dev/github.com/matzehuels/landscape/pkg/scatter/sink
package pkg
