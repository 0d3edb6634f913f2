package pipeline

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
)

// Runner executes the pipeline with an artifact cache.
//
// The Runner is stateless apart from the cache and logger, so one Runner
// can serve concurrent runs with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil
// logger discards output.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs load and render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	snap, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result := &Result{Snapshot: snap}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Points = len(snap.Points)
	result.Stats.Groups = len(snap.Centers)

	var buf bytes.Buffer
	if err := projection.Write(snap, &buf); err == nil {
		result.SnapshotHash = cache.Hash(buf.Bytes())
	}

	r.Logger.Info("loaded snapshot",
		"points", result.Stats.Points,
		"groups", result.Stats.Groups,
		"duration", result.Stats.LoadTime)

	scene, err := r.Compose(opts, snap)
	if err != nil {
		return nil, err
	}
	result.Scene = scene

	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, scene, result.SnapshotHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Load reads the snapshot from the configured source.
func (r *Runner) Load(ctx context.Context, opts Options) (*projection.Snapshot, error) {
	if opts.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a snapshot source is required")
	}
	snap, err := opts.Source.Load(ctx, opts.Request())
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidSnapshot, "source returned no snapshot")
	}
	return snap, nil
}

// Compose mounts a chart on snap, applies the chart options and returns
// the settled scene.
func (r *Runner) Compose(opts Options, snap *projection.Snapshot) (scatter.Scene, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return scatter.Scene{}, err
	}
	chart, err := scatter.New(opts.Chart, scatter.WithLogger(opts.Logger))
	if err != nil {
		return scatter.Scene{}, err
	}
	chart.SetSnapshot(snap)
	if len(opts.Highlight) > 0 {
		chart.SetHighlight(projection.NewIDSet(opts.Highlight...))
	}
	if opts.Select != "" && !chart.SelectLabel(opts.Select) {
		return scatter.Scene{}, errors.New(errors.ErrCodeNotFound, "group %q not in snapshot", opts.Select)
	}
	view := chart.Viewport()
	switch {
	case opts.Transform != nil:
		view.Jump(*opts.Transform)
	default:
		if opts.Focus {
			view.Focus()
		}
		if opts.Zoom > 0 && opts.Zoom != 1 {
			view.ZoomBy(opts.Zoom)
		}
	}
	view.Settle()
	return chart.Scene(), nil
}

// RenderWithCacheInfo encodes scene in every requested format and reports
// whether all of them came from the cache. An empty snapshotHash disables
// the cache for this call.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, scene scatter.Scene, snapshotHash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	cacheable := snapshotHash != ""

	if cacheable && !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(snapshotHash, opts.ArtifactKeyOpts(format, scene.Transform))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, err := Render(ctx, scene, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		for format, data := range artifacts {
			key := r.Keyer.ArtifactKey(snapshotHash, opts.ArtifactKeyOpts(format, scene.Transform))
			if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
				r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
				continue
			}
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, false, nil
}

// Render encodes scene in every format of opts without caching.
func Render(ctx context.Context, scene scatter.Scene, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	theme, _ := sink.ThemeByName(opts.Theme)
	svgOpts := []sink.SVGOption{sink.WithTheme(theme)}
	if opts.NoOverlays {
		svgOpts = append(svgOpts, sink.WithoutOverlays())
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, err, "render cancelled")
		}
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = sink.RenderSVG(scene, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(scene,
				sink.WithPNGTheme(theme),
				sink.WithScale(opts.Scale),
				sink.WithPNGOverlays(!opts.NoOverlays))
		case FormatPDF:
			data, err = sink.RenderPDF(scene, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(scene)
		case FormatDOT:
			data = []byte(sink.RenderDOT(scene))
		case FormatGraphviz:
			data, err = sink.RenderGraphviz(ctx, sink.RenderDOT(scene))
		case FormatTXT:
			data = []byte(sink.RenderANSI(scene, opts.Columns, opts.Rows, theme) + "\n")
		}
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
		opts.Logger.Debug("rendered", "format", format, "bytes", len(data))
	}
	return artifacts, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
