// Package pipeline renders projection snapshots to static artifacts.
//
// It is the non-interactive path through the engine, shared by the render
// command and the server's scene endpoint. A run has two stages:
//
//  1. Load: read the snapshot from a [fetch.Source] (the projection
//     service or a JSON file)
//  2. Render: mount a [scatter.Chart], apply highlight, selection and
//     viewport options, and encode the resulting scene in each format
//
// Rendered artifacts are cached by snapshot content hash and render
// options.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  client.Position("guards"),
//	    Formats: []string{"svg", "png"},
//	    Select:  "Playmakers",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

// Output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz" // DOT laid out by neato, as SVG
	FormatTXT      = "txt"
)

// Defaults for the text format.
const (
	DefaultColumns = 100
	DefaultRows    = 36
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatTXT:      true,
}

// FormatNames lists the formats in display order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// Extension returns the file extension for format.
func Extension(format string) string {
	if format == FormatGraphviz {
		return "neato.svg"
	}
	return format
}

// Options configures one run.
type Options struct {
	// Load options
	Position string `json:"position,omitempty"` // informational when Source is set
	Groups   int    `json:"groups,omitempty"`   // 0 lets the service pick k

	// Chart options
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Highlight []int   `json:"highlight,omitempty"`
	Select    string  `json:"select,omitempty"` // group label or key
	Focus     bool    `json:"focus,omitempty"`
	Zoom      float64 `json:"zoom,omitempty"` // extra zoom factor, applied after focus

	// Transform restores a saved viewport and overrides Focus and Zoom.
	Transform *viewport.Transform `json:"transform,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Theme      string   `json:"theme,omitempty"`
	NoOverlays bool     `json:"no_overlays,omitempty"`
	Scale      float64  `json:"scale,omitempty"` // PNG pixel ratio
	Columns    int      `json:"columns,omitempty"`
	Rows       int      `json:"rows,omitempty"`
	Refresh    bool     `json:"refresh,omitempty"` // ignore cached artifacts

	// Runtime options (not serialized)
	Source fetch.Source   `json:"-"`
	Chart  scatter.Config `json:"-"`
	Logger *log.Logger    `json:"-"`

	validated bool
}

// Result is the output of a run.
type Result struct {
	Snapshot     *projection.Snapshot
	SnapshotHash string
	Scene        scatter.Scene
	Artifacts    map[string][]byte
	Stats        Stats
	CacheInfo    CacheInfo
}

// Stats holds sizes and stage timings.
type Stats struct {
	Points     int
	Groups     int
	LoadTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo records whether every artifact came from the cache.
type CacheInfo struct {
	RenderHit bool
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme name is known. Empty selects the
// default.
func ValidateTheme(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := sink.ThemeByName(name); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid theme: %q (must be one of: dark, light)", name)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and fills in defaults. It
// is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source == nil {
		return errors.New(errors.ErrCodeInvalidInput, "a snapshot source is required")
	}
	if o.Groups < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "groups must not be negative")
	}
	if o.Zoom < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "zoom must be positive")
	}
	if o.Chart.Viewport.Step == 0 {
		o.Chart = scatter.DefaultConfig()
	}
	if o.Width > 0 {
		o.Chart.Canvas.Width = o.Width
	}
	if o.Height > 0 {
		o.Chart.Canvas.Height = o.Height
	}
	o.Width, o.Height = o.Chart.Canvas.Width, o.Chart.Canvas.Height
	if o.Groups > 0 {
		lo, hi := grouping.NewPanel(o.Chart.GroupMin, o.Chart.GroupMax, 0, nil).Bounds()
		if err := errors.ValidateGroupCount(o.Groups, lo, hi); err != nil {
			return err
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateTheme(o.Theme); err != nil {
		return err
	}
	if o.Theme == "" {
		o.Theme = sink.DarkTheme().Name
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	if o.Columns <= 0 {
		o.Columns = DefaultColumns
	}
	if o.Rows <= 0 {
		o.Rows = DefaultRows
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// Request returns the grouping request sent to the source.
func (o *Options) Request() grouping.Request {
	if o.Groups > 0 {
		return grouping.Manual(o.Groups)
	}
	return grouping.Auto
}

// ArtifactKeyOpts returns the cache key options for format. The transform
// and a hash of the chart config are part of the key, so focused, zoomed
// and restyled renders are cached apart.
func (o *Options) ArtifactKeyOpts(format string, t viewport.Transform) cache.ArtifactOpts {
	opts := cache.ArtifactOpts{
		Format:    format,
		Theme:     o.Theme,
		Width:     o.Width,
		Height:    o.Height,
		Highlight: projection.NewIDSet(o.Highlight...).Sorted(),
		Select:    o.Select,
		Transform: t.String(),
		Extra:     []string{"chart=" + chartHash(o.Chart)},
	}
	if o.NoOverlays {
		opts.Extra = append(opts.Extra, "no-overlays")
	}
	switch format {
	case FormatPNG:
		opts.Extra = append(opts.Extra, "scale="+strconv.FormatFloat(o.Scale, 'g', -1, 64))
	case FormatTXT:
		opts.Extra = append(opts.Extra, "cells="+strconv.Itoa(o.Columns)+"x"+strconv.Itoa(o.Rows))
	}
	return opts
}

// chartHash fingerprints the chart config: palette, radii, opacities,
// margins and the rest of what shapes a render.
func chartHash(c scatter.Config) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return cache.Hash(data)[:16]
}
