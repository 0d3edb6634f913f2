package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/pipeline"
	"github.com/matzehuels/landscape/pkg/projection"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	input      string  // snapshot file instead of the service
	output     string  // output file (single format) or base path
	formats    string  // comma-separated formats
	groups     int     // requested k; 0 lets the service choose
	highlight  string  // comma-separated point ids
	selectName string  // group label or key to select
	focus      bool    // zoom onto the dense region
	zoom       float64 // extra zoom factor
	theme      string
	width      float64
	height     float64
	noOverlays bool
	scale      float64
	columns    int
	rows       int
	refresh    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{zoom: 1, scale: 2}

	cmd := &cobra.Command{
		Use:   "render [position]",
		Short: "Render a position's projection to svg, png, pdf, json, dot or txt",
		Long: `Render the projection of a position to static files.

The snapshot is fetched from the projection service, or read from a file with
--input. Selection, highlight, focus and zoom are applied before rendering.`,
		Example: `  landscape render guards -f svg,png --select Playmakers
  landscape render --input guards.json -f txt --highlight 12,40,7
  landscape render forwards -k 6 --focus -o forwards.svg`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completePositions,
		RunE: func(cmd *cobra.Command, args []string) error {
			var position string
			if len(args) == 1 {
				position = args[0]
			}
			return c.runRender(cmd.Context(), position, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "read the snapshot from a JSON file")
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): "+strings.Join(pipeline.FormatNames(), ", ")+" (comma-separated, default svg)")
	f.IntVarP(&opts.groups, "groups", "k", 0, "number of groups to request (0 = service picks)")
	f.StringVar(&opts.highlight, "highlight", "", "point ids to emphasize, e.g. 12,40,7")
	f.StringVar(&opts.selectName, "select", "", "group label to select")
	f.BoolVar(&opts.focus, "focus", false, "zoom onto the dense region of the data")
	f.Float64Var(&opts.zoom, "zoom", opts.zoom, "zoom factor applied after focus")
	f.StringVar(&opts.theme, "theme", "", "color theme: dark, light (default from config)")
	f.Float64Var(&opts.width, "width", 0, "canvas width (default from config)")
	f.Float64Var(&opts.height, "height", 0, "canvas height (default from config)")
	f.BoolVar(&opts.noOverlays, "no-overlays", false, "omit axis titles and legend")
	f.Float64Var(&opts.scale, "scale", opts.scale, "png pixel ratio")
	f.IntVar(&opts.columns, "cols", pipeline.DefaultColumns, "txt width in cells")
	f.IntVar(&opts.rows, "rows", pipeline.DefaultRows, "txt height in cells")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, position string, ro renderOpts) error {
	logger := loggerFromContext(ctx)

	highlight, err := projection.ParseIDs(ro.highlight)
	if err != nil {
		return fmt.Errorf("invalid --highlight: %w", err)
	}
	theme := ro.theme
	if theme == "" {
		theme = c.Config.Style.Theme
	}

	store := c.newCache(ctx)
	runner := c.newRunner(store)
	defer runner.Close()

	src, err := c.source(store, position, ro.input)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Position:   position,
		Groups:     ro.groups,
		Width:      ro.width,
		Height:     ro.height,
		Highlight:  highlight.Sorted(),
		Select:     ro.selectName,
		Focus:      ro.focus,
		Zoom:       ro.zoom,
		Formats:    parseFormats(ro.formats),
		Theme:      theme,
		NoOverlays: ro.noOverlays,
		Scale:      ro.scale,
		Columns:    ro.columns,
		Rows:       ro.rows,
		Refresh:    ro.refresh,
		Source:     src,
		Chart:      c.Config.Chart(),
		Logger:     logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", describeSource(position, ro.input)))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", describeSource(position, ro.input))
	printStats(result.Stats.Points, result.Stats.Groups, result.CacheInfo.RenderHit)

	base := basePath(ro.output, defaultStem(position, ro.input))
	for _, format := range opts.Formats {
		path := outputPath(ro.output, base, format, len(opts.Formats))
		if err := writeFile(path, result.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

func describeSource(position, input string) string {
	if input != "" {
		return filepath.Base(input)
	}
	return position
}

// defaultStem names outputs after the input file or position.
func defaultStem(position, input string) string {
	if input != "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	if position == "" {
		return appName
	}
	return position
}

// basePath derives the base output path. An output that carries a format
// extension loses it.
func basePath(output, stem string) string {
	if output == "" {
		return stem
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if slices.Contains(pipeline.FormatNames(), ext) {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

// outputPath is output itself for stdout or a single format, base.ext
// otherwise.
func outputPath(output, base, format string, count int) string {
	if output == "-" || (output != "" && count == 1 && filepath.Ext(output) != "") {
		return output
	}
	return base + "." + pipeline.Extension(format)
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// openOutput opens path for writing; "-" is stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
