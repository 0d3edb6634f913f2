package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/internal/desktop"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
)

// windowCommand opens the chart in a native window.
func (c *CLI) windowCommand() *cobra.Command {
	var (
		input     string
		groups    int
		highlight string
		width     int
		height    int
	)

	cmd := &cobra.Command{
		Use:   "window [position]",
		Short: "Explore a projection in a desktop window",
		Long: `Open the chart in a native window with mouse and keyboard control.

Keys: +/- zoom, r reset, f focus dense area, arrows pan, tab cycle groups,
esc clear selection, a toggle automatic grouping, [ ] fewer/more groups,
q quit.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completePositions,
		RunE: func(cmd *cobra.Command, args []string) error {
			var position string
			if len(args) == 1 {
				position = args[0]
			}
			ids, err := projection.ParseIDs(highlight)
			if err != nil {
				return fmt.Errorf("invalid --highlight: %w", err)
			}
			return c.runWindow(cmd.Context(), position, input, groups, ids, width, height)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "read the snapshot from a JSON file")
	cmd.Flags().IntVarP(&groups, "groups", "k", 0, "start with this many groups (0 = automatic)")
	cmd.Flags().StringVar(&highlight, "highlight", "", "point ids to emphasize, e.g. 12,40,7")
	cmd.Flags().IntVar(&width, "width", desktop.DefaultWidth, "window width")
	cmd.Flags().IntVar(&height, "height", desktop.DefaultHeight, "window height")

	return cmd
}

func (c *CLI) runWindow(ctx context.Context, position, input string, groups int, highlight projection.IDSet, width, height int) error {
	store := c.newCache(ctx)
	defer store.Close()

	src, err := c.source(store, position, input)
	if err != nil {
		return err
	}
	if position == "" {
		position = c.Config.Service.Position
	}
	title := describeSource(position, input)

	loader := fetch.NewLoader(src,
		fetch.WithLoaderLogger(c.Logger),
		fetch.WithRequestTimeout(c.Config.Service.Timeout))
	defer loader.Close()

	theme, _ := sink.ThemeByName(c.Config.Style.Theme)
	w, err := desktop.New(ctx, desktop.Config{
		Title:  "landscape · " + title,
		Width:  width,
		Height: height,
		Theme:  theme,
		Chart:  c.Config.Chart(),
		Logger: c.Logger,
	}, loader)
	if err != nil {
		return err
	}

	w.Chart().SetHighlight(highlight)
	if groups > 0 {
		panel := w.Chart().Grouping()
		panel.SetCount(groups)
		panel.SetAutomatic(false)
	} else {
		w.Start()
	}
	return desktop.Run(w)
}
