package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
)

// fetchCommand creates the fetch command, which saves a snapshot for
// offline rendering.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		output string
		groups int
		color  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [position]",
		Short: "Download a position's projection snapshot as JSON",
		Example: `  landscape fetch guards -o guards.json
  landscape fetch forwards -k 5 --color`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completePositions,
		RunE: func(cmd *cobra.Command, args []string) error {
			position := c.Config.Service.Position
			if len(args) == 1 {
				position = args[0]
			}
			return c.runFetch(cmd.Context(), position, groups, output, color)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <position>.json, - for stdout)")
	cmd.Flags().IntVarP(&groups, "groups", "k", 0, "number of groups to request (0 = service picks)")
	cmd.Flags().BoolVar(&color, "color", false, "also print the position's accent color")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, position string, groups int, output string, withColor bool) error {
	store := c.newCache(ctx)
	defer store.Close()

	src, err := c.source(store, position, "")
	if err != nil {
		return err
	}
	client, err := c.newClient(store)
	if err != nil {
		return err
	}

	req := grouping.Auto
	if groups > 0 {
		req = grouping.Manual(groups)
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s...", position))
	spinner.Start()
	snap, err := src.Load(ctx, req)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.step("load")
	prog.done("Fetched "+position, "url", client.SnapshotURL(position, req))

	if output == "" {
		output = position + ".json"
	}
	out, err := openOutput(output)
	if err != nil {
		return err
	}
	if err := projection.Write(snap, out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	printSuccess("Saved %s snapshot", position)
	printStats(len(snap.Points), len(snap.Centers), false)
	printKeyValue("x axis", snap.AxisTitle(0))
	printKeyValue("y axis", snap.AxisTitle(1))
	if snap.OptimalK > 0 {
		printKeyValue("optimal k", strconv.Itoa(snap.OptimalK))
	}
	if withColor {
		col, err := client.PositionColor(ctx, position)
		if err != nil {
			printWarning("no accent color: %s", err)
		} else {
			printKeyValue("color", col)
		}
	}
	printFile(output)
	printNextStep("Render it", "landscape render --input "+output)
	return nil
}
