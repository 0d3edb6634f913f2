package sink

import (
	"fmt"

	"github.com/matzehuels/landscape/pkg/scatter"
)

type legendLine struct {
	text  string
	color string
	bold  bool
}

// legendLines lays out the legend text shared by the raster sinks: one line
// per group, the selected group's share, and the grouping mode.
func legendLines(s scatter.Scene) []legendLine {
	var lines []legendLine
	for _, e := range s.Legend {
		lines = append(lines, legendLine{
			text:  fmt.Sprintf("%s · %d", e.Label, e.Count),
			color: e.Color,
			bold:  e.Selected,
		})
	}
	if d := s.Detail; d != nil {
		lines = append(lines, legendLine{text: fmt.Sprintf("%s: %.0f%% of players", d.Label, d.Share*100)})
	}
	lines = append(lines, legendLine{text: groupingText(s.Grouping)})
	return lines
}

func groupingText(g scatter.GroupingState) string {
	if g.Automatic {
		if g.OptimalK > 0 {
			return fmt.Sprintf("groups: auto (k=%d)", g.OptimalK)
		}
		return "groups: auto"
	}
	return fmt.Sprintf("groups: %d", g.Count)
}
