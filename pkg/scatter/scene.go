package scatter

import (
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"

	"github.com/matzehuels/landscape/pkg/scatter/encoding"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

// Placeholder messages shown instead of data.
const (
	PlaceholderLoading      = "Loading projection…"
	PlaceholderInsufficient = "Insufficient data to display"
	PlaceholderTooSmall     = "Not enough room to draw"
)

// TooltipOffset lifts the tooltip above the pointer.
const TooltipOffset = 20

// Scene is one frame's display list. Everything except Tooltip is in base
// canvas coordinates; Tooltip is in container coordinates and is drawn
// outside the transform.
type Scene struct {
	Version     uint64
	Width       float64
	Height      float64
	Inner       r2.Rect
	Placeholder string
	Transform   viewport.Transform

	XTitle string
	YTitle string
	Grid   Grid

	Regions []Region
	Points  []Mark
	Labels  []Label

	Legend   []LegendEntry
	Detail   *GroupDetail
	Grouping GroupingState
	Tooltip  *Tooltip
}

// Empty reports whether the scene shows a placeholder instead of data.
func (s Scene) Empty() bool { return s.Placeholder != "" }

// Grid holds axis ticks.
type Grid struct {
	X []Tick
	Y []Tick
}

// Tick is one grid line: Pos is the pixel coordinate along its axis.
type Tick struct {
	Value float64
	Pos   float64
	Label string
}

// Region is a group's cell, filled at low opacity beneath the points.
type Region struct {
	Group    string
	Color    string
	Opacity  float64
	Ring     orb.Ring
	Selected bool
}

// Mark is one drawn point.
type Mark struct {
	ID    int
	Name  string
	Team  string
	Group string // resolved group key
	At    r2.Point
	Style encoding.Style
}

// Label is a group name drawn at its center.
type Label struct {
	Group string
	Text  string
	Color string
	At    r2.Point
}

// LegendEntry describes one group in the legend overlay.
type LegendEntry struct {
	Group    string
	Label    string
	Color    string
	Count    int
	Selected bool
}

// GroupDetail describes the selected group.
type GroupDetail struct {
	Group string
	Label string
	Color string
	Count int
	Share float64
}

// GroupingState mirrors the grouping panel for display.
type GroupingState struct {
	Automatic bool
	Count     int
	OptimalK  int
}

// Tooltip is the hover overlay.
type Tooltip struct {
	Text string
	At   r2.Point
}
