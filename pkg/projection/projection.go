package projection

import (
	"fmt"
	"math"
)

// Axis names as keyed in the interpretation map.
const (
	AxisX = "PC1"
	AxisY = "PC2"
)

// Point is one projected entity.
type Point struct {
	ID    int      `json:"player_id"`
	Name  string   `json:"name"`
	Team  string   `json:"team,omitempty"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Label string   `json:"cluster,omitempty"`   // group label, may be unset
	Group GroupRef `json:"cluster_id,omitzero"` // owning group id, may be absent
}

// Grouped reports whether the point names any group at all.
func (p Point) Grouped() bool {
	return p.Group.Valid() || p.Label != ""
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// DisplayName returns "Name (Team)", or just the name when the team is unset.
func (p Point) DisplayName() string {
	if p.Team == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Team)
}

// Center summarizes one group.
type Center struct {
	ID    GroupRef `json:"cluster_id"`
	Label string   `json:"label"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Count int      `json:"count"`
}

// Key returns the stable identifier used for selection and color lookup.
// Centers without an id fall back to their label.
func (c Center) Key() string {
	if c.ID.Valid() {
		return c.ID.String()
	}
	return c.Label
}

// Name returns the label, or the id when the label is empty.
func (c Center) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID.String()
}

// Snapshot is one atomic dataset. A nil *Snapshot means "not yet available".
type Snapshot struct {
	Points            []Point           `json:"points"`
	Centers           []Center          `json:"cluster_centers"`
	ExplainedVariance []float64         `json:"explained_variance,omitempty"`
	Interpretation    map[string]string `json:"pc_interpretation,omitempty"`
	OptimalK          int               `json:"optimal_k,omitempty"`
}

// Empty reports whether s is nil or has no points.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Points) == 0
}

// Variance returns the explained variance fraction for axis 0 (x) or 1 (y),
// or zero when the service did not report one.
func (s *Snapshot) Variance(axis int) float64 {
	if s == nil || axis < 0 || axis >= len(s.ExplainedVariance) {
		return 0
	}
	return s.ExplainedVariance[axis]
}

// AxisTitle formats the title for axis 0 (x) or 1 (y), e.g.
// "PC1 (41.2% variance) · Goal threat".
func (s *Snapshot) AxisTitle(axis int) string {
	name := AxisX
	if axis == 1 {
		name = AxisY
	}
	title := name
	if v := s.Variance(axis); v > 0 {
		title = fmt.Sprintf("%s (%.1f%% variance)", name, v*100)
	}
	if s != nil {
		if interp := s.Interpretation[name]; interp != "" {
			title += " · " + interp
		}
	}
	return title
}
