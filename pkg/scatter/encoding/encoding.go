// Package encoding computes the visual encoding of every point: radius,
// fill, stroke and opacity as driven by the highlight set, the selected
// group and hover.
package encoding

import (
	"math"

	"github.com/matzehuels/landscape/pkg/projection"
)

// Config holds the encoding constants.
type Config struct {
	BaseRadius       float64
	HoverRadius      float64
	EmphasizedRadius float64
	EmphasizedStroke float64
	StrokeColor      string
	DimOpacity       float64 // opacity of points outside the selected group
	MinOpacity       float64 // floor applied to every point

	// MuteUnselected also swaps the fill of points outside the selected
	// group to Neutral. By default they keep their hue and only dim.
	MuteUnselected bool
}

// DefaultConfig returns the standard encoding constants.
func DefaultConfig() Config {
	return Config{
		BaseRadius:       4,
		HoverRadius:      6,
		EmphasizedRadius: 7,
		EmphasizedStroke: 2,
		StrokeColor:      "#ffffff",
		DimOpacity:       0.25,
		MinOpacity:       0.1,
	}
}

// floor returns MinOpacity, or the default floor when it is not positive, so
// no point is ever drawn fully transparent.
func (c Config) floor() float64 {
	if c.MinOpacity > 0 {
		return c.MinOpacity
	}
	return DefaultConfig().MinOpacity
}

// Style is the encoded appearance of one point.
type Style struct {
	Radius      float64 `json:"r"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity"`
	Emphasized  bool    `json:"emphasized,omitempty"`
	Hovered     bool    `json:"hovered,omitempty"`
}

// Encoder encodes points for one render pass.
type Encoder struct {
	Config    Config
	Palette   *Palette
	Index     *projection.Index
	Highlight projection.IDSet
	Selected  string // selected group key, empty for none
	Hovered   int
	HasHover  bool
}

// Encode returns the style of p.
func (e Encoder) Encode(p projection.Point) Style {
	cfg := e.Config
	highlighted := e.Highlight.Has(p.ID)
	group, grouped := e.Index.Group(p.ID)
	inSelection := e.Selected == "" || (grouped && group.Key() == e.Selected)

	st := Style{Radius: cfg.BaseRadius, Fill: Neutral, Opacity: 1}
	if grouped && (inSelection || !cfg.MuteUnselected) {
		st.Fill = e.Palette.Color(group.Name())
	}
	if !highlighted && !inSelection {
		st.Opacity = cfg.DimOpacity
	}
	st.Opacity = min(math.Max(st.Opacity, cfg.floor()), 1)

	hovered := e.HasHover && e.Hovered == p.ID
	switch {
	case highlighted:
		st.Radius = cfg.EmphasizedRadius
		st.Stroke = cfg.StrokeColor
		st.StrokeWidth = cfg.EmphasizedStroke
		st.Emphasized = true
	case hovered:
		st.Radius = cfg.HoverRadius
	}
	st.Hovered = hovered
	return st
}
