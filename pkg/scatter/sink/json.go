package sink

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/encoding"
)

type jsonScene struct {
	Version     uint64        `json:"version"`
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
	Placeholder string        `json:"placeholder,omitempty"`
	Transform   jsonTransform `json:"transform"`
	Axes        *jsonAxes     `json:"axes,omitempty"`
	Regions     []jsonRegion  `json:"regions,omitempty"`
	Points      []jsonPoint   `json:"points,omitempty"`
	Labels      []jsonLabel   `json:"labels,omitempty"`
	Legend      []jsonLegend  `json:"legend,omitempty"`
	Detail      *jsonDetail   `json:"detail,omitempty"`
	Grouping    jsonGrouping  `json:"grouping"`
	Tooltip     *jsonTooltip  `json:"tooltip,omitempty"`
}

type jsonTransform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonAxes struct {
	X jsonAxis `json:"x"`
	Y jsonAxis `json:"y"`
}

type jsonAxis struct {
	Title string     `json:"title"`
	Ticks []jsonTick `json:"ticks,omitempty"`
}

type jsonTick struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

type jsonRegion struct {
	Group    string       `json:"group"`
	Color    string       `json:"color"`
	Opacity  float64      `json:"opacity"`
	Selected bool         `json:"selected,omitempty"`
	Ring     [][2]float64 `json:"ring"`
}

type jsonPoint struct {
	ID    int            `json:"id"`
	Name  string         `json:"name"`
	Team  string         `json:"team,omitempty"`
	Group string         `json:"group,omitempty"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Style encoding.Style `json:"style"`
}

type jsonLabel struct {
	Group string  `json:"group"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type jsonLegend struct {
	Group    string `json:"group"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected,omitempty"`
}

type jsonDetail struct {
	Group string  `json:"group"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type jsonGrouping struct {
	Automatic bool `json:"automatic"`
	Count     int  `json:"count"`
	OptimalK  int  `json:"optimal_k,omitempty"`
}

type jsonTooltip struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// RenderJSON renders the scene as indented JSON. Coordinates are rounded to
// two decimals.
func RenderJSON(s scatter.Scene) ([]byte, error) {
	out := jsonScene{
		Version:     s.Version,
		Width:       s.Width,
		Height:      s.Height,
		Placeholder: s.Placeholder,
		Transform:   jsonTransform{K: s.Transform.K, X: round2(s.Transform.X), Y: round2(s.Transform.Y)},
		Grouping:    jsonGrouping{Automatic: s.Grouping.Automatic, Count: s.Grouping.Count, OptimalK: s.Grouping.OptimalK},
	}
	if !s.Empty() {
		out.Axes = &jsonAxes{
			X: jsonAxis{Title: s.XTitle, Ticks: ticks(s.Grid.X)},
			Y: jsonAxis{Title: s.YTitle, Ticks: ticks(s.Grid.Y)},
		}
	}
	for _, r := range s.Regions {
		ring := make([][2]float64, len(r.Ring))
		for i, p := range r.Ring {
			ring[i] = [2]float64{round2(p[0]), round2(p[1])}
		}
		out.Regions = append(out.Regions, jsonRegion{Group: r.Group, Color: r.Color, Opacity: r.Opacity, Selected: r.Selected, Ring: ring})
	}
	for _, m := range s.Points {
		out.Points = append(out.Points, jsonPoint{
			ID: m.ID, Name: m.Name, Team: m.Team, Group: m.Group,
			X: round2(m.At.X), Y: round2(m.At.Y), Style: m.Style,
		})
	}
	for _, l := range s.Labels {
		out.Labels = append(out.Labels, jsonLabel{Group: l.Group, Text: l.Text, Color: l.Color, X: round2(l.At.X), Y: round2(l.At.Y)})
	}
	for _, e := range s.Legend {
		out.Legend = append(out.Legend, jsonLegend(e))
	}
	if d := s.Detail; d != nil {
		out.Detail = &jsonDetail{Group: d.Group, Label: d.Label, Count: d.Count, Share: d.Share}
	}
	if t := s.Tooltip; t != nil {
		out.Tooltip = &jsonTooltip{Text: t.Text, X: round2(t.At.X), Y: round2(t.At.Y)}
	}
	return json.MarshalIndent(out, "", "  ")
}

func ticks(ts []scatter.Tick) []jsonTick {
	out := make([]jsonTick, len(ts))
	for i, t := range ts {
		out[i] = jsonTick{Value: t.Value, Pos: round2(t.Pos), Label: t.Label}
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
