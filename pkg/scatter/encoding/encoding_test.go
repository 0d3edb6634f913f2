package encoding

import (
	"testing"

	"github.com/matzehuels/landscape/pkg/projection"
)

// threePoints is the reference snapshot: two points in A, one in B.
func threePoints() *projection.Snapshot {
	return &projection.Snapshot{
		Points: []projection.Point{
			{ID: 1, X: 0, Y: 0, Group: projection.Ref("A")},
			{ID: 2, X: 1, Y: 1, Group: projection.Ref("A")},
			{ID: 3, X: -1, Y: 1, Group: projection.Ref("B")},
			{ID: 4, X: 0, Y: 2, Group: projection.Ref("Z")}, // orphan
			{ID: 5, X: 2, Y: 0},                             // ungrouped
		},
		Centers: []projection.Center{
			{ID: projection.Ref("A"), Label: "A", X: 0.5, Y: 0.5, Count: 2},
			{ID: projection.Ref("B"), Label: "B", X: -1, Y: 1, Count: 1},
		},
	}
}

func encoder(s *projection.Snapshot) Encoder {
	p := MustPalette()
	p.Observe(s)
	return Encoder{
		Config:    DefaultConfig(),
		Palette:   p,
		Index:     s.Index(),
		Highlight: projection.NewIDSet(2),
	}
}

func styles(e Encoder, s *projection.Snapshot) map[int]Style {
	out := make(map[int]Style)
	for _, p := range s.Points {
		out[p.ID] = e.Encode(p)
	}
	return out
}

func TestHighlightedPointsAreAlwaysEmphasized(t *testing.T) {
	s := threePoints()
	cfg := DefaultConfig()
	cases := []struct {
		name     string
		selected string
		hover    int
	}{
		{"idle", "", 0},
		{"own group selected", "A", 0},
		{"other group selected", "B", 0},
		{"hovered", "", 2},
		{"hovered other", "B", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := encoder(s)
			e.Selected = tc.selected
			e.Hovered, e.HasHover = tc.hover, tc.hover != 0
			st := e.Encode(s.Points[1])
			if st.Radius != cfg.EmphasizedRadius || st.StrokeWidth != cfg.EmphasizedStroke || st.Stroke != cfg.StrokeColor {
				t.Errorf("highlighted style = %+v", st)
			}
			if st.Opacity != 1 {
				t.Errorf("highlighted opacity = %v, want 1", st.Opacity)
			}
		})
	}
}

func TestSelectingOtherGroupDimsButKeepsHue(t *testing.T) {
	s := threePoints()
	e := encoder(s)
	before := styles(e, s)

	e.Selected = "B"
	after := styles(e, s)

	if after[1].Opacity >= before[1].Opacity {
		t.Errorf("point 1 opacity %v not reduced from %v", after[1].Opacity, before[1].Opacity)
	}
	if after[1].Fill != before[1].Fill {
		t.Errorf("point 1 hue changed from %s to %s", before[1].Fill, after[1].Fill)
	}
	if after[3].Opacity != 1 {
		t.Errorf("selected group point opacity = %v, want 1", after[3].Opacity)
	}
	// Point 2 is highlighted, so it stays fully opaque.
	if after[2].Opacity != 1 || after[2].Fill != before[2].Fill {
		t.Errorf("highlighted point changed: %+v", after[2])
	}

	e.Selected = ""
	for id, st := range styles(e, s) {
		if st.Opacity != 1 {
			t.Errorf("point %d opacity = %v after clearing selection", id, st.Opacity)
		}
	}
}

func TestMuteUnselected(t *testing.T) {
	s := threePoints()
	e := encoder(s)
	e.Config.MuteUnselected = true
	e.Selected = "B"
	st := styles(e, s)
	if st[1].Fill != Neutral {
		t.Errorf("muted fill = %s, want %s", st[1].Fill, Neutral)
	}
	if st[3].Fill == Neutral {
		t.Error("selected group lost its color")
	}
}

func TestOrphansAndUngroupedRenderNeutral(t *testing.T) {
	s := threePoints()
	st := styles(encoder(s), s)
	for _, id := range []int{4, 5} {
		if st[id].Fill != Neutral {
			t.Errorf("point %d fill = %s, want neutral", id, st[id].Fill)
		}
	}
}

func TestNoCentersRendersAllNeutral(t *testing.T) {
	s := threePoints()
	s.Centers = nil
	for id, st := range styles(encoder(s), s) {
		if st.Fill != Neutral {
			t.Errorf("point %d fill = %s, want neutral", id, st.Fill)
		}
	}
}

func TestOpacityFloor(t *testing.T) {
	s := threePoints()
	e := encoder(s)
	e.Config.DimOpacity = 0
	e.Selected = "B"
	if got := e.Encode(s.Points[0]).Opacity; got != e.Config.MinOpacity {
		t.Errorf("opacity = %v, want floor %v", got, e.Config.MinOpacity)
	}

	e.Config.MinOpacity = 0
	for _, p := range s.Points {
		if got := e.Encode(p).Opacity; got <= 0 {
			t.Errorf("point %d: opacity = %v with a zero floor, want visible", p.ID, got)
		}
	}
	if got := e.Encode(s.Points[0]).Opacity; got != DefaultConfig().MinOpacity {
		t.Errorf("zero floor: opacity = %v, want default floor %v", got, DefaultConfig().MinOpacity)
	}
}

func TestHoverGrowsRadius(t *testing.T) {
	s := threePoints()
	e := encoder(s)
	e.Hovered, e.HasHover = 1, true
	if got := e.Encode(s.Points[0]).Radius; got != e.Config.HoverRadius {
		t.Errorf("hovered radius = %v, want %v", got, e.Config.HoverRadius)
	}
	if got := e.Encode(s.Points[2]).Radius; got != e.Config.BaseRadius {
		t.Errorf("other radius = %v, want %v", got, e.Config.BaseRadius)
	}
}

func TestPaletteFirstSeenOrder(t *testing.T) {
	p := MustPalette("#111111", "#222222")
	p.Observe(&projection.Snapshot{
		Points: []projection.Point{
			{ID: 1, Label: "late"},
			{ID: 2, Label: "early"},
		},
		Centers: []projection.Center{
			{Label: "early"}, {Label: "late"}, {Label: "empty"},
		},
	})
	want := []string{"late", "early", "empty"}
	for i, l := range p.Labels() {
		if l != want[i] {
			t.Fatalf("Labels() = %v, want %v", p.Labels(), want)
		}
	}
	if p.Color("late") != "#111111" || p.Color("early") != "#222222" {
		t.Error("colors not assigned in first-seen order")
	}
	if p.Color("empty") != "#111111" {
		t.Error("palette should cycle past its length")
	}
}

func TestPaletteStableAcrossSnapshots(t *testing.T) {
	p := MustPalette()
	p.Observe(threePoints())
	a := p.Color("A")

	reordered := threePoints()
	reordered.Points[0], reordered.Points[2] = reordered.Points[2], reordered.Points[0]
	p.Observe(reordered)
	if p.Color("A") != a {
		t.Error("label changed color between snapshots")
	}
}

func TestNewPaletteRejectsBadColor(t *testing.T) {
	if _, err := NewPalette("#ff0000", "tomato"); err == nil {
		t.Error("NewPalette accepted a non-hex color")
	}
}

func TestTint(t *testing.T) {
	if got := Tint("#ff0000", "#000000", 0); got != "#000000" {
		t.Errorf("Tint(0) = %s, want background", got)
	}
	if got := Tint("#ff0000", "#000000", 1); got != "#ff0000" {
		t.Errorf("Tint(1) = %s, want foreground", got)
	}
}
