package sink

import (
	"bytes"
	"encoding/json"
	"image/png"
	"strings"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter"
)

func testScene(t *testing.T) scatter.Scene {
	t.Helper()
	c, err := scatter.New(scatter.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c.SetSnapshot(&projection.Snapshot{
		Points: []projection.Point{
			{ID: 1, Name: "Smith & Rowe", Team: "Arsenal", X: 0, Y: 0, Group: projection.Ref("A")},
			{ID: 2, Name: "Saka", Team: "Arsenal", X: 1, Y: 1, Group: projection.Ref("A")},
			{ID: 3, Name: "Rice", X: -1, Y: 1, Group: projection.Ref("B")},
		},
		Centers: []projection.Center{
			{ID: projection.Ref("A"), Label: "Creators", X: 0.5, Y: 0.5, Count: 2},
			{ID: projection.Ref("B"), Label: "Anchors", X: -1, Y: 1, Count: 1},
		},
		ExplainedVariance: []float64{0.5, 0.25},
	})
	c.SetHighlight(projection.NewIDSet(2))
	return c.Scene()
}

func placeholderScene(t *testing.T) scatter.Scene {
	t.Helper()
	c, err := scatter.New(scatter.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c.Scene()
}

func TestRenderSVG(t *testing.T) {
	s := testScene(t)
	svg := string(RenderSVG(s))

	if !strings.HasPrefix(svg, "<svg") {
		t.Fatalf("output does not start with <svg: %.40q", svg)
	}
	if !strings.Contains(svg, `<g id="landscape-viewport" class="viewport" transform="`+s.Transform.String()+`">`) {
		t.Error("viewport group with transform missing")
	}
	if got := strings.Count(svg, `class="point"`); got != 3 {
		t.Errorf("point count = %d, want 3", got)
	}
	if got := strings.Count(svg, `class="region"`); got != 2 {
		t.Errorf("region count = %d, want 2", got)
	}
	if !strings.Contains(svg, "Smith &amp; Rowe (Arsenal)") {
		t.Error("point title not escaped")
	}
	if !strings.Contains(svg, "Creators (2)") {
		t.Error("group label missing")
	}
	if strings.Contains(svg, "<script") {
		t.Error("script embedded without WithHoverScript")
	}
}

func TestRenderSVGOptions(t *testing.T) {
	s := testScene(t)
	svg := string(RenderSVG(s, WithIDPrefix("pc"), WithHoverScript(), WithoutOverlays(), WithTheme(LightTheme())))

	if !strings.Contains(svg, `id="pc-viewport"`) {
		t.Error("id prefix not applied")
	}
	if !strings.Contains(svg, "<script") {
		t.Error("hover script missing")
	}
	if strings.Contains(svg, `class="legend"`) {
		t.Error("legend drawn despite WithoutOverlays")
	}
	if !strings.Contains(svg, LightTheme().Background) {
		t.Error("theme background not used")
	}
}

func TestRenderSVGPlaceholder(t *testing.T) {
	svg := string(RenderSVG(placeholderScene(t)))
	if !strings.Contains(svg, scatter.PlaceholderLoading) {
		t.Error("placeholder text missing")
	}
	if strings.Contains(svg, "viewport") {
		t.Error("placeholder scene drew the viewport")
	}
}

func TestRenderTooltip(t *testing.T) {
	s := testScene(t)
	got := string(RenderTooltip(s, WithIDPrefix("pc")))
	if got != `<g id="pc-tooltip" class="tooltip" visibility="hidden"></g>` {
		t.Errorf("hidden tooltip = %q", got)
	}

	s.Tooltip = &scatter.Tooltip{Text: "Saka (Arsenal)", At: r2.Point{X: 100, Y: 80}}
	got = string(RenderTooltip(s))
	if !strings.HasPrefix(got, `<g id="landscape-tooltip" class="tooltip" transform="translate(100.00,80.00)">`) {
		t.Errorf("tooltip = %q", got)
	}
	if !strings.Contains(got, ">Saka (Arsenal)</text>") {
		t.Error("tooltip text missing")
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(testScene(t))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	var out struct {
		Transform struct{ K float64 } `json:"transform"`
		Points    []struct {
			ID    int `json:"id"`
			Style struct {
				Emphasized bool `json:"emphasized"`
			} `json:"style"`
		} `json:"points"`
		Regions []json.RawMessage `json:"regions"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Transform.K != 1 {
		t.Errorf("k = %v, want 1", out.Transform.K)
	}
	if len(out.Points) != 3 || len(out.Regions) != 2 {
		t.Fatalf("got %d points, %d regions", len(out.Points), len(out.Regions))
	}
	for _, p := range out.Points {
		if p.Style.Emphasized != (p.ID == 2) {
			t.Errorf("point %d emphasized = %v", p.ID, p.Style.Emphasized)
		}
	}
}

func TestRenderDOT(t *testing.T) {
	dot := RenderDOT(testScene(t))
	for _, want := range []string{"graph landscape {", "layout=neato;", "p1 [pos=", "!\"", `label="Anchors (1)"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
}

func TestAlphaHex(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "ff"},
		{0, "00"},
		{0.25, "40"},
		{2, "ff"},
	}
	for _, tt := range tests {
		if got := alphaHex(tt.in); got != tt.want {
			t.Errorf("alphaHex(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="75pt" height="150pt" viewBox="0.00 0.00 75.00 150.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 75.00 150.00" width="100" height="200"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}
}

func TestRenderPNG(t *testing.T) {
	s := testScene(t)
	data, err := RenderPNG(s, WithScale(1))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != int(s.Width) || b.Dy() != int(s.Height) {
		t.Errorf("size = %dx%d, want %vx%v", b.Dx(), b.Dy(), s.Width, s.Height)
	}
}

func TestRenderANSI(t *testing.T) {
	out := RenderANSI(placeholderScene(t), 60, 10, DarkTheme())
	if got := strings.Count(out, "\n"); got != 9 {
		t.Errorf("line breaks = %d, want 9", got)
	}
	if !strings.Contains(out, scatter.PlaceholderLoading) {
		t.Error("placeholder missing from terminal output")
	}
	if RenderANSI(testScene(t), 0, 10, DarkTheme()) != "" {
		t.Error("zero columns should render nothing")
	}
}

func TestCellAt(t *testing.T) {
	p := CellAt(2, 1)
	if p.X != 20 || p.Y != 24 {
		t.Errorf("CellAt(2, 1) = %v, want (20, 24)", p)
	}
}

func TestThemeByName(t *testing.T) {
	if th, ok := ThemeByName("light"); !ok || th.Name != "light" {
		t.Errorf("ThemeByName(light) = %v, %v", th.Name, ok)
	}
	if th, ok := ThemeByName("neon"); ok || th.Name != "dark" {
		t.Errorf("ThemeByName(neon) = %v, %v", th.Name, ok)
	}
}

func TestEscapeXML(t *testing.T) {
	if got := EscapeXML(`<a & "b">`); got != "&lt;a &amp; &#34;b&#34;&gt;" {
		t.Errorf("EscapeXML() = %q", got)
	}
}
