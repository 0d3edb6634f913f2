package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

func testSnapshot() *projection.Snapshot {
	return &projection.Snapshot{
		Points: []projection.Point{
			{ID: 1, Name: "Odegaard", Team: "Arsenal", X: 0, Y: 0, Group: projection.Ref("0")},
			{ID: 2, Name: "Saka", Team: "Arsenal", X: 1, Y: 1, Group: projection.Ref("0")},
			{ID: 3, Name: "Rice", Team: "Arsenal", X: -1, Y: 1, Group: projection.Ref("1")},
			{ID: 4, Name: "Partey", X: -1.5, Y: 0.5, Group: projection.Ref("1")},
		},
		Centers: []projection.Center{
			{ID: projection.Ref("0"), Label: "Creators", X: 0.5, Y: 0.5, Count: 2},
			{ID: projection.Ref("1"), Label: "Anchors", X: -1.2, Y: 0.8, Count: 2},
		},
		ExplainedVariance: []float64{0.41, 0.22},
	}
}

func testOptions() Options {
	return Options{Source: fetch.StaticSource{Snapshot: testSnapshot()}}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"graphviz", false},
		{"txt", false},
		{"SVG", true}, // case-sensitive
		{"html", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateTheme(t *testing.T) {
	for _, name := range []string{"", "dark", "light"} {
		if err := ValidateTheme(name); err != nil {
			t.Errorf("ValidateTheme(%q) = %v", name, err)
		}
	}
	if err := ValidateTheme("solarized"); err == nil {
		t.Error("unknown theme accepted")
	}
}

func TestExtension(t *testing.T) {
	if got := Extension(FormatGraphviz); got != "neato.svg" {
		t.Errorf("Extension(graphviz) = %q", got)
	}
	if got := Extension(FormatPNG); got != "png" {
		t.Errorf("Extension(png) = %q", got)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var missing Options
	if err := missing.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing source: err = %v, want INVALID_INPUT", err)
	}

	opts := testOptions()
	opts.Width = 1000
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", opts.Theme)
	}
	if opts.Chart.Canvas.Width != 1000 || opts.Height != 600 {
		t.Errorf("canvas = %vx%v, want 1000x600", opts.Chart.Canvas.Width, opts.Height)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	bad := testOptions()
	bad.Formats = []string{"svg", "gif"}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("unsupported format accepted")
	}
	for _, k := range []int{1, 11} {
		out := testOptions()
		out.Groups = k
		if err := out.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("groups %d: err = %v, want INVALID_INPUT", k, err)
		}
	}
}

func TestRequest(t *testing.T) {
	opts := testOptions()
	if got := opts.Request(); got != grouping.Auto {
		t.Errorf("Request() = %v, want auto", got)
	}
	opts.Groups = 4
	if got := opts.Request(); got != grouping.Manual(4) {
		t.Errorf("Request() = %v, want manual 4", got)
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil)
	opts := testOptions()
	opts.Formats = []string{FormatSVG, FormatJSON, FormatDOT, FormatTXT}
	opts.Highlight = []int{2}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Points != 4 || res.Stats.Groups != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.SnapshotHash == "" {
		t.Error("snapshot hash empty")
	}
	for _, f := range opts.Formats {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("artifact %s empty", f)
		}
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact is not svg")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "graph landscape") {
		t.Error("dot artifact is not a graph")
	}
	var doc map[string]any
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &doc); err != nil {
		t.Errorf("json artifact: %v", err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("null cache reported a hit")
	}
}

func TestExecuteSelectAndZoom(t *testing.T) {
	r := NewRunner(nil, nil)
	opts := testOptions()
	opts.Select = "Anchors"
	opts.Zoom = 2

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Scene.Detail == nil || res.Scene.Detail.Label != "Anchors" {
		t.Errorf("Detail = %+v, want Anchors", res.Scene.Detail)
	}
	if res.Scene.Transform.K != 2 {
		t.Errorf("K = %v, want 2", res.Scene.Transform.K)
	}

	opts = testOptions()
	opts.Select = "Wingers"
	if _, err := r.Execute(context.Background(), opts); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown group: err = %v, want NOT_FOUND", err)
	}
}

func TestComposeRestoresTransform(t *testing.T) {
	r := NewRunner(nil, nil)
	opts := testOptions()
	opts.Focus = true
	opts.Zoom = 2
	opts.Transform = &viewport.Transform{K: 3, X: -40, Y: 12}

	snap, err := r.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	scene, err := r.Compose(opts, snap)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if scene.Transform != *opts.Transform {
		t.Errorf("Transform = %+v, want %+v", scene.Transform, *opts.Transform)
	}

	opts.Transform = &viewport.Transform{K: 100}
	scene, _ = r.Compose(opts, snap)
	if scene.Transform.K != scatter.DefaultConfig().Viewport.MaxScale {
		t.Errorf("K = %v, want clamped to max scale", scene.Transform.K)
	}
}

func TestExecuteCachesArtifacts(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(store, nil)
	defer r.Close()

	opts := testOptions()
	opts.Formats = []string{FormatSVG, FormatJSON}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run hit the cache")
	}
	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run missed the cache")
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh run hit the cache")
	}
}

func TestExecuteChartConfigMissesCache(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(store, nil)
	defer r.Close()

	opts := testOptions()
	opts.Formats = []string{FormatSVG}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	restyled := testOptions()
	restyled.Formats = []string{FormatSVG}
	restyled.Chart = scatter.DefaultConfig()
	restyled.Chart.Palette = []string{"#123456"}
	restyled.Chart.Encoding.BaseRadius = 11
	res, err := r.Execute(context.Background(), restyled)
	if err != nil {
		t.Fatalf("restyled Execute: %v", err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("restyled run was served from the cache")
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "#123456") {
		t.Error("restyled svg does not use the new palette")
	}

	a := testOptions()
	b := testOptions()
	b.Chart = scatter.DefaultConfig()
	b.Chart.Encoding.MinOpacity = 0.2
	if err := a.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	keyA := cache.Keyer{}.ArtifactKey("h", a.ArtifactKeyOpts(FormatSVG, viewport.Identity))
	keyB := cache.Keyer{}.ArtifactKey("h", b.ArtifactKeyOpts(FormatSVG, viewport.Identity))
	if keyA == keyB {
		t.Error("artifact key ignores the chart config")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := testOptions()
	_, err := Render(ctx, placeholder(t), opts)
	if !errors.Is(err, errors.ErrCodeCancelled) {
		t.Errorf("err = %v, want CANCELLED", err)
	}
}

func TestLoadNilSnapshot(t *testing.T) {
	r := NewRunner(nil, nil)
	_, err := r.Load(context.Background(), Options{Source: fetch.StaticSource{}})
	if !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("err = %v, want INVALID_SNAPSHOT", err)
	}
}

func placeholder(t *testing.T) scatter.Scene {
	t.Helper()
	c, err := scatter.New(scatter.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c.Scene()
}

func TestNewRunnerDiscardsLogsByDefault(t *testing.T) {
	r := NewRunner(nil, nil)
	if r.Logger == nil || r.Logger == log.Default() {
		t.Fatal("nil logger should default to a private discard logger")
	}
	opts := testOptions()
	r.applyLogger(&opts)
	if opts.Logger != r.Logger {
		t.Error("options should inherit the runner's logger")
	}
}
