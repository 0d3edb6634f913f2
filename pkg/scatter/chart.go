package scatter

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/geo/r2"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/encoding"
	"github.com/matzehuels/landscape/pkg/scatter/geometry"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/interaction"
	"github.com/matzehuels/landscape/pkg/scatter/regions"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

// hitSlop widens point hit areas by this many screen pixels.
const hitSlop = 2

// Config collects the tunables of every layer.
type Config struct {
	Canvas        geometry.Canvas
	Viewport      viewport.Config
	Encoding      encoding.Config
	Palette       []string // hex colors; empty selects the default palette
	RegionOpacity float64
	Ticks         int
	DragThreshold float64
	FocusLo       float64 // lower quantile of the focus box
	FocusHi       float64 // upper quantile of the focus box
	GroupMin      int
	GroupMax      int
	GroupCount    int // initial manual count
}

// DefaultConfig returns the reference layout and behavior.
func DefaultConfig() Config {
	return Config{
		Canvas:        geometry.DefaultCanvas(),
		Viewport:      viewport.DefaultConfig(),
		Encoding:      encoding.DefaultConfig(),
		RegionOpacity: 0.1,
		Ticks:         5,
		DragThreshold: interaction.DefaultDragThreshold,
		FocusLo:       0.1,
		FocusHi:       0.9,
		GroupMin:      grouping.DefaultMin,
		GroupMax:      grouping.DefaultMax,
		GroupCount:    grouping.DefaultCount,
	}
}

// Option configures a Chart.
type Option func(*Chart)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(c *Chart) { c.logger = l }
}

// WithNotify sets the sink for grouping requests.
func WithNotify(n grouping.Notify) Option {
	return func(c *Chart) { c.notify = n }
}

// WithClock sets the clock driving viewport animations.
func WithClock(now func() time.Time) Option {
	return func(c *Chart) { c.clock = now }
}

// Chart is one mounted visualization. Create it once per view and keep it:
// its Viewport and Grouping handles stay valid for the chart's lifetime.
type Chart struct {
	cfg    Config
	logger *log.Logger
	notify grouping.Notify
	clock  func() time.Time

	snapshot  *projection.Snapshot
	index     *projection.Index
	highlight projection.IDSet
	canvas    geometry.Canvas

	mapper  *geometry.Mapper
	layer   regions.Layer
	layout  error
	palette *encoding.Palette

	view     *viewport.Controller
	panel    *grouping.Panel
	interact *interaction.Handler

	scene   Scene
	marks   []Mark // draw order, for hit testing
	version uint64
}

// New returns a chart showing the loading placeholder. It fails only when
// the configured palette is invalid.
func New(cfg Config, opts ...Option) (*Chart, error) {
	palette, err := encoding.NewPalette(cfg.Palette...)
	if err != nil {
		return nil, err
	}
	c := &Chart{
		cfg:     cfg,
		logger:  log.New(io.Discard),
		clock:   time.Now,
		canvas:  cfg.Canvas,
		palette: palette,
		index:   (*projection.Snapshot)(nil).Index(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.view = viewport.New(cfg.Viewport, viewport.WithClock(c.clock))
	c.panel = grouping.NewPanel(cfg.GroupMin, cfg.GroupMax, cfg.GroupCount, c.forward)
	c.interact = interaction.New(c, c.view, cfg.DragThreshold)
	c.relayout()
	c.rebuild()
	return c, nil
}

// Viewport returns the chart's viewport controller. The same controller is
// returned for the chart's lifetime, so callers can bind zoom buttons once.
func (c *Chart) Viewport() *viewport.Controller { return c.view }

// Grouping returns the grouping panel.
func (c *Chart) Grouping() *grouping.Panel { return c.panel }

// Snapshot returns the snapshot on display, nil before the first one.
func (c *Chart) Snapshot() *projection.Snapshot { return c.snapshot }

// Version increases every time scene content is rebuilt.
func (c *Chart) Version() uint64 { return c.version }

// Canvas returns the current canvas.
func (c *Chart) Canvas() geometry.Canvas { return c.canvas }

// Interaction returns the current hover and selection state.
func (c *Chart) Interaction() interaction.State { return c.interact.State() }

// SetSnapshot replaces the dataset. nil shows the loading placeholder. The
// viewport transform is kept.
func (c *Chart) SetSnapshot(s *projection.Snapshot) {
	c.snapshot = s
	c.index = s.Index()
	c.palette.Observe(s)
	if orphans := c.index.Orphans(); len(orphans) > 0 {
		c.logger.Debug("points reference unknown groups", "count", len(orphans), "ids", orphans)
	}
	c.relayout()
	c.interact.Retain(
		func(g string) bool { _, ok := c.index.Center(g); return ok },
		func(id int) bool { return c.hasPoint(id) },
	)
	c.rebuild()
	if s != nil {
		c.logger.Debug("snapshot applied", "points", len(s.Points), "groups", len(s.Centers))
	}
}

// SetHighlight replaces the highlight set.
func (c *Chart) SetHighlight(ids projection.IDSet) {
	if c.highlight.Equal(ids) {
		return
	}
	c.highlight = ids
	c.rebuild()
}

// Resize changes the canvas size, keeping margins. Layout is recomputed but
// the viewport transform is left alone.
func (c *Chart) Resize(width, height float64) {
	if width == c.canvas.Width && height == c.canvas.Height {
		return
	}
	c.canvas.Width, c.canvas.Height = width, height
	c.relayout()
	c.rebuild()
}

// SetCanvas replaces the canvas including margins.
func (c *Chart) SetCanvas(canvas geometry.Canvas) {
	if canvas == c.canvas {
		return
	}
	c.canvas = canvas
	c.relayout()
	c.rebuild()
}

// Select sets the selected group by key; empty clears it.
func (c *Chart) Select(group string) {
	if group != "" {
		if _, ok := c.index.Center(group); !ok {
			return
		}
	}
	if c.interact.Select(group).Has(interaction.ContentChanged) {
		c.rebuild()
	}
}

// SelectLabel selects the group with the given label or key.
func (c *Chart) SelectLabel(label string) bool {
	if c.snapshot == nil {
		return false
	}
	for _, ctr := range c.snapshot.Centers {
		if ctr.Label == label || ctr.Key() == label {
			c.Select(ctr.Key())
			return true
		}
	}
	return false
}

// PointerDown forwards a press at container coordinates p.
func (c *Chart) PointerDown(p r2.Point) { c.interact.PointerDown(p) }

// PointerMove forwards pointer motion.
func (c *Chart) PointerMove(p r2.Point) interaction.Change { return c.apply(c.interact.PointerMove(p)) }

// PointerUp forwards a release.
func (c *Chart) PointerUp(p r2.Point) interaction.Change { return c.apply(c.interact.PointerUp(p)) }

// PointerLeave forwards the pointer leaving the surface.
func (c *Chart) PointerLeave() interaction.Change { return c.apply(c.interact.PointerLeave()) }

// Click forwards a complete click without press tracking.
func (c *Chart) Click(p r2.Point) interaction.Change { return c.apply(c.interact.Click(p)) }

// Wheel forwards wheel notches; positive zooms in.
func (c *Chart) Wheel(notches float64, p r2.Point) interaction.Change {
	return c.apply(c.interact.Wheel(notches, p))
}

// Advance drives viewport animations to now and reports whether the
// transform moved.
func (c *Chart) Advance(now time.Time) bool { return c.view.Advance(now) }

func (c *Chart) apply(ch interaction.Change) interaction.Change {
	if ch.Has(interaction.ContentChanged) {
		c.rebuild()
	}
	return ch
}

// HitTest resolves container coordinates to the topmost point.
func (c *Chart) HitTest(p r2.Point) (interaction.Hit, bool) {
	t := c.view.Current()
	q := t.Invert(p)
	slop := hitSlop / t.K
	for i := len(c.marks) - 1; i >= 0; i-- {
		m := c.marks[i]
		r := m.Style.Radius + slop
		d := m.At.Sub(q)
		if d.Dot(d) <= r*r {
			return interaction.Hit{ID: m.ID, Group: m.Group}, true
		}
	}
	return interaction.Hit{}, false
}

// GroupAt returns the group whose region lies under container coordinates p.
func (c *Chart) GroupAt(p r2.Point) (string, bool) {
	r, ok := c.layer.At(c.view.Current().Invert(p))
	return r.Group, ok
}

// Scene returns the current frame: the cached content with the live
// transform and tooltip.
func (c *Chart) Scene() Scene {
	s := c.scene
	s.Transform = c.view.Current()
	s.Tooltip = c.tooltip()
	return s
}

func (c *Chart) tooltip() *Tooltip {
	st := c.interact.State()
	if !st.HasHover || c.snapshot == nil {
		return nil
	}
	for _, p := range c.snapshot.Points {
		if p.ID != st.Hovered {
			continue
		}
		text := p.DisplayName()
		if g, ok := c.index.Group(p.ID); ok {
			text += " · " + g.Name()
		}
		return &Tooltip{Text: text, At: r2.Point{X: st.Pointer.X, Y: st.Pointer.Y - TooltipOffset}}
	}
	return nil
}

func (c *Chart) forward(req grouping.Request) {
	c.logger.Debug("grouping requested", "k", req)
	if c.notify != nil {
		c.notify(req)
	}
}

func (c *Chart) hasPoint(id int) bool {
	if c.snapshot == nil {
		return false
	}
	for _, p := range c.snapshot.Points {
		if p.ID == id {
			return true
		}
	}
	return false
}

// relayout recomputes everything derived from the snapshot and canvas.
func (c *Chart) relayout() {
	c.view.SetArea(c.canvas.Inner())
	m, err := geometry.New(c.snapshot, c.canvas)
	if err != nil {
		c.mapper, c.layer, c.layout = nil, regions.Layer{}, err
		c.view.SetFocusRegion(r2.EmptyRect(), false)
		return
	}
	c.mapper, c.layout = &m, nil
	c.layer = regions.Build(c.snapshot.Centers, m, c.canvas.Inner())
	c.view.SetFocusRegion(m.DenseBox(c.snapshot.Points, c.cfg.FocusLo, c.cfg.FocusHi))
}

// rebuild regenerates the scene content from scratch.
func (c *Chart) rebuild() {
	c.version++
	st := c.interact.State()
	s := Scene{
		Version: c.version,
		Width:   c.canvas.Width,
		Height:  c.canvas.Height,
		Inner:   c.canvas.Inner(),
		Grouping: GroupingState{
			Automatic: c.panel.Automatic(),
			Count:     c.panel.Count(),
		},
	}
	c.marks = nil

	switch {
	case c.snapshot == nil:
		s.Placeholder = PlaceholderLoading
	case errors.Is(c.layout, geometry.ErrInvalidCanvas):
		s.Placeholder = PlaceholderTooSmall
	case c.layout != nil:
		s.Placeholder = PlaceholderInsufficient
	}
	if s.Placeholder != "" {
		c.scene = s
		return
	}

	snap, m := c.snapshot, *c.mapper
	s.Grouping.OptimalK = snap.OptimalK
	s.XTitle, s.YTitle = snap.AxisTitle(0), snap.AxisTitle(1)
	s.Grid = c.grid(m)

	for _, r := range c.layer.Regions {
		ctr, _ := c.index.Center(r.Group)
		if len(r.Ring) == 0 {
			continue
		}
		s.Regions = append(s.Regions, Region{
			Group:    r.Group,
			Color:    c.palette.Color(ctr.Name()),
			Opacity:  c.cfg.RegionOpacity,
			Ring:     r.Ring,
			Selected: r.Group == st.Selected,
		})
	}

	enc := encoding.Encoder{
		Config:    c.cfg.Encoding,
		Palette:   c.palette,
		Index:     c.index,
		Highlight: c.highlight,
		Selected:  st.Selected,
		Hovered:   st.Hovered,
		HasHover:  st.HasHover,
	}
	var top []Mark
	for _, p := range snap.Points {
		if !p.Finite() {
			continue
		}
		mk := Mark{
			ID:    p.ID,
			Name:  p.Name,
			Team:  p.Team,
			At:    m.Project(p.X, p.Y),
			Style: enc.Encode(p),
		}
		if g, ok := c.index.Group(p.ID); ok {
			mk.Group = g.Key()
		}
		if mk.Style.Emphasized || mk.Style.Hovered {
			top = append(top, mk)
			continue
		}
		s.Points = append(s.Points, mk)
	}
	s.Points = append(s.Points, top...)
	c.marks = s.Points

	for _, l := range c.layer.Labels {
		ctr, _ := c.index.Center(l.Group)
		s.Labels = append(s.Labels, Label{Group: l.Group, Text: l.Text, Color: c.palette.Color(ctr.Name()), At: l.At})
	}

	for _, ctr := range snap.Centers {
		count := ctr.Count
		if count == 0 {
			count = c.index.Members(ctr.Key())
		}
		entry := LegendEntry{
			Group:    ctr.Key(),
			Label:    ctr.Name(),
			Color:    c.palette.Color(ctr.Name()),
			Count:    count,
			Selected: ctr.Key() == st.Selected,
		}
		s.Legend = append(s.Legend, entry)
		if entry.Selected {
			s.Detail = &GroupDetail{
				Group: entry.Group,
				Label: entry.Label,
				Color: entry.Color,
				Count: count,
				Share: float64(count) / float64(len(snap.Points)),
			}
		}
	}
	c.scene = s
}

func (c *Chart) grid(m geometry.Mapper) Grid {
	var g Grid
	for _, v := range m.X.Ticks(c.cfg.Ticks) {
		g.X = append(g.X, Tick{Value: v, Pos: m.X.Map(v), Label: formatTick(v)})
	}
	for _, v := range m.Y.Ticks(c.cfg.Ticks) {
		g.Y = append(g.Y, Tick{Value: v, Pos: m.Y.Map(v), Label: formatTick(v)})
	}
	return g
}

func formatTick(v float64) string {
	if v == 0 {
		return "0" // avoid "-0"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
