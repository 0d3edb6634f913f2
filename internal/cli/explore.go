package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/golang/geo/r2"
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
)

// Explorer layout: one header line, the map, then the help footer.
const (
	headerHeight = 1
	footerHeight = 2
	panCells     = 4
	frameRate    = 30
)

// exploreCommand creates the terminal explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		input     string
		groups    int
		highlight string
	)

	cmd := &cobra.Command{
		Use:   "explore [position]",
		Short: "Explore a projection interactively in the terminal",
		Long: `Open a mouse-driven map of the projection in the terminal.

Click a point to select its group, drag to pan, scroll to zoom. Groups can be
recomputed on the fly; the view keeps its zoom while new data loads.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completePositions,
		RunE: func(cmd *cobra.Command, args []string) error {
			var position string
			if len(args) == 1 {
				position = args[0]
			}
			ids, err := projection.ParseIDs(highlight)
			if err != nil {
				return fmt.Errorf("invalid --highlight: %w", err)
			}
			return c.runExplore(cmd.Context(), position, input, groups, ids)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "read the snapshot from a JSON file")
	cmd.Flags().IntVarP(&groups, "groups", "k", 0, "start with this many groups (0 = automatic)")
	cmd.Flags().StringVar(&highlight, "highlight", "", "point ids to emphasize, e.g. 12,40,7")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, position, input string, groups int, highlight projection.IDSet) error {
	store := c.newCache(ctx)
	defer store.Close()

	src, err := c.source(store, position, input)
	if err != nil {
		return err
	}
	if position == "" {
		position = describeSource(c.Config.Service.Position, input)
	}

	// The TUI owns the terminal, so library logs are dropped.
	loader := fetch.NewLoader(src,
		fetch.WithLoaderLogger(log.New(io.Discard)),
		fetch.WithRequestTimeout(c.Config.Service.Timeout))
	defer loader.Close()

	theme, _ := sink.ThemeByName(c.Config.Style.Theme)
	m, err := newExploreModel(ctx, c.Config.Chart(), loader, theme, position)
	if err != nil {
		return err
	}
	m.chart.SetHighlight(highlight)
	if groups > 0 {
		panel := m.chart.Grouping()
		panel.SetCount(groups)
		panel.SetAutomatic(false)
	} else {
		m.request(m.chart.Grouping().Request())
	}

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

type (
	snapshotMsg fetch.Result
	frameMsg    time.Time
)

// exploreModel drives a Chart from terminal events. Cell coordinates map to
// chart pixels through sink.CellAt.
type exploreModel struct {
	ctx     context.Context
	chart   *scatter.Chart
	loader  *fetch.Loader
	theme   sink.Theme
	title   string
	keys    exploreKeys
	help    help.Model
	cols    int
	rows    int
	loading bool
	ticking bool
	pending grouping.Request
}

func newExploreModel(ctx context.Context, cfg scatter.Config, loader *fetch.Loader, theme sink.Theme, title string) (*exploreModel, error) {
	m := &exploreModel{
		ctx:    ctx,
		loader: loader,
		theme:  theme,
		title:  title,
		keys:   defaultExploreKeys(),
		help:   help.New(),
		cols:   80,
		rows:   24 - headerHeight - footerHeight,
	}
	chart, err := scatter.New(cfg, scatter.WithNotify(m.request))
	if err != nil {
		return nil, err
	}
	m.chart = chart
	m.resize()
	return m, nil
}

// request forwards a grouping request to the loader.
func (m *exploreModel) request(req grouping.Request) {
	m.loading = true
	m.pending = req
	m.loader.Request(m.ctx, req)
}

func (m *exploreModel) resize() {
	m.chart.Resize(float64(m.cols*sink.CellWidth), float64(m.rows*sink.CellHeight))
}

// waitForSnapshot blocks on the loader's result channel.
func (m *exploreModel) waitForSnapshot() tea.Cmd {
	results := m.loader.Results()
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return nil
		}
		return snapshotMsg(r)
	}
}

// tick schedules the next animation frame unless one is already pending.
func (m *exploreModel) tick() tea.Cmd {
	if m.ticking || !m.chart.Viewport().Animating() {
		return nil
	}
	m.ticking = true
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *exploreModel) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(10, msg.Width)
		m.rows = max(4, msg.Height-headerHeight-footerHeight)
		m.help.Width = msg.Width
		m.resize()

	case snapshotMsg:
		m.loading = false
		m.chart.SetSnapshot(msg.Snapshot)
		return m, m.waitForSnapshot()

	case frameMsg:
		m.ticking = false
		m.chart.Advance(time.Time(msg))
		return m, m.tick()

	case tea.MouseMsg:
		m.mouse(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.key(msg)
	}
	return m, m.tick()
}

// cellPoint converts a terminal cell to chart coordinates.
func cellPoint(x, y int) r2.Point {
	return sink.CellAt(x, y-headerHeight)
}

func (m *exploreModel) mouse(msg tea.MouseMsg) {
	if msg.Y < headerHeight || msg.Y >= headerHeight+m.rows {
		if msg.Action == tea.MouseActionMotion {
			m.chart.PointerLeave()
		}
		return
	}
	p := cellPoint(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.chart.Wheel(1, p)
	case msg.Button == tea.MouseButtonWheelDown:
		m.chart.Wheel(-1, p)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.chart.PointerDown(p)
	case msg.Action == tea.MouseActionRelease:
		m.chart.PointerUp(p)
	case msg.Action == tea.MouseActionMotion:
		m.chart.PointerMove(p)
	}
}

func (m *exploreModel) key(msg tea.KeyMsg) {
	view := m.chart.Viewport()
	panel := m.chart.Grouping()
	switch {
	case key.Matches(msg, m.keys.ZoomIn):
		view.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		view.ZoomOut()
	case key.Matches(msg, m.keys.Reset):
		view.Reset()
	case key.Matches(msg, m.keys.Focus):
		view.Focus()
	case key.Matches(msg, m.keys.Next):
		m.selectNext()
	case key.Matches(msg, m.keys.Clear):
		m.chart.Select("")
	case key.Matches(msg, m.keys.Auto):
		panel.Toggle()
	case key.Matches(msg, m.keys.More):
		panel.SetAutomatic(false)
		panel.Increment()
	case key.Matches(msg, m.keys.Fewer):
		panel.SetAutomatic(false)
		panel.Decrement()
	case key.Matches(msg, m.keys.Theme):
		if m.theme.Name == sink.DarkTheme().Name {
			m.theme = sink.LightTheme()
		} else {
			m.theme = sink.DarkTheme()
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		for i, dir := range [4]r2.Point{{Y: 1}, {Y: -1}, {X: 1}, {X: -1}} {
			if key.Matches(msg, m.keys.Pan[i]) {
				m.pan(dir)
			}
		}
	}
}

// pan moves the view as a short drag gesture. dir points the way the
// content moves.
func (m *exploreModel) pan(dir r2.Point) {
	view := m.chart.Viewport()
	view.BeginGesture()
	view.Drag(dir.X*panCells*sink.CellWidth, dir.Y*panCells*sink.CellHeight/2)
	view.EndGesture()
}

// selectNext cycles the selection through the legend.
func (m *exploreModel) selectNext() {
	legend := m.chart.Scene().Legend
	if len(legend) == 0 {
		return
	}
	next := 0
	for i, e := range legend {
		if e.Selected {
			next = i + 1
			break
		}
	}
	if next == len(legend) {
		m.chart.Select("")
		return
	}
	m.chart.Select(legend[next].Group)
}

func (m *exploreModel) View() string {
	scene := m.chart.Scene()
	var b strings.Builder
	b.WriteString(m.header(scene))
	b.WriteString("\n")
	b.WriteString(sink.RenderANSI(scene, m.cols, m.rows, m.theme))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *exploreModel) header(scene scatter.Scene) string {
	parts := []string{StyleTitle.Render(m.title)}
	g := scene.Grouping
	switch {
	case g.Automatic && g.OptimalK > 0:
		parts = append(parts, fmt.Sprintf("groups auto (k=%d)", g.OptimalK))
	case g.Automatic:
		parts = append(parts, "groups auto")
	default:
		parts = append(parts, fmt.Sprintf("groups %d", g.Count))
	}
	parts = append(parts, fmt.Sprintf("zoom %.2fx", scene.Transform.K))
	if d := scene.Detail; d != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render(
			fmt.Sprintf("%s · %d players (%.0f%%)", d.Label, d.Count, d.Share*100)))
	}
	if err := m.loader.Err(); err != nil {
		parts = append(parts, StyleWarning.Render("fetch failed: "+errors.UserMessage(err)))
	} else if m.loading {
		parts = append(parts, StyleDim.Render("loading "+m.pending.String()+"…"))
	}
	line := strings.Join(parts, StyleDim.Render("  ·  "))
	return lipgloss.NewStyle().MaxWidth(m.cols).Render(line)
}
