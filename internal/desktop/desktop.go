// Package desktop shows a chart in a native window.
//
// The window is an ebiten game: Update feeds mouse and keyboard input to a
// [scatter.Chart] and advances its viewport animation, Draw paints the
// current scene. Snapshots arrive from a [fetch.Loader] and are picked up
// on the next tick, so the window never blocks on the network.
package desktop

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/geo/r2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
)

// Defaults applied by New.
const (
	DefaultWidth  = 1100
	DefaultHeight = 760
	DefaultTPS    = 60
	panStep       = 40
)

// Config configures a Window.
type Config struct {
	Title  string
	Width  int
	Height int
	TPS    int
	Theme  sink.Theme
	Chart  scatter.Config
	Logger *log.Logger
}

// Window is an ebiten game showing one chart.
type Window struct {
	ctx    context.Context
	cfg    Config
	logger *log.Logger
	chart  *scatter.Chart
	loader *fetch.Loader
	white  *ebiten.Image

	width, height int
	cursor        r2.Point
	loading       bool
	lastErr       error
}

// New creates a window whose grouping requests go to loader.
func New(ctx context.Context, cfg Config, loader *fetch.Loader) (*Window, error) {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.TPS <= 0 {
		cfg.TPS = DefaultTPS
	}
	if cfg.Title == "" {
		cfg.Title = "landscape"
	}
	if cfg.Theme.Name == "" {
		cfg.Theme = sink.DarkTheme()
	}
	if cfg.Chart.Viewport.Step == 0 {
		cfg.Chart = scatter.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	cfg.Chart.Canvas.Width, cfg.Chart.Canvas.Height = float64(cfg.Width), float64(cfg.Height)

	w := &Window{
		ctx:    ctx,
		cfg:    cfg,
		logger: cfg.Logger.WithPrefix("window"),
		loader: loader,
		width:  cfg.Width,
		height: cfg.Height,
	}
	chart, err := scatter.New(cfg.Chart, scatter.WithLogger(cfg.Logger), scatter.WithNotify(w.request))
	if err != nil {
		return nil, err
	}
	w.chart = chart
	return w, nil
}

// Chart returns the window's chart for setup before Run.
func (w *Window) Chart() *scatter.Chart { return w.chart }

func (w *Window) request(req grouping.Request) {
	w.loading = true
	w.loader.Request(w.ctx, req)
}

// Start issues the first snapshot request from the grouping panel state.
func (w *Window) Start() {
	w.request(w.chart.Grouping().Request())
}

// Run opens the window and blocks until it is closed or ctx is done.
func Run(w *Window) error {
	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	ebiten.SetWindowTitle(w.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(w.cfg.TPS)
	if err := ebiten.RunGame(w); err != nil && err != ebiten.Termination {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "run window")
	}
	return nil
}

// Update handles one tick of input, loading and animation.
func (w *Window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	select {
	case res := <-w.loader.Results():
		w.loading = false
		w.chart.SetSnapshot(res.Snapshot)
	default:
	}
	if err := w.loader.Err(); err != nil && err != w.lastErr {
		w.lastErr = err
		w.loading = false
		w.logger.Warn("loading snapshot failed", "err", err)
	}

	if quit := w.handleKeys(); quit {
		return ebiten.Termination
	}
	w.handleMouse()
	w.chart.Advance(time.Now())
	return nil
}

func (w *Window) handleKeys() bool {
	view := w.chart.Viewport()
	panel := w.chart.Grouping()
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		switch k {
		case ebiten.KeyQ:
			return true
		case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
			view.ZoomIn()
		case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
			view.ZoomOut()
		case ebiten.KeyR, ebiten.Key0:
			view.Reset()
		case ebiten.KeyF:
			view.Focus()
		case ebiten.KeyA:
			panel.Toggle()
		case ebiten.KeyBracketRight:
			panel.Increment()
		case ebiten.KeyBracketLeft:
			panel.Decrement()
		case ebiten.KeyTab:
			w.chart.Select(nextGroup(w.chart.Scene().Legend))
		case ebiten.KeyEscape:
			w.chart.Select("")
		case ebiten.KeyArrowLeft:
			w.pan(panStep, 0)
		case ebiten.KeyArrowRight:
			w.pan(-panStep, 0)
		case ebiten.KeyArrowUp:
			w.pan(0, panStep)
		case ebiten.KeyArrowDown:
			w.pan(0, -panStep)
		}
	}
	return false
}

func (w *Window) pan(dx, dy float64) {
	view := w.chart.Viewport()
	view.BeginGesture()
	view.Drag(dx, dy)
	view.EndGesture()
}

func (w *Window) handleMouse() {
	x, y := ebiten.CursorPosition()
	p := r2.Point{X: float64(x), Y: float64(y)}
	inside := x >= 0 && y >= 0 && x < w.width && y < w.height

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inside:
		w.chart.PointerDown(p)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		w.chart.PointerUp(p)
	case inside && p != w.cursor:
		w.chart.PointerMove(p)
	case !inside && w.cursor != p:
		w.chart.PointerLeave()
	}
	w.cursor = p
	if _, dy := ebiten.Wheel(); dy != 0 && inside {
		w.chart.Wheel(dy, p)
	}
}

// Layout tracks the window size; the chart is resized to match.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != w.width || outsideHeight != w.height {
		w.width, w.height = outsideWidth, outsideHeight
		w.chart.Resize(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}

// nextGroup returns the legend group after the selected one, or "" after
// the last.
func nextGroup(legend []scatter.LegendEntry) string {
	next := 0
	for i, e := range legend {
		if e.Selected {
			next = i + 1
			break
		}
	}
	if next >= len(legend) {
		return ""
	}
	return legend[next].Group
}
