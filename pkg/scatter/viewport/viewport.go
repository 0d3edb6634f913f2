// Package viewport owns the pan/zoom transform of a chart.
//
// A [Controller] is the only writer of the transform. Programmatic
// operations (zoom in/out, reset, focus) animate towards a target and are
// driven by [Controller.Advance] from the host's frame loop. Pointer
// gestures write the transform directly and lock out programmatic operations
// until they end.
package viewport

import (
	"math"
	"strings"
	"time"

	"github.com/golang/geo/r2"

	"github.com/matzehuels/landscape/pkg/errors"
)

// FocusPolicy selects what [Controller.Focus] does.
type FocusPolicy int

const (
	// FocusDense fits the percentile box of the data into view.
	FocusDense FocusPolicy = iota
	// FocusReset makes Focus behave exactly like Reset.
	FocusReset
)

func (p FocusPolicy) String() string {
	if p == FocusReset {
		return "reset"
	}
	return "dense"
}

// ParseFocusPolicy accepts "dense" or "reset".
func ParseFocusPolicy(s string) (FocusPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dense":
		return FocusDense, nil
	case "reset":
		return FocusReset, nil
	default:
		return FocusDense, errors.New(errors.ErrCodeInvalidConfig, "unknown focus policy %q (want dense or reset)", s)
	}
}

// WheelStep is the zoom exponent per wheel notch: one notch scales by 2^0.2.
const WheelStep = 0.2

// Config bounds and paces the controller.
type Config struct {
	MinScale float64       // lower bound for K
	MaxScale float64       // upper bound for K
	Step     float64       // ZoomIn factor; ZoomOut uses 1/Step
	Duration time.Duration // animation length for programmatic operations
	Focus    FocusPolicy
	FocusFit float64 // fraction of the view the focus box fills
}

// DefaultConfig returns the standard bounds [0.5, 8] with a 1.5 step.
func DefaultConfig() Config {
	return Config{
		MinScale: 0.5,
		MaxScale: 8,
		Step:     1.5,
		Duration: 250 * time.Millisecond,
		Focus:    FocusDense,
		FocusFit: 0.9,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type animation struct {
	from, to Transform
	start    time.Time
	duration time.Duration
}

func (a *animation) at(now time.Time) (Transform, bool) {
	elapsed := now.Sub(a.start)
	if elapsed >= a.duration {
		return a.to, true
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return lerp(a.from, a.to, easeCubicInOut(float64(elapsed)/float64(a.duration))), false
}

// Controller owns the current transform. It is not safe for concurrent use;
// hosts call it from their single event loop.
type Controller struct {
	cfg       Config
	now       func() time.Time
	area      r2.Rect
	shown     Transform
	anim      *animation
	gesture   bool
	focus     r2.Rect
	hasFocus  bool
	listeners []func(Transform)
}

// New returns a controller at the identity transform.
func New(cfg Config, opts ...Option) *Controller {
	if cfg.MinScale <= 0 || cfg.MaxScale < cfg.MinScale {
		def := DefaultConfig()
		cfg.MinScale, cfg.MaxScale = def.MinScale, def.MaxScale
	}
	if cfg.Step <= 1 {
		cfg.Step = DefaultConfig().Step
	}
	if cfg.FocusFit <= 0 || cfg.FocusFit > 1 {
		cfg.FocusFit = DefaultConfig().FocusFit
	}
	c := &Controller{cfg: cfg, now: time.Now, shown: Identity}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the controller's settings.
func (c *Controller) Config() Config { return c.cfg }

// SetArea records the on-screen drawing area. Programmatic zoom is anchored
// on its center and focus fits into it. Changing the area never touches the
// current transform.
func (c *Controller) SetArea(area r2.Rect) { c.area = area }

// SetFocusRegion records the base-space box that Focus fits into view.
func (c *Controller) SetFocusRegion(box r2.Rect, ok bool) {
	c.focus, c.hasFocus = box, ok
}

// OnChange registers fn to run after every transform change.
func (c *Controller) OnChange(fn func(Transform)) {
	c.listeners = append(c.listeners, fn)
}

// Current returns the transform as displayed right now.
func (c *Controller) Current() Transform { return c.shown }

// Target returns where the transform is heading: the end of the running
// animation, or the current transform when idle.
func (c *Controller) Target() Transform {
	if c.anim != nil {
		return c.anim.to
	}
	return c.shown
}

// Animating reports whether a programmatic animation is in flight.
func (c *Controller) Animating() bool { return c.anim != nil }

// Gesturing reports whether a pointer gesture is in progress.
func (c *Controller) Gesturing() bool { return c.gesture }

// ZoomIn scales the target by Step around the area center.
func (c *Controller) ZoomIn() bool { return c.ZoomBy(c.cfg.Step) }

// ZoomOut scales the target by 1/Step around the area center.
func (c *Controller) ZoomOut() bool { return c.ZoomBy(1 / c.cfg.Step) }

// ZoomBy animates the target scale by factor. Successive calls compound on
// the target, so two quick ZoomIn calls end at Step². It reports false when
// a gesture is active and the request was ignored.
func (c *Controller) ZoomBy(factor float64) bool {
	if c.gesture {
		return false
	}
	base := c.Target()
	c.animateTo(c.zoomAround(base, base.K*factor, c.area.Center()))
	return true
}

// Reset animates back to the identity transform.
func (c *Controller) Reset() bool {
	if c.gesture {
		return false
	}
	c.animateTo(Identity)
	return true
}

// Focus centers the view on the dense region of the data, or resets when
// the policy is FocusReset or no region is known.
func (c *Controller) Focus() bool {
	if c.cfg.Focus == FocusReset || !c.hasFocus || c.area.Size().X <= 0 || c.area.Size().Y <= 0 {
		return c.Reset()
	}
	if c.gesture {
		return false
	}
	size := c.focus.Size()
	area := c.area.Size()
	k := math.Inf(1)
	if size.X > 1 {
		k = area.X / size.X
	}
	if size.Y > 1 {
		k = math.Min(k, area.Y/size.Y)
	}
	if math.IsInf(k, 1) {
		k = c.cfg.MaxScale
	}
	k = c.clamp(k * c.cfg.FocusFit)
	center := c.focus.Center()
	ac := c.area.Center()
	c.animateTo(Transform{K: k, X: ac.X - center.X*k, Y: ac.Y - center.Y*k})
	return true
}

// Jump sets the transform without animating. It is meant for restoring a
// saved view and is ignored during a gesture.
func (c *Controller) Jump(t Transform) bool {
	if c.gesture {
		return false
	}
	t.K = c.clamp(t.K)
	c.anim = nil
	c.set(t)
	return true
}

// BeginGesture starts a pointer gesture. Any running animation stops where
// it is.
func (c *Controller) BeginGesture() {
	c.freeze()
	c.gesture = true
}

// EndGesture finishes the pointer gesture.
func (c *Controller) EndGesture() { c.gesture = false }

// Drag pans by a screen-space delta. It only applies inside a gesture.
func (c *Controller) Drag(dx, dy float64) bool {
	if !c.gesture || (dx == 0 && dy == 0) {
		return false
	}
	t := c.shown
	t.X += dx
	t.Y += dy
	c.set(t)
	return true
}

// Wheel zooms by notches around the screen point at. Positive notches zoom
// in. A wheel event is a self-contained gesture: it stops any running
// animation and applies immediately.
func (c *Controller) Wheel(notches float64, at r2.Point) bool {
	if notches == 0 {
		return false
	}
	c.freeze()
	t := c.zoomAround(c.shown, c.shown.K*math.Pow(2, notches*WheelStep), at)
	if t == c.shown {
		return false
	}
	c.set(t)
	return true
}

// Advance moves a running animation to now. It reports whether the
// displayed transform changed.
func (c *Controller) Advance(now time.Time) bool {
	if c.anim == nil {
		return false
	}
	t, done := c.anim.at(now)
	if done {
		c.anim = nil
	}
	if t == c.shown {
		return false
	}
	c.set(t)
	return true
}

// Settle finishes a running animation immediately.
func (c *Controller) Settle() {
	if c.anim == nil {
		return
	}
	to := c.anim.to
	c.anim = nil
	c.set(to)
}

func (c *Controller) animateTo(to Transform) {
	from := c.shown
	if c.anim != nil {
		// Replace the in-flight animation, starting from what is on screen.
		from, _ = c.anim.at(c.now())
		c.set(from)
	}
	if c.cfg.Duration <= 0 {
		c.anim = nil
		c.set(to)
		return
	}
	if from == to {
		c.anim = nil
		return
	}
	c.anim = &animation{from: from, to: to, start: c.now(), duration: c.cfg.Duration}
}

func (c *Controller) freeze() {
	if c.anim == nil {
		return
	}
	t, _ := c.anim.at(c.now())
	c.anim = nil
	c.set(t)
}

func (c *Controller) zoomAround(t Transform, k float64, anchor r2.Point) Transform {
	k = c.clamp(k)
	ratio := k / t.K
	return Transform{
		K: k,
		X: anchor.X - (anchor.X-t.X)*ratio,
		Y: anchor.Y - (anchor.Y-t.Y)*ratio,
	}
}

func (c *Controller) clamp(k float64) float64 {
	return math.Max(c.cfg.MinScale, math.Min(c.cfg.MaxScale, k))
}

func (c *Controller) set(t Transform) {
	if t == c.shown {
		return
	}
	c.shown = t
	for _, fn := range c.listeners {
		fn(t)
	}
}
