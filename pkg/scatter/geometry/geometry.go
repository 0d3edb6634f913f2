// Package geometry maps projection value space onto a fixed pixel canvas.
//
// A [Mapper] is built once per snapshot and canvas size and is never touched
// by pan or zoom. The viewport transform is composited on top of the mapped
// coordinates by the renderer.
package geometry

import (
	"errors"
	"math"
	"slices"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/matzehuels/landscape/pkg/projection"
)

const (
	// DomainPadding expands each axis domain by this fraction of its span on
	// both sides.
	DomainPadding = 0.10

	// MinDomainWidth replaces a zero-width domain, e.g. when every point
	// shares one x coordinate.
	MinDomainWidth = 1.0
)

var (
	// ErrInsufficientData is returned for snapshots without usable points.
	ErrInsufficientData = errors.New("insufficient data to display")

	// ErrInvalidCanvas is returned when the margins leave no drawing area.
	ErrInvalidCanvas = errors.New("canvas has no drawing area")
)

// Margins around the inner drawing area, in pixels.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Canvas is the pixel surface a snapshot is drawn onto.
type Canvas struct {
	Width, Height float64
	Margin        Margins
}

// DefaultCanvas matches the reference layout of the web client.
func DefaultCanvas() Canvas {
	return Canvas{
		Width:  800,
		Height: 600,
		Margin: Margins{Top: 40, Right: 40, Bottom: 60, Left: 60},
	}
}

// Inner returns the drawing area in canvas coordinates.
func (c Canvas) Inner() r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: c.Margin.Left, Hi: c.Width - c.Margin.Right},
		Y: r1.Interval{Lo: c.Margin.Top, Hi: c.Height - c.Margin.Bottom},
	}
}

// Bounds returns the whole canvas rectangle.
func (c Canvas) Bounds() r2.Rect {
	return r2.Rect{X: r1.Interval{Hi: c.Width}, Y: r1.Interval{Hi: c.Height}}
}

// Valid reports whether the inner drawing area has positive size.
func (c Canvas) Valid() bool {
	in := c.Inner()
	return in.X.Length() > 0 && in.Y.Length() > 0
}

// Scale is a linear map from a value domain onto a pixel range. With Flip
// set the domain minimum maps to Range.Hi, which is how the y axis grows
// upwards on screen.
type Scale struct {
	Domain r1.Interval
	Range  r1.Interval
	Flip   bool
}

// halfSpan is half the domain length. Halving first keeps it finite for
// domains reaching the edges of the float64 range.
func (s Scale) halfSpan() float64 {
	return s.Domain.Hi/2 - s.Domain.Lo/2
}

// Map converts a value to a pixel coordinate.
func (s Scale) Map(v float64) float64 {
	t := (v/2 - s.Domain.Lo/2) / s.halfSpan()
	if s.Flip {
		t = 1 - t
	}
	return s.Range.Lo + t*s.Range.Length()
}

// Invert converts a pixel coordinate back to a value.
func (s Scale) Invert(px float64) float64 {
	t := (px - s.Range.Lo) / s.Range.Length()
	if s.Flip {
		t = 1 - t
	}
	h := t * s.halfSpan()
	return s.Domain.Lo + h + h
}

// Ticks returns roughly n evenly spaced round values inside the domain,
// using 1, 2 and 5 multiples of a power of ten as the step.
func (s Scale) Ticks(n int) []float64 {
	span := s.Domain.Length()
	if n <= 0 || span <= 0 || math.IsInf(span, 0) {
		return nil
	}
	step := tickStep(span, n)
	start := math.Ceil(s.Domain.Lo/step) * step
	var ticks []float64
	for v := start; v <= s.Domain.Hi+step*1e-9; v += step {
		// Snap away float drift so labels print cleanly.
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}

func tickStep(span float64, n int) float64 {
	raw := span / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch r := raw / mag; {
	case r >= 7.07:
		return 10 * mag
	case r >= 3.16:
		return 5 * mag
	case r >= 1.41:
		return 2 * mag
	default:
		return mag
	}
}

// Mapper holds the two axis scales for one snapshot on one canvas.
type Mapper struct {
	X, Y   Scale
	Canvas Canvas
}

// New computes the axis scales for s on canvas c. Points with non-finite
// coordinates are ignored. It returns [ErrInsufficientData] when no finite
// point remains and [ErrInvalidCanvas] when c has no drawing area.
func New(s *projection.Snapshot, c Canvas) (Mapper, error) {
	if !c.Valid() {
		return Mapper{}, ErrInvalidCanvas
	}
	if s.Empty() {
		return Mapper{}, ErrInsufficientData
	}
	xs := r1.EmptyInterval()
	ys := r1.EmptyInterval()
	for _, p := range s.Points {
		if !p.Finite() {
			continue
		}
		xs = xs.AddPoint(p.X)
		ys = ys.AddPoint(p.Y)
	}
	if xs.IsEmpty() {
		return Mapper{}, ErrInsufficientData
	}
	in := c.Inner()
	return Mapper{
		X:      Scale{Domain: padDomain(xs), Range: in.X},
		Y:      Scale{Domain: padDomain(ys), Range: in.Y, Flip: true},
		Canvas: c,
	}, nil
}

// padDomain widens d by DomainPadding of its span on each side. The result
// is clamped to the finite float64 range.
func padDomain(d r1.Interval) r1.Interval {
	c := d.Lo/2 + d.Hi/2
	half := d.Hi/2 - d.Lo/2
	if half < MinDomainWidth*1e-9/2 {
		half = MinDomainWidth / 2
	}
	half *= 1 + 2*DomainPadding
	return r1.Interval{
		Lo: max(c-half, -math.MaxFloat64),
		Hi: min(c+half, math.MaxFloat64),
	}
}

// Project maps a value-space coordinate pair to canvas pixels.
func (m Mapper) Project(x, y float64) r2.Point {
	return r2.Point{X: m.X.Map(x), Y: m.Y.Map(y)}
}

// Unproject maps canvas pixels back to value space.
func (m Mapper) Unproject(p r2.Point) (x, y float64) {
	return m.X.Invert(p.X), m.Y.Invert(p.Y)
}

// DenseBox returns the pixel rectangle spanning the lo..hi quantiles of the
// mapped points on both axes, e.g. 0.1 and 0.9. ok is false when there are
// no finite points.
func (m Mapper) DenseBox(points []projection.Point, lo, hi float64) (box r2.Rect, ok bool) {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if !p.Finite() {
			continue
		}
		px := m.Project(p.X, p.Y)
		xs = append(xs, px.X)
		ys = append(ys, px.Y)
	}
	if len(xs) == 0 {
		return r2.EmptyRect(), false
	}
	slices.Sort(xs)
	slices.Sort(ys)
	return r2.Rect{
		X: r1.Interval{Lo: quantile(xs, lo), Hi: quantile(xs, hi)},
		Y: r1.Interval{Lo: quantile(ys, lo), Hi: quantile(ys, hi)},
	}, true
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	i := int(math.Floor(pos))
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
