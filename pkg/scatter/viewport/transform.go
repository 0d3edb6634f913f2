package viewport

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Transform maps base canvas coordinates to screen coordinates:
// screen = base*K + (X, Y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform every view starts with.
var Identity = Transform{K: 1}

// Apply maps a base coordinate to the screen.
func (t Transform) Apply(p r2.Point) r2.Point {
	return r2.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen coordinate back to base space.
func (t Transform) Invert(p r2.Point) r2.Point {
	return r2.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// IsIdentity reports whether t is exactly the identity transform.
func (t Transform) IsIdentity() bool { return t == Identity }

// ApproxEqual compares transforms within eps on every component.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return math.Abs(t.K-o.K) <= eps && math.Abs(t.X-o.X) <= eps && math.Abs(t.Y-o.Y) <= eps
}

// String renders the transform as an SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%.3f,%.3f) scale(%.4f)", t.X, t.Y, t.K)
}

// lerp interpolates between two transforms at t in [0, 1].
func lerp(a, b Transform, t float64) Transform {
	return Transform{
		K: a.K + (b.K-a.K)*t,
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// easeCubicInOut is the easing applied to programmatic animations.
func easeCubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 1 + u*u*u/2
}
