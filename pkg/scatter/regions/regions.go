// Package regions partitions the drawing area into nearest-center cells and
// places one label per group center.
//
// Cells are computed in base canvas space (before the viewport transform)
// by clipping the bounds rectangle against the perpendicular bisector of
// every other center, which yields the Voronoi cell of each center. Group
// counts are small (the grouping panel caps them at ten), so the quadratic
// construction is fine.
package regions

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/geometry"
)

// Region is one group's cell.
type Region struct {
	Group  string   // center key
	Center r2.Point // mapped center position
	Ring   orb.Ring // closed polygon in base canvas space; empty when shadowed
}

// Label is the text drawn at a group center.
type Label struct {
	Group string
	Text  string
	Count int
	At    r2.Point
}

// Layer is the computed region and label set for one snapshot and canvas.
type Layer struct {
	Regions []Region
	Labels  []Label
}

// Build computes the layer for the given centers. Zero centers yield an
// empty layer and a single center covers the whole bounds. When two centers
// coincide the earlier one keeps the cell.
func Build(centers []projection.Center, m geometry.Mapper, bounds r2.Rect) Layer {
	var layer Layer
	if len(centers) == 0 {
		return layer
	}
	sites := make([]r2.Point, len(centers))
	for i, c := range centers {
		sites[i] = m.Project(c.X, c.Y)
	}
	frame := rectRing(bounds)
	for i, c := range centers {
		ring := frame
		for j, other := range sites {
			if j == i {
				continue
			}
			if other == sites[i] {
				if j < i {
					ring = nil
					break
				}
				continue
			}
			ring = clipHalfPlane(ring, sites[i], other)
			if len(ring) == 0 {
				break
			}
		}
		layer.Regions = append(layer.Regions, Region{Group: c.Key(), Center: sites[i], Ring: closeRing(ring)})
		layer.Labels = append(layer.Labels, Label{
			Group: c.Key(),
			Text:  labelText(c),
			Count: c.Count,
			At:    sites[i],
		})
	}
	return layer
}

func labelText(c projection.Center) string {
	if c.Count > 0 {
		return fmt.Sprintf("%s (%d)", c.Name(), c.Count)
	}
	return c.Name()
}

// At returns the region containing the base-space point p.
func (l Layer) At(p r2.Point) (Region, bool) {
	pt := orb.Point{p.X, p.Y}
	for _, r := range l.Regions {
		if len(r.Ring) >= 4 && planar.RingContains(r.Ring, pt) {
			return r, true
		}
	}
	return Region{}, false
}

// Nearest returns the region whose center is closest to p. Unlike At it
// also answers for points outside the bounds.
func (l Layer) Nearest(p r2.Point) (Region, bool) {
	best, found := -1, false
	bestD := 0.0
	for i, r := range l.Regions {
		v := r.Center.Sub(p)
		d := v.Dot(v)
		if !found || d < bestD {
			best, bestD, found = i, d, true
		}
	}
	if !found {
		return Region{}, false
	}
	return l.Regions[best], true
}

func rectRing(b r2.Rect) orb.Ring {
	return orb.Ring{
		{b.X.Lo, b.Y.Lo},
		{b.X.Hi, b.Y.Lo},
		{b.X.Hi, b.Y.Hi},
		{b.X.Lo, b.Y.Hi},
	}
}

// clipHalfPlane keeps the part of the open polygon poly that is at least as
// close to site as to other (Sutherland-Hodgman against one edge).
func clipHalfPlane(poly orb.Ring, site, other r2.Point) orb.Ring {
	// Keep points q with n·q <= c where n = other-site and c is n·midpoint.
	n := other.Sub(site)
	mid := site.Add(other).Mul(0.5)
	c := n.Dot(mid)
	inside := func(q orb.Point) bool { return n.X*q[0]+n.Y*q[1] <= c }
	cross := func(a, b orb.Point) orb.Point {
		da := n.X*a[0] + n.Y*a[1] - c
		db := n.X*b[0] + n.Y*b[1] - c
		t := da / (da - db)
		return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
	}

	var out orb.Ring
	for i := range poly {
		cur := poly[i]
		prev := poly[(i+len(poly)-1)%len(poly)]
		switch {
		case inside(cur) && inside(prev):
			out = append(out, cur)
		case inside(cur):
			out = append(out, cross(prev, cur), cur)
		case inside(prev):
			out = append(out, cross(prev, cur))
		}
	}
	return out
}

// closeRing appends the first point so the ring is closed, as orb expects.
func closeRing(r orb.Ring) orb.Ring {
	if len(r) < 3 {
		return nil
	}
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	if !out.Closed() {
		out = append(out, out[0])
	}
	return out
}
