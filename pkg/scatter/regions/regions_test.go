package regions

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/geometry"
)

func mapper(t *testing.T, centers []projection.Center) geometry.Mapper {
	t.Helper()
	s := &projection.Snapshot{Points: []projection.Point{
		{ID: 1, X: -2, Y: -2},
		{ID: 2, X: 2, Y: 2},
	}}
	for i, c := range centers {
		s.Points = append(s.Points, projection.Point{ID: 100 + i, X: c.X, Y: c.Y})
	}
	m, err := geometry.New(s, geometry.DefaultCanvas())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func center(id int, label string, x, y float64) projection.Center {
	return projection.Center{ID: projection.IntRef(id), Label: label, X: x, Y: y, Count: 3}
}

func TestZeroCenters(t *testing.T) {
	layer := Build(nil, mapper(t, nil), geometry.DefaultCanvas().Inner())
	if len(layer.Regions) != 0 || len(layer.Labels) != 0 {
		t.Errorf("got %d regions, %d labels; want none", len(layer.Regions), len(layer.Labels))
	}
	if _, ok := layer.At(r2.Point{X: 100, Y: 100}); ok {
		t.Error("At() found a region in an empty layer")
	}
}

func TestSingleCenterCoversBounds(t *testing.T) {
	centers := []projection.Center{center(0, "Only", 0, 0)}
	bounds := geometry.DefaultCanvas().Inner()
	layer := Build(centers, mapper(t, centers), bounds)

	if len(layer.Regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(layer.Regions))
	}
	area := math.Abs(planar.Area(layer.Regions[0].Ring))
	want := bounds.X.Length() * bounds.Y.Length()
	if math.Abs(area-want) > 1e-6 {
		t.Errorf("region area = %v, want %v", area, want)
	}
}

func TestCellsPartitionBounds(t *testing.T) {
	centers := []projection.Center{
		center(0, "A", -1, -1),
		center(1, "B", 1, -1),
		center(2, "C", 0, 1.5),
		center(3, "D", 0.2, 0),
	}
	bounds := geometry.DefaultCanvas().Inner()
	m := mapper(t, centers)
	layer := Build(centers, m, bounds)

	total := 0.0
	for _, r := range layer.Regions {
		total += math.Abs(planar.Area(r.Ring))
	}
	want := bounds.X.Length() * bounds.Y.Length()
	if math.Abs(total-want) > 1e-6*want {
		t.Errorf("cell areas sum to %v, want %v", total, want)
	}

	// Every probe lands in the cell of its nearest center.
	for x := bounds.X.Lo + 5; x < bounds.X.Hi; x += 37 {
		for y := bounds.Y.Lo + 5; y < bounds.Y.Hi; y += 29 {
			p := r2.Point{X: x, Y: y}
			got, ok := layer.At(p)
			if !ok {
				t.Fatalf("At(%v) found nothing", p)
			}
			near, _ := layer.Nearest(p)
			dGot := got.Center.Sub(p)
			dNear := near.Center.Sub(p)
			if dGot.Dot(dGot)-dNear.Dot(dNear) > 1e-6 {
				t.Errorf("At(%v) = %s, nearest is %s", p, got.Group, near.Group)
			}
		}
	}
}

func TestCoincidentCentersShareOneCell(t *testing.T) {
	centers := []projection.Center{center(0, "A", 0, 0), center(1, "B", 0, 0)}
	layer := Build(centers, mapper(t, centers), geometry.DefaultCanvas().Inner())
	if len(layer.Regions[0].Ring) == 0 {
		t.Error("first coincident center lost its cell")
	}
	if len(layer.Regions[1].Ring) != 0 {
		t.Error("second coincident center should be shadowed")
	}
	if len(layer.Labels) != 2 {
		t.Errorf("got %d labels, want one per center", len(layer.Labels))
	}
}

func TestLabels(t *testing.T) {
	centers := []projection.Center{
		center(0, "Box-to-box", 0.5, 0.5),
		{ID: projection.IntRef(1), X: -1, Y: 0},
	}
	m := mapper(t, centers)
	layer := Build(centers, m, geometry.DefaultCanvas().Inner())

	if got := layer.Labels[0].Text; got != "Box-to-box (3)" {
		t.Errorf("label = %q", got)
	}
	if got := layer.Labels[1].Text; got != "1" {
		t.Errorf("unlabeled center text = %q, want its id", got)
	}
	if got, want := layer.Labels[0].At, m.Project(0.5, 0.5); got != want {
		t.Errorf("label at %v, want %v", got, want)
	}
}
