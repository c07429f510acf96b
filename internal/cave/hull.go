package cave

import (
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// ConvexHull returns the convex hull of points using Andrew's monotone chain.
//
// The shape of the result follows the input:
//   - no points: an empty orb.Collection
//   - one distinct point: orb.Point
//   - all points collinear: orb.LineString between the two extremes
//   - otherwise: a closed, counter-clockwise orb.Polygon
func ConvexHull(points []Point2D) orb.Geometry {
	pts := uniqueSorted(points)
	switch len(pts) {
	case 0:
		return orb.Collection{}
	case 1:
		return orb.Point{pts[0].X, pts[0].Y}
	}

	hull := make([]Point2D, 0, 2*len(pts))
	// lower hull
	for _, p := range pts {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper hull
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// hull now ends with its first point

	if len(hull) < 4 {
		first, last := pts[0], pts[len(pts)-1]
		return orb.LineString{{first.X, first.Y}, {last.X, last.Y}}
	}

	ring := make(orb.Ring, len(hull))
	for i, p := range hull {
		ring[i] = orb.Point{p.X, p.Y}
	}
	return orb.Polygon{ring}
}

// turn is positive for a counter-clockwise turn a->b->c, negative for
// clockwise and zero when collinear.
func turn(a, b, c Point2D) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

func uniqueSorted(points []Point2D) []Point2D {
	pts := make([]Point2D, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	out := pts[:0]
	for _, p := range pts {
		if len(out) > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
