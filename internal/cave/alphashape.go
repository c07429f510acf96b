package cave

import (
	"fmt"
	"math"
	"sort"

	"github.com/fogleman/delaunay"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// minTriangulationPoints is the smallest point count handed to the
// triangulator. Anything smaller short-circuits to the convex hull.
const minTriangulationPoints = 4

// Fallback records why AlphaShape returned the convex hull instead of the
// polygonised boundary.
type Fallback int

const (
	// FallbackNone means the boundary rings were used.
	FallbackNone Fallback = iota
	// FallbackTooFewPoints means fewer than four input points.
	FallbackTooFewPoints
	// FallbackNoTriangulation means the points are collinear or coincident.
	FallbackNoTriangulation
	// FallbackNoRings means the boundary edges did not form a closed ring,
	// usually because alpha discarded every triangle.
	FallbackNoRings
)

func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackTooFewPoints:
		return "too-few-points"
	case FallbackNoTriangulation:
		return "no-triangulation"
	case FallbackNoRings:
		return "no-rings"
	default:
		return fmt.Sprintf("Fallback(%d)", int(f))
	}
}

// Triangle is a simplex of a triangulation, stored as three indices into the
// triangulated point slice.
type Triangle [3]int

// Edges returns the three canonical edges of the triangle.
func (t Triangle) Edges() [3]Edge {
	return [3]Edge{
		NewEdge(t[0], t[1]),
		NewEdge(t[1], t[2]),
		NewEdge(t[2], t[0]),
	}
}

// Sides returns the edge lengths in the order (t0-t1, t1-t2, t2-t0).
func (t Triangle) Sides(points []Point2D) (a, b, c float64) {
	p0, p1, p2 := points[t[0]], points[t[1]], points[t[2]]
	a = r2.Norm(r2.Sub(p0, p1))
	b = r2.Norm(r2.Sub(p1, p2))
	c = r2.Norm(r2.Sub(p2, p0))
	return a, b, c
}

// Area returns the triangle area by Heron's formula. The radicand is clamped
// at zero so near-collinear triangles give 0 rather than NaN.
func (t Triangle) Area(points []Point2D) float64 {
	a, b, c := t.Sides(points)
	return heronArea(a, b, c)
}

// Circumradius returns the radius of the circle through the triangle's
// vertices, or +Inf for a triangle with no area.
func (t Triangle) Circumradius(points []Point2D) float64 {
	a, b, c := t.Sides(points)
	return circumradius(a, b, c)
}

// Circumradius returns the circumradius of the triangle (p0, p1, p2), or +Inf
// when the triangle is degenerate.
func Circumradius(p0, p1, p2 Point2D) float64 {
	return circumradius(
		r2.Norm(r2.Sub(p0, p1)),
		r2.Norm(r2.Sub(p1, p2)),
		r2.Norm(r2.Sub(p2, p0)),
	)
}

func heronArea(a, b, c float64) float64 {
	s := (a + b + c) / 2.0
	return math.Sqrt(math.Max(0, s*(s-a)*(s-b)*(s-c)))
}

func circumradius(a, b, c float64) float64 {
	area := heronArea(a, b, c)
	if area == 0 {
		return math.Inf(1)
	}
	r := (a * b * c) / (4.0 * area)
	if math.IsNaN(r) {
		return math.Inf(1)
	}
	return r
}

// Edge is an unordered pair of point indices, canonicalised so that
// Edge[0] <= Edge[1]. It is used as a map key.
type Edge [2]int

// NewEdge returns the canonical edge between i and j.
func NewEdge(i, j int) Edge {
	if i > j {
		i, j = j, i
	}
	return Edge{i, j}
}

// Triangulate returns the Delaunay triangulation of points. The error is
// non-nil when no triangulation exists (fewer than three distinct points, or
// all points collinear).
func Triangulate(points []Point2D) ([]Triangle, error) {
	pts := make([]delaunay.Point, len(points))
	for i, p := range points {
		pts[i] = delaunay.Point{X: p.X, Y: p.Y}
	}

	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil, fmt.Errorf("delaunay triangulation of %d points: %w", len(points), err)
	}

	out := make([]Triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		out = append(out, Triangle{tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]})
	}
	return out, nil
}

// KeptTriangles filters triangles to those whose circumradius is strictly
// below 1/alpha. Smaller alpha keeps a superset of what larger alpha keeps.
// The caller guarantees alpha > 0.
func KeptTriangles(points []Point2D, triangles []Triangle, alpha float64) []Triangle {
	threshold := 1.0 / alpha
	kept := make([]Triangle, 0, len(triangles))
	for _, t := range triangles {
		if t.Circumradius(points) < threshold {
			kept = append(kept, t)
		}
	}
	return kept
}

// BoundaryEdges returns the edges that belong to exactly one of triangles.
//
// Each triangle's three edges are toggled in a set: inserted when absent,
// removed when present. In a valid 2-D triangulation an edge is shared by at
// most two triangles, so the survivors are exactly the boundary edges.
// The result is sorted for deterministic ring assembly.
func BoundaryEdges(triangles []Triangle) []Edge {
	set := make(map[Edge]struct{}, len(triangles)*3)
	for _, t := range triangles {
		for _, e := range t.Edges() {
			if _, ok := set[e]; ok {
				delete(set, e)
			} else {
				set[e] = struct{}{}
			}
		}
	}

	edges := make([]Edge, 0, len(set))
	for e := range set {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// AlphaShapeReport describes one AlphaShape computation.
type AlphaShapeReport struct {
	Geometry      orb.Geometry
	Triangles     int // Delaunay triangles before filtering
	Kept          int // triangles passing the circumradius filter
	BoundaryEdges int
	Rings         int
	Fallback      Fallback
}

// AlphaShape returns the concave hull of points for the given alpha.
//
// The result is an orb.Polygon or orb.MultiPolygon. When fewer than four
// points are given, when the points cannot be triangulated, or when the
// boundary edges close no ring, the convex hull of all points is returned
// instead (see ConvexHull for its degenerate forms).
//
// Larger alpha carves tighter boundaries. alpha must be finite and > 0.
func AlphaShape(points []Point2D, alpha float64) (orb.Geometry, error) {
	rep, err := BuildAlphaShape(points, alpha)
	if err != nil {
		return nil, err
	}
	return rep.Geometry, nil
}

// BuildAlphaShape is AlphaShape with the intermediate counts kept.
//
// Algorithm:
//  1. Validate alpha, short-circuit to the convex hull below 4 points
//  2. Delaunay-triangulate the points
//  3. Keep triangles with circumradius < 1/alpha
//  4. Toggle kept-triangle edges to find the boundary
//  5. Walk boundary edges into rings and union them
func BuildAlphaShape(points []Point2D, alpha float64) (AlphaShapeReport, error) {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha <= 0 {
		return AlphaShapeReport{}, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}

	if len(points) < minTriangulationPoints {
		return AlphaShapeReport{Geometry: ConvexHull(points), Fallback: FallbackTooFewPoints}, nil
	}

	triangles, err := Triangulate(points)
	if err != nil {
		return AlphaShapeReport{Geometry: ConvexHull(points), Fallback: FallbackNoTriangulation}, nil
	}

	kept := KeptTriangles(points, triangles, alpha)
	edges := BoundaryEdges(kept)
	rings := Polygonize(points, kept, edges)

	rep := AlphaShapeReport{
		Triangles:     len(triangles),
		Kept:          len(kept),
		BoundaryEdges: len(edges),
		Rings:         len(rings),
	}
	if len(rings) == 0 {
		rep.Geometry = ConvexHull(points)
		rep.Fallback = FallbackNoRings
		return rep, nil
	}
	rep.Geometry = assemblePolygons(rings)
	return rep, nil
}

// Polygonize joins boundary edges that share endpoints into closed rings.
//
// Each edge is first directed so that the triangle it came from lies on its
// left; walking directed edges then traces shells counter-clockwise and holes
// clockwise, and at pinch vertices (two rings touching at one point) the walk
// can pick the edge that stays on the same face. Rings are returned closed
// (first point repeated last). Open chains and rings with fewer than three
// distinct vertices are dropped.
func Polygonize(points []Point2D, triangles []Triangle, edges []Edge) []orb.Ring {
	boundary := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		boundary[e] = true
	}

	out := make(map[int][]int)
	directed := make([][2]int, 0, len(edges))
	for _, t := range triangles {
		t = t.counterClockwise(points)
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			if boundary[NewEdge(a, b)] {
				out[a] = append(out[a], b)
				directed = append(directed, [2]int{a, b})
			}
		}
	}
	sort.Slice(directed, func(i, j int) bool {
		if directed[i][0] != directed[j][0] {
			return directed[i][0] < directed[j][0]
		}
		return directed[i][1] < directed[j][1]
	})

	used := make(map[[2]int]bool, len(directed))
	var rings []orb.Ring
	for _, start := range directed {
		if used[start] {
			continue
		}
		used[start] = true

		chain := []int{start[0], start[1]}
		prev, cur := start[0], start[1]
		for cur != chain[0] {
			next, ok := nextRingVertex(points, out, used, prev, cur)
			if !ok {
				break
			}
			used[[2]int{cur, next}] = true
			chain = append(chain, next)
			prev, cur = cur, next
		}

		// a closed chain repeats its first vertex at the end
		if cur != chain[0] || len(chain) < 4 {
			continue
		}
		ring := make(orb.Ring, len(chain))
		for i, idx := range chain {
			ring[i] = orb.Point{points[idx].X, points[idx].Y}
		}
		rings = append(rings, ring)
	}
	return rings
}

// counterClockwise returns t with its vertices in counter-clockwise order.
func (t Triangle) counterClockwise(points []Point2D) Triangle {
	if r2.Cross(r2.Sub(points[t[1]], points[t[0]]), r2.Sub(points[t[2]], points[t[0]])) < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return t
}

// nextRingVertex picks the unused directed edge leaving cur. When more than
// one is left (a pinch vertex) it takes the leftmost turn, which keeps the
// face being traced on the left.
func nextRingVertex(points []Point2D, out map[int][]int, used map[[2]int]bool, prev, cur int) (int, bool) {
	back := r2.Sub(points[prev], points[cur])
	backAngle := math.Atan2(back.Y, back.X)

	best, found := -1, false
	bestSweep := -1.0
	for _, n := range out[cur] {
		if used[[2]int{cur, n}] {
			continue
		}
		d := r2.Sub(points[n], points[cur])
		// counter-clockwise sweep from the incoming direction
		sweep := math.Mod(math.Atan2(d.Y, d.X)-backAngle+4*math.Pi, 2*math.Pi)
		if sweep > bestSweep {
			bestSweep = sweep
			best = n
			found = true
		}
	}
	return best, found
}

// assemblePolygons returns the union of the rings. A ring inside another
// ring is part of that ring's area, so only the outermost rings remain, each
// as a counter-clockwise shell without holes.
func assemblePolygons(rings []orb.Ring) orb.Geometry {
	sort.SliceStable(rings, func(i, j int) bool {
		return math.Abs(planar.Area(rings[i])) > math.Abs(planar.Area(rings[j]))
	})

	var polys []orb.Polygon
	for i, r := range rings {
		// rings are sorted largest first, so only earlier rings can contain i
		if nested(r, rings[:i]) {
			continue
		}
		if r.Orientation() == orb.CW {
			r.Reverse()
		}
		polys = append(polys, orb.Polygon{r})
	}

	if len(polys) == 1 {
		return polys[0]
	}
	return orb.MultiPolygon(polys)
}

// nested reports whether r lies inside any of the candidate rings.
func nested(r orb.Ring, candidates []orb.Ring) bool {
	probe := ringProbe(r, candidates)
	for j, c := range candidates {
		if planar.RingContains(c, probe[j]) {
			return true
		}
	}
	return false
}

// ringProbe returns, for each candidate container, a vertex of r that is not
// a vertex of that container. Rings may touch at pinch vertices, and a
// shared vertex would always read as contained.
func ringProbe(r orb.Ring, rings []orb.Ring) []orb.Point {
	probes := make([]orb.Point, len(rings))
	for j, other := range rings {
		shared := make(map[orb.Point]bool, len(other))
		for _, p := range other {
			shared[p] = true
		}
		probes[j] = r[0]
		for _, p := range r {
			if !shared[p] {
				probes[j] = p
				break
			}
		}
	}
	return probes
}
