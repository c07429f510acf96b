// Package testutil provides shared test fixtures for survey point clouds.
//
// The fixtures are synthetic passages with known geometry, so tests in the
// survey, mapper and command packages can assert exact metrics without
// shipping capture files.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/cavemap/internal/cave"
)

// Colours used by the capture app.
var (
	Guideline = cave.Color{R: 1, G: 1, B: 0}
	Feature   = cave.Color{R: 0, G: 1, B: 1}
	Rock      = cave.Color{R: 0.5, G: 0.5, B: 0.5}
)

// Passage describes a straight, gently descending passage.
type Passage struct {
	Stations    int     // centerline markers, one metre apart along the heading
	Radius      float64 // wall distance from the centerline (metres)
	Drop        float64 // descent per station (metres)
	BearingDeg  float64 // heading, clockwise from +Z
	WallPerRing int     // wall samples around each station
}

// DefaultPassage is ten stations of a 1.5 m radius passage heading 0°.
func DefaultPassage() Passage {
	return Passage{Stations: 10, Radius: 1.5, Drop: 0.1, BearingDeg: 0, WallPerRing: 8}
}

// Centerline returns the station positions in survey order.
func (p Passage) Centerline() []cave.Point3D {
	sin, cos := math.Sincos(p.BearingDeg * math.Pi / 180)
	out := make([]cave.Point3D, p.Stations)
	for i := range out {
		s := float64(i)
		out[i] = cave.Point3D{X: s * sin, Y: -p.Drop * s, Z: s * cos}
	}
	return out
}

// Cloud returns the passage as a capture-ordered point cloud: each station
// followed by its ring of wall samples.
func (p Passage) Cloud() cave.PointCloud {
	sin, cos := math.Sincos(p.BearingDeg * math.Pi / 180)
	var pc cave.PointCloud
	for _, c := range p.Centerline() {
		pc.Points = append(pc.Points, c)
		pc.Colors = append(pc.Colors, Guideline)
		for k := 0; k < p.WallPerRing; k++ {
			phi := 2 * math.Pi * float64(k) / float64(p.WallPerRing)
			// Offset across the heading and vertically, staggered along
			// it so no two samples project onto the same map point.
			across := p.Radius * math.Cos(phi)
			up := p.Radius * math.Sin(phi)
			along := 0.5 * float64(k) / float64(p.WallPerRing)
			pc.Points = append(pc.Points, cave.Point3D{
				X: c.X + across*cos + along*sin,
				Y: c.Y + up,
				Z: c.Z - across*sin + along*cos,
			})
			pc.Colors = append(pc.Colors, Rock)
		}
	}
	return pc
}

// PathLength is the expected centerline length.
func (p Passage) PathLength() float64 {
	if p.Stations < 2 {
		return 0
	}
	return float64(p.Stations-1) * math.Hypot(1, p.Drop)
}

// MaxDepth is the expected lowest wall Z.
func (p Passage) MaxDepth() float64 {
	pc := p.Cloud()
	depth := math.Inf(1)
	for i, pt := range pc.Points {
		if pc.Colors[i] == Rock {
			depth = math.Min(depth, pt.Z)
		}
	}
	return depth
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta fails the test if got and want differ by more than delta.
func AssertInDelta(t testing.TB, name string, got, want, delta float64) {
	t.Helper()
	if math.Abs(got-want) > delta {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, delta)
	}
}
