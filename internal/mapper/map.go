package mapper

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/survey"
	"github.com/banshee-data/cavemap/internal/units"
)

// Map is everything a renderer needs to draw one cave map. Coordinates are
// already converted to Unit.
type Map struct {
	Name     string // display name
	FileStem string // sanitized name for output files
	Title    string
	Summary  string
	Unit     string
	Panels   []Panel
	Compass  Compass
}

// Panel is one projected view of the survey.
type Panel struct {
	View       cave.View
	Title      string
	XLabel     string
	YLabel     string
	Wall       []cave.Point2D
	Centerline []cave.Point2D
	Boundary   orb.Geometry
	Fallback   cave.Fallback
	Labels     []Label
}

// Label is an annotation placed on a panel.
type Label struct {
	At   cave.Point2D
	Text string
}

// Compass describes the heading inset. Arrow is the unit vector
// (sin θ, cos θ) of the bearing with north up.
type Compass struct {
	Valid   bool
	Bearing float64
	Arrow   cave.Point2D
	Label   string
}

// Assemble builds the Map for s with lengths shown in unit. Unknown units
// fall back to metres.
func Assemble(s *survey.Survey, unit string) *Map {
	if !units.IsValidLength(unit) {
		unit = units.Metres
	}
	m := &Map{
		Name:     DisplayName(s.Name),
		FileStem: SanitizeName(s.Name),
		Unit:     unit,
		Compass:  NewCompass(s.Metrics),
	}
	m.Title = Title(m.Name, s.Metrics, unit)
	m.Summary = summary(s, unit)

	for _, vr := range s.Views {
		m.Panels = append(m.Panels, assemblePanel(s, vr, unit))
	}
	return m
}

// Title formats "<name> | Total Length: <len> | Max Depth: <depth>". Depth
// is shown as a positive distance below the origin.
func Title(name string, m cave.Metrics, unit string) string {
	depth := "n/a"
	if m.HasMaxDepth {
		depth = units.FormatLength(-m.MaxDepth, unit)
	}
	return fmt.Sprintf("%s | Total Length: %s | Max Depth: %s",
		name, units.FormatLength(m.PathLength, unit), depth)
}

// NewCompass returns the compass for m. Without a bearing the compass is
// marked invalid and points north.
func NewCompass(m cave.Metrics) Compass {
	if !m.HasBearing {
		return Compass{Arrow: cave.Point2D{X: 0, Y: 1}, Label: "n/a"}
	}
	sin, cos := math.Sincos(m.Bearing * math.Pi / 180)
	return Compass{
		Valid:   true,
		Bearing: m.Bearing,
		Arrow:   cave.Point2D{X: sin, Y: cos},
		Label:   fmt.Sprintf("%d°", int(m.Bearing)),
	}
}

func summary(s *survey.Survey, unit string) string {
	out := fmt.Sprintf("%d centerline points, %d wall points", s.Metrics.CenterlinePoints, s.Metrics.WallPoints)
	if s.Metrics.HasBearing {
		out += fmt.Sprintf(" | Bearing: %.1f°", s.Metrics.Bearing)
	}
	if len(s.Annotations) > 0 {
		out += fmt.Sprintf(" | %d annotations", len(s.Annotations))
	}
	return out + " | Units: " + unit
}

func panelTitle(v cave.View) string {
	x, y := v.Axes()
	switch v {
	case cave.ViewTop:
		return fmt.Sprintf("Top View (%s-%s)", x, y)
	default:
		return fmt.Sprintf("Side View (%s-%s)", x, y)
	}
}

func assemblePanel(s *survey.Survey, vr survey.ViewResult, unit string) Panel {
	x, y := vr.View.Axes()
	p := Panel{
		View:       vr.View,
		Title:      panelTitle(vr.View),
		XLabel:     fmt.Sprintf("%s (%s)", x, unit),
		YLabel:     fmt.Sprintf("%s (%s)", y, unit),
		Wall:       scalePoints(vr.Wall, unit),
		Centerline: scalePoints(vr.Centerline, unit),
		Boundary:   scaleGeometry(vr.Boundary(), unit),
		Fallback:   vr.Shape.Fallback,
	}
	for _, a := range s.Annotations {
		at := cave.Project([]cave.Point3D{a.Position}, vr.View)[0]
		p.Labels = append(p.Labels, Label{At: scalePoint(at, unit), Text: a.Text})
	}
	return p
}

func scalePoint(p cave.Point2D, unit string) cave.Point2D {
	return cave.Point2D{X: units.ConvertLength(p.X, unit), Y: units.ConvertLength(p.Y, unit)}
}

func scalePoints(in []cave.Point2D, unit string) []cave.Point2D {
	out := make([]cave.Point2D, len(in))
	for i, p := range in {
		out[i] = scalePoint(p, unit)
	}
	return out
}

func scaleOrbPoints(in []orb.Point, unit string) []orb.Point {
	out := make([]orb.Point, len(in))
	for i, p := range in {
		out[i] = orb.Point{units.ConvertLength(p[0], unit), units.ConvertLength(p[1], unit)}
	}
	return out
}

// scaleGeometry returns a converted copy of the boundary geometry kinds the
// alpha shape can produce. Anything else is returned unchanged.
func scaleGeometry(g orb.Geometry, unit string) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return scaleOrbPoints([]orb.Point{g}, unit)[0]
	case orb.LineString:
		return orb.LineString(scaleOrbPoints(g, unit))
	case orb.Ring:
		return orb.Ring(scaleOrbPoints(g, unit))
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i, r := range g {
			out[i] = orb.Ring(scaleOrbPoints(r, unit))
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = scaleGeometry(p, unit).(orb.Polygon)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i, c := range g {
			out[i] = scaleGeometry(c, unit)
		}
		return out
	default:
		return g
	}
}

// polygons returns the areal parts of g.
func polygons(g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return []orb.Polygon(g)
	default:
		return nil
	}
}
