package cave

import (
	"fmt"
	"strings"
)

// View selects the plane a Point3D is projected onto.
type View int

const (
	// ViewTop is the plan view: keeps (X, Z), drops Y.
	ViewTop View = iota
	// ViewSide is the elevation view: keeps (X, Y), drops Z.
	ViewSide
)

// Views lists every supported view in rendering order.
var Views = []View{ViewTop, ViewSide}

// String returns the configuration name of the view.
func (v View) String() string {
	switch v {
	case ViewTop:
		return "top"
	case ViewSide:
		return "side"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Axes returns the names of the two kept axes, horizontal first.
func (v View) Axes() (string, string) {
	switch v {
	case ViewTop:
		return "X", "Z"
	case ViewSide:
		return "X", "Y"
	default:
		panic(fmt.Sprintf("cave: unknown view %d", int(v)))
	}
}

// ParseView maps "top" or "side" (case-insensitive) to a View.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return ViewTop, nil
	case "side":
		return ViewSide, nil
	default:
		return 0, fmt.Errorf("unknown view %q (want top or side)", s)
	}
}

// Project maps points onto the plane selected by view. The result has the
// same length and order as points; nothing is resampled or deduplicated.
func Project(points []Point3D, view View) []Point2D {
	out := make([]Point2D, len(points))
	switch view {
	case ViewTop:
		for i, p := range points {
			out[i] = Point2D{X: p.X, Y: p.Z}
		}
	case ViewSide:
		for i, p := range points {
			out[i] = Point2D{X: p.X, Y: p.Y}
		}
	default:
		panic(fmt.Sprintf("cave: unknown view %d", int(view)))
	}
	return out
}
