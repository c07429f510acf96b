package cave

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// PathLength returns the length of the centerline polyline in input order.
// Fewer than two points give 0.
func PathLength(centerline []Point3D) float64 {
	if len(centerline) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(centerline); i++ {
		total += r3.Norm(r3.Sub(centerline[i], centerline[i-1]))
	}
	return total
}

// MaxDepth returns the lowest Z among wall points. Deeper is more negative.
func MaxDepth(wall []Point3D) (float64, error) {
	if len(wall) == 0 {
		return 0, fmt.Errorf("max depth: %w: no wall points", ErrInsufficientData)
	}
	zs := make([]float64, len(wall))
	for i, p := range wall {
		zs[i] = p.Z
	}
	return floats.Min(zs), nil
}

// Bearing returns the compass heading in degrees [0, 360) of the vector from
// the first to the last centerline point, measured in the X-Z plane with
// +Z as north and +X as east.
func Bearing(centerline []Point3D) (float64, error) {
	if len(centerline) < 2 {
		return 0, fmt.Errorf("bearing: %w: need 2 centerline points, have %d", ErrInsufficientData, len(centerline))
	}
	v := r3.Sub(centerline[len(centerline)-1], centerline[0])
	deg := math.Atan2(v.X, v.Z) * 180 / math.Pi
	return math.Mod(deg+360, 360), nil
}

// Metrics summarises one classified survey. Depth and bearing are optional:
// HasMaxDepth and HasBearing report whether they were computable.
type Metrics struct {
	CenterlinePoints int
	WallPoints       int
	PathLength       float64 // metres

	MaxDepth    float64 // metres, most negative wall Z
	HasMaxDepth bool

	Bearing    float64 // degrees [0, 360)
	HasBearing bool
}

// ComputeMetrics derives every metric it can from cp. Metrics that need more
// points than are available are left unset and reported in the error slice.
func ComputeMetrics(cp ClassifiedPoints) (Metrics, []error) {
	m := Metrics{
		CenterlinePoints: len(cp.Centerline),
		WallPoints:       len(cp.Wall),
		PathLength:       PathLength(cp.Centerline),
	}

	var errs []error
	if d, err := MaxDepth(cp.Wall); err != nil {
		errs = append(errs, err)
	} else {
		m.MaxDepth, m.HasMaxDepth = d, true
	}
	if b, err := Bearing(cp.Centerline); err != nil {
		errs = append(errs, err)
	} else {
		m.Bearing, m.HasBearing = b, true
	}
	return m, errs
}
