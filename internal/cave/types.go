package cave

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point3D is a survey sample position in the capture frame (metres).
// Y is up in the capture convention; Z is depth-forward.
type Point3D = r3.Vec

// Point2D is a Point3D projected onto one of the map planes.
type Point2D = r2.Vec

// Color holds normalised RGB channels in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	// ErrLengthMismatch is returned when a PointCloud has a different
	// number of points and colours.
	ErrLengthMismatch = errors.New("point cloud points and colors differ in length")

	// ErrInsufficientData is returned by metrics that need more points than
	// they were given.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidAlpha is returned by AlphaShape for alpha <= 0, NaN or Inf.
	ErrInvalidAlpha = errors.New("alpha must be a finite value greater than zero")
)

// PointCloud pairs every point with its colour. Order is preserved from the
// capture file but carries no meaning for the geometry.
type PointCloud struct {
	Points []Point3D
	Colors []Color
}

// Len returns the number of samples in the cloud.
func (pc PointCloud) Len() int {
	return len(pc.Points)
}

// Validate checks the one structural invariant of a PointCloud.
func (pc PointCloud) Validate() error {
	if len(pc.Points) != len(pc.Colors) {
		return fmt.Errorf("%w: %d points, %d colors", ErrLengthMismatch, len(pc.Points), len(pc.Colors))
	}
	return nil
}

// ClassifiedPoints is a partition of a PointCloud's points. Each input point
// lands in exactly one of the two slices, in input order.
type ClassifiedPoints struct {
	Centerline []Point3D // guideline markers
	Wall       []Point3D // boundary survey points
}

// Total returns len(Centerline) + len(Wall).
func (cp ClassifiedPoints) Total() int {
	return len(cp.Centerline) + len(cp.Wall)
}
