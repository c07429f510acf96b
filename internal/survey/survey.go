package survey

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/cave/ply"
	"github.com/banshee-data/cavemap/internal/config"
	"github.com/banshee-data/cavemap/internal/monitoring"
)

// ErrNoViews is returned when Options requests no views.
var ErrNoViews = errors.New("survey: no views requested")

// ViewOption selects one map view and the alpha used for its boundary.
type ViewOption struct {
	View  cave.View
	Alpha float64
}

// Options configures one Run.
type Options struct {
	Name        string
	Views       []ViewOption
	Annotations []ply.Annotation
}

// OptionsFromConfig builds Options for name from cfg. A nil cfg uses the
// built-in defaults.
func OptionsFromConfig(name string, cfg *config.CaveConfig, annotations []ply.Annotation) Options {
	if cfg == nil {
		cfg = config.EmptyCaveConfig()
	}
	opts := Options{Name: name, Annotations: annotations}
	for _, v := range cfg.GetViews() {
		opts.Views = append(opts.Views, ViewOption{View: v, Alpha: cfg.GetAlpha(v)})
	}
	return opts
}

// ViewResult is the projected geometry of one view.
type ViewResult struct {
	View       cave.View
	Alpha      float64
	Wall       []cave.Point2D // projected wall points
	Centerline []cave.Point2D // projected centerline, survey order
	Shape      cave.AlphaShapeReport
	Elapsed    time.Duration
}

// Boundary returns the alpha-shape geometry of the view.
func (v ViewResult) Boundary() orb.Geometry {
	return v.Shape.Geometry
}

// Annotation is a note resolved to the position of the vertex it was
// attached to.
type Annotation struct {
	ID          int
	VertexIndex int
	Text        string
	Position    cave.Point3D
}

// Survey is the result of one pipeline run.
type Survey struct {
	RunID        string
	Name         string
	CreatedAt    time.Time
	Points       cave.ClassifiedPoints
	Views        []ViewResult
	Metrics      cave.Metrics
	MetricErrors []error
	Annotations  []Annotation
	Elapsed      time.Duration
}

// View returns the result for v, if it was computed.
func (s *Survey) View(v cave.View) (ViewResult, bool) {
	for _, vr := range s.Views {
		if vr.View == v {
			return vr, true
		}
	}
	return ViewResult{}, false
}

// Run executes the pipeline on cloud.
//
// Algorithm:
//  1. Validate the cloud and view options
//  2. Classify points into centerline and wall
//  3. Per view: project both sets and build the wall alpha shape
//  4. Compute metrics; insufficient data is recorded, not fatal
//  5. Resolve annotations to vertex positions
func Run(cloud cave.PointCloud, opts Options) (*Survey, error) {
	if err := cloud.Validate(); err != nil {
		return nil, fmt.Errorf("survey: %w", err)
	}
	if len(opts.Views) == 0 {
		return nil, ErrNoViews
	}

	s := &Survey{
		RunID:     uuid.New().String(),
		Name:      opts.Name,
		CreatedAt: time.Now(),
	}
	done := monitoring.Stage(s.RunID, "survey")
	monitoring.Logf("[survey %s] started for %q with %d points", s.RunID, s.Name, cloud.Len())

	stop := monitoring.Stage(s.RunID, "classify")
	cp, err := cave.Classify(cloud)
	stop()
	if err != nil {
		return nil, fmt.Errorf("survey: %w", err)
	}
	s.Points = cp
	monitoring.Logf("[survey %s] %d centerline, %d wall points", s.RunID, len(cp.Centerline), len(cp.Wall))

	for _, vo := range opts.Views {
		vr, err := runView(s.RunID, cp, vo)
		if err != nil {
			return nil, err
		}
		s.Views = append(s.Views, vr)
	}

	s.Metrics, s.MetricErrors = cave.ComputeMetrics(cp)
	for _, merr := range s.MetricErrors {
		monitoring.Logf("[survey %s] metric unavailable: %v", s.RunID, merr)
	}

	s.Annotations = resolveAnnotations(s.RunID, cloud, opts.Annotations)
	s.Elapsed = done()
	return s, nil
}

func runView(runID string, cp cave.ClassifiedPoints, vo ViewOption) (ViewResult, error) {
	stop := monitoring.Stage(runID, "alpha shape "+vo.View.String())

	vr := ViewResult{
		View:       vo.View,
		Alpha:      vo.Alpha,
		Wall:       cave.Project(cp.Wall, vo.View),
		Centerline: cave.Project(cp.Centerline, vo.View),
	}
	rep, err := cave.BuildAlphaShape(vr.Wall, vo.Alpha)
	vr.Elapsed = stop()
	if err != nil {
		return ViewResult{}, fmt.Errorf("survey: %s view: %w", vo.View, err)
	}
	vr.Shape = rep

	if rep.Fallback != cave.FallbackNone {
		monitoring.Logf("[survey %s] %s view: using convex hull (%s)", runID, vo.View, rep.Fallback)
	} else {
		monitoring.Logf("[survey %s] %s view: kept %d/%d triangles, %d rings", runID, vo.View, rep.Kept, rep.Triangles, rep.Rings)
	}
	return vr, nil
}

func resolveAnnotations(runID string, cloud cave.PointCloud, in []ply.Annotation) []Annotation {
	var out []Annotation
	for _, a := range in {
		if a.VertexIndex < 0 || a.VertexIndex >= cloud.Len() {
			monitoring.Logf("[survey %s] dropping annotation %d: vertex %d out of range", runID, a.ID, a.VertexIndex)
			continue
		}
		out = append(out, Annotation{
			ID:          a.ID,
			VertexIndex: a.VertexIndex,
			Text:        a.Text,
			Position:    cloud.Points[a.VertexIndex],
		})
	}
	return out
}
