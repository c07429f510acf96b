package mapper

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/survey"
)

// Feature kinds written to the "kind" property.
const (
	KindSurvey     = "survey"
	KindBoundary   = "boundary"
	KindCenterline = "centerline"
	KindAnnotation = "annotation"
)

// FeatureCollection exports s in local survey coordinates (metres, not
// longitude/latitude): a survey summary feature at the first station, then
// the boundary and centerline of each view, then one point per annotation
// in the first view.
func FeatureCollection(s *survey.Survey) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	origin := orb.Point{}
	if len(s.Views) > 0 && len(s.Views[0].Centerline) > 0 {
		c := s.Views[0].Centerline[0]
		origin = orb.Point{c.X, c.Y}
	}
	summary := geojson.NewFeature(origin)
	summary.Properties["kind"] = KindSurvey
	summary.Properties["name"] = DisplayName(s.Name)
	summary.Properties["run_id"] = s.RunID
	summary.Properties["path_length_m"] = s.Metrics.PathLength
	summary.Properties["centerline_points"] = s.Metrics.CenterlinePoints
	summary.Properties["wall_points"] = s.Metrics.WallPoints
	if s.Metrics.HasMaxDepth {
		summary.Properties["max_depth_m"] = s.Metrics.MaxDepth
	}
	if s.Metrics.HasBearing {
		summary.Properties["bearing_deg"] = s.Metrics.Bearing
	}
	fc.Append(summary)

	for _, vr := range s.Views {
		boundary := geojson.NewFeature(vr.Boundary())
		boundary.Properties["kind"] = KindBoundary
		boundary.Properties["view"] = vr.View.String()
		boundary.Properties["alpha"] = vr.Alpha
		boundary.Properties["fallback"] = vr.Shape.Fallback.String()
		fc.Append(boundary)

		line := make(orb.LineString, len(vr.Centerline))
		for i, p := range vr.Centerline {
			line[i] = orb.Point{p.X, p.Y}
		}
		center := geojson.NewFeature(line)
		center.Properties["kind"] = KindCenterline
		center.Properties["view"] = vr.View.String()
		fc.Append(center)
	}

	if len(s.Views) > 0 {
		view := s.Views[0].View
		for _, a := range s.Annotations {
			at := cave.Project([]cave.Point3D{a.Position}, view)[0]
			f := geojson.NewFeature(orb.Point{at.X, at.Y})
			f.Properties["kind"] = KindAnnotation
			f.Properties["view"] = view.String()
			f.Properties["text"] = a.Text
			f.Properties["vertex_index"] = a.VertexIndex
			fc.Append(f)
		}
	}
	return fc
}

// WriteGeoJSON writes FeatureCollection(s) to w.
func WriteGeoJSON(w io.Writer, s *survey.Survey) error {
	data, err := FeatureCollection(s).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
