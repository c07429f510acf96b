package mapper

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/config"
	"github.com/banshee-data/cavemap/internal/survey"
)

// ============================================================================
// gonum/plot rendering
// ============================================================================

func TestRender_Formats(t *testing.T) {
	m := Assemble(passageSurvey(t), "m")

	tests := []struct {
		format string
		check  func(string) bool
	}{
		{"png", func(out string) bool { return strings.HasPrefix(out, "\x89PNG") }},
		{"svg", func(out string) bool { return strings.Contains(out, "<svg") }},
		{"pdf", func(out string) bool { return strings.HasPrefix(out, "%PDF") }},
		{"PDF", func(out string) bool { return strings.HasPrefix(out, "%PDF") }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, m, tt.format, 8, 4))
			assert.True(t, tt.check(buf.String()), "unexpected %s output of %d bytes", tt.format, buf.Len())
		})
	}
}

func TestRender_DegenerateBoundaries(t *testing.T) {
	s := fixedSurvey()
	s.Views = append(s.Views, survey.ViewResult{
		View:  cave.ViewTop,
		Wall:  []cave.Point2D{{X: 1, Y: 1}},
		Shape: cave.AlphaShapeReport{Geometry: orb.Point{1, 1}, Fallback: cave.FallbackTooFewPoints},
	}, survey.ViewResult{
		View:  cave.ViewSide,
		Shape: cave.AlphaShapeReport{Geometry: orb.Collection{}, Fallback: cave.FallbackTooFewPoints},
	})
	m := Assemble(s, "m")

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, m, "svg", 12, 4))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "Compass")
}

func TestRender_NoCompassWithoutBearing(t *testing.T) {
	s := fixedSurvey()
	s.Metrics.HasBearing = false
	m := Assemble(s, "m")
	require.False(t, m.Compass.Valid)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, m, "svg", 8, 4))
	assert.NotContains(t, buf.String(), "Compass")
}

func TestRender_Errors(t *testing.T) {
	m := Assemble(fixedSurvey(), "m")

	err := Render(&bytes.Buffer{}, m, "jpeg", 8, 4)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)

	err = Render(&bytes.Buffer{}, &Map{}, "png", 8, 4)
	assert.True(t, errors.Is(err, ErrNoPanels), "got %v", err)

	err = Render(&bytes.Buffer{}, m, "png", 0, 4)
	assert.Error(t, err)
}

func TestRender_EveryConfigFormat(t *testing.T) {
	m := Assemble(passageSurvey(t), "m")
	for _, format := range config.SupportedFormats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, m, format, 8, 4))
			assert.NotZero(t, buf.Len())

			cfg := &config.CaveConfig{Formats: []string{format}}
			assert.NoError(t, cfg.Validate())
		})
	}
}

// ============================================================================
// go-echarts rendering
// ============================================================================

func TestRenderHTML(t *testing.T) {
	m := Assemble(fixedSurvey(), "m")

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, m))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Top View (X-Z)")
	assert.Contains(t, html, "Side View (X-Y)")
	assert.Contains(t, html, "Wall Contour")
	assert.Contains(t, html, "Sump")

	assert.True(t, errors.Is(RenderHTML(&bytes.Buffer{}, &Map{}), ErrNoPanels))
}

func TestBoundaryLines(t *testing.T) {
	hole := orb.Polygon{
		{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}},
		{{1, 1}, {1, 2}, {2, 2}, {1, 1}},
	}
	assert.Len(t, boundaryLines(hole), 2)
	assert.Len(t, boundaryLines(orb.MultiPolygon{hole, hole}), 4)
	assert.Len(t, boundaryLines(orb.LineString{{0, 0}, {1, 1}}), 1)
	assert.Empty(t, boundaryLines(orb.Point{1, 1}))
	assert.Empty(t, boundaryLines(nil))
}

// ============================================================================
// GeoJSON
// ============================================================================

func TestWriteGeoJSON(t *testing.T) {
	s := fixedSurvey()

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, s))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)

	// survey + (boundary, centerline) per view + one annotation
	require.Len(t, fc.Features, 1+2*len(s.Views)+1)

	summary := fc.Features[0]
	assert.Equal(t, KindSurvey, summary.Properties.MustString("kind"))
	assert.Equal(t, "Blue Hole", summary.Properties.MustString("name"))
	assert.Equal(t, "run-1", summary.Properties.MustString("run_id"))
	assert.InDelta(t, -30.48, summary.Properties.MustFloat64("max_depth_m"), 1e-9)
	assert.InDelta(t, 90, summary.Properties.MustFloat64("bearing_deg"), 1e-9)
	assert.Equal(t, orb.Point{1, 2}, summary.Geometry)

	top := fc.Features[1]
	assert.Equal(t, KindBoundary, top.Properties.MustString("kind"))
	assert.Equal(t, "top", top.Properties.MustString("view"))
	assert.Equal(t, "none", top.Properties.MustString("fallback"))
	_, ok := top.Geometry.(orb.Polygon)
	assert.True(t, ok, "top boundary decoded as %T", top.Geometry)

	center := fc.Features[2]
	assert.Equal(t, KindCenterline, center.Properties.MustString("kind"))
	assert.Equal(t, orb.LineString{{1, 2}, {3, 2}}, center.Geometry)

	side := fc.Features[3]
	assert.Equal(t, "no-triangulation", side.Properties.MustString("fallback"))

	note := fc.Features[5]
	assert.Equal(t, KindAnnotation, note.Properties.MustString("kind"))
	assert.Equal(t, "Sump", note.Properties.MustString("text"))
	assert.Equal(t, orb.Point{1, 2}, note.Geometry)
}

func TestWriteGeoJSON_NoMetrics(t *testing.T) {
	s := &survey.Survey{Name: ""}

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, s))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Unnamed Cave", fc.Features[0].Properties.MustString("name"))
	_, has := fc.Features[0].Properties["max_depth_m"]
	assert.False(t, has)
}
