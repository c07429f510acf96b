package mapper

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/config"
	"github.com/banshee-data/cavemap/internal/monitoring"
	"github.com/banshee-data/cavemap/internal/survey"
	"github.com/banshee-data/cavemap/internal/testutil"
)

// fixedSurvey is a hand-built survey with round-number metrics.
func fixedSurvey() *survey.Survey {
	square := orb.Polygon{orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}
	return &survey.Survey{
		RunID: "run-1",
		Name:  "Blue Hole",
		Metrics: cave.Metrics{
			CenterlinePoints: 2,
			WallPoints:       4,
			PathLength:       123.456,
			MaxDepth:         -30.48,
			HasMaxDepth:      true,
			Bearing:          90,
			HasBearing:       true,
		},
		Views: []survey.ViewResult{
			{
				View:       cave.ViewTop,
				Alpha:      0.2,
				Wall:       []cave.Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}},
				Centerline: []cave.Point2D{{X: 1, Y: 2}, {X: 3, Y: 2}},
				Shape:      cave.AlphaShapeReport{Geometry: square},
			},
			{
				View:       cave.ViewSide,
				Alpha:      0.2,
				Wall:       []cave.Point2D{{X: 0, Y: -1}, {X: 4, Y: -1}},
				Centerline: []cave.Point2D{{X: 1, Y: 0}, {X: 3, Y: 0}},
				Shape: cave.AlphaShapeReport{
					Geometry: orb.LineString{{0, -1}, {4, -1}},
					Fallback: cave.FallbackNoTriangulation,
				},
			},
		},
		Annotations: []survey.Annotation{
			{ID: 0, VertexIndex: 0, Text: "Sump", Position: cave.Point3D{X: 1, Y: -0.5, Z: 2}},
		},
	}
}

// passageSurvey runs the pipeline over the default synthetic passage.
func passageSurvey(t *testing.T) *survey.Survey {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
	monitoring.SetLogger(nil)

	s, err := survey.Run(testutil.DefaultPassage().Cloud(), survey.OptionsFromConfig("Test Passage", config.DefaultCaveConfig(), nil))
	require.NoError(t, err)
	return s
}

// ============================================================================
// Title and compass
// ============================================================================

func TestTitle(t *testing.T) {
	m := fixedSurvey().Metrics

	assert.Equal(t, "Blue Hole | Total Length: 123.46 m | Max Depth: 30.48 m", Title("Blue Hole", m, "m"))
	assert.Equal(t, "Blue Hole | Total Length: 405.04 ft | Max Depth: 100.00 ft", Title("Blue Hole", m, "ft"))

	m.HasMaxDepth = false
	assert.Equal(t, "Blue Hole | Total Length: 123.46 m | Max Depth: n/a", Title("Blue Hole", m, "m"))
}

func TestNewCompass(t *testing.T) {
	tests := []struct {
		bearing float64
		arrow   cave.Point2D
		label   string
	}{
		{0, cave.Point2D{X: 0, Y: 1}, "0°"},
		{90, cave.Point2D{X: 1, Y: 0}, "90°"},
		{180, cave.Point2D{X: 0, Y: -1}, "180°"},
		{36.87, cave.Point2D{X: 0.6, Y: 0.8}, "36°"},
		{359.9, cave.Point2D{X: math.Sin(359.9 * math.Pi / 180), Y: math.Cos(359.9 * math.Pi / 180)}, "359°"},
	}
	for _, tt := range tests {
		c := NewCompass(cave.Metrics{Bearing: tt.bearing, HasBearing: true})
		assert.True(t, c.Valid)
		assert.InDelta(t, tt.arrow.X, c.Arrow.X, 1e-4, "bearing %v", tt.bearing)
		assert.InDelta(t, tt.arrow.Y, c.Arrow.Y, 1e-4, "bearing %v", tt.bearing)
		assert.Equal(t, tt.label, c.Label)
	}

	c := NewCompass(cave.Metrics{})
	assert.False(t, c.Valid)
	assert.Equal(t, "n/a", c.Label)
}

// ============================================================================
// Assemble
// ============================================================================

func TestAssemble(t *testing.T) {
	m := Assemble(fixedSurvey(), "m")

	assert.Equal(t, "Blue Hole", m.Name)
	assert.Equal(t, "Blue_Hole", m.FileStem)
	assert.Equal(t, "Blue Hole | Total Length: 123.46 m | Max Depth: 30.48 m", m.Title)
	assert.Contains(t, m.Summary, "2 centerline points, 4 wall points")
	assert.Contains(t, m.Summary, "Bearing: 90.0°")
	assert.Contains(t, m.Summary, "1 annotations")
	assert.True(t, m.Compass.Valid)

	require.Len(t, m.Panels, 2)
	top, side := m.Panels[0], m.Panels[1]

	assert.Equal(t, "Top View (X-Z)", top.Title)
	assert.Equal(t, "X (m)", top.XLabel)
	assert.Equal(t, "Z (m)", top.YLabel)
	assert.Equal(t, "Side View (X-Y)", side.Title)
	assert.Equal(t, "Y (m)", side.YLabel)
	assert.Equal(t, cave.FallbackNoTriangulation, side.Fallback)

	require.Len(t, top.Labels, 1)
	assert.Equal(t, Label{At: cave.Point2D{X: 1, Y: 2}, Text: "Sump"}, top.Labels[0])
	assert.Equal(t, Label{At: cave.Point2D{X: 1, Y: -0.5}, Text: "Sump"}, side.Labels[0])
}

func TestAssemble_Feet(t *testing.T) {
	s := fixedSurvey()
	m := Assemble(s, "ft")

	assert.Equal(t, "ft", m.Unit)
	top := m.Panels[0]
	assert.Equal(t, "X (ft)", top.XLabel)
	assert.InDelta(t, 4/0.3048, top.Wall[1].X, 1e-9)

	poly, ok := top.Boundary.(orb.Polygon)
	require.True(t, ok)
	assert.InDelta(t, 4/0.3048, poly[0][1][0], 1e-9)

	// The survey geometry is left in metres.
	orig := s.Views[0].Boundary().(orb.Polygon)
	assert.Equal(t, 4.0, orig[0][1][0])
	assert.Equal(t, 4.0, s.Views[0].Wall[1].X)
}

func TestAssemble_UnknownUnitFallsBackToMetres(t *testing.T) {
	m := Assemble(fixedSurvey(), "furlong")
	assert.Equal(t, "m", m.Unit)
}

func TestAssemble_Passage(t *testing.T) {
	s := passageSurvey(t)
	m := Assemble(s, "m")

	require.Len(t, m.Panels, 2)
	assert.Equal(t, "Test Passage", m.Name)
	assert.Len(t, m.Panels[0].Wall, len(s.Points.Wall))
	assert.Len(t, polygons(m.Panels[0].Boundary), 1)
}

func TestScaleGeometry(t *testing.T) {
	k := 1 / 0.3048
	tests := []struct {
		name string
		in   orb.Geometry
		want orb.Geometry
	}{
		{"point", orb.Point{1, 2}, orb.Point{k, 2 * k}},
		{"line", orb.LineString{{0, 0}, {1, 0}}, orb.LineString{{0, 0}, {k, 0}}},
		{"multipolygon",
			orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}},
			orb.MultiPolygon{{{{0, 0}, {k, 0}, {k, k}, {0, 0}}}}},
		{"empty collection", orb.Collection{}, orb.Collection{}},
	}
	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scaleGeometry(tt.in, "ft")
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("scaleGeometry() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Nil(t, scaleGeometry(nil, "ft"))
}

// ============================================================================
// Bounds
// ============================================================================

func TestBounds(t *testing.T) {
	p := Panel{
		Wall:       []cave.Point2D{{X: 0, Y: 0}, {X: 10, Y: 2}},
		Centerline: []cave.Point2D{{X: 5, Y: 3}},
	}
	b := panelBounds(p)
	assert.Equal(t, bounds{minX: 0, maxX: 10, minY: 0, maxY: 3}, b)

	padded := b.pad(0.1)
	assert.Equal(t, bounds{minX: -1, maxX: 11, minY: -1, maxY: 4}, padded)

	// 12 x 5 on a square canvas widens Y to 12.
	sq := padded.equalAspect(1)
	assert.InDelta(t, 12, sq.maxY-sq.minY, 1e-9)
	assert.InDelta(t, 1.5, (sq.maxY+sq.minY)/2, 1e-9)
	assert.InDelta(t, 12, sq.maxX-sq.minX, 1e-9)

	// On a 4:1 canvas X widens to 20.
	wide := padded.equalAspect(4)
	assert.InDelta(t, 20, wide.maxX-wide.minX, 1e-9)
	assert.InDelta(t, 5, wide.maxY-wide.minY, 1e-9)
}

func TestBounds_Degenerate(t *testing.T) {
	assert.Equal(t, bounds{minX: -1, maxX: 1, minY: -1, maxY: 1}, panelBounds(Panel{}))

	b := panelBounds(Panel{Wall: []cave.Point2D{{X: 2, Y: 3}}}).pad(0)
	assert.Equal(t, bounds{minX: 1.5, maxX: 2.5, minY: 2.5, maxY: 3.5}, b)
}
