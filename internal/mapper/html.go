package mapper

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/paulmach/orb"

	"github.com/banshee-data/cavemap/internal/cave"
)

// echartsAssetsHost serves the echarts JavaScript for rendered pages.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderHTML writes m as a standalone go-echarts page with one interactive
// chart per panel.
func RenderHTML(w io.Writer, m *Map) error {
	if len(m.Panels) == 0 {
		return ErrNoPanels
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.PageTitle = m.Title
	for _, panel := range m.Panels {
		page.AddCharts(panelChart(m, panel))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func scatterData(pts []cave.Point2D) []opts.ScatterData {
	data := make([]opts.ScatterData, len(pts))
	for i, p := range pts {
		data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
	}
	return data
}

func lineData(pts []orb.Point) []opts.LineData {
	data := make([]opts.LineData, len(pts))
	for i, p := range pts {
		data[i] = opts.LineData{Value: []interface{}{p[0], p[1]}}
	}
	return data
}

func panelChart(m *Map, panel Panel) *charts.Scatter {
	b := panelBounds(panel).pad(boundsPadding).equalAspect(1)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: m.Title, Width: "800px", Height: "800px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: panel.Title, Subtitle: m.Title + "\n" + m.Summary}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: b.minX, Max: b.maxX, Name: panel.XLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: b.minY, Max: b.maxY, Name: panel.YLabel, NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("Walls", scatterData(panel.Wall),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "gray"}),
	)

	if len(panel.Labels) > 0 {
		notes := make([]opts.ScatterData, len(panel.Labels))
		for i, lb := range panel.Labels {
			notes[i] = opts.ScatterData{Name: lb.Text, Value: []interface{}{lb.At.X, lb.At.Y}}
		}
		scatter.AddSeries("Annotations", notes,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "black"}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}),
		)
	}

	lines := charts.NewLine()
	for _, ring := range boundaryLines(panel.Boundary) {
		lines.AddSeries("Wall Contour", lineData(ring),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: "blue", Width: 1}),
		)
	}
	if len(panel.Centerline) > 0 {
		center := make([]orb.Point, len(panel.Centerline))
		for i, p := range panel.Centerline {
			center[i] = orb.Point{p.X, p.Y}
		}
		lines.AddSeries("Centerline", lineData(center),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: "goldenrod", Width: 2}),
		)
	}
	scatter.Overlap(lines)
	return scatter
}

// boundaryLines returns every ring or line of the boundary as a polyline.
func boundaryLines(g orb.Geometry) [][]orb.Point {
	var out [][]orb.Point
	for _, poly := range polygons(g) {
		for _, r := range poly {
			out = append(out, r)
		}
	}
	if ls, ok := g.(orb.LineString); ok {
		out = append(out, ls)
	}
	return out
}
