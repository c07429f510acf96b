package mapper

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/config"
)

var (
	// ErrUnsupportedFormat is returned by Render for formats other than Formats.
	ErrUnsupportedFormat = errors.New("unsupported map format")
	// ErrNoPanels is returned when a Map has nothing to draw.
	ErrNoPanels = errors.New("map has no panels")
)

// Formats lists the formats Render can write. Config validation accepts
// the same list.
var Formats = config.SupportedFormats

var (
	wallColor       = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	centerlineColor = color.RGBA{R: 218, G: 165, B: 32, A: 255}
	contourColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	contourFill     = color.NRGBA{R: 31, G: 119, B: 180, A: 40}
	compassColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	labelColor      = color.RGBA{R: 60, G: 60, B: 60, A: 255}
)

// Figure layout.
var (
	titleBand     = vg.Points(36)
	tilePad       = vg.Points(10)
	tileGap       = vg.Points(28)
	compassSize   = vg.Inch
	compassLeft   = 0.7 * vg.Inch
	compassTop    = 0.4 * vg.Inch
	boundsPadding = 0.05
)

func isFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Render draws m as a single figure of widthIn x heightIn inches: the title
// across the top, the panels side by side with equal-aspect axes and the
// compass inset over the first panel.
func Render(w io.Writer, m *Map, format string, widthIn, heightIn float64) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if !isFormat(format) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if len(m.Panels) == 0 {
		return ErrNoPanels
	}
	if !(widthIn > 0) || !(heightIn > 0) {
		return fmt.Errorf("render: invalid figure size %vx%v in", widthIn, heightIn)
	}

	width, height := vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch
	c, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	dc := draw.New(c)

	header := plot.New()
	header.Title.Text = m.Title
	header.Title.TextStyle.Font.Size = vg.Points(14)
	header.HideAxes()
	header.Draw(dc)

	area := draw.Crop(dc, 0, 0, 0, -titleBand)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(m.Panels),
		PadTop:    tilePad,
		PadBottom: tilePad,
		PadLeft:   tilePad,
		PadRight:  tilePad,
		PadX:      tileGap,
	}
	n := vg.Length(len(m.Panels))
	tileW := (width - 2*tilePad - (n-1)*tileGap) / n
	tileH := height - titleBand - 2*tilePad
	ratio := float64(tileW / tileH)

	row := make([]*plot.Plot, len(m.Panels))
	for i, panel := range m.Panels {
		p, err := panelPlot(panel, ratio)
		if err != nil {
			return fmt.Errorf("render %s panel: %w", panel.View, err)
		}
		row[i] = p
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, area)
	for i, p := range row {
		p.Draw(canvases[0][i])
	}

	if m.Compass.Valid {
		if err := drawCompass(canvases[0][0], m.Compass); err != nil {
			return fmt.Errorf("render compass: %w", err)
		}
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("render: write %s: %w", format, err)
	}
	return nil
}

func toXYs(pts []cave.Point2D) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return xys
}

func orbXYs(pts []orb.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p[0], Y: p[1]}
	}
	return xys
}

func panelPlot(panel Panel, ratio float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = panel.XLabel
	p.Y.Label.Text = panel.YLabel
	p.Legend.Top = true

	if len(panel.Wall) > 0 {
		s, err := plotter.NewScatter(toXYs(panel.Wall))
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = wallColor
		s.GlyphStyle.Radius = vg.Points(0.6)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add("Walls", s)
	}

	if err := addBoundary(p, panel.Boundary); err != nil {
		return nil, err
	}

	if len(panel.Centerline) > 0 {
		l, err := plotter.NewLine(toXYs(panel.Centerline))
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = centerlineColor
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add("Centerline", l)
	}

	if len(panel.Labels) > 0 {
		xys := make(plotter.XYs, len(panel.Labels))
		texts := make([]string, len(panel.Labels))
		for i, lb := range panel.Labels {
			xys[i] = plotter.XY{X: lb.At.X, Y: lb.At.Y}
			texts[i] = lb.Text
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Color = labelColor
			labels.TextStyle[i].Font.Size = vg.Points(7)
		}
		labels.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}
		p.Add(labels)
	}

	b := panelBounds(panel).pad(boundsPadding).equalAspect(ratio)
	p.X.Min, p.X.Max = b.minX, b.maxX
	p.Y.Min, p.Y.Max = b.minY, b.maxY
	return p, nil
}

// addBoundary draws the alpha shape. Polygons are filled with their holes
// cut out; the degenerate hull forms are drawn as a line or a marker.
func addBoundary(p *plot.Plot, g orb.Geometry) error {
	for _, poly := range polygons(g) {
		rings := make([]plotter.XYer, len(poly))
		for i, r := range poly {
			rings[i] = orbXYs(r)
		}
		fill, err := plotter.NewPolygon(rings...)
		if err != nil {
			return err
		}
		fill.Color = contourFill
		fill.LineStyle.Color = contourColor
		fill.LineStyle.Width = vg.Points(1)
		p.Add(fill)
		p.Legend.Add("Wall Contour", fill)
	}

	switch g := g.(type) {
	case orb.LineString:
		l, err := plotter.NewLine(orbXYs(g))
		if err != nil {
			return err
		}
		l.LineStyle.Color = contourColor
		l.LineStyle.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add("Wall Contour", l)
	case orb.Point:
		s, err := plotter.NewScatter(plotter.XYs{{X: g[0], Y: g[1]}})
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = contourColor
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
	}
	return nil
}

// drawCompass draws the heading arrow, "N" and the bearing label in a
// square inset near the top-left corner of c.
func drawCompass(c draw.Canvas, cp Compass) error {
	w := c.Max.X - c.Min.X
	h := c.Max.Y - c.Min.Y
	inset := draw.Crop(c, compassLeft, -(w - compassLeft - compassSize), h-compassTop-compassSize, -compassTop)

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent
	p.Title.Text = "Compass"
	p.Title.TextStyle.Font.Size = vg.Points(9)
	p.X.Min, p.X.Max = -1.5, 1.5
	p.Y.Min, p.Y.Max = -1.5, 1.5

	dx, dy := cp.Arrow.X, cp.Arrow.Y
	shaft, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 0.7 * dx, Y: 0.7 * dy}})
	if err != nil {
		return err
	}
	shaft.LineStyle.Color = compassColor
	shaft.LineStyle.Width = vg.Points(2)

	// Head: tip at the unit vector, base 0.3 back, 0.2 wide.
	px, py := -dy, dx
	head, err := plotter.NewPolygon(plotter.XYs{
		{X: dx, Y: dy},
		{X: 0.7*dx + 0.1*px, Y: 0.7*dy + 0.1*py},
		{X: 0.7*dx - 0.1*px, Y: 0.7*dy - 0.1*py},
	})
	if err != nil {
		return err
	}
	head.Color = compassColor
	head.LineStyle.Color = compassColor

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0, Y: 1.2}, {X: 0, Y: -1.2}},
		Labels: []string{"N", cp.Label},
	})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	labels.TextStyle[0].Color = compassColor
	labels.TextStyle[0].Font.Size = vg.Points(10)
	labels.TextStyle[1].Font.Size = vg.Points(8)

	p.Add(shaft, head, labels)
	p.Draw(inset)
	return nil
}

// bounds is an axis-aligned data window.
type bounds struct {
	minX, maxX, minY, maxY float64
}

// panelBounds covers the wall, centerline and label points. The boundary
// lies inside the hull of the wall points and is not visited.
func panelBounds(p Panel) bounds {
	b := bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
	extend := func(pt cave.Point2D) {
		b.minX = math.Min(b.minX, pt.X)
		b.maxX = math.Max(b.maxX, pt.X)
		b.minY = math.Min(b.minY, pt.Y)
		b.maxY = math.Max(b.maxY, pt.Y)
	}
	for _, pt := range p.Wall {
		extend(pt)
	}
	for _, pt := range p.Centerline {
		extend(pt)
	}
	for _, lb := range p.Labels {
		extend(lb.At)
	}
	if b.minX > b.maxX {
		return bounds{minX: -1, maxX: 1, minY: -1, maxY: 1}
	}
	return b
}

// pad grows each side by frac of the larger span. Zero spans become 1.
func (b bounds) pad(frac float64) bounds {
	span := math.Max(b.maxX-b.minX, b.maxY-b.minY)
	if span == 0 {
		span = 1
	}
	d := span * frac
	if b.maxX == b.minX {
		b.minX, b.maxX = b.minX-span/2, b.maxX+span/2
	}
	if b.maxY == b.minY {
		b.minY, b.maxY = b.minY-span/2, b.maxY+span/2
	}
	return bounds{minX: b.minX - d, maxX: b.maxX + d, minY: b.minY - d, maxY: b.maxY + d}
}

// equalAspect widens the narrower axis about its centre so one data unit
// covers the same length on both axes of a ratio (width/height) canvas.
func (b bounds) equalAspect(ratio float64) bounds {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return b
	}
	w, h := b.maxX-b.minX, b.maxY-b.minY
	if w/h < ratio {
		cx, half := (b.minX+b.maxX)/2, h*ratio/2
		b.minX, b.maxX = cx-half, cx+half
	} else {
		cy, half := (b.minY+b.maxY)/2, w/ratio/2
		b.minY, b.maxY = cy-half, cy+half
	}
	return b
}
