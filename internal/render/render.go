// Package render draws a Web Mercator dataset into a layered Figure and
// composites a tile basemap underneath it.
package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"basemap/internal/config"
	"basemap/internal/geom"
)

// point sizes for the data layer
const (
	pointRadius = 5.0
	pointEdge   = 1.0
)

// New draws ds onto a fresh Figure: the vector layer from the features and
// the overlay with grid, labels, legend, scale bar and north arrow.
// ds must be in Web Mercator so it lines up with the tiles.
func New(ds *geom.Dataset, style config.Style) (*Figure, error) {
	if !ds.CRS.Equal(geom.WebMercator) {
		return nil, fmt.Errorf("%w: render needs %s, got %s", geom.ErrUnsupportedCRS, geom.WebMercator, ds.CRS)
	}
	w, h := style.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", w, h)
	}
	fonts, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	f := newFigure(ds.Name, w, h, style.DPI, fonts)
	f.Transparent = style.Transparent
	aspect := float64(f.Plot.Dx()) / float64(f.Plot.Dy())
	f.Extent = fitExtent(ds.Bound(), style.Padding, aspect)

	p := newPaint(f, style)
	for _, ft := range ds.Features {
		if ft.Geometry == nil {
			continue
		}
		if err := p.geometry(ft.Geometry); err != nil {
			f.Close()
			return nil, fmt.Errorf("draw feature: %w", err)
		}
	}
	if err := drawOverlay(f, style, Title(ds.Name, style.Title)); err != nil {
		f.Close()
		return nil, fmt.Errorf("draw overlay: %w", err)
	}
	return f, nil
}

// Title is the explicit title, or the dataset name with underscores
// turned into spaces and every word capitalised.
func Title(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " "))
}

type paint struct {
	f     *Figure
	dc    *gg.Context
	fill  gg.RGBA
	edge  gg.RGBA
	width float64
}

func newPaint(f *Figure, style config.Style) *paint {
	return &paint{
		f:     f,
		dc:    f.vector,
		fill:  withAlpha(style.Fill(), style.FillAlpha),
		edge:  withAlpha(style.Edge(), float64(style.Edge().A)/255),
		width: f.px(style.LineWidth),
	}
}

func withAlpha(c color.NRGBA, a float64) gg.RGBA {
	return gg.RGBA{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: a}
}

func (p *paint) geometry(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Point:
		return p.point(g)
	case orb.MultiPoint:
		for _, pt := range g {
			if err := p.point(pt); err != nil {
				return err
			}
		}
	case orb.LineString:
		return p.line(g)
	case orb.MultiLineString:
		for _, ls := range g {
			if err := p.line(ls); err != nil {
				return err
			}
		}
	case orb.Ring:
		return p.polygon(orb.Polygon{g})
	case orb.Polygon:
		return p.polygon(g)
	case orb.MultiPolygon:
		for _, poly := range g {
			if err := p.polygon(poly); err != nil {
				return err
			}
		}
	case orb.Collection:
		for _, c := range g {
			if err := p.geometry(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *paint) path(pts []orb.Point) {
	for i, pt := range pts {
		x, y := p.f.toPlot(pt)
		if i == 0 {
			p.dc.MoveTo(x, y)
		} else {
			p.dc.LineTo(x, y)
		}
	}
}

func (p *paint) polygon(poly orb.Polygon) error {
	p.dc.ClearPath()
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		p.path(ring)
		p.dc.ClosePath()
	}
	p.dc.SetFillRule(gg.FillRuleEvenOdd)
	use(p.dc, p.fill)
	if p.width <= 0 {
		return p.dc.Fill()
	}
	if err := p.dc.FillPreserve(); err != nil {
		return err
	}
	use(p.dc, p.edge)
	p.dc.SetLineWidth(p.width)
	p.dc.SetLineJoin(gg.LineJoinRound)
	return p.dc.Stroke()
}

func (p *paint) line(ls orb.LineString) error {
	if len(ls) < 2 || p.width <= 0 {
		return nil
	}
	p.dc.ClearPath()
	p.path(ls)
	use(p.dc, p.edge)
	p.dc.SetLineWidth(p.width)
	p.dc.SetLineCap(gg.LineCapRound)
	p.dc.SetLineJoin(gg.LineJoinRound)
	return p.dc.Stroke()
}

func (p *paint) point(pt orb.Point) error {
	x, y := p.f.toPlot(pt)
	p.dc.ClearPath()
	p.dc.DrawCircle(x, y, p.f.px(pointRadius))
	use(p.dc, p.fill)
	if err := p.dc.FillPreserve(); err != nil {
		return err
	}
	use(p.dc, p.edge)
	p.dc.SetLineWidth(p.f.px(pointEdge))
	return p.dc.Stroke()
}

func use(dc *gg.Context, c gg.RGBA) { dc.SetRGBA(c.R, c.G, c.B, c.A) }
