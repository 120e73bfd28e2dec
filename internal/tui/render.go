package tui

import (
	"math"
	"strings"

	"github.com/paulmach/orb"

	"basemap/internal/geom"
)

// dotMapper fits a bound into a w x h cell area at one scale on both axes,
// centred, north up.
type dotMapper struct {
	b      orb.Bound
	scale  float64
	ox, oy float64
}

func newDotMapper(b orb.Bound, w, h int) (dotMapper, bool) {
	bw, bh := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	if w <= 0 || h <= 0 || (bw <= 0 && bh <= 0) {
		return dotMapper{}, false
	}
	dw, dh := float64(w*2-1), float64(h*4-1)
	scale := math.Inf(1)
	if bw > 0 {
		scale = dw / bw
	}
	if bh > 0 {
		scale = math.Min(scale, dh/bh)
	}
	return dotMapper{
		b:     b,
		scale: scale,
		ox:    (dw - bw*scale) / 2,
		oy:    (dh - bh*scale) / 2,
	}, true
}

func (dm dotMapper) at(p orb.Point) [2]int {
	x := dm.ox + (p[0]-dm.b.Min[0])*dm.scale
	y := dm.oy + (dm.b.Max[1]-p[1])*dm.scale
	return [2]int{int(math.Round(x)), int(math.Round(y))}
}

// renderPreview draws ds as braille art in a w x h cell area.
func renderPreview(ds *geom.Dataset, w, h int) string {
	if ds == nil || w <= 0 || h <= 0 {
		return ""
	}
	d := newDots(w, h)
	dm, ok := newDotMapper(ds.Bound(), w, h)
	if !ok {
		// a lone point or an empty file: mark the centre
		if ds.Counts().Points > 0 {
			d.set(w, h*2)
		}
		return strings.Join(d.rows(), "\n")
	}
	for _, f := range ds.Features {
		drawGeometry(d, dm, f.Geometry)
	}
	return strings.Join(d.rows(), "\n")
}

func drawGeometry(d *dots, dm dotMapper, g orb.Geometry) {
	switch g := g.(type) {
	case orb.Point:
		p := dm.at(g)
		d.set(p[0], p[1])
	case orb.MultiPoint:
		for _, p := range g {
			drawGeometry(d, dm, p)
		}
	case orb.LineString:
		drawPath(d, dm, g, false)
	case orb.MultiLineString:
		for _, ls := range g {
			drawPath(d, dm, ls, false)
		}
	case orb.Polygon:
		rings := make([][][2]int, 0, len(g))
		for _, r := range g {
			pts := make([][2]int, len(r))
			for i, p := range r {
				pts[i] = dm.at(p)
			}
			rings = append(rings, pts)
		}
		d.fill(rings)
		for _, r := range g {
			drawPath(d, dm, orb.LineString(r), true)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			drawGeometry(d, dm, p)
		}
	}
}

func drawPath(d *dots, dm dotMapper, ls orb.LineString, closed bool) {
	for i := 1; i < len(ls); i++ {
		a, b := dm.at(ls[i-1]), dm.at(ls[i])
		d.line(a[0], a[1], b[0], b[1])
	}
	if closed && len(ls) > 2 {
		a, b := dm.at(ls[len(ls)-1]), dm.at(ls[0])
		d.line(a[0], a[1], b[0], b[1])
	}
}
