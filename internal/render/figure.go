package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
)

// ErrClosed is returned when a closed Figure is drawn on or read.
var ErrClosed = errors.New("figure closed")

// fractions of the canvas kept free around the axes
const (
	marginLeft   = 0.11
	marginRight  = 0.04
	marginTop    = 0.07
	marginBottom = 0.09
)

// Figure is a rendered map in three layers: the tile basemap, the vector
// data and the cartographic overlay. The basemap and vector layers cover
// Plot only; the overlay covers the whole canvas.
type Figure struct {
	Name        string
	Width       int
	Height      int
	DPI         float64
	Plot        image.Rectangle
	Extent      orb.Bound // Web Mercator metres shown inside Plot
	Transparent bool

	base        *image.RGBA
	attribution string
	vector      *gg.Context
	overlay     *gg.Context
	fonts       *fontSet
	closed      bool
}

func newFigure(name string, w, h int, dpi float64, fonts *fontSet) *Figure {
	plot := image.Rect(
		int(math.Round(float64(w)*marginLeft)),
		int(math.Round(float64(h)*marginTop)),
		w-int(math.Round(float64(w)*marginRight)),
		h-int(math.Round(float64(h)*marginBottom)),
	)
	return &Figure{
		Name:    name,
		Width:   w,
		Height:  h,
		DPI:     dpi,
		Plot:    plot,
		vector:  gg.NewContext(plot.Dx(), plot.Dy()),
		overlay: gg.NewContext(w, h),
		fonts:   fonts,
	}
}

// Close releases the drawing contexts. It is safe to call more than once.
func (f *Figure) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	err := errors.Join(f.vector.Close(), f.overlay.Close())
	f.vector, f.overlay, f.base = nil, nil, nil
	return err
}

// Closed reports whether Close has run.
func (f *Figure) Closed() bool { return f.closed }

// Base is the composited basemap sized to Plot, or nil when there is none.
func (f *Figure) Base() image.Image {
	if f.closed || f.base == nil {
		return nil
	}
	return f.base
}

// Attribution is the tile provider credit, empty without a basemap.
func (f *Figure) Attribution() string { return f.attribution }

// Vector returns the data layer, sized to Plot.
func (f *Figure) Vector() (image.Image, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := f.vector.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush vector layer: %w", err)
	}
	return f.vector.Image(), nil
}

// Overlay returns the frame, grid and annotations, sized to the canvas.
func (f *Figure) Overlay() (image.Image, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := f.overlay.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush overlay layer: %w", err)
	}
	return f.overlay.Image(), nil
}

// px converts points to pixels at the figure DPI.
func (f *Figure) px(pt float64) float64 { return pt * f.DPI / 72 }

// toPlot maps a Mercator point to pixels relative to Plot's corner.
func (f *Figure) toPlot(p orb.Point) (float64, float64) {
	sx := float64(f.Plot.Dx()) / (f.Extent.Max[0] - f.Extent.Min[0])
	sy := float64(f.Plot.Dy()) / (f.Extent.Max[1] - f.Extent.Min[1])
	return (p[0] - f.Extent.Min[0]) * sx, (f.Extent.Max[1] - p[1]) * sy
}

// toCanvas maps a Mercator point to canvas pixels.
func (f *Figure) toCanvas(p orb.Point) (float64, float64) {
	x, y := f.toPlot(p)
	return x + float64(f.Plot.Min.X), y + float64(f.Plot.Min.Y)
}

// fitExtent pads b by pad on every side and widens one axis so that the
// result has the given width/height aspect. A point-like bound gets
// minSize metres.
func fitExtent(b orb.Bound, pad, aspect float64) orb.Bound {
	const minSize = 1000.0
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	if w < 1 && h < 1 {
		w, h = minSize, minSize
	}
	w *= 1 + 2*pad
	h *= 1 + 2*pad
	if w < 1 {
		w = h * aspect
	}
	if h < 1 {
		h = w / aspect
	}
	if w/h < aspect {
		w = h * aspect
	} else {
		h = w / aspect
	}
	c := b.Center()
	return orb.Bound{
		Min: orb.Point{c[0] - w/2, c[1] - h/2},
		Max: orb.Point{c[0] + w/2, c[1] + h/2},
	}
}
