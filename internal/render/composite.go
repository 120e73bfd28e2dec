package render

import (
	"context"
	"image"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"basemap/internal/geom"
	"basemap/internal/tiles"
)

// TileSource supplies stitched tiles. *tiles.Fetcher implements it.
type TileSource interface {
	Mosaic(ctx context.Context, p tiles.Provider, r tiles.Range) (*tiles.Mosaic, error)
}

// LonLat converts a Web Mercator extent to degrees.
func LonLat(extent orb.Bound) orb.Bound {
	clamp := func(p orb.Point) orb.Point {
		lim := project.WGS84.ToMercator(orb.Point{0, geom.MaxMercatorLat})[1]
		p[1] = max(-lim, min(lim, p[1]))
		return project.Mercator.ToWGS84(p)
	}
	return orb.Bound{Min: clamp(extent.Min), Max: clamp(extent.Max)}
}

// Zoom resolves the zoom for a Mercator extent: automatic or fixed, clamped
// to the provider, then lowered until the tile count is acceptable.
func Zoom(extent orb.Bound, p tiles.Provider, zoom int, auto bool) int {
	ll := LonLat(extent)
	z := tiles.Clamp(zoom, p.MaxZoom)
	if auto {
		z = tiles.AutoZoom(ll, p.MaxZoom)
	}
	return tiles.FitZoom(ll, z)
}

// Composite fetches the tiles under the figure's extent and installs them
// as its basemap layer. On error the figure is left as it was.
func Composite(ctx context.Context, f *Figure, src TileSource, p tiles.Provider, zoom int, auto bool) error {
	if f.Closed() {
		return ErrClosed
	}
	z := Zoom(f.Extent, p, zoom, auto)
	m, err := src.Mosaic(ctx, p, tiles.CoverRange(LonLat(f.Extent), z))
	if err != nil {
		return err
	}
	if f.Closed() {
		return ErrClosed
	}

	base := image.NewRGBA(image.Rect(0, 0, f.Plot.Dx(), f.Plot.Dy()))
	draw.BiLinear.Transform(base, mosaicToPlot(f, m), m.Image, m.Image.Bounds(), draw.Src, nil)
	f.base = base
	f.attribution = p.Attribution
	drawAttribution(f.overlay, f, p.Attribution)
	return nil
}

// mosaicToPlot is the affine map from mosaic pixels to Plot pixels.
func mosaicToPlot(f *Figure, m *tiles.Mosaic) f64.Aff3 {
	mb := m.Image.Bounds()
	// pixels per metre in the mosaic and on the plot
	msx := float64(mb.Dx()) / (m.Bound.Max[0] - m.Bound.Min[0])
	msy := float64(mb.Dy()) / (m.Bound.Max[1] - m.Bound.Min[1])
	fsx := float64(f.Plot.Dx()) / (f.Extent.Max[0] - f.Extent.Min[0])
	fsy := float64(f.Plot.Dy()) / (f.Extent.Max[1] - f.Extent.Min[1])
	return f64.Aff3{
		fsx / msx, 0, (m.Bound.Min[0]-f.Extent.Min[0])*fsx - float64(mb.Min.X)*fsx/msx,
		0, fsy / msy, (f.Extent.Max[1]-m.Bound.Max[1])*fsy - float64(mb.Min.Y)*fsy/msy,
	}
}
