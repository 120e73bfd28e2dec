package tiles

import (
	"context"
	"fmt"
	"image"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Mosaic is a block of stitched tiles and the Web Mercator extent it covers.
type Mosaic struct {
	Image *image.RGBA
	Bound orb.Bound
	Range Range
}

// Mosaic fetches every tile in r in row order and stitches them.
func (f *Fetcher) Mosaic(ctx context.Context, p Provider, r Range) (*Mosaic, error) {
	var (
		canvas *image.RGBA
		size   int
	)
	tiles := r.Tiles()
	f.log.Info("fetching tiles",
		zap.String("provider", p.Name),
		zap.Int("zoom", int(r.Zoom)),
		zap.Int("count", len(tiles)))
	for i, t := range tiles {
		img, err := f.Fetch(ctx, p, t)
		if err != nil {
			return nil, err
		}
		if canvas == nil {
			// tile size follows the server: 256 or 512 for hi-dpi sets
			size = img.Bounds().Dx()
			if size <= 0 {
				return nil, fmt.Errorf("%w: empty tile %d/%d/%d", ErrNetwork, t.Z, t.X, t.Y)
			}
			w := int(r.MaxX-r.MinX+1) * size
			h := int(r.MaxY-r.MinY+1) * size
			canvas = image.NewRGBA(image.Rect(0, 0, w, h))
		}
		ox := int(t.X-r.MinX) * size
		oy := int(t.Y-r.MinY) * size
		dst := image.Rect(ox, oy, ox+size, oy+size)
		if img.Bounds().Dx() == size && img.Bounds().Dy() == size {
			draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
		} else {
			draw.BiLinear.Scale(canvas, dst, img, img.Bounds(), draw.Src, nil)
		}
		f.log.Debug("tile", zap.Int("n", i+1), zap.Uint32("x", t.X), zap.Uint32("y", t.Y))
	}
	if canvas == nil {
		return nil, fmt.Errorf("%w: no tiles in range", ErrNetwork)
	}
	nw := MercatorBound(tilesAt(r, r.MinX, r.MinY))
	se := MercatorBound(tilesAt(r, r.MaxX, r.MaxY))
	return &Mosaic{
		Image: canvas,
		Bound: orb.Bound{Min: orb.Point{nw.Min[0], se.Min[1]}, Max: orb.Point{se.Max[0], nw.Max[1]}},
		Range: r,
	}, nil
}
