package tiles

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxTiles caps how many tiles a single map may request.
const MaxTiles = 256

const maxLat = 85.05112877980659

// AutoZoom picks the zoom whose tiles roughly match the extent, the way
// contextily does: min(ceil(log2(720/dlon)), ceil(log2(720/dlat))).
// bound is in lon/lat.
func AutoZoom(bound orb.Bound, maxZoom int) int {
	dlon := bound.Max[0] - bound.Min[0]
	dlat := bound.Max[1] - bound.Min[1]
	if dlon <= 0 || dlat <= 0 {
		return Clamp(maxZoom, maxZoom)
	}
	zlon := math.Ceil(math.Log2(360 * 2 / dlon))
	zlat := math.Ceil(math.Log2(360 * 2 / dlat))
	return Clamp(int(math.Min(zlon, zlat)), maxZoom)
}

// Clamp keeps z within [0, maxZoom].
func Clamp(z, maxZoom int) int {
	if z < 0 {
		return 0
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}

// Range is the inclusive block of tiles covering an extent at one zoom.
type Range struct {
	Zoom       maptile.Zoom
	MinX, MaxX uint32
	MinY, MaxY uint32
}

// Count returns the number of tiles in the range.
func (r Range) Count() int {
	return int(r.MaxX-r.MinX+1) * int(r.MaxY-r.MinY+1)
}

// Tiles lists the tiles row by row.
func (r Range) Tiles() []maptile.Tile {
	out := make([]maptile.Tile, 0, r.Count())
	for y := r.MinY; y <= r.MaxY; y++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			out = append(out, maptile.New(x, y, r.Zoom))
		}
	}
	return out
}

// CoverRange returns the tiles covering a lon/lat bound at zoom z.
func CoverRange(bound orb.Bound, z int) Range {
	clampLL := func(p orb.Point) orb.Point {
		return orb.Point{
			math.Max(-180, math.Min(180, p[0])),
			math.Max(-maxLat, math.Min(maxLat, p[1])),
		}
	}
	zoom := maptile.Zoom(z)
	nw := maptile.At(clampLL(orb.Point{bound.Min[0], bound.Max[1]}), zoom)
	se := maptile.At(clampLL(orb.Point{bound.Max[0], bound.Min[1]}), zoom)
	last := uint32(1)<<uint32(z) - 1
	r := Range{Zoom: zoom, MinX: nw.X, MaxX: se.X, MinY: nw.Y, MaxY: se.Y}
	r.MaxX = min(r.MaxX, last)
	r.MaxY = min(r.MaxY, last)
	r.MinX = min(r.MinX, r.MaxX)
	r.MinY = min(r.MinY, r.MaxY)
	return r
}

// FitZoom lowers z until the covering range holds at most MaxTiles tiles.
func FitZoom(bound orb.Bound, z int) int {
	for z > 0 && CoverRange(bound, z).Count() > MaxTiles {
		z--
	}
	return z
}

// MercatorBound returns a tile's extent in Web Mercator metres.
func MercatorBound(t maptile.Tile) orb.Bound {
	size := 2 * originShift / float64(uint64(1)<<uint32(t.Z))
	minX := -originShift + float64(t.X)*size
	maxY := originShift - float64(t.Y)*size
	return orb.Bound{Min: orb.Point{minX, maxY - size}, Max: orb.Point{minX + size, maxY}}
}

// half the Web Mercator world width in metres
const originShift = math.Pi * 6378137

func tilesAt(r Range, x, y uint32) maptile.Tile { return maptile.New(x, y, r.Zoom) }
