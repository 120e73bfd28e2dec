package render

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basemap/internal/config"
	"basemap/internal/geom"
	"basemap/internal/tiles"
)

func testStyle() config.Style {
	return config.Style{
		FillColor:   "saddlebrown",
		EdgeColor:   "black",
		FillAlpha:   0.5,
		LineWidth:   3,
		FigWidth:    4,
		FigHeight:   3,
		DPI:         50,
		Padding:     0.2,
		Legend:      "Study Area",
		Transparent: true,
	}
}

// a 0.1° square near Kraków plus a point and a line, in Web Mercator
func mercatorDataset(t *testing.T) *geom.Dataset {
	t.Helper()
	sq := orb.Polygon{{{19.9, 50.0}, {19.9, 50.1}, {20.0, 50.1}, {20.0, 50.0}, {19.9, 50.0}}}
	ds := &geom.Dataset{
		Name: "study_area_north",
		CRS:  geom.WGS84,
		Features: []geom.Feature{
			{Geometry: sq, Properties: map[string]string{"NAME": "a"}},
			{Geometry: orb.Point{19.95, 50.05}},
			{Geometry: orb.LineString{{19.9, 50.0}, {20.0, 50.1}}},
			{Geometry: nil},
		},
	}
	out, err := geom.Reproject(ds, geom.WebMercator)
	require.NoError(t, err)
	return out
}

func TestNew_RequiresWebMercator(t *testing.T) {
	ds := &geom.Dataset{Name: "x", CRS: geom.WGS84}
	_, err := New(ds, testStyle())
	assert.ErrorIs(t, err, geom.ErrUnsupportedCRS)
}

func TestNew_Layout(t *testing.T) {
	ds := mercatorDataset(t)
	fig, err := New(ds, testStyle())
	require.NoError(t, err)
	defer fig.Close()

	assert.Equal(t, 200, fig.Width)
	assert.Equal(t, 150, fig.Height)
	assert.True(t, fig.Plot.In(image.Rect(0, 0, 200, 150)))
	assert.Equal(t, "study_area_north", fig.Name)

	// padded extent keeps the data inside and matches the plot aspect
	b := ds.Bound()
	assert.True(t, fig.Extent.Contains(b.Min))
	assert.True(t, fig.Extent.Contains(b.Max))
	aspect := float64(fig.Plot.Dx()) / float64(fig.Plot.Dy())
	ext := (fig.Extent.Max[0] - fig.Extent.Min[0]) / (fig.Extent.Max[1] - fig.Extent.Min[1])
	assert.InDelta(t, aspect, ext, 1e-9)

	vec, err := fig.Vector()
	require.NoError(t, err)
	assert.Equal(t, fig.Plot.Dx(), vec.Bounds().Dx())
	assert.Equal(t, fig.Plot.Dy(), vec.Bounds().Dy())

	ov, err := fig.Overlay()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 150), ov.Bounds())

	assert.Nil(t, fig.Base())
}

func TestNew_DrawsFeatures(t *testing.T) {
	ds := mercatorDataset(t)
	fig, err := New(ds, testStyle())
	require.NoError(t, err)
	defer fig.Close()

	vec, err := fig.Vector()
	require.NoError(t, err)

	// inside the square, off the diagonal line and the point
	in := project.WGS84.ToMercator(orb.Point{19.92, 50.08})
	x, y := fig.toPlot(in)
	_, _, _, a := vec.At(int(x), int(y)).RGBA()
	assert.NotZero(t, a, "polygon interior should be filled")
	assert.Less(t, a, uint32(0xffff), "fill is translucent")

	// the padding ring stays empty
	_, _, _, a = vec.At(1, 1).RGBA()
	assert.Zero(t, a)
}

func TestFigure_Close(t *testing.T) {
	fig, err := New(mercatorDataset(t), testStyle())
	require.NoError(t, err)

	require.NoError(t, fig.Close())
	assert.NoError(t, fig.Close())
	assert.True(t, fig.Closed())

	_, err = fig.Vector()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = fig.Overlay()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, fig.Base())
}

func TestFitExtent(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	e := fitExtent(b, 0.2, 1)
	assert.InDelta(t, -2, e.Min[0], 1e-9)
	assert.InDelta(t, 12, e.Max[1], 1e-9)

	// widened horizontally for a 2:1 plot
	e = fitExtent(b, 0.2, 2)
	assert.InDelta(t, 28, e.Max[0]-e.Min[0], 1e-9)
	assert.InDelta(t, 14, e.Max[1]-e.Min[1], 1e-9)

	// single point gets a 1 km box before padding
	p := orb.Point{500, 500}
	e = fitExtent(orb.Bound{Min: p, Max: p}, 0, 1)
	assert.InDelta(t, 1000, e.Max[0]-e.Min[0], 1e-9)
	assert.Equal(t, p, e.Center())

	// horizontal line keeps its width and borrows height from the aspect
	e = fitExtent(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 0}}, 0, 1)
	assert.InDelta(t, 100, e.Max[1]-e.Min[1], 1e-9)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Study Area North", Title("study_area_north", ""))
	assert.Equal(t, "Custom", Title("study_area_north", "Custom"))
}

func TestTicksAndLabels(t *testing.T) {
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, Ticks(0, 10, 6))
	assert.Equal(t, "12.35°E", FormatLon(12.3456))
	assert.Equal(t, "5.67°W", FormatLon(-5.67))
	assert.Equal(t, "5.67°S", FormatLat(-5.67))
	assert.Equal(t, "0.00°N", FormatLat(-0.001))

	ext := orb.Bound{
		Min: project.WGS84.ToMercator(orb.Point{10, -10}),
		Max: project.WGS84.ToMercator(orb.Point{20, 10}),
	}
	lons, lats := TickLabels(ext, NumTicks)
	require.Len(t, lons, NumTicks)
	require.Len(t, lats, NumTicks)
	assert.Equal(t, "10.00°E", lons[0])
	assert.Equal(t, "20.00°E", lons[5])
	assert.Equal(t, "10.00°S", lats[0])
	assert.Equal(t, "10.00°N", lats[5])
}

func TestScaleBarKM(t *testing.T) {
	eq := func(widthKM float64) orb.Bound {
		return orb.Bound{Min: orb.Point{0, -1000}, Max: orb.Point{widthKM * 1000, 1000}}
	}
	assert.Equal(t, 20.0, ScaleBarKM(eq(100)))
	assert.Equal(t, 10.0, ScaleBarKM(eq(70)))
	assert.Equal(t, 5.0, ScaleBarKM(eq(30)))
	assert.Equal(t, 0.5, ScaleBarKM(eq(3)))

	// at 60°N a mercator metre is half a ground metre
	c := project.WGS84.ToMercator(orb.Point{0, 60})
	hi := orb.Bound{Min: orb.Point{0, c[1] - 1000}, Max: orb.Point{240000, c[1] + 1000}}
	assert.Equal(t, 20.0, ScaleBarKM(hi))
}

type stubSource struct {
	calls int
	err   error
	fill  color.RGBA
	bound orb.Bound
}

func (s *stubSource) Mosaic(_ context.Context, _ tiles.Provider, r tiles.Range) (*tiles.Mosaic, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = s.fill.R, s.fill.G, s.fill.B, s.fill.A
	}
	return &tiles.Mosaic{Image: img, Bound: s.bound, Range: r}, nil
}

func TestComposite(t *testing.T) {
	fig, err := New(mercatorDataset(t), testStyle())
	require.NoError(t, err)
	defer fig.Close()

	// a mosaic reaching well past the extent on every side
	c := fig.Extent.Center()
	w := fig.Extent.Max[0] - fig.Extent.Min[0]
	src := &stubSource{
		fill:  color.RGBA{255, 0, 0, 255},
		bound: orb.Bound{Min: orb.Point{c[0] - w, c[1] - w}, Max: orb.Point{c[0] + w, c[1] + w}},
	}
	p, err := tiles.Lookup("OpenStreetMap.Mapnik")
	require.NoError(t, err)

	require.NoError(t, Composite(context.Background(), fig, src, p, 0, true))
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, p.Attribution, fig.Attribution())

	base := fig.Base()
	require.NotNil(t, base)
	assert.Equal(t, fig.Plot.Dx(), base.Bounds().Dx())
	assert.Equal(t, fig.Plot.Dy(), base.Bounds().Dy())
	r, g, _, a := base.At(fig.Plot.Dx()/2, fig.Plot.Dy()/2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Equal(t, uint32(0xffff), a)
}

func TestComposite_FailureLeavesFigure(t *testing.T) {
	fig, err := New(mercatorDataset(t), testStyle())
	require.NoError(t, err)
	defer fig.Close()

	src := &stubSource{err: tiles.ErrNetwork}
	p, _ := tiles.Lookup(tiles.DefaultProvider)
	err = Composite(context.Background(), fig, src, p, 0, true)
	assert.ErrorIs(t, err, tiles.ErrNetwork)
	assert.Nil(t, fig.Base())
	assert.Empty(t, fig.Attribution())

	_, err = fig.Vector()
	assert.NoError(t, err)
}

func TestComposite_Closed(t *testing.T) {
	fig, err := New(mercatorDataset(t), testStyle())
	require.NoError(t, err)
	require.NoError(t, fig.Close())

	src := &stubSource{}
	p, _ := tiles.Lookup(tiles.DefaultProvider)
	assert.ErrorIs(t, Composite(context.Background(), fig, src, p, 0, true), ErrClosed)
	assert.Zero(t, src.calls)
}

func TestZoom(t *testing.T) {
	p, _ := tiles.Lookup("OpenTopoMap")
	ext := orb.Bound{
		Min: project.WGS84.ToMercator(orb.Point{19.8, 49.9}),
		Max: project.WGS84.ToMercator(orb.Point{20.1, 50.2}),
	}
	z := Zoom(ext, p, 0, true)
	assert.Equal(t, 12, z)
	assert.LessOrEqual(t, tiles.CoverRange(LonLat(ext), z).Count(), tiles.MaxTiles)

	assert.Equal(t, 10, Zoom(ext, p, 10, false))
	// clamped to the provider, then lowered to fit the tile budget
	assert.Equal(t, tiles.FitZoom(LonLat(ext), p.MaxZoom), Zoom(ext, p, 30, false))
}

func TestLonLat(t *testing.T) {
	ll := LonLat(orb.Bound{
		Min: project.WGS84.ToMercator(orb.Point{-10, -20}),
		Max: orb.Point{0, math.MaxFloat64},
	})
	assert.InDelta(t, -10, ll.Min[0], 1e-9)
	assert.InDelta(t, -20, ll.Min[1], 1e-9)
	assert.InDelta(t, geom.MaxMercatorLat, ll.Max[1], 1e-6)
}
