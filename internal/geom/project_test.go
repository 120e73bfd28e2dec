package geom

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Dataset {
	return &Dataset{
		Name:   "sample",
		CRS:    WGS84,
		Fields: []string{"NAME"},
		Features: []Feature{
			{Geometry: orb.Polygon{{{14.1, 45.2}, {14.1, 45.4}, {14.3, 45.4}, {14.3, 45.2}, {14.1, 45.2}}}, Properties: map[string]string{"NAME": "a"}},
			{Geometry: orb.LineString{{15.0, 46.0}, {15.5, 46.5}}, Properties: map[string]string{"NAME": "b"}},
			{Geometry: orb.Point{16.0, 44.0}, Properties: map[string]string{"NAME": "c"}},
			{Geometry: nil, Properties: map[string]string{"NAME": "d"}},
		},
	}
}

func TestReproject_RoundTrip(t *testing.T) {
	for _, target := range []CRS{WebMercator, {Code: 32633}} {
		t.Run(target.String(), func(t *testing.T) {
			src := sample()
			fwd, err := Reproject(src, target)
			require.NoError(t, err)
			assert.Equal(t, target.Code, fwd.CRS.Code)

			back, err := Reproject(fwd, WGS84)
			require.NoError(t, err)
			require.Equal(t, src.Len(), back.Len())

			for i := range src.Features {
				a, b := src.Features[i].Geometry, back.Features[i].Geometry
				if a == nil {
					assert.Nil(t, b)
					continue
				}
				assertClose(t, a, b, 1e-6)
				assert.Equal(t, src.Features[i].Properties, back.Features[i].Properties)
			}
		})
	}
}

func TestReproject_DoesNotMutateInput(t *testing.T) {
	src := sample()
	before := orb.Clone(src.Features[0].Geometry)

	out, err := Reproject(src, WebMercator)
	require.NoError(t, err)

	assert.Equal(t, before, src.Features[0].Geometry)
	assert.True(t, src.CRS.Equal(WGS84))
	out.Features[0].Properties["NAME"] = "changed"
	assert.Equal(t, "a", src.Features[0].Properties["NAME"])
}

func TestReproject_KnownValues(t *testing.T) {
	d := &Dataset{CRS: WGS84, Features: []Feature{{Geometry: orb.Point{180, 0}}, {Geometry: orb.Point{15, 0}}}}

	merc, err := Reproject(d, WebMercator)
	require.NoError(t, err)
	p := merc.Features[0].Geometry.(orb.Point)
	assert.InDelta(t, 20037508.342789244, p[0], 1e-3)
	assert.InDelta(t, 0, p[1], 1e-3)

	utm, err := Reproject(d, CRS{Code: 32633})
	require.NoError(t, err)
	q := utm.Features[1].Geometry.(orb.Point)
	assert.InDelta(t, 500000, q[0], 1e-3, "central meridian maps to false easting")
	assert.InDelta(t, 0, q[1], 1e-3)
}

func TestReproject_UTMReference(t *testing.T) {
	// Kraków main square, zone 34U
	tr, err := Transform(WGS84, CRS{Code: 32634})
	require.NoError(t, err)
	p := tr(orb.Point{19.9373, 50.0614})
	assert.InDelta(t, 423937.2, p[0], 1.0)
	assert.InDelta(t, 5545998.3, p[1], 1.0)
}

func TestReproject_Unsupported(t *testing.T) {
	d := sample()
	_, err := Reproject(d, CRS{Code: 2154})
	assert.ErrorIs(t, err, ErrUnsupportedCRS)

	d.CRS = CRS{Code: 27700}
	_, err = Reproject(d, WebMercator)
	assert.ErrorIs(t, err, ErrUnsupportedCRS)
}

func assertClose(t *testing.T, a, b orb.Geometry, tol float64) {
	t.Helper()
	var pa, pb []orb.Point
	collect := func(g orb.Geometry, out *[]orb.Point) {
		switch v := g.(type) {
		case orb.Point:
			*out = append(*out, v)
		case orb.LineString:
			*out = append(*out, v...)
		case orb.Polygon:
			for _, r := range v {
				*out = append(*out, r...)
			}
		}
	}
	collect(a, &pa)
	collect(b, &pb)
	require.Len(t, pb, len(pa))
	for i := range pa {
		assert.InDelta(t, pa[i][0], pb[i][0], tol)
		assert.InDelta(t, pa[i][1], pb[i][1], tol)
	}
}
