package geom

import (
	"fmt"
	"maps"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MaxMercatorLat is the latitude at which Web Mercator becomes square.
const MaxMercatorLat = 85.05112877980659

// Reproject returns a copy of d with every geometry transformed to target.
// d itself is left untouched.
func Reproject(d *Dataset, target CRS) (*Dataset, error) {
	toW, err := toWGS84(d.CRS)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	fromW, err := fromWGS84(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	tgt, _ := EPSG(target.Code)
	proj := func(p orb.Point) orb.Point { return fromW(toW(p)) }

	out := &Dataset{
		Name:     d.Name,
		Path:     d.Path,
		CRS:      tgt,
		Fields:   append([]string(nil), d.Fields...),
		Features: make([]Feature, len(d.Features)),
	}
	for i, f := range d.Features {
		var g orb.Geometry
		if f.Geometry != nil {
			g = project.Geometry(orb.Clone(f.Geometry), proj)
		}
		out.Features[i] = Feature{Geometry: g, Properties: maps.Clone(f.Properties)}
	}
	return out, nil
}

// Transform returns the point transform from src to dst.
func Transform(src, dst CRS) (orb.Projection, error) {
	toW, err := toWGS84(src)
	if err != nil {
		return nil, err
	}
	fromW, err := fromWGS84(dst)
	if err != nil {
		return nil, err
	}
	return func(p orb.Point) orb.Point { return fromW(toW(p)) }, nil
}

func toWGS84(c CRS) (orb.Projection, error) {
	c, err := EPSG(c.Code)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Equal(WGS84):
		return identity, nil
	case c.Equal(WebMercator):
		return project.Mercator.ToWGS84, nil
	}
	zone, north, _ := c.utmZone()
	return func(p orb.Point) orb.Point { return utmInverse(p, zone, north) }, nil
}

func fromWGS84(c CRS) (orb.Projection, error) {
	c, err := EPSG(c.Code)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Equal(WGS84):
		return identity, nil
	case c.Equal(WebMercator):
		return func(p orb.Point) orb.Point {
			p[1] = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, p[1]))
			return project.WGS84.ToMercator(p)
		}, nil
	}
	zone, north, _ := c.utmZone()
	return func(p orb.Point) orb.Point { return utmForward(p, zone, north) }, nil
}

func identity(p orb.Point) orb.Point { return p }

// WGS 84 ellipsoid and UTM constants
const (
	wgsA     = 6378137.0
	wgsF     = 1 / 298.257223563
	utmK0    = 0.9996
	utmE0    = 500000.0
	utmNSout = 10000000.0
)

// Krüger series coefficients, third order in n.
var tm = func() (t struct {
	n, A           float64
	alpha, beta, d [3]float64
}) {
	n := wgsF / (2 - wgsF)
	n2, n3 := n*n, n*n*n
	t.n = n
	t.A = wgsA / (1 + n) * (1 + n2/4 + n2*n2/64)
	t.alpha = [3]float64{n/2 - 2*n2/3 + 5*n3/16, 13*n2/48 - 3*n3/5, 61 * n3 / 240}
	t.beta = [3]float64{n/2 - 2*n2/3 + 37*n3/96, n2/48 + n3/15, 17 * n3 / 480}
	t.d = [3]float64{2*n - 2*n2/3 - 2*n3, 7*n2/3 - 8*n3/5, 56 * n3 / 15}
	return t
}()

func centralMeridian(zone int) float64 { return float64(zone-1)*6 - 180 + 3 }

func utmForward(p orb.Point, zone int, north bool) orb.Point {
	phi := p[1] * math.Pi / 180
	dl := (p[0] - centralMeridian(zone)) * math.Pi / 180
	k := 2 * math.Sqrt(tm.n) / (1 + tm.n)
	t := math.Sinh(math.Atanh(math.Sin(phi)) - k*math.Atanh(k*math.Sin(phi)))
	xi := math.Atan2(t, math.Cos(dl))
	eta := math.Atanh(math.Sin(dl) / math.Sqrt(1+t*t))
	e, n := eta, xi
	for j, a := range tm.alpha {
		jj := 2 * float64(j+1)
		e += a * math.Cos(jj*xi) * math.Sinh(jj*eta)
		n += a * math.Sin(jj*xi) * math.Cosh(jj*eta)
	}
	x := utmE0 + utmK0*tm.A*e
	y := utmK0 * tm.A * n
	if !north {
		y += utmNSout
	}
	return orb.Point{x, y}
}

func utmInverse(p orb.Point, zone int, north bool) orb.Point {
	y := p[1]
	if !north {
		y -= utmNSout
	}
	xi := y / (utmK0 * tm.A)
	eta := (p[0] - utmE0) / (utmK0 * tm.A)
	xp, ep := xi, eta
	for j, b := range tm.beta {
		jj := 2 * float64(j+1)
		xp -= b * math.Sin(jj*xi) * math.Cosh(jj*eta)
		ep -= b * math.Cos(jj*xi) * math.Sinh(jj*eta)
	}
	chi := math.Asin(math.Sin(xp) / math.Cosh(ep))
	phi := chi
	for j, d := range tm.d {
		phi += d * math.Sin(2*float64(j+1)*chi)
	}
	lon := centralMeridian(zone) + math.Atan2(math.Sinh(ep), math.Cos(xp))*180/math.Pi
	return orb.Point{lon, phi * 180 / math.Pi}
}
