package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// CRS identifies a coordinate reference system by EPSG code.
type CRS struct {
	Code int
	Name string
}

var (
	WGS84       = CRS{Code: 4326, Name: "WGS 84"}
	WebMercator = CRS{Code: 3857, Name: "WGS 84 / Pseudo-Mercator"}
)

// mercator aliases that older software still writes
var mercatorAliases = map[int]bool{3857: true, 900913: true, 3785: true, 102100: true, 102113: true}

func (c CRS) String() string { return "EPSG:" + strconv.Itoa(c.Code) }

// IsZero reports whether the CRS is unset.
func (c CRS) IsZero() bool { return c.Code == 0 }

// Equal compares by EPSG code.
func (c CRS) Equal(o CRS) bool { return c.Code == o.Code }

// utmZone returns the zone number and hemisphere for WGS 84 / UTM codes.
func (c CRS) utmZone() (zone int, north bool, ok bool) {
	switch {
	case c.Code >= 32601 && c.Code <= 32660:
		return c.Code - 32600, true, true
	case c.Code >= 32701 && c.Code <= 32760:
		return c.Code - 32700, false, true
	}
	return 0, false, false
}

// IsGeographic reports whether coordinates are lon/lat degrees.
func (c CRS) IsGeographic() bool { return c.Code == WGS84.Code }

// EPSG returns the supported CRS for an EPSG code.
func EPSG(code int) (CRS, error) {
	switch {
	case code == WGS84.Code:
		return WGS84, nil
	case mercatorAliases[code]:
		return WebMercator, nil
	}
	c := CRS{Code: code}
	if zone, north, ok := c.utmZone(); ok {
		hemi := "N"
		if !north {
			hemi = "S"
		}
		c.Name = fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, hemi)
		return c, nil
	}
	return CRS{}, fmt.Errorf("%w: EPSG:%d", ErrUnsupportedCRS, code)
}

// ParseCRS accepts "EPSG:4326", "epsg:3857" or a bare code.
func ParseCRS(s string) (CRS, error) {
	v := strings.TrimSpace(s)
	if i := strings.Index(v, ":"); i >= 0 {
		if !strings.EqualFold(strings.TrimSpace(v[:i]), "epsg") {
			return CRS{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, s)
		}
		v = strings.TrimSpace(v[i+1:])
	}
	code, err := strconv.Atoi(v)
	if err != nil {
		return CRS{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, s)
	}
	return EPSG(code)
}
