package geom

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPRJ reads a .prj sidecar and identifies its CRS.
func ReadPRJ(path string) (CRS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CRS{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return ParsePRJ(string(data))
}

// ParsePRJ identifies the CRS described by a WKT string as found in .prj files.
// Supported: GEOGCS/GEOGCRS for WGS 84, PROJCS/PROJCRS for Web Mercator and
// WGS 84 / UTM. An EPSG authority on the outermost node wins over the name.
func ParsePRJ(wkt string) (CRS, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return CRS{}, fmt.Errorf("%w: empty wkt", ErrUnsupportedCRS)
	}
	up := strings.ToUpper(s)
	var projected bool
	switch {
	case strings.HasPrefix(up, "PROJCS["), strings.HasPrefix(up, "PROJCRS["):
		projected = true
	case strings.HasPrefix(up, "GEOGCS["), strings.HasPrefix(up, "GEOGCRS["), strings.HasPrefix(up, "GEODCRS["):
	default:
		return CRS{}, fmt.Errorf("%w: unrecognised wkt root", ErrUnsupportedCRS)
	}
	if code, ok := outerAuthority(up); ok {
		return EPSG(code)
	}
	name := normName(firstQuoted(s))
	if name == "" {
		return CRS{}, fmt.Errorf("%w: unnamed wkt", ErrUnsupportedCRS)
	}
	if !projected {
		if strings.Contains(name, "WGS") && strings.Contains(name, "84") {
			return WGS84, nil
		}
		return CRS{}, fmt.Errorf("%w: %s", ErrUnsupportedCRS, firstQuoted(s))
	}
	switch {
	case strings.Contains(name, "PSEUDO_MERCATOR"),
		strings.Contains(name, "WEB_MERCATOR"),
		strings.Contains(name, "MERCATOR_AUXILIARY_SPHERE"),
		strings.Contains(name, "POPULAR_VISUALISATION"):
		return WebMercator, nil
	}
	if i := strings.Index(name, "UTM_ZONE_"); i >= 0 && strings.Contains(name, "WGS") && strings.Contains(name, "84") {
		rest := name[i+len("UTM_ZONE_"):]
		j := 0
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		zone, err := strconv.Atoi(rest[:j])
		if err == nil && j < len(rest) && zone >= 1 && zone <= 60 {
			switch rest[j] {
			case 'N':
				return EPSG(32600 + zone)
			case 'S':
				return EPSG(32700 + zone)
			}
		}
	}
	return CRS{}, fmt.Errorf("%w: %s", ErrUnsupportedCRS, firstQuoted(s))
}

// outerAuthority finds an EPSG AUTHORITY/ID node sitting directly under the root.
func outerAuthority(up string) (int, bool) {
	for _, tag := range []string{`AUTHORITY["EPSG",`, `ID["EPSG",`} {
		i := strings.LastIndex(up, tag)
		if i < 0 || depthAt(up, i) != 1 {
			continue
		}
		rest := up[i+len(tag):]
		j := strings.Index(rest, "]")
		if j < 0 {
			continue
		}
		v := strings.Trim(strings.TrimSpace(rest[:j]), `"`)
		if code, err := strconv.Atoi(v); err == nil {
			return code, true
		}
	}
	return 0, false
}

// depthAt counts open brackets before index i, ignoring quoted text.
func depthAt(s string, i int) int {
	depth := 0
	quoted := false
	for k := 0; k < i; k++ {
		switch s[k] {
		case '"':
			quoted = !quoted
		case '[', '(':
			if !quoted {
				depth++
			}
		case ']', ')':
			if !quoted {
				depth--
			}
		}
	}
	return depth
}

func firstQuoted(s string) string {
	i := strings.Index(s, `"`)
	if i < 0 {
		return ""
	}
	j := strings.Index(s[i+1:], `"`)
	if j < 0 {
		return ""
	}
	return s[i+1 : i+1+j]
}

// normName upper-cases and folds separators to underscores
func normName(s string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", "/", "_", "__", "_")
	out := strings.ToUpper(strings.TrimSpace(s))
	for {
		n := r.Replace(out)
		if n == out {
			return n
		}
		out = n
	}
}
