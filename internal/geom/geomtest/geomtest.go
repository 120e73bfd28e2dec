// Package geomtest writes small shapefiles for tests.
package geomtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
)

// Square is a clockwise ring with lower-left corner (x, y) and side s.
func Square(x, y, s float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + s}, {X: x + s, Y: y + s}, {X: x + s, Y: y}, {X: x, Y: y}}
}

// Reverse flips ring orientation.
func Reverse(r []shp.Point) []shp.Point {
	out := make([]shp.Point, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// WritePolygons writes one polygon record per entry in polys (each a list of
// rings) to dir/name.shp with NAME and ID attributes and returns the path.
func WritePolygons(t testing.TB, dir, name string, polys [][][]shp.Point) string {
	t.Helper()
	path := filepath.Join(dir, name+".shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	if err := w.SetFields([]shp.Field{shp.StringField("NAME", 32), shp.NumberField("ID", 8)}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	for i, rings := range polys {
		pl := shp.NewPolyLine(rings)
		poly := shp.Polygon(*pl)
		n := int(w.Write(&poly))
		if err := w.WriteAttribute(n, 0, fmt.Sprintf("area %d", i+1)); err != nil {
			t.Fatalf("write attribute: %v", err)
		}
		if err := w.WriteAttribute(n, 1, i+1); err != nil {
			t.Fatalf("write attribute: %v", err)
		}
	}
	w.Close()
	// go-shp's writer names the table base+"dbf", without the dot
	base := strings.TrimSuffix(path, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		t.Fatalf("rename dbf: %v", err)
	}
	return path
}

// WriteGrid writes n unit-ish squares in lon/lat laid out on a row starting
// at (lon, lat), each size degrees wide.
func WriteGrid(t testing.TB, dir, name string, n int, lon, lat, size float64) string {
	t.Helper()
	polys := make([][][]shp.Point, n)
	for i := range polys {
		polys[i] = [][]shp.Point{Square(lon+float64(i)*size*1.5, lat, size)}
	}
	return WritePolygons(t, dir, name, polys)
}

// WritePRJ drops a .prj sidecar next to the shapefile.
func WritePRJ(t testing.TB, shpPath, wkt string) {
	t.Helper()
	prj := shpPath[:len(shpPath)-len(filepath.Ext(shpPath))] + ".prj"
	if err := os.WriteFile(prj, []byte(wkt), 0o644); err != nil {
		t.Fatalf("write prj: %v", err)
	}
}

const (
	WKTWGS84       = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`
	WKTWebMercator = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],UNIT["Meter",1.0]]`
	WKTUTM33N      = `PROJCS["WGS 84 / UTM zone 33N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["central_meridian",15],UNIT["metre",1],AUTHORITY["EPSG","32633"]]`
)
