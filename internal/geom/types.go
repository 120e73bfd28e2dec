package geom

import "github.com/paulmach/orb"

// Feature is one shapefile record: its geometry (nil for null shapes) and
// its attribute values keyed by field name.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]string
}

// Dataset is a loaded vector layer. It is not modified after load;
// Reproject returns a new Dataset.
type Dataset struct {
	Name     string
	Path     string
	CRS      CRS
	Fields   []string
	Features []Feature
}

// Counts tallies geometries by kind, multi-geometries counted per member.
type Counts struct {
	Points   int
	Lines    int
	Polygons int
	Empty    int
}

// Bound returns the bounding box of all non-nil geometries.
func (d *Dataset) Bound() orb.Bound {
	var bb orb.Bound
	first := true
	for _, f := range d.Features {
		if f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bound()
		if first {
			bb = b
			first = false
			continue
		}
		bb = bb.Union(b)
	}
	return bb
}

// Counts walks every feature and counts its geometry parts.
func (d *Dataset) Counts() Counts {
	var c Counts
	for _, f := range d.Features {
		switch g := f.Geometry.(type) {
		case nil:
			c.Empty++
		case orb.Point:
			c.Points++
		case orb.MultiPoint:
			c.Points += len(g)
		case orb.LineString:
			c.Lines++
		case orb.MultiLineString:
			c.Lines += len(g)
		case orb.Polygon:
			c.Polygons++
		case orb.MultiPolygon:
			c.Polygons += len(g)
		}
	}
	return c
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Features) }
