package geom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// shapefile main file header magic
const shpFileCode = 9994

// LoadShapefile reads a .shp with its .dbf (and optional .prj) sidecars.
// When no .prj is present the fallback CRS is assumed.
func LoadShapefile(path string, fallback CRS) (*Dataset, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, ".shp") {
		return nil, fmt.Errorf("%w: expected .shp, got %q", ErrInvalidFormat, ext)
	}
	if err := checkHeader(path); err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(path, ext)
	dbf, ok := sidecar(base, ".dbf")
	if !ok {
		return nil, fmt.Errorf("%w: missing .dbf next to %s", ErrInvalidFormat, path)
	}
	if err := checkDBF(dbf); err != nil {
		return nil, err
	}

	crs := fallback
	if prj, ok := sidecar(base, ".prj"); ok {
		crs, err = ReadPRJ(prj)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(prj), err)
		}
	}
	if crs.IsZero() {
		return nil, fmt.Errorf("%w: no .prj and no fallback crs", ErrUnsupportedCRS)
	}

	d := &Dataset{
		Name: strings.TrimSuffix(filepath.Base(path), ext),
		Path: path,
		CRS:  crs,
	}
	if err := readRecords(d, path, dbf); err != nil {
		return nil, err
	}
	return d, nil
}

// readRecords streams shapes and attribute rows into d. go-shp panics on
// some malformed records, those come back as ErrInvalidFormat.
func readRecords(d *Dataset, shpPath, dbfPath string) (err error) {
	sf, err := os.Open(shpPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer sf.Close()
	df, err := os.Open(dbfPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer df.Close()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: corrupt record: %v", ErrInvalidFormat, p)
		}
	}()
	r := shp.SequentialReaderFromExt(sf, df)
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	fields := r.Fields()
	d.Fields = make([]string, len(fields))
	for i, f := range fields {
		d.Fields[i] = f.String()
	}
	for r.Next() {
		_, s := r.Shape()
		props := make(map[string]string, len(d.Fields))
		for i, name := range d.Fields {
			props[name] = strings.Trim(r.Attribute(i), " \x00")
		}
		d.Features = append(d.Features, Feature{Geometry: toOrb(s), Properties: props})
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}

// dbase header bounds
const (
	dbfHeaderMin = 33 // 32 byte header + 0x0d terminator
	dbfFieldSize = 32
)

// checkDBF validates the dBASE header so go-shp never sizes its field table
// or row buffer from garbage.
func checkDBF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	var hdr [32]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return fmt.Errorf("%w: short .dbf header", ErrInvalidFormat)
	}
	records := int64(binary.LittleEndian.Uint32(hdr[4:8]))
	headerLen := int64(binary.LittleEndian.Uint16(hdr[8:10]))
	recordLen := int64(binary.LittleEndian.Uint16(hdr[10:12]))
	switch {
	case headerLen < dbfHeaderMin || headerLen > st.Size():
		return fmt.Errorf("%w: .dbf header length %d", ErrInvalidFormat, headerLen)
	case recordLen < 1:
		return fmt.Errorf("%w: .dbf record length %d", ErrInvalidFormat, recordLen)
	case headerLen+records*recordLen > st.Size():
		return fmt.Errorf("%w: .dbf truncated", ErrInvalidFormat)
	}

	n := int((headerLen - dbfHeaderMin) / dbfFieldSize)
	sum := int64(1)
	desc := make([]byte, dbfFieldSize)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(f, desc); err != nil {
			return fmt.Errorf("%w: short .dbf field table", ErrInvalidFormat)
		}
		if desc[0] == 0x0d {
			break
		}
		sum += int64(desc[16])
	}
	if sum > recordLen {
		return fmt.Errorf("%w: .dbf fields span %d bytes, record is %d", ErrInvalidFormat, sum, recordLen)
	}
	return nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()
	var code int32
	if err := binary.Read(f, binary.BigEndian, &code); err != nil {
		return fmt.Errorf("%w: short header", ErrInvalidFormat)
	}
	if code != shpFileCode {
		return fmt.Errorf("%w: bad file code %d", ErrInvalidFormat, code)
	}
	return nil
}

// sidecar finds base+ext in lower or upper case.
func sidecar(base, ext string) (string, bool) {
	for _, e := range []string{ext, strings.ToUpper(ext)} {
		p := base + e
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// toOrb converts a shapefile record to an orb geometry; nil for null shapes.
func toOrb(s shp.Shape) orb.Geometry {
	switch v := s.(type) {
	case *shp.Point:
		return orb.Point{v.X, v.Y}
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}
	case *shp.PointM:
		return orb.Point{v.X, v.Y}
	case *shp.MultiPoint:
		return multiPoint(v.Points)
	case *shp.MultiPointZ:
		return multiPoint(v.Points)
	case *shp.MultiPointM:
		return multiPoint(v.Points)
	case *shp.PolyLine:
		return lines(v.Parts, v.Points)
	case *shp.PolyLineZ:
		return lines(v.Parts, v.Points)
	case *shp.PolyLineM:
		return lines(v.Parts, v.Points)
	case *shp.Polygon:
		return polygons(v.Parts, v.Points)
	case *shp.PolygonZ:
		return polygons(v.Parts, v.Points)
	case *shp.PolygonM:
		return polygons(v.Parts, v.Points)
	}
	return nil
}

func multiPoint(pts []shp.Point) orb.Geometry {
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

// split cuts the flat point array at part offsets
func split(parts []int32, pts []shp.Point) [][]orb.Point {
	var out [][]orb.Point
	for i := range parts {
		start := int(parts[i])
		end := len(pts)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if start < 0 || start > end || end > len(pts) {
			continue
		}
		seg := make([]orb.Point, 0, end-start)
		for _, p := range pts[start:end] {
			seg = append(seg, orb.Point{p.X, p.Y})
		}
		out = append(out, seg)
	}
	return out
}

func lines(parts []int32, pts []shp.Point) orb.Geometry {
	segs := split(parts, pts)
	if len(segs) == 0 {
		return nil
	}
	if len(segs) == 1 {
		return orb.LineString(segs[0])
	}
	mls := make(orb.MultiLineString, len(segs))
	for i, s := range segs {
		mls[i] = orb.LineString(s)
	}
	return mls
}

// polygons groups rings: clockwise rings are shells, a counter-clockwise
// ring is a hole of the shell containing it and a shell of its own when
// none does.
func polygons(parts []int32, pts []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, seg := range split(parts, pts) {
		ring := orb.Ring(seg)
		if len(ring) < 3 {
			continue
		}
		if ring.Orientation() == orb.CCW {
			if i := containing(mp, ring); i >= 0 {
				mp[i] = append(mp[i], ring)
				continue
			}
		}
		mp = append(mp, orb.Polygon{ring})
	}
	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	}
	return mp
}

// containing returns the index of the latest shell holding every vertex of
// ring, or -1.
func containing(mp orb.MultiPolygon, ring orb.Ring) int {
	for i := len(mp) - 1; i >= 0; i-- {
		shell := mp[i][0]
		inside := true
		for _, p := range ring {
			if !planar.RingContains(shell, p) {
				inside = false
				break
			}
		}
		if inside {
			return i
		}
	}
	return -1
}
