package export

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basemap/internal/config"
	"basemap/internal/geom"
	"basemap/internal/render"
)

func testFigure(t *testing.T, transparent bool) *render.Figure {
	t.Helper()
	ds := &geom.Dataset{
		Name: "parcels",
		CRS:  geom.WGS84,
		Features: []geom.Feature{
			{Geometry: orb.Polygon{{{10, 45}, {10, 45.2}, {10.2, 45.2}, {10.2, 45}, {10, 45}}}},
		},
	}
	merc, err := geom.Reproject(ds, geom.WebMercator)
	require.NoError(t, err)
	fig, err := render.New(merc, config.Style{
		FillColor:   "saddlebrown",
		EdgeColor:   "black",
		FillAlpha:   0.5,
		LineWidth:   3,
		FigWidth:    3,
		FigHeight:   2,
		DPI:         50,
		Padding:     0.2,
		Transparent: transparent,
	})
	require.NoError(t, err)
	return fig
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	fig := testFigure(t, true)

	a, err := Write(fig, dir, "parcels_basemap.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "parcels_basemap.png"), a.Path)
	assert.Equal(t, 150, a.Width)
	assert.Equal(t, 100, a.Height)
	assert.True(t, fig.Closed(), "figure is released after writing")

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), a.Bytes)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	// transparent background in the margin
	_, _, _, alpha := img.At(0, 0).RGBA()
	assert.Zero(t, alpha)

	// pHYs right after IHDR: 50 dpi is 1969 px per metre
	assert.Equal(t, "pHYs", string(data[37:41]))
	assert.Equal(t, uint32(1969), binary.BigEndian.Uint32(data[41:45]))
	assert.Equal(t, uint32(1969), binary.BigEndian.Uint32(data[45:49]))
	assert.Equal(t, byte(1), data[49])
	assert.Equal(t, crc32.ChecksumIEEE(data[37:50]), binary.BigEndian.Uint32(data[50:54]))
}

func TestWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.png")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("junk"), 100000), 0o644))

	a, err := Write(testFigure(t, true), dir, "x.png")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes, info.Size())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.DecodeConfig(f)
	assert.NoError(t, err)
}

func TestWrite_WhiteBackground(t *testing.T) {
	fig := testFigure(t, false)
	img, err := Flatten(fig)
	require.NoError(t, err)
	require.NoError(t, fig.Close())

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestWrite_Failure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	fig := testFigure(t, true)

	_, err := Write(fig, filepath.Join(blocker, "sub"), "x.png")
	assert.ErrorIs(t, err, ErrWrite)
	assert.True(t, fig.Closed(), "figure is released on failure too")
}

func TestFlatten_Closed(t *testing.T) {
	fig := testFigure(t, true)
	require.NoError(t, fig.Close())
	_, err := Flatten(fig)
	assert.ErrorIs(t, err, render.ErrClosed)
}

func TestWrite_ClosedFigure(t *testing.T) {
	dir := t.TempDir()
	fig := testFigure(t, true)
	require.NoError(t, fig.Close())

	_, err := Write(fig, dir, "x.png")
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, render.ErrClosed)
	assert.NoFileExists(t, filepath.Join(dir, "x.png"))
}

func TestWithDPI_RejectsGarbage(t *testing.T) {
	_, err := withDPI([]byte("not a png"), 300)
	assert.Error(t, err)
}
