package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basemap/internal/geom"
	"basemap/internal/geom/geomtest"
	"basemap/internal/tui"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	orig := version
	version = "test-version-1.0.0"
	defer func() { version = orig }()

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "basemap version test-version-1.0.0")
}

func TestProvidersCmd(t *testing.T) {
	out, err := run(t, "", "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "OpenStreetMap.HOT (default)")
	assert.Contains(t, out, "CartoDB.Positron")
	assert.Contains(t, out, "Esri.WorldImagery")
}

func TestInspectCmd(t *testing.T) {
	path := geomtest.WriteGrid(t, t.TempDir(), "parcels", 5, 10, 45, 0.1)

	out, err := run(t, "", "inspect", path, "--rows", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "parcels")
	assert.Contains(t, out, "EPSG:4326")
	assert.Contains(t, out, "polygons=5")
	assert.Contains(t, out, "area 1")
	assert.Contains(t, out, "area 2")
	assert.NotContains(t, out, "area 3")
	assert.Contains(t, out, "3 more")
}

func TestInspectCmd_Missing(t *testing.T) {
	_, err := run(t, "", "inspect", "/nope/missing.shp")
	assert.ErrorIs(t, err, geom.ErrFileNotFound)
}

func TestRootCmd_RendersFromArgument(t *testing.T) {
	path := geomtest.WriteGrid(t, t.TempDir(), "study_area", 3, 10, 45, 0.05)
	outDir := filepath.Join(t.TempDir(), "maps")

	out, err := run(t, "", path, "--no-basemap", "--dpi", "10", "--figsize", "6x4", "-o", outDir, "--log-level", "error")
	require.NoError(t, err)

	want := filepath.Join(outDir, "study_area_basemap.png")
	assert.Contains(t, out, "Processing shapefile: "+path)
	assert.Contains(t, out, "Base map saved to: "+want)
	assert.FileExists(t, want)
}

func TestRootCmd_ReadsPathFromStdin(t *testing.T) {
	path := geomtest.WriteGrid(t, t.TempDir(), "piped", 2, 10, 45, 0.05)
	outDir := t.TempDir()

	out, err := run(t, `"`+path+`"`+"\n", "--no-basemap", "--dpi", "10", "-o", outDir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Please enter the path to your shapefile:")
	assert.FileExists(t, filepath.Join(outDir, "piped_basemap.png"))
}

func TestRootCmd_MissingFile(t *testing.T) {
	_, err := run(t, "/nope/missing.shp\n", "--log-level", "error")
	assert.ErrorIs(t, err, geom.ErrFileNotFound)

	_, err = run(t, "\n")
	assert.ErrorIs(t, err, geom.ErrFileNotFound)
}

func TestRootCmd_TerminalUsesPicker(t *testing.T) {
	origTerm, origPick := stdinIsTerminal, pick
	defer func() { stdinIsTerminal, pick = origTerm, origPick }()

	var called bool
	stdinIsTerminal = func(io.Reader) bool { return true }
	pick = func(string, geom.CRS) (string, error) {
		called = true
		return "", tui.ErrAborted
	}

	_, err := run(t, "")
	assert.True(t, called)
	assert.ErrorIs(t, err, tui.ErrAborted)
}

func TestRootCmd_InvalidFlags(t *testing.T) {
	_, err := run(t, "", "x.shp", "--zoom", "banana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "style.zoom")

	_, err = run(t, "", "x.shp", "--figsize", "wide")
	assert.Error(t, err)

	_, err = run(t, "", "a.shp", "b.shp")
	assert.Error(t, err)
}

func TestRootCmd_ConfigFile(t *testing.T) {
	path := geomtest.WriteGrid(t, t.TempDir(), "cfg", 2, 10, 45, 0.05)
	dir := t.TempDir()
	outDir := filepath.Join(dir, "from-config")
	cfgPath := filepath.Join(dir, "basemap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"output_dir: "+outDir+"\nno_basemap: true\nfilename: map.png\nlog:\n  level: error\nstyle:\n  dpi: 10\n"), 0o644))

	out, err := run(t, "", path, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(outDir, "map.png"))
}

func TestParseFigsize(t *testing.T) {
	w, h, err := parseFigsize("8.5x11")
	require.NoError(t, err)
	assert.Equal(t, 8.5, w)
	assert.Equal(t, 11.0, h)

	w, h, err = parseFigsize("15X15")
	require.NoError(t, err)
	assert.Equal(t, 15.0, w)
	assert.Equal(t, 15.0, h)

	for _, bad := range []string{"", "15", "ax5", "5xb", "0x5", "-1x2"} {
		_, _, err := parseFigsize(bad)
		assert.Error(t, err, bad)
	}
}
