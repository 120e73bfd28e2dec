package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "output_base_maps", cfg.OutputDir)
	assert.Equal(t, "EPSG:4326", cfg.SourceCRS)
	assert.Equal(t, "OpenStreetMap.HOT", cfg.Style.Provider)
	assert.Equal(t, "auto", cfg.Style.Zoom)
	assert.Equal(t, 0.5, cfg.Style.FillAlpha)
	assert.Equal(t, 3.0, cfg.Style.LineWidth)
	assert.Equal(t, "Study Area", cfg.Style.Legend)
	assert.True(t, cfg.Style.Transparent)
	assert.Equal(t, 30*time.Second, cfg.Tiles.Timeout)
	assert.Equal(t, 3, cfg.Tiles.Retries)

	w, h := cfg.Style.Size()
	assert.Equal(t, 4500, w)
	assert.Equal(t, 4500, h)
	assert.Equal(t, color.NRGBA{139, 69, 19, 255}, cfg.Style.Fill())
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, cfg.Style.Edge())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_dir: maps
style:
  dpi: 100
  fig_width: 8
  fig_height: 6
  zoom: "11"
  provider: cartodb.positron
tiles:
  timeout: 5s
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "maps", cfg.OutputDir)
	assert.Equal(t, 5*time.Second, cfg.Tiles.Timeout)

	w, h := cfg.Style.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	z, auto, err := cfg.Style.ZoomLevel()
	require.NoError(t, err)
	assert.False(t, auto)
	assert.Equal(t, 11, z)

	p, err := cfg.Style.TileProvider()
	require.NoError(t, err)
	assert.Equal(t, "CartoDB.Positron", p.Name)
}

func TestLoadSearchesWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "basemap.yaml"), []byte("output_dir: found\n"), 0o644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.OutputDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("style:\n  dpi: 100\n"), 0o644))
	t.Setenv("BASEMAP_STYLE_DPI", "72")
	t.Setenv("BASEMAP_OUTPUT_DIR", "from-env")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 72.0, cfg.Style.DPI)
	assert.Equal(t, "from-env", cfg.OutputDir)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateCollectsAll(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	cfg.Style.DPI = 0
	cfg.Style.FillAlpha = 2
	cfg.Style.FillColor = "not-a-colour"
	cfg.Style.Zoom = "99"
	cfg.Style.Provider = "Nope"
	cfg.SourceCRS = "EPSG:2180"

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"style.dpi", "fill_alpha", "fill_color", "style.zoom", "style.provider", "source_crs"} {
		assert.Contains(t, msg, want)
	}
}

func TestValidateTileURLOverridesProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	cfg.Style.Provider = "Nope"
	cfg.Style.TileURL = "https://tiles.example.com/{z}/{x}/{y}.png"
	assert.NoError(t, cfg.Validate())
}

func TestOutputName(t *testing.T) {
	c := &Config{}
	assert.Equal(t, "parcels_basemap.png", c.OutputName("parcels"))
	c.Filename = "x.png"
	assert.Equal(t, "x.png", c.OutputName("parcels"))
}

func TestZoomLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		z    int
		auto bool
		err  bool
	}{
		{"auto", 0, true, false},
		{"", 0, true, false},
		{" AUTO ", 0, true, false},
		{"0", 0, false, false},
		{"22", 22, false, false},
		{"23", 0, false, true},
		{"-1", 0, false, true},
		{"ten", 0, false, true},
	} {
		z, auto, err := Style{Zoom: tc.in}.ZoomLevel()
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.z, z, tc.in)
		assert.Equal(t, tc.auto, auto, tc.in)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#8B4513")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{139, 69, 19, 255}, c)

	c, err = ParseColor("#f00")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, c)

	c, err = ParseColor("#00000080")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 0, 128}, c)

	c, err = ParseColor(" SaddleBrown ")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{139, 69, 19, 255}, c)

	for _, bad := range []string{"", "chartreuse-ish", "#12", "#gggggg"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}
