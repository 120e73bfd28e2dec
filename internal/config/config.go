package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"basemap/internal/geom"
	"basemap/internal/tiles"
)

// Config holds everything one run needs.
type Config struct {
	Input     string `mapstructure:"input"`
	OutputDir string `mapstructure:"output_dir"`
	Filename  string `mapstructure:"filename"`
	SourceCRS string `mapstructure:"source_crs"`
	NoBasemap bool   `mapstructure:"no_basemap"`
	Style     Style  `mapstructure:"style"`
	Tiles     Tiles  `mapstructure:"tiles"`
	Log       Log    `mapstructure:"log"`
}

// Style controls how the map looks.
type Style struct {
	FillColor   string  `mapstructure:"fill_color"`
	EdgeColor   string  `mapstructure:"edge_color"`
	FillAlpha   float64 `mapstructure:"fill_alpha"`
	LineWidth   float64 `mapstructure:"line_width"` // points
	FigWidth    float64 `mapstructure:"fig_width"`  // inches
	FigHeight   float64 `mapstructure:"fig_height"` // inches
	DPI         float64 `mapstructure:"dpi"`
	Provider    string  `mapstructure:"provider"`
	TileURL     string  `mapstructure:"tile_url"`
	Zoom        string  `mapstructure:"zoom"`
	Padding     float64 `mapstructure:"padding"`
	Title       string  `mapstructure:"title"`
	Legend      string  `mapstructure:"legend"`
	Transparent bool    `mapstructure:"transparent"`
	ScaleBarKM  float64 `mapstructure:"scale_bar_km"`
}

type Tiles struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	Rate      float64       `mapstructure:"rate"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Log struct {
	Level   string `mapstructure:"level"`
	Verbose bool   `mapstructure:"verbose"`
}

// MaxZoom is the deepest zoom any provider serves.
const MaxZoom = 22

// SetDefaults registers the defaults, which reproduce the classic study
// area map: saddlebrown fill, thick black outline, 15x15 in at 300 dpi.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("output_dir", "output_base_maps")
	v.SetDefault("filename", "")
	v.SetDefault("source_crs", "EPSG:4326")
	v.SetDefault("no_basemap", false)

	v.SetDefault("style.fill_color", "saddlebrown")
	v.SetDefault("style.edge_color", "black")
	v.SetDefault("style.fill_alpha", 0.5)
	v.SetDefault("style.line_width", 3.0)
	v.SetDefault("style.fig_width", 15.0)
	v.SetDefault("style.fig_height", 15.0)
	v.SetDefault("style.dpi", 300.0)
	v.SetDefault("style.provider", tiles.DefaultProvider)
	v.SetDefault("style.tile_url", "")
	v.SetDefault("style.zoom", "auto")
	v.SetDefault("style.padding", 0.2)
	v.SetDefault("style.title", "")
	v.SetDefault("style.legend", "Study Area")
	v.SetDefault("style.transparent", true)
	v.SetDefault("style.scale_bar_km", 0.0)

	v.SetDefault("tiles.timeout", tiles.DefaultTimeout)
	v.SetDefault("tiles.retries", tiles.DefaultRetries)
	v.SetDefault("tiles.rate", tiles.DefaultRate)
	v.SetDefault("tiles.user_agent", tiles.DefaultUserAgent)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.verbose", false)
}

// Load reads defaults, an optional YAML file and BASEMAP_* environment
// variables into v, then decodes and validates. Flags bound to v before
// calling Load take precedence over all of these.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("basemap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "basemap"))
		}
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// BASEMAP_STYLE_DPI -> style.dpi
	v.SetEnvPrefix("BASEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string
	s := c.Style

	if c.OutputDir == "" {
		errs = append(errs, "output_dir is required")
	}
	if c.Filename != "" && strings.ContainsAny(c.Filename, `/\`) {
		errs = append(errs, fmt.Sprintf("filename must not contain a path, got %q", c.Filename))
	}
	if _, err := geom.ParseCRS(c.SourceCRS); err != nil {
		errs = append(errs, fmt.Sprintf("source_crs: %v", err))
	}
	if _, err := ParseColor(s.FillColor); err != nil {
		errs = append(errs, fmt.Sprintf("style.fill_color: %v", err))
	}
	if _, err := ParseColor(s.EdgeColor); err != nil {
		errs = append(errs, fmt.Sprintf("style.edge_color: %v", err))
	}
	if s.FillAlpha < 0 || s.FillAlpha > 1 {
		errs = append(errs, fmt.Sprintf("style.fill_alpha must be 0-1, got %g", s.FillAlpha))
	}
	if s.LineWidth < 0 {
		errs = append(errs, "style.line_width must not be negative")
	}
	if s.FigWidth <= 0 || s.FigHeight <= 0 {
		errs = append(errs, fmt.Sprintf("style figure size must be positive, got %gx%g", s.FigWidth, s.FigHeight))
	}
	if s.DPI <= 0 {
		errs = append(errs, "style.dpi must be positive")
	}
	if w, h := s.Size(); s.DPI > 0 && (w > 20000 || h > 20000) {
		errs = append(errs, fmt.Sprintf("image of %dx%d px is too large", w, h))
	}
	if s.Padding < 0 {
		errs = append(errs, "style.padding must not be negative")
	}
	if s.ScaleBarKM < 0 {
		errs = append(errs, "style.scale_bar_km must not be negative")
	}
	if _, _, err := s.ZoomLevel(); err != nil {
		errs = append(errs, fmt.Sprintf("style.zoom: %v", err))
	}
	if _, err := s.TileProvider(); err != nil {
		errs = append(errs, fmt.Sprintf("style.provider: %v", err))
	}
	if c.Tiles.Retries < 0 {
		errs = append(errs, "tiles.retries must not be negative")
	}
	if c.Tiles.Timeout <= 0 {
		errs = append(errs, "tiles.timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// OutputName is the configured file name or "<dataset>_basemap.png".
func (c *Config) OutputName(dataset string) string {
	if c.Filename != "" {
		return c.Filename
	}
	return dataset + "_basemap.png"
}

// Size is the output image size in pixels.
func (s Style) Size() (int, int) {
	return int(math.Round(s.FigWidth * s.DPI)), int(math.Round(s.FigHeight * s.DPI))
}

// ZoomLevel parses the zoom setting; auto is true for "auto" or empty.
func (s Style) ZoomLevel() (z int, auto bool, err error) {
	v := strings.TrimSpace(strings.ToLower(s.Zoom))
	if v == "" || v == "auto" {
		return 0, true, nil
	}
	z, err = strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("want auto or 0-%d, got %q", MaxZoom, s.Zoom)
	}
	if z < 0 || z > MaxZoom {
		return 0, false, fmt.Errorf("want auto or 0-%d, got %d", MaxZoom, z)
	}
	return z, false, nil
}

// TileProvider resolves the custom URL if set, else the named provider.
func (s Style) TileProvider() (tiles.Provider, error) {
	if s.TileURL != "" {
		return tiles.Custom(s.TileURL, MaxZoom)
	}
	return tiles.Lookup(s.Provider)
}
