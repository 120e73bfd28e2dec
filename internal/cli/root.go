// Package cli wires the basemap commands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"basemap/internal/config"
	"basemap/internal/geom"
	"basemap/internal/logging"
	"basemap/internal/pipeline"
	"basemap/internal/tui"
)

// set at build time with -ldflags "-X basemap/internal/cli.version=..."
var version = "dev"

// swapped in tests
var (
	stdinIsTerminal = func(r io.Reader) bool {
		f, ok := r.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
	pick = func(dir string, fallback geom.CRS) (string, error) { return tui.Pick(dir, fallback) }
)

// flag name -> config key
var flagKeys = map[string]string{
	"output-dir": "output_dir",
	"filename":   "filename",
	"source-crs": "source_crs",
	"no-basemap": "no_basemap",
	"provider":   "style.provider",
	"tile-url":   "style.tile_url",
	"zoom":       "style.zoom",
	"dpi":        "style.dpi",
	"title":      "style.title",
	"log-level":  "log.level",
	"verbose":    "log.verbose",
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:   "basemap [shapefile]",
		Short: "Render a shapefile over web map tiles into a PNG",
		Long: `basemap draws the features of a shapefile over a web map basemap and
saves a print-ready PNG with grid, legend, scale bar and north arrow.

Without a shapefile argument it opens a picker on a terminal, or reads one
path from standard input.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, configFile)
			if err != nil {
				return err
			}
			return runRender(cmd, cfg)
		},
	}

	f := root.Flags()
	f.StringVar(&configFile, "config", "", "config file (default ./basemap.yaml or ~/.config/basemap/basemap.yaml)")
	f.StringP("output-dir", "o", "output_base_maps", "directory the PNG is written to")
	f.String("filename", "", "output file name (default <name>_basemap.png)")
	f.String("source-crs", "EPSG:4326", "CRS assumed when the shapefile has no .prj")
	f.Bool("no-basemap", false, "skip downloading basemap tiles")
	f.StringP("provider", "p", "OpenStreetMap.HOT", "tile provider, see 'basemap providers'")
	f.String("tile-url", "", "custom tile URL template with {z}, {x}, {y}")
	f.StringP("zoom", "z", "auto", "tile zoom level or auto")
	f.Float64("dpi", 300, "output resolution")
	f.String("figsize", "15x15", "figure size in inches, WIDTHxHEIGHT")
	f.String("title", "", "map title (default derived from the file name)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(newInspectCmd(), newProvidersCmd(), newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		fl := flags.Lookup(name)
		if fl == nil {
			continue
		}
		if err := v.BindPFlag(key, fl); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func loadConfig(cmd *cobra.Command, args []string, file string) (*config.Config, error) {
	v := viper.New()
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	if fl := cmd.Flags().Lookup("figsize"); fl != nil && fl.Changed {
		w, h, err := parseFigsize(fl.Value.String())
		if err != nil {
			return nil, err
		}
		v.Set("style.fig_width", w)
		v.Set("style.fig_height", h)
	}
	if len(args) == 1 {
		v.Set("input", args[0])
	}
	return config.Load(v, file)
}

// parseFigsize reads "15x15" or "8.5x11".
func parseFigsize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("figsize %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("figsize %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("figsize %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("figsize %q: sizes must be positive", s)
	}
	return w, h, nil
}

// resolveInput asks for a path when none was configured: the picker on a
// terminal, otherwise one line from stdin.
func resolveInput(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if cfg.Input != "" {
		return tui.CleanPath(cfg.Input), nil
	}
	in := cmd.InOrStdin()
	if stdinIsTerminal(in) {
		fallback, err := geom.ParseCRS(cfg.SourceCRS)
		if err != nil {
			return "", err
		}
		return pick(".", fallback)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Please enter the path to your shapefile:")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read path: %w", err)
	}
	p := tui.CleanPath(line)
	if p == "" {
		return "", fmt.Errorf("%w: no path given", geom.ErrFileNotFound)
	}
	return p, nil
}

func runRender(cmd *cobra.Command, cfg *config.Config) error {
	input, err := resolveInput(cmd, cfg)
	if err != nil {
		return err
	}
	cfg.Input = input

	log, err := logging.New(cfg.Log.Level, cfg.Log.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, dimStyle.Render("Processing shapefile: "+cfg.Input))
	fmt.Fprintln(out, dimStyle.Render("Output will be saved to: "+cfg.OutputDir))

	r := pipeline.New(pipeline.NewFetcher(cfg.Tiles, log), log)
	art, err := r.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, savedStyle.Render("Base map saved to: "+art.Path))
	return nil
}
