// Package pipeline runs one shapefile through load, reprojection, rendering,
// basemap compositing and export.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"basemap/internal/config"
	"basemap/internal/export"
	"basemap/internal/geom"
	"basemap/internal/render"
	"basemap/internal/tiles"
)

// Runner drives a single run and remembers the last stage it reached.
type Runner struct {
	tiles render.TileSource
	log   *zap.Logger
	stage Stage
}

// New returns a Runner fetching tiles from src. A nil log discards output.
func New(src render.TileSource, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{tiles: src, log: log}
}

// NewFetcher builds the HTTP tile source described by c.
func NewFetcher(c config.Tiles, log *zap.Logger) *tiles.Fetcher {
	return tiles.NewFetcher(
		tiles.WithHTTPClient(&http.Client{Timeout: c.Timeout}),
		tiles.WithUserAgent(c.UserAgent),
		tiles.WithRate(c.Rate),
		tiles.WithRetries(c.Retries, 500*time.Millisecond),
		tiles.WithLogger(log.Named("tiles")),
	)
}

// Stage reports the last stage reached.
func (r *Runner) Stage() Stage { return r.stage }

func (r *Runner) advance(s Stage, fields ...zap.Field) {
	r.stage = s
	r.log.Info("stage "+s.String(), fields...)
}

func (r *Runner) fail(s Stage, err error) error {
	r.log.Error("stage failed",
		zap.Stringer("stage", s),
		zap.Stringer("reached", r.stage),
		zap.Error(err))
	return fmt.Errorf("%s: %w", s.op(), err)
}

// Run executes the pipeline for cfg and returns the written image.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (export.Artifact, error) {
	r.stage = Idle
	start := time.Now()

	fallback, err := geom.ParseCRS(cfg.SourceCRS)
	if err != nil {
		return export.Artifact{}, r.fail(Loaded, err)
	}
	ds, err := geom.LoadShapefile(cfg.Input, fallback)
	if err != nil {
		return export.Artifact{}, r.fail(Loaded, err)
	}
	counts := ds.Counts()
	r.advance(Loaded,
		zap.String("path", ds.Path),
		zap.Stringer("crs", ds.CRS),
		zap.Int("features", ds.Len()),
		zap.Int("polygons", counts.Polygons),
		zap.Int("lines", counts.Lines),
		zap.Int("points", counts.Points))

	merc, err := geom.Reproject(ds, geom.WebMercator)
	if err != nil {
		return export.Artifact{}, r.fail(Reprojected, err)
	}
	r.advance(Reprojected, zap.Stringer("from", ds.CRS), zap.Stringer("to", merc.CRS))

	fig, err := render.New(merc, cfg.Style)
	if err != nil {
		return export.Artifact{}, r.fail(Rendered, err)
	}
	r.advance(Rendered,
		zap.Int("width", fig.Width),
		zap.Int("height", fig.Height),
		zap.Float64("dpi", fig.DPI))

	if cfg.NoBasemap {
		r.advance(Composited, zap.Bool("skipped", true))
	} else {
		if err := r.composite(ctx, fig, cfg.Style); err != nil {
			fig.Close()
			return export.Artifact{}, r.fail(Composited, err)
		}
	}

	art, err := export.Write(fig, cfg.OutputDir, cfg.OutputName(ds.Name))
	if err != nil {
		return export.Artifact{}, r.fail(Exported, err)
	}
	r.advance(Exported, zap.String("path", art.Path), zap.Int64("bytes", art.Bytes))
	r.advance(Terminal, zap.Duration("elapsed", time.Since(start)))
	return art, nil
}

func (r *Runner) composite(ctx context.Context, fig *render.Figure, style config.Style) error {
	p, err := style.TileProvider()
	if err != nil {
		return err
	}
	zoom, auto, err := style.ZoomLevel()
	if err != nil {
		return err
	}
	z := render.Zoom(fig.Extent, p, zoom, auto)
	if err := render.Composite(ctx, fig, r.tiles, p, zoom, auto); err != nil {
		return err
	}
	r.advance(Composited,
		zap.String("provider", p.Name),
		zap.Int("zoom", z),
		zap.Bool("auto", auto))
	return nil
}
