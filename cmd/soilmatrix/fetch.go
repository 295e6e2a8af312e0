package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/digital-idiot/SoilMatrix/internal/aoi"
	"github.com/digital-idiot/SoilMatrix/internal/config"
	"github.com/digital-idiot/SoilMatrix/internal/gdalio"
	soilhttp "github.com/digital-idiot/SoilMatrix/internal/http"
	"github.com/digital-idiot/SoilMatrix/internal/logger"
	"github.com/digital-idiot/SoilMatrix/internal/metrics"
	"github.com/digital-idiot/SoilMatrix/internal/progress"
	"github.com/digital-idiot/SoilMatrix/internal/publish"
	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

// runFetch clips a coverage to an area of interest and writes the result,
// optionally publishing it to a bucket.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	configFile := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env-file", "", "Load environment variables from this file (default: .env if present)")
	baseURL := fs.String("base-url", catalog.DefaultBaseURL, "SoilGrids data root")
	service := fs.String("service", "", "Service id, e.g. phh2o (required)")
	coverage := fs.String("coverage", "", "Coverage id, e.g. 0-5cm_mean (required)")
	area := fs.String("aoi", "", "Area of interest: path, http(s) or bucket URL of GeoJSON, WKT or WKB (required)")
	areaCRS := fs.String("aoi-crs", "", "CRS of the area of interest (default: from the document, else EPSG:4326)")
	output := fs.String("output", "", "Output raster path (required)")
	tileHeight := fs.Int("tile-height", extract.DefaultTileSize, "Tile height in pixels")
	tileWidth := fs.Int("tile-width", extract.DefaultTileSize, "Tile width in pixels")
	resampling := fs.String("resampling", "nearest", "Resampling algorithm")
	convert := fs.Bool("convert", false, "Convert values to the target unit of the service")
	allTouched := fs.Bool("all-touched", false, "Include every pixel touched by the area")
	invert := fs.Bool("invert", false, "Keep pixels outside the area instead")
	writerOptions := fs.String("writer-options", "", "Output options as key=value,... (driver, dtype, nodata or creation options)")
	gdalOptions := fs.String("gdal-options", "", "GDAL configuration options as KEY=VALUE,...")
	showProgress := fs.Bool("progress", true, "Show progress output")
	transient := fs.Bool("transient", false, "Clear the progress line when done")
	bucket := fs.String("bucket", "", "Publish the result to this bucket URL")
	object := fs.String("object", "", "Object key of the published result (default: output file name)")
	metricsFile := fs.String("metrics-file", "", "Write prometheus metrics to this file")
	maxAOISize := fs.String("max-aoi-size", "64MiB", "Maximum size of the area of interest document")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "Log format: text, json")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: soilmatrix fetch [options]

Clip a SoilGrids coverage to an area of interest and write it as a raster.
Flags override environment variables (SOILMATRIX_*), which override the
configuration file.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if err := config.LoadDotEnv(envFiles(*envFile)...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	// Explicit flags win
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "service":
			cfg.Service = *service
		case "coverage":
			cfg.Coverage = *coverage
		case "aoi":
			cfg.AOI = *area
		case "aoi-crs":
			cfg.AOICRS = *areaCRS
		case "output":
			cfg.Output = *output
		case "tile-height":
			cfg.TileHeight = *tileHeight
		case "tile-width":
			cfg.TileWidth = *tileWidth
		case "resampling":
			cfg.Resampling = *resampling
		case "convert":
			cfg.Convert = *convert
		case "all-touched":
			cfg.AllTouched = *allTouched
		case "invert":
			cfg.Invert = *invert
		case "progress":
			cfg.Progress = *showProgress
		case "transient":
			cfg.Transient = *transient
		case "bucket":
			cfg.Bucket = *bucket
		case "object":
			cfg.Object = *object
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "max-aoi-size":
			size, err := progress.ParseBytes(*maxAOISize)
			if err != nil {
				flagErr = fmt.Errorf("invalid -max-aoi-size: %w", err)
			}
			cfg.MaxAOISize = size
		case "writer-options":
			m, err := config.ParseKeyValues(*writerOptions)
			if err != nil {
				flagErr = fmt.Errorf("invalid -writer-options: %w", err)
			}
			cfg = cfg.Merge(config.Config{WriterOptions: m})
		case "gdal-options":
			m, err := config.ParseKeyValues(*gdalOptions)
			if err != nil {
				flagErr = fmt.Errorf("invalid -gdal-options: %w", err)
			}
			cfg = cfg.Merge(config.Config{GDALOptions: m})
		}
	})
	if flagErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", flagErr)
		return ExitInvalidArgs
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signalContext()
	defer cancel()

	return fetch(ctx, cfg, log)
}

func envFiles(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

func httpOptions(cfg config.Config) soilhttp.Options {
	return soilhttp.Options{
		Timeout:         cfg.HTTP.Timeout,
		RetryAttempts:   cfg.HTTP.Retry.Attempts,
		RetryBackoff:    cfg.HTTP.Retry.Backoff,
		RetryMaxBackoff: cfg.HTTP.Retry.MaxBackoff,
	}
}

// fetch runs one validated extraction.
func fetch(ctx context.Context, cfg config.Config, log *slog.Logger) int {
	cat := catalog.New(catalog.WithBaseURL(cfg.BaseURL))

	// Resolve early so that an unknown coverage fails before any download.
	url, err := cat.SourceURL(cfg.Service, cfg.Coverage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitNotFound
	}

	area, err := aoi.Load(ctx, cfg.AOI, aoi.Options{
		CRS:     cfg.AOICRS,
		MaxSize: cfg.MaxAOISize,
		HTTP:    soilhttp.NewClient(httpOptions(cfg)),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading area of interest: %v\n", err)
		if code := exitCode(err); code != ExitGeneralError {
			return code
		}
		return ExitInvalidArgs
	}
	log.Debug("loaded area of interest", "source", cfg.AOI, "geometries", len(area.Geometries), "crs", area.CRS)

	reporter := progress.NewReporter(progress.Options{
		Transient: cfg.Transient,
		Disabled:  !cfg.Progress,
	})
	reporter.Start()
	defer reporter.Stop()

	recorder := metrics.New()
	if cfg.MetricsFile != "" {
		defer func() {
			if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Warn("write metrics", "path", cfg.MetricsFile, "error", err)
			}
		}()
	}

	req := extract.Request{
		Service:       cfg.Service,
		Coverage:      cfg.Coverage,
		AOI:           area,
		Destination:   cfg.Output,
		Convert:       cfg.Convert,
		AllTouched:    cfg.AllTouched,
		Invert:        cfg.Invert,
		TileHeight:    cfg.TileHeight,
		TileWidth:     cfg.TileWidth,
		Resampling:    cfg.Resampling,
		WriterOptions: cfg.WriterOptions,
	}

	start := time.Now()
	err = extract.Extract(ctx, req, extract.Options{
		Catalog: cat,
		Backend: gdalio.New(gdalio.Options{
			ConfigOptions: gdalio.ConfigOptions(cfg.GDALOptions),
			Logger:        log,
		}),
		Progress: reporter,
		Observer: recorder,
		Logger:   log,
	})
	recorder.ObserveExtract(cfg.Service, time.Since(start), err)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "[soilmatrix] Extraction interrupted")
			return ExitGeneralError
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	fmt.Fprintf(os.Stderr, "[soilmatrix] Wrote %s\n", cfg.Output)

	if cfg.Bucket == "" {
		return ExitSuccess
	}
	return publishResult(ctx, cfg, url)
}

func publishResult(ctx context.Context, cfg config.Config, sourceURL string) int {
	key := cfg.Object
	if key == "" {
		key = filepath.Base(cfg.Output)
	}

	bkt, err := blob.OpenBucket(ctx, cfg.Bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	manifest, err := publish.Upload(ctx, bkt, cfg.Output, key,
		publish.WithSource(cfg.Service, cfg.Coverage, sourceURL),
		publish.WithRequest(requestOptions(cfg)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(os.Stderr, "[soilmatrix] Published %s/%s (%s, run %s)\n",
		cfg.Bucket, key, progress.FormatBytes(manifest.Size), manifest.RunID)
	fmt.Fprintf(os.Stderr, "[soilmatrix] Manifest: %s/%s\n", cfg.Bucket, publish.ManifestPath(key))
	return ExitSuccess
}

// requestOptions records the options of a run in its manifest.
func requestOptions(cfg config.Config) map[string]string {
	m := map[string]string{
		"aoi":         cfg.AOI,
		"convert":     strconv.FormatBool(cfg.Convert),
		"all_touched": strconv.FormatBool(cfg.AllTouched),
		"invert":      strconv.FormatBool(cfg.Invert),
		"resampling":  cfg.Resampling,
		"tile_height": strconv.Itoa(cfg.TileHeight),
		"tile_width":  strconv.Itoa(cfg.TileWidth),
	}
	if cfg.AOICRS != "" {
		m["aoi_crs"] = cfg.AOICRS
	}
	if len(cfg.WriterOptions) > 0 {
		m["writer_options"] = config.FormatKeyValues(cfg.WriterOptions)
	}
	return m
}
