package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/paulmach/orb"

	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
	"github.com/digital-idiot/SoilMatrix/pkg/raster"
)

// DefaultTileSize is the tile edge used when a request leaves it unset.
const DefaultTileSize = 512

// AOI is an area of interest.
type AOI struct {
	// Geometries are Polygon or MultiPolygon values.
	Geometries []orb.Geometry

	// CRS of the geometries as "EPSG:n", WKT or a PROJ string.
	// Empty means EPSG:4326.
	CRS string
}

// Request describes one extraction.
type Request struct {
	Service     string
	Coverage    string
	AOI         AOI
	Destination string

	// Convert rescales values to the target unit of the service, when it
	// has one, and writes float32 samples with a NaN nodata value.
	Convert bool

	// AllTouched includes every pixel touched by the area instead of only
	// those whose center lies inside it.
	AllTouched bool

	// Invert keeps the pixels outside the area instead.
	Invert bool

	TileHeight int // default DefaultTileSize
	TileWidth  int // default DefaultTileSize

	// Resampling names the pixel estimation algorithm. Unknown names fall
	// back to nearest.
	Resampling string

	// WriterOptions override the destination layout ("driver", "dtype",
	// "nodata") or become driver creation options.
	WriterOptions map[string]string
}

// Options configures Extract.
type Options struct {
	// Catalog resolves services and coverages. Default: catalog.Default
	Catalog *catalog.Catalog

	// Backend performs raster I/O. Required.
	Backend Backend

	// Progress receives one task per call. Default: discard
	Progress ProgressReporter

	// Observer is notified after each tile. Optional.
	Observer TileObserver

	// Logger receives debug and warning records. Optional.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = catalog.Default
	}
	if o.Progress == nil {
		o.Progress = nopProgress{}
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

func (r Request) tileSize() (height, width int, err error) {
	height, width = r.TileHeight, r.TileWidth
	if height == 0 {
		height = DefaultTileSize
	}
	if width == 0 {
		width = DefaultTileSize
	}
	if height < 0 || width < 0 {
		return 0, 0, fmt.Errorf("%w: tile size %dx%d", ErrInvalidRequest, r.TileHeight, r.TileWidth)
	}
	return height, width, nil
}

// Extract clips a coverage to the area of interest and writes it to
// req.Destination.
//
// A progress task is begun before anything else and always ends with either
// Complete or Abort. Every handle opened along the way is closed before
// Extract returns.
func Extract(ctx context.Context, req Request, opts Options) (err error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("service", req.Service, "coverage", req.Coverage)

	task := opts.Progress.BeginTask(Label(req.Service, req.Coverage))
	defer func() {
		if err != nil {
			opts.Progress.Abort(task, err)
			return
		}
		opts.Progress.Complete(task)
	}()

	if opts.Backend == nil {
		return fmt.Errorf("%w: no backend", ErrInvalidRequest)
	}
	if req.Destination == "" {
		return fmt.Errorf("%w: no destination", ErrInvalidRequest)
	}
	tileHeight, tileWidth, err := req.tileSize()
	if err != nil {
		return err
	}

	// Resolve the coverage
	svc, err := opts.Catalog.Service(req.Service)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	url, err := opts.Catalog.SourceURL(req.Service, req.Coverage)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}

	// Converting a unitless service still yields float32 with NaN nodata;
	// only the division is skipped.
	unit := svc.SourceUnit
	var factor float64
	if req.Convert {
		unit, factor = svc.TargetUnit, svc.ConversionFactor
	}

	alg := raster.Nearest
	if req.Resampling != "" {
		var known bool
		if alg, known = raster.LookupResampling(req.Resampling); !known {
			log.Warn("unknown resampling, using nearest", "resampling", req.Resampling)
		}
	}

	// Open the source
	src, err := opts.Backend.OpenSource(ctx, url)
	if err != nil {
		return &IOError{Op: OpOpen, Path: url, Err: err}
	}
	defer closeInto(&err, src, url)

	meta := src.Metadata()
	if req.Convert {
		meta.DataType = raster.Float32
		meta.SetNoData(math.NaN())
	}
	meta, err = meta.WithOptions(req.WriterOptions)
	if err != nil {
		return fmt.Errorf("%w: writer options: %v", ErrInvalidRequest, err)
	}

	view, err := src.Warp(alg)
	if err != nil {
		return &IOError{Op: OpWarp, Path: url, Err: err}
	}
	defer closeInto(&err, view, url)
	viewMeta := view.Metadata()

	// Place the area of interest on the pixel grid
	geomErr := func(err error) error {
		return &GeometryError{Service: req.Service, Coverage: req.Coverage, Err: err}
	}
	shape, err := view.ProjectAOI(req.AOI)
	if err != nil {
		return geomErr(err)
	}
	footprint, err := raster.NewFootprint(shape, viewMeta.Transform)
	if err != nil {
		return geomErr(err)
	}
	var pad float64
	if req.AllTouched {
		pad = 0.5
	}
	win, err := footprint.Window(pad, viewMeta.Height, viewMeta.Width)
	if err != nil {
		return geomErr(err)
	}
	plan, err := win.Subdivide(tileHeight, tileWidth)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Create the destination
	meta.Count = viewMeta.Count
	meta.Height = win.Height
	meta.Width = win.Width
	meta.Transform = viewMeta.Transform.Window(win)
	meta.CRS = viewMeta.CRS
	if meta.HasNoData {
		meta.NoData = meta.CastNoData()
	}
	fill := meta.FillValue()

	dst, err := opts.Backend.CreateDestination(req.Destination, meta)
	if err != nil {
		return &IOError{Op: OpCreate, Path: req.Destination, Err: err}
	}
	defer closeInto(&err, dst, req.Destination)

	opts.Progress.SetTotal(task, len(plan))
	log.Debug("extracting", "url", url, "window", win, "tiles", len(plan), "resampling", alg)

	for _, tile := range plan {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extract %s/%s: %w", req.Service, req.Coverage, err)
		}

		mask := footprint.Mask(tile.Source, req.AllTouched, req.Invert)
		branch := BranchFill
		var block *raster.Block
		if mask.All() {
			block = raster.FilledBlock(meta.Count, tile.Source.Height, tile.Source.Width, fill)
		} else {
			branch = BranchRead
			block, err = view.ReadMasked(tile.Source)
			if err != nil {
				return &IOError{Op: OpRead, Path: url, Err: err}
			}
			if err := block.Composite(mask); err != nil {
				return &IOError{Op: OpRead, Path: url, Err: err}
			}
			if factor != 0 {
				block.Divide(factor, meta.DataType)
			} else {
				block.Cast(meta.DataType)
			}
			block.Fill(fill)
		}

		if err := dst.WriteBlock(tile.Dest, block); err != nil {
			return &IOError{Op: OpWrite, Path: req.Destination, Err: err}
		}
		opts.Progress.Advance(task, 1)
		opts.Observer.ObserveTile(req.Service, branch)
	}

	desc := fmt.Sprintf("%s_%s|%s", req.Service, req.Coverage, unit)
	if err := dst.SetBandDescription(1, desc); err != nil {
		return &IOError{Op: OpDescribe, Path: req.Destination, Err: err}
	}

	log.Debug("extracted", "destination", req.Destination)
	return nil
}

// closeInto closes c and records the failure in err unless an earlier error
// is already there.
func closeInto(err *error, c io.Closer, path string) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = &IOError{Op: OpClose, Path: path, Err: cerr}
	}
}
