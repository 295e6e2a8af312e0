package gdalio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/digital-idiot/SoilMatrix/pkg/extract"
	"github.com/digital-idiot/SoilMatrix/pkg/raster"
)

var registerOnce sync.Once

// Options configures the backend.
type Options struct {
	// ConfigOptions are GDAL configuration options as KEY=VALUE, applied
	// to every open, warp and create.
	ConfigOptions []string

	// Logger receives debug records. Optional.
	Logger *slog.Logger
}

// ConfigOptions turns a map into sorted KEY=VALUE pairs.
func ConfigOptions(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// Backend is an extract.Backend backed by GDAL.
type Backend struct {
	cfg []string
	log *slog.Logger
}

// New registers the GDAL drivers once and returns a backend.
func New(opts Options) *Backend {
	registerOnce.Do(godal.RegisterAll)

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{
		cfg: slices.Clone(opts.ConfigOptions),
		log: log,
	}
}

// VSIPath maps a URL to a GDAL dataset name. http(s) and ftp URLs are
// read through /vsicurl/, s3:// and gs:// through /vsis3/ and /vsigs/.
// Anything else is returned unchanged.
func VSIPath(url string) string {
	switch {
	case strings.HasPrefix(url, "/vsi"):
		return url
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "ftp://"):
		return "/vsicurl/" + url
	case strings.HasPrefix(url, "s3://"):
		return "/vsis3/" + strings.TrimPrefix(url, "s3://")
	case strings.HasPrefix(url, "gs://"):
		return "/vsigs/" + strings.TrimPrefix(url, "gs://")
	default:
		return url
	}
}

// OpenSource opens url read-only.
func (b *Backend) OpenSource(ctx context.Context, url string) (extract.Source, error) {
	// GDAL reads cannot be interrupted; honour cancellation before opening.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := VSIPath(url)
	ds, err := godal.Open(name, godal.RasterOnly(), godal.ConfigOption(b.cfg...))
	if err != nil {
		return nil, err
	}

	meta, err := readMetadata(ds)
	if err != nil {
		ds.Close()
		return nil, err
	}
	b.log.Debug("opened source", "name", name, "size", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"bands", meta.Count, "dtype", meta.DataType)

	return &source{ds: ds, meta: meta, cfg: b.cfg, log: b.log}, nil
}

// CreateDestination creates a raster laid out as meta. An existing file at
// path is replaced.
func (b *Backend) CreateDestination(path string, meta raster.Metadata) (extract.Destination, error) {
	dt, err := toGDAL(meta.DataType)
	if err != nil {
		return nil, err
	}
	driver := meta.Driver
	if driver == "" {
		driver = raster.DefaultDriver
	}

	ds, err := godal.Create(godal.DriverName(driver), path, meta.Count, dt, meta.Width, meta.Height,
		godal.CreationOption(meta.CreationOptions...), godal.ConfigOption(b.cfg...))
	if err != nil {
		return nil, err
	}

	if err := setLayout(ds, meta); err != nil {
		ds.Close()
		return nil, err
	}
	b.log.Debug("created destination", "path", path, "driver", driver, "dtype", meta.DataType,
		"size", fmt.Sprintf("%dx%d", meta.Width, meta.Height))

	return &destination{ds: ds}, nil
}

func setLayout(ds *godal.Dataset, meta raster.Metadata) error {
	if err := ds.SetGeoTransform([6]float64(meta.Transform)); err != nil {
		return fmt.Errorf("set geotransform: %w", err)
	}
	if meta.CRS != "" {
		if err := ds.SetProjection(meta.CRS); err != nil {
			return fmt.Errorf("set projection: %w", err)
		}
	}
	if meta.HasNoData {
		for i, band := range ds.Bands() {
			if err := band.SetNoData(meta.NoData); err != nil {
				return fmt.Errorf("set nodata of band %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// readMetadata describes ds. The driver is always the default output
// driver: sources are often VRTs, which are not a useful output format.
func readMetadata(ds *godal.Dataset) (raster.Metadata, error) {
	st := ds.Structure()
	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Metadata{}, fmt.Errorf("read geotransform: %w", err)
	}

	meta := raster.Metadata{
		Driver:    raster.DefaultDriver,
		DataType:  fromGDAL(st.DataType),
		Count:     st.NBands,
		Width:     st.SizeX,
		Height:    st.SizeY,
		CRS:       ds.Projection(),
		Transform: raster.GeoTransform(gt),
	}
	if bands := ds.Bands(); len(bands) > 0 {
		if nd, ok := bands[0].NoData(); ok {
			meta.SetNoData(nd)
		}
	}
	return meta, nil
}

func toGDAL(dt raster.DataType) (godal.DataType, error) {
	switch dt {
	case raster.Byte:
		return godal.Byte, nil
	case raster.UInt16:
		return godal.UInt16, nil
	case raster.Int16:
		return godal.Int16, nil
	case raster.UInt32:
		return godal.UInt32, nil
	case raster.Int32:
		return godal.Int32, nil
	case raster.Float32:
		return godal.Float32, nil
	case raster.Float64:
		return godal.Float64, nil
	default:
		return godal.Unknown, fmt.Errorf("gdalio: unsupported data type %s", dt)
	}
}

func fromGDAL(dt godal.DataType) raster.DataType {
	switch dt {
	case godal.Byte:
		return raster.Byte
	case godal.UInt16:
		return raster.UInt16
	case godal.Int16:
		return raster.Int16
	case godal.UInt32:
		return raster.UInt32
	case godal.Int32:
		return raster.Int32
	case godal.Float32:
		return raster.Float32
	case godal.Float64:
		return raster.Float64
	default:
		return raster.Unknown
	}
}

// warpResampling returns the gdalwarp -r name of alg.
func warpResampling(alg raster.Resampling) string {
	switch alg {
	case raster.Nearest:
		return "near"
	case raster.CubicSpline:
		return "cubicspline"
	default:
		return alg.String()
	}
}
