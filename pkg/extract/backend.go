package extract

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/digital-idiot/SoilMatrix/pkg/raster"
)

// Backend opens source rasters and creates destination rasters.
type Backend interface {
	// OpenSource opens a remote raster read-only.
	OpenSource(ctx context.Context, url string) (Source, error)

	// CreateDestination creates a raster laid out as meta, overwriting any
	// existing file at path.
	CreateDestination(path string, meta raster.Metadata) (Destination, error)
}

// Source is an open source raster.
type Source interface {
	Metadata() raster.Metadata

	// Warp returns a view of the source in its own CRS that estimates
	// pixels with alg.
	Warp(alg raster.Resampling) (View, error)

	Close() error
}

// View is a resampling view over a source.
type View interface {
	Metadata() raster.Metadata

	// ProjectAOI reprojects the area of interest to the view CRS, repairs
	// it with a zero-distance buffer and unions it into one shape.
	ProjectAOI(aoi AOI) (orb.MultiPolygon, error)

	// ReadMasked reads every band of win. Samples equal to the band
	// nodata value, or flagged invalid by the band mask, are missing.
	ReadMasked(win raster.Window) (*raster.Block, error)

	Close() error
}

// Destination is a raster being written.
type Destination interface {
	// WriteBlock writes every band of b with its top-left pixel at win.
	WriteBlock(win raster.Window, b *raster.Block) error

	// SetBandDescription sets the description of a 1-based band.
	SetBandDescription(band int, desc string) error

	Close() error
}
