// Package extract clips a SoilGrids coverage to an area of interest and
// writes the result as a new raster, one tile at a time.
//
// The pipeline never holds more than one tile in memory. The bounding window
// of the area of interest is split into a row-major grid of tiles (512x512 by
// default). Tiles whose pixels all fall outside the area are written as a
// solid fill block without touching the source. Every other tile is read
// through a resampling view, masked, optionally rescaled, and written at its
// offset in the destination.
//
// # Usage
//
//	err := extract.Extract(ctx, extract.Request{
//	    Service:     "phh2o",
//	    Coverage:    "0-5cm_mean",
//	    AOI:         extract.AOI{Geometries: []orb.Geometry{poly}},
//	    Destination: "phh2o.tif",
//	    Convert:     true,
//	}, extract.Options{
//	    Backend:  gdalio.New(),
//	    Progress: reporter,
//	})
//
// # Backends
//
// Raster I/O goes through the [Backend] interface. The production backend
// lives in internal/gdalio; tests use an in-memory one.
//
// # Errors
//
// Unknown services or coverages wrap [catalog.ErrNotFound]. An area of
// interest that misses the raster yields a [*GeometryError] matching
// [ErrGeometry]. Source and destination failures are reported as [*IOError].
// Nothing is retried.
package extract
