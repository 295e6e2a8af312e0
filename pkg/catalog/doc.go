// Package catalog is the static registry of SoilGrids services and their coverages.
//
// A service is a family of coverages sharing a unit and a conversion rule
// (for example "phh2o", soil pH). A coverage is one raster layer of the
// service, usually a depth interval and a statistic ("0-5cm_mean").
//
// The table is built once from a literal and never changes. Every accessor is
// a pure lookup, so a [Catalog] may be shared by any number of goroutines.
//
// # Usage
//
//	url, err := catalog.Default.SourceURL("phh2o", "0-5cm_mean")
//	if errors.Is(err, catalog.ErrNotFound) {
//	    // unknown service or coverage
//	}
//
// # URL Layout
//
// The source URL depends on the service category:
//
//	classification   {base}/{service}/{coverage}.vrt
//	boolean layer    {base}/{service}/{coverage}.tif
//	quantitative     {base}/{service}/{service}_{coverage}.vrt
package catalog
