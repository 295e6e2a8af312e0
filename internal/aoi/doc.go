// Package aoi loads areas of interest for extraction.
//
// An area of interest is read from a local path, an http(s) URL or a bucket
// URL understood by gocloud.dev/blob (s3://, gs://, file://, mem://), then
// parsed as one of:
//   - GeoJSON: a FeatureCollection, a Feature or a bare geometry. The legacy
//     "crs" member is honoured.
//   - WKT, optionally prefixed with "SRID=n;".
//   - WKB, raw or hex encoded.
//
// Only Polygon and MultiPolygon geometries are accepted. Geometry collections
// are flattened and bounding boxes become rectangles; anything else fails
// with [ErrUnsupportedGeometry].
//
// # Usage
//
//	area, err := aoi.Load(ctx, "s3://fields/2024/plot.geojson", aoi.Options{})
//	if err != nil {
//	    return err
//	}
//	req.AOI = area
package aoi
