// Package gdalio implements the extract backend on top of GDAL, through
// github.com/airbusgeo/godal.
//
// Remote sources are opened read-only through /vsicurl/. A resampling view
// is a warped VRT held in /vsimem/ that keeps the source CRS and estimates
// pixels with the requested algorithm. Areas of interest are reprojected,
// repaired with a zero-distance buffer and unioned with OGR.
//
// GDAL configuration options (GDAL_HTTP_TIMEOUT, GDAL_HTTP_MAX_RETRY,
// CPL_VSIL_CURL_ALLOWED_EXTENSIONS, ...) are passed per call through
// [Options.ConfigOptions] and never set globally.
//
// Building this package requires cgo and the GDAL headers.
package gdalio
