// Package config defines configuration structures for the soilmatrix CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (SOILMATRIX_ prefix), optionally from a .env file
//   - YAML configuration file
//
// Flags win over the environment, which wins over the file.
//
// # Structure
//
//	type Config struct {
//	    BaseURL       string
//	    Service       string
//	    Coverage      string
//	    AOI           string
//	    Output        string
//	    TileHeight    int
//	    TileWidth     int
//	    Resampling    string
//	    Convert       bool
//	    WriterOptions map[string]string
//	    GDALOptions   map[string]string
//	    Bucket        string
//	    Object        string
//	    Log           LogConfig
//	    HTTP          HTTPConfig
//	    ...
//	}
//
// # Example
//
//	service: phh2o
//	coverage: 0-5cm_mean
//	aoi: field.geojson
//	output: phh2o.tif
//	convert: true
//	writer_options:
//	  compress: deflate
//	gdal_options:
//	  GDAL_HTTP_TIMEOUT: "30"
//	max_aoi_size: 16MiB
//	http:
//	  timeout: 30s
package config
