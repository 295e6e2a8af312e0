//go:build integration

package gdalio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"

	"github.com/digital-idiot/SoilMatrix/internal/testutils"
	"github.com/digital-idiot/SoilMatrix/pkg/catalog"
	"github.com/digital-idiot/SoilMatrix/pkg/extract"
	"github.com/digital-idiot/SoilMatrix/pkg/raster"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

func TestExtractOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	testutils.WriteGeoTIFF(t, filepath.Join(dir, "landmask", "SG_052020_COG512.tif"), testutils.Raster{
		Width:    20,
		Height:   20,
		OriginX:  0,
		OriginY:  20,
		DataType: godal.Byte,
		Value:    func(row, col int) float64 { return 1 },
	})
	server := testutils.StartFileServer(t, dir)

	out := filepath.Join(t.TempDir(), "landmask.tif")
	err := extract.Extract(context.Background(), extract.Request{
		Service:     "landmask",
		Coverage:    "SG_052020_COG512",
		AOI:         extract.AOI{Geometries: []orb.Geometry{square(2, 2, 6, 6)}},
		Destination: out,
		TileHeight:  2,
		TileWidth:   2,
	}, extract.Options{
		Catalog: catalog.New(catalog.WithBaseURL(server.URL)),
		Backend: New(Options{ConfigOptions: []string{"GDAL_HTTP_MAX_RETRY=0"}}),
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if server.Requests.Load() == 0 {
		t.Error("expected the source to be read over HTTP")
	}

	data, width, height, desc := testutils.ReadBand(t, out)
	if width != 4 || height != 4 {
		t.Fatalf("expected 4x4 output, got %dx%d", width, height)
	}
	for i, v := range data {
		if v != 1 {
			t.Errorf("pixel %d: expected 1, got %v", i, v)
		}
	}
	if desc != "landmask_SG_052020_COG512|" {
		t.Errorf("unexpected description %q", desc)
	}
}

func TestExtractConvertVRT(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	tif := filepath.Join(dir, "src.tif")
	nodata := -32768.0
	testutils.WriteGeoTIFF(t, tif, testutils.Raster{
		Width:    10,
		Height:   10,
		OriginX:  0,
		OriginY:  10,
		DataType: godal.Int16,
		NoData:   &nodata,
		Value: func(row, col int) float64 {
			if row == 5 && col == 5 {
				return nodata
			}
			return 65
		},
	})

	// The catalog names quantitative sources {service}_{coverage}.vrt.
	godal.RegisterAll()
	if err := os.MkdirAll(filepath.Join(dir, "phh2o"), 0o755); err != nil {
		t.Fatal(err)
	}
	ds, err := godal.Open(tif)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	vrt, err := ds.Translate(filepath.Join(dir, "phh2o", "phh2o_0-5cm_mean.vrt"), []string{"-of", "VRT"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	vrt.Close()
	ds.Close()

	out := filepath.Join(t.TempDir(), "phh2o.tif")
	err = extract.Extract(context.Background(), extract.Request{
		Service:     "phh2o",
		Coverage:    "0-5cm_mean",
		AOI:         extract.AOI{Geometries: []orb.Geometry{square(4, 3, 7, 6)}, CRS: "EPSG:4326"},
		Destination: out,
		Convert:     true,
	}, extract.Options{
		Catalog: catalog.New(catalog.WithBaseURL(dir)),
		Backend: New(Options{}),
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	data, width, height, desc := testutils.ReadBand(t, out)
	if width != 3 || height != 3 {
		t.Fatalf("expected 3x3 output, got %dx%d", width, height)
	}
	if desc != "phh2o_0-5cm_mean|pH" {
		t.Errorf("unexpected description %q", desc)
	}
	// Window rows 4..6, cols 4..6; source pixel (5,5) is nodata.
	for i, v := range data {
		if i == 4 {
			if !math.IsNaN(v) {
				t.Errorf("center pixel: expected NaN, got %v", v)
			}
			continue
		}
		if math.Abs(v-6.5) > 1e-6 {
			t.Errorf("pixel %d: expected 6.5, got %v", i, v)
		}
	}
}

func TestProjectAOI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	tif := filepath.Join(dir, "src.tif")
	testutils.WriteGeoTIFF(t, tif, testutils.Raster{
		Width: 10, Height: 10, OriginY: 10, DataType: godal.Byte,
		Value: func(row, col int) float64 { return 0 },
	})

	src, err := New(Options{}).OpenSource(context.Background(), tif)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer src.Close()
	view, err := src.Warp(raster.Nearest)
	if err != nil {
		t.Fatalf("Warp: %v", err)
	}
	defer view.Close()

	// Overlapping squares union into one polygon.
	shape, err := view.ProjectAOI(extract.AOI{Geometries: []orb.Geometry{
		square(1, 1, 3, 3),
		square(2, 2, 4, 4),
	}})
	if err != nil {
		t.Fatalf("ProjectAOI: %v", err)
	}
	if len(shape) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(shape))
	}
	if b := shape.Bound(); b.Min != (orb.Point{1, 1}) || b.Max != (orb.Point{4, 4}) {
		t.Errorf("unexpected bound %v", b)
	}

	// Web mercator input is reprojected to degrees.
	shape, err = view.ProjectAOI(extract.AOI{
		Geometries: []orb.Geometry{square(111319.49, 111325.14, 222638.98, 222684.21)},
		CRS:        "EPSG:3857",
	})
	if err != nil {
		t.Fatalf("ProjectAOI 3857: %v", err)
	}
	if b := shape.Bound(); math.Abs(b.Min[0]-1) > 1e-3 || math.Abs(b.Max[1]-2) > 1e-3 {
		t.Errorf("unexpected reprojected bound %v", b)
	}
}

func TestOpenSourceErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	backend := New(Options{})
	if _, err := backend.OpenSource(context.Background(), filepath.Join(t.TempDir(), "missing.tif")); err == nil {
		t.Error("expected error opening a missing file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := backend.OpenSource(ctx, "https://example.com/x.tif"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestVSIPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://files.isric.org/soilgrids/latest/data/phh2o/phh2o_0-5cm_mean.vrt",
			"/vsicurl/https://files.isric.org/soilgrids/latest/data/phh2o/phh2o_0-5cm_mean.vrt"},
		{"s3://bucket/key.tif", "/vsis3/bucket/key.tif"},
		{"gs://bucket/key.tif", "/vsigs/bucket/key.tif"},
		{"/vsicurl/http://x/y.tif", "/vsicurl/http://x/y.tif"},
		{"/data/local.tif", "/data/local.tif"},
	}
	for _, tt := range tests {
		if got := VSIPath(tt.input); got != tt.want {
			t.Errorf("VSIPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConfigOptions(t *testing.T) {
	got := ConfigOptions(map[string]string{"GDAL_HTTP_TIMEOUT": "30", "GDAL_HTTP_MAX_RETRY": "3"})
	if len(got) != 2 || got[0] != "GDAL_HTTP_MAX_RETRY=3" || got[1] != "GDAL_HTTP_TIMEOUT=30" {
		t.Errorf("unexpected options %v", got)
	}
}
