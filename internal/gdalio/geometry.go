package gdalio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

// errNoSurface is returned when the projected area has no polygonal part.
var errNoSurface = errors.New("gdalio: projected area has no surface")

// bufferSegments is the number of segments per quarter circle used by the
// repairing buffer.
const bufferSegments = 8

// spatialRef parses an "EPSG:n" code, a PROJ string or WKT. Empty means
// EPSG:4326.
func spatialRef(crs string) (*godal.SpatialRef, error) {
	crs = strings.TrimSpace(crs)
	switch {
	case crs == "":
		return godal.NewSpatialRefFromEPSG(4326)
	case strings.HasPrefix(strings.ToUpper(crs), "EPSG:"):
		code, err := strconv.Atoi(strings.TrimSpace(crs[len("EPSG:"):]))
		if err != nil {
			return nil, fmt.Errorf("invalid crs %q", crs)
		}
		return godal.NewSpatialRefFromEPSG(code)
	case strings.HasPrefix(crs, "+"):
		return godal.NewSpatialRefFromProj4(crs)
	default:
		return godal.NewSpatialRefFromWKT(crs)
	}
}

// ProjectAOI reprojects every geometry of area to the view CRS, repairs it
// with a zero-distance buffer and unions the parts.
func (v *view) ProjectAOI(area extract.AOI) (orb.MultiPolygon, error) {
	if len(area.Geometries) == 0 {
		return nil, nil
	}

	from, err := spatialRef(area.CRS)
	if err != nil {
		return nil, fmt.Errorf("area crs: %w", err)
	}
	defer from.Close()

	// to stays nil when no reprojection is needed
	var to *godal.SpatialRef
	if v.meta.CRS != "" {
		target, err := godal.NewSpatialRefFromWKT(v.meta.CRS)
		if err != nil {
			return nil, fmt.Errorf("raster crs: %w", err)
		}
		defer target.Close()
		if !target.IsSame(from) {
			to = target
		}
	}

	var shape *godal.Geometry
	defer func() {
		if shape != nil {
			shape.Close()
		}
	}()

	for i, g := range area.Geometries {
		part, err := repair(g, from, to)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		if shape == nil {
			shape = part
			continue
		}
		union, err := shape.Union(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("union geometry %d: %w", i, err)
		}
		shape.Close()
		shape = union
	}

	data, err := shape.WKB()
	if err != nil {
		return nil, fmt.Errorf("export geometry: %w", err)
	}
	out, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return multiPolygon(out)
}

// repair converts g to OGR, reprojects it when to is set and buffers it by
// zero.
func repair(g orb.Geometry, from, to *godal.SpatialRef) (*godal.Geometry, error) {
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	geom, err := godal.NewGeometryFromWKB(data, from)
	if err != nil {
		return nil, err
	}
	defer geom.Close()

	if to != nil {
		if err := geom.Reproject(to); err != nil {
			return nil, fmt.Errorf("reproject: %w", err)
		}
	}
	return geom.Buffer(0, bufferSegments)
}

func multiPolygon(g orb.Geometry) (orb.MultiPolygon, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	case orb.MultiPolygon:
		return g, nil
	case orb.Collection:
		var out orb.MultiPolygon
		for _, part := range g {
			mp, err := multiPolygon(part)
			if err != nil {
				continue
			}
			out = append(out, mp...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", errNoSurface, g.GeoJSONType())
	}
}
