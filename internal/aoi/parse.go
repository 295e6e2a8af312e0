package aoi

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Parse detects the encoding of data and parses it.
func Parse(data []byte) (extract.AOI, error) {
	if len(data) > 0 && (data[0] == 0 || data[0] == 1) {
		return ParseWKB(data)
	}

	text := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	switch {
	case len(text) == 0:
		return extract.AOI{}, fmt.Errorf("%w: empty document", ErrFormat)
	case text[0] == '{':
		return ParseGeoJSON(text)
	case isHexWKB(text):
		raw := make([]byte, hex.DecodedLen(len(text)))
		if _, err := hex.Decode(raw, text); err != nil {
			return extract.AOI{}, fmt.Errorf("%w: hex: %v", ErrFormat, err)
		}
		return ParseWKB(raw)
	default:
		return ParseWKT(string(text))
	}
}

func isHexWKB(text []byte) bool {
	if len(text)%2 != 0 || !(bytes.HasPrefix(text, []byte("00")) || bytes.HasPrefix(text, []byte("01"))) {
		return false
	}
	for _, c := range text {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// geojsonHeader holds the members needed to dispatch a GeoJSON document.
type geojsonHeader struct {
	Type string `json:"type"`
	CRS  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// ParseGeoJSON parses a FeatureCollection, a Feature or a geometry object.
// Features without a geometry are skipped.
func ParseGeoJSON(data []byte) (extract.AOI, error) {
	var h geojsonHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return extract.AOI{}, fmt.Errorf("%w: geojson: %v", ErrFormat, err)
	}

	var area extract.AOI
	if h.CRS != nil && h.CRS.Type == "name" {
		area.CRS = NormalizeCRS(h.CRS.Properties.Name)
	}

	var geoms []orb.Geometry
	switch h.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return extract.AOI{}, fmt.Errorf("%w: geojson: %v", ErrFormat, err)
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return extract.AOI{}, fmt.Errorf("%w: geojson: %v", ErrFormat, err)
		}
		geoms = append(geoms, f.Geometry)
	case "":
		return extract.AOI{}, fmt.Errorf("%w: geojson object without type", ErrFormat)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return extract.AOI{}, fmt.Errorf("%w: geojson: %v", ErrFormat, err)
		}
		geoms = append(geoms, g.Geometry())
	}

	for _, g := range geoms {
		polys, err := Polygons(g)
		if err != nil {
			return extract.AOI{}, err
		}
		area.Geometries = append(area.Geometries, polys...)
	}
	return area, nil
}

// ParseWKT parses well-known text. An EWKT "SRID=n;" prefix sets the CRS.
func ParseWKT(text string) (extract.AOI, error) {
	var area extract.AOI

	text = strings.TrimSpace(text)
	if prefix, rest, ok := strings.Cut(text, ";"); ok && strings.HasPrefix(strings.ToUpper(prefix), "SRID=") {
		code, err := strconv.Atoi(strings.TrimSpace(prefix[len("SRID="):]))
		if err != nil {
			return extract.AOI{}, fmt.Errorf("%w: wkt: invalid srid %q", ErrFormat, prefix)
		}
		area.CRS = "EPSG:" + strconv.Itoa(code)
		text = strings.TrimSpace(rest)
	}

	g, err := wkt.Unmarshal(text)
	if err != nil {
		return extract.AOI{}, fmt.Errorf("%w: wkt: %v", ErrFormat, err)
	}
	if area.Geometries, err = Polygons(g); err != nil {
		return extract.AOI{}, err
	}
	return area, nil
}

// ParseWKB parses well-known binary.
func ParseWKB(data []byte) (extract.AOI, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return extract.AOI{}, fmt.Errorf("%w: wkb: %v", ErrFormat, err)
	}
	polys, err := Polygons(g)
	if err != nil {
		return extract.AOI{}, err
	}
	return extract.AOI{Geometries: polys}, nil
}

// Polygons returns the areal parts of g. Collections are flattened, bounds
// become rectangles and nil geometries yield nothing.
func Polygons(g orb.Geometry) ([]orb.Geometry, error) {
	switch g := g.(type) {
	case nil:
		return nil, nil
	case orb.Polygon:
		return []orb.Geometry{g}, nil
	case orb.MultiPolygon:
		return []orb.Geometry{g}, nil
	case orb.Bound:
		return []orb.Geometry{g.ToPolygon()}, nil
	case orb.Collection:
		var out []orb.Geometry
		for _, part := range g {
			polys, err := Polygons(part)
			if err != nil {
				return nil, err
			}
			out = append(out, polys...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

// NormalizeCRS rewrites OGC URNs and CRS84 names as "EPSG:n". Other names
// are returned unchanged.
func NormalizeCRS(name string) string {
	name = strings.TrimSpace(name)
	upper := strings.ToUpper(name)

	switch {
	case strings.HasSuffix(upper, "CRS84"):
		return "EPSG:4326"
	case strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:"):
		// urn:ogc:def:crs:EPSG::3857 or urn:ogc:def:crs:EPSG:6.6:3857
		code := name[strings.LastIndex(name, ":")+1:]
		if _, err := strconv.Atoi(code); err == nil {
			return "EPSG:" + code
		}
	case strings.HasPrefix(upper, "EPSG:"):
		return "EPSG:" + strings.TrimSpace(name[len("EPSG:"):])
	}
	return name
}
