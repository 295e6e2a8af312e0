package raster

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultDriver is the output format used when none is given.
const DefaultDriver = "GTiff"

// Metadata describes the layout of a raster dataset.
type Metadata struct {
	Driver    string
	DataType  DataType
	Count     int // number of bands
	Width     int
	Height    int
	NoData    float64
	HasNoData bool
	CRS       string // WKT
	Transform GeoTransform

	// CreationOptions are driver specific KEY=VALUE pairs.
	CreationOptions []string
}

// Bounds returns the full pixel window of the dataset.
func (m Metadata) Bounds() Window {
	return Window{Height: m.Height, Width: m.Width}
}

// FillValue is the value written for missing pixels: the nodata sentinel
// cast to the data type, or 0 when the dataset has none.
func (m Metadata) FillValue() float64 {
	if !m.HasNoData {
		return 0
	}
	return m.CastNoData()
}

// CastNoData returns the sentinel expressed in the data type. NaN is kept
// for floating point types.
func (m Metadata) CastNoData() float64 {
	if math.IsNaN(m.NoData) && m.DataType.IsFloat() {
		return m.NoData
	}
	return m.DataType.Cast(m.NoData)
}

// SetNoData sets the sentinel.
func (m *Metadata) SetNoData(v float64) {
	m.NoData = v
	m.HasNoData = true
}

// ClearNoData removes the sentinel.
func (m *Metadata) ClearNoData() {
	m.NoData = 0
	m.HasNoData = false
}

// Keys of WithOptions that override layout fields instead of becoming
// creation options. Size, band count, transform and CRS always follow the
// extraction window and are ignored.
var layoutKeys = map[string]bool{
	"count":     true,
	"width":     true,
	"height":    true,
	"transform": true,
	"crs":       true,
}

// WithOptions returns a copy of m with writer options applied. "driver",
// "dtype" and "nodata" replace the matching fields ("nodata" accepts a
// number, "nan" or "none"); every other key is appended as an upper-cased
// KEY=VALUE creation option.
func (m Metadata) WithOptions(opts map[string]string) (Metadata, error) {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := m
	out.CreationOptions = append([]string(nil), m.CreationOptions...)

	for _, k := range keys {
		v := opts[k]
		switch lk := strings.ToLower(k); {
		case lk == "driver":
			out.Driver = v
		case lk == "dtype":
			dt, err := ParseDataType(v)
			if err != nil {
				return Metadata{}, err
			}
			out.DataType = dt
		case lk == "nodata":
			if err := out.parseNoData(v); err != nil {
				return Metadata{}, err
			}
		case layoutKeys[lk]:
		default:
			out.CreationOptions = setOption(out.CreationOptions, strings.ToUpper(k), v)
		}
	}
	return out, nil
}

func (m *Metadata) parseNoData(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "none", "null":
		m.ClearNoData()
	case "nan":
		m.SetNoData(math.NaN())
	default:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("raster: invalid nodata %q: %w", v, err)
		}
		m.SetNoData(f)
	}
	return nil
}

func setOption(opts []string, key, value string) []string {
	prefix := key + "="
	for i, o := range opts {
		if strings.HasPrefix(strings.ToUpper(o), prefix) {
			opts[i] = prefix + value
			return opts
		}
	}
	return append(opts, prefix+value)
}
