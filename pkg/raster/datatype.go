package raster

import (
	"fmt"
	"math"
	"strings"
)

// DataType is the sample type of a raster band.
type DataType int

const (
	Unknown DataType = iota
	Byte
	Int8
	UInt16
	Int16
	UInt32
	Int32
	Float32
	Float64
)

var dataTypeNames = map[DataType]string{
	Unknown: "unknown",
	Byte:    "uint8",
	Int8:    "int8",
	UInt16:  "uint16",
	Int16:   "int16",
	UInt32:  "uint32",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

func (dt DataType) String() string {
	if n, ok := dataTypeNames[dt]; ok {
		return n
	}
	return fmt.Sprintf("datatype(%d)", int(dt))
}

// ParseDataType accepts numpy style ("uint8", "float32") and GDAL style
// ("Byte", "Float32") names, case-insensitively.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "byte":
		return Byte, nil
	case "int8":
		return Int8, nil
	case "uint16":
		return UInt16, nil
	case "int16":
		return Int16, nil
	case "uint32":
		return UInt32, nil
	case "int32":
		return Int32, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	default:
		return Unknown, fmt.Errorf("raster: unknown data type %q", s)
	}
}

// IsFloat reports whether the type holds floating point samples.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// Range returns the representable interval of an integer type.
func (dt DataType) Range() (lo, hi float64) {
	switch dt {
	case Byte:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case UInt16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case UInt32:
		return 0, math.MaxUint32
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

// Cast converts v to the nearest value representable by dt. Integer types
// truncate toward zero and saturate at their bounds; NaN becomes 0.
func (dt DataType) Cast(v float64) float64 {
	switch dt {
	case Float64, Unknown:
		return v
	case Float32:
		return float64(float32(v))
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := dt.Range()
	v = math.Trunc(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
