package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometry is matched by errors caused by the area of interest: it
	// does not intersect the raster, has no area, or cannot be projected.
	ErrGeometry = errors.New("extract: geometry does not intersect raster")

	// ErrInvalidRequest is returned for malformed requests.
	ErrInvalidRequest = errors.New("extract: invalid request")
)

// GeometryError reports a failure to place the area of interest on the
// source raster.
type GeometryError struct {
	Service  string
	Coverage string
	Err      error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("extract %s/%s: geometry: %v", e.Service, e.Coverage, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

// Is makes every GeometryError match ErrGeometry.
func (e *GeometryError) Is(target error) bool {
	return target == ErrGeometry
}

// I/O operations reported by IOError.
const (
	OpOpen     = "open"
	OpWarp     = "warp"
	OpCreate   = "create"
	OpRead     = "read"
	OpWrite    = "write"
	OpDescribe = "describe"
	OpClose    = "close"
)

// IOError records a failed source or destination operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
