package raster

import (
	"errors"
	"math"
)

// ErrDegenerateTransform is returned when a geotransform cannot be inverted.
var ErrDegenerateTransform = errors.New("raster: degenerate geotransform")

// GeoTransform is an affine pixel-to-world transform in GDAL order:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
type GeoTransform [6]float64

// Identity maps pixel coordinates onto themselves.
var Identity = GeoTransform{0, 1, 0, 0, 0, 1}

// Apply maps pixel coordinates to world coordinates.
func (gt GeoTransform) Apply(col, row float64) (x, y float64) {
	return gt[0] + col*gt[1] + row*gt[2], gt[3] + col*gt[4] + row*gt[5]
}

// Invert returns the world-to-pixel transform.
func (gt GeoTransform) Invert() (GeoTransform, error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 || math.IsNaN(det) {
		return GeoTransform{}, ErrDegenerateTransform
	}
	return GeoTransform{
		(gt[2]*gt[3] - gt[5]*gt[0]) / det,
		gt[5] / det,
		-gt[2] / det,
		(gt[4]*gt[0] - gt[1]*gt[3]) / det,
		-gt[4] / det,
		gt[1] / det,
	}, nil
}

// Window returns the transform of a window: pixel (0,0) of the result is
// pixel (w.RowOff, w.ColOff) of gt.
func (gt GeoTransform) Window(w Window) GeoTransform {
	x, y := gt.Apply(float64(w.ColOff), float64(w.RowOff))
	return GeoTransform{x, gt[1], gt[2], y, gt[4], gt[5]}
}
