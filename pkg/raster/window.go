package raster

import (
	"errors"
	"fmt"
)

// ErrInvalidTileSize is returned by Subdivide for non-positive tile sizes.
var ErrInvalidTileSize = errors.New("raster: tile size must be positive")

// Window is an integer pixel rectangle.
type Window struct {
	RowOff int
	ColOff int
	Height int
	Width  int
}

// Empty reports whether the window covers no pixel.
func (w Window) Empty() bool {
	return w.Height <= 0 || w.Width <= 0
}

// Area returns the number of pixels in the window.
func (w Window) Area() int {
	if w.Empty() {
		return 0
	}
	return w.Height * w.Width
}

// RowEnd returns the first row after the window.
func (w Window) RowEnd() int { return w.RowOff + w.Height }

// ColEnd returns the first column after the window.
func (w Window) ColEnd() int { return w.ColOff + w.Width }

// Contains reports whether pixel (row, col) lies in the window.
func (w Window) Contains(row, col int) bool {
	return row >= w.RowOff && row < w.RowEnd() && col >= w.ColOff && col < w.ColEnd()
}

// Intersect returns the overlap of two windows. ok is false when they do
// not overlap.
func (w Window) Intersect(o Window) (Window, bool) {
	r0 := max(w.RowOff, o.RowOff)
	c0 := max(w.ColOff, o.ColOff)
	r1 := min(w.RowEnd(), o.RowEnd())
	c1 := min(w.ColEnd(), o.ColEnd())
	out := Window{RowOff: r0, ColOff: c0, Height: r1 - r0, Width: c1 - c0}
	if out.Empty() {
		return Window{}, false
	}
	return out, true
}

// Relative returns w expressed relative to the origin of parent.
func (w Window) Relative(parent Window) Window {
	return Window{
		RowOff: w.RowOff - parent.RowOff,
		ColOff: w.ColOff - parent.ColOff,
		Height: w.Height,
		Width:  w.Width,
	}
}

func (w Window) String() string {
	return fmt.Sprintf("Window(row=%d, col=%d, height=%d, width=%d)", w.RowOff, w.ColOff, w.Height, w.Width)
}

// Tile is one cell of a tile plan.
type Tile struct {
	Index  int    // position in plan order
	Row    int    // tile row in the plan grid
	Col    int    // tile column in the plan grid
	Source Window // pixels in the source raster
	Dest   Window // pixels relative to the subdivided window
}

// Subdivide partitions w into a row-major grid of tiles of at most
// tileHeight x tileWidth pixels. The last row and column are clipped to the
// remaining extent.
func (w Window) Subdivide(tileHeight, tileWidth int) ([]Tile, error) {
	if tileHeight <= 0 || tileWidth <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTileSize, tileHeight, tileWidth)
	}
	if w.Empty() {
		return nil, nil
	}

	rows := (w.Height + tileHeight - 1) / tileHeight
	cols := (w.Width + tileWidth - 1) / tileWidth
	tiles := make([]Tile, 0, rows*cols)

	for r := 0; r < rows; r++ {
		dy := r * tileHeight
		h := min(tileHeight, w.Height-dy)
		for c := 0; c < cols; c++ {
			dx := c * tileWidth
			src := Window{
				RowOff: w.RowOff + dy,
				ColOff: w.ColOff + dx,
				Height: h,
				Width:  min(tileWidth, w.Width-dx),
			}
			tiles = append(tiles, Tile{
				Index:  len(tiles),
				Row:    r,
				Col:    c,
				Source: src,
				Dest:   src.Relative(w),
			})
		}
	}
	return tiles, nil
}
