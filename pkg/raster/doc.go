// Package raster holds the pixel-space geometry used to stream a raster in tiles.
//
// All arithmetic here is independent of any raster driver: a [Window] is an
// integer rectangle of rows and columns, a [GeoTransform] maps pixel
// coordinates to world coordinates, a [Footprint] is an area of interest
// converted to the pixel grid of one raster, and a [Block] is the in-memory
// data of one tile.
//
// # Tiling
//
//	win, _ := footprint.Window(0, height, width)   // minimal covering window
//	tiles, _ := win.Subdivide(512, 512)            // row-major, clipped at the edges
//	for _, t := range tiles {
//	    mask := footprint.Mask(t.Source, allTouched, invert)
//	    ...
//	}
//
// Tiles partition the window exactly: no gaps, no overlap. Each tile carries
// its offset in the source raster and its offset relative to the window
// origin, which is where it lands in the destination.
//
// # Masks
//
// A [Mask] is true for pixels that are excluded. With invert the meaning is
// flipped, matching the usual geometry mask convention of raster toolkits.
package raster
