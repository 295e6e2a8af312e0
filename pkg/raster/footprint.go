package raster

import (
	"errors"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Errors returned by Footprint.Window.
var (
	ErrEmptyFootprint = errors.New("raster: footprint has no area")
	ErrOutsideRaster  = errors.New("raster: footprint does not intersect raster")
)

// snapEpsilon absorbs floating point noise when pixel coordinates land on
// grid lines.
const snapEpsilon = 1e-9

// Footprint is an area of interest converted to the pixel grid of a raster.
// Pixel coordinates use x = column and y = row.
type Footprint struct {
	polygons []*pixelPolygon
	tree     *rtreego.Rtree
	bound    orb.Bound
}

type edge struct {
	x0, y0, x1, y1 float64
}

func (e edge) xAt(y float64) float64 {
	return e.x0 + (y-e.y0)*(e.x1-e.x0)/(e.y1-e.y0)
}

// pixelPolygon is one polygon (outer ring and holes) as a flat edge list.
type pixelPolygon struct {
	edges []edge
	bound orb.Bound
}

// Bounds implements rtreego.Spatial.
func (p *pixelPolygon) Bounds() rtreego.Rect {
	return boundRect(p.bound, 0)
}

func boundRect(b orb.Bound, grow float64) rtreego.Rect {
	// R-tree rectangles need non-zero extents
	const epsilon = 1e-6
	w := math.Max(b.Max[0]-b.Min[0]+2*grow, epsilon)
	h := math.Max(b.Max[1]-b.Min[1]+2*grow, epsilon)
	rect, _ := rtreego.NewRect(rtreego.Point{b.Min[0] - grow, b.Min[1] - grow}, []float64{w, h})
	return rect
}

// NewFootprint converts a world-space shape to the pixel grid described by gt.
func NewFootprint(shape orb.MultiPolygon, gt GeoTransform) (*Footprint, error) {
	inv, err := gt.Invert()
	if err != nil {
		return nil, err
	}

	f := &Footprint{tree: rtreego.NewTree(2, 25, 50)}
	for _, poly := range shape {
		pp := toPixels(poly, inv)
		if len(pp.edges) == 0 {
			continue
		}
		if len(f.polygons) == 0 {
			f.bound = pp.bound
		} else {
			f.bound = f.bound.Union(pp.bound)
		}
		f.polygons = append(f.polygons, pp)
		f.tree.Insert(pp)
	}
	return f, nil
}

func toPixels(poly orb.Polygon, inv GeoTransform) *pixelPolygon {
	pp := &pixelPolygon{}
	started := false
	for _, ring := range poly {
		n := len(ring)
		if n < 3 {
			continue
		}
		pts := make([]orb.Point, n)
		for i, pt := range ring {
			c, r := inv.Apply(pt[0], pt[1])
			pts[i] = orb.Point{snap(c), snap(r)}
			if !started {
				pp.bound = orb.Bound{Min: pts[i], Max: pts[i]}
				started = true
			} else {
				pp.bound = pp.bound.Extend(pts[i])
			}
		}
		for i := 0; i < n; i++ {
			a, b := pts[i], pts[(i+1)%n]
			if a == b {
				continue
			}
			pp.edges = append(pp.edges, edge{a[0], a[1], b[0], b[1]})
		}
	}
	return pp
}

// Empty reports whether the footprint holds no polygon.
func (f *Footprint) Empty() bool {
	return len(f.polygons) == 0
}

// Bound returns the pixel-space bounding box (x = column, y = row).
func (f *Footprint) Bound() orb.Bound {
	return f.bound
}

// Window returns the minimal integer window covering the footprint grown by
// pad pixels on each side, clipped to a raster of height x width pixels.
func (f *Footprint) Window(pad float64, height, width int) (Window, error) {
	if f.Empty() {
		return Window{}, ErrEmptyFootprint
	}

	c0 := int(math.Floor(snap(f.bound.Min[0] - pad)))
	r0 := int(math.Floor(snap(f.bound.Min[1] - pad)))
	c1 := int(math.Ceil(snap(f.bound.Max[0] + pad)))
	r1 := int(math.Ceil(snap(f.bound.Max[1] + pad)))

	w := Window{RowOff: r0, ColOff: c0, Height: r1 - r0, Width: c1 - c0}
	out, ok := w.Intersect(Window{Height: height, Width: width})
	if !ok {
		return Window{}, ErrOutsideRaster
	}
	return out, nil
}

func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < snapEpsilon {
		return r
	}
	return v
}

// Mask rasterizes the footprint onto win. Without allTouched a pixel is
// inside when its center is; with allTouched every pixel crossed by a ring
// is inside too. The result is true for pixels outside the footprint, or
// for pixels inside it when invert is set.
func (f *Footprint) Mask(win Window, allTouched, invert bool) Mask {
	burn := make([]bool, win.Area())
	if win.Empty() {
		return Mask(burn)
	}

	query := orb.Bound{
		Min: orb.Point{float64(win.ColOff), float64(win.RowOff)},
		Max: orb.Point{float64(win.ColEnd()), float64(win.RowEnd())},
	}
	for _, s := range f.tree.SearchIntersect(boundRect(query, 1)) {
		p := s.(*pixelPolygon)
		p.burnInterior(burn, win)
		if allTouched {
			p.burnEdges(burn, win)
		}
	}

	mask := make(Mask, len(burn))
	for i, inside := range burn {
		mask[i] = inside == invert
	}
	return mask
}

// burnInterior marks pixels whose center lies inside the polygon using an
// even-odd scanline through each row center.
func (p *pixelPolygon) burnInterior(burn []bool, win Window) {
	r0 := max(0, int(math.Floor(p.bound.Min[1]))-win.RowOff)
	r1 := min(win.Height-1, int(math.Ceil(p.bound.Max[1]))-win.RowOff)

	var xs []float64
	for r := r0; r <= r1; r++ {
		y := float64(win.RowOff+r) + 0.5
		xs = xs[:0]
		for _, e := range p.edges {
			if (e.y0 <= y) != (e.y1 <= y) {
				xs = append(xs, e.xAt(y))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)

		row := burn[r*win.Width : (r+1)*win.Width]
		for i := 0; i+1 < len(xs); i += 2 {
			c0 := max(0, int(math.Ceil(xs[i]-0.5))-win.ColOff)
			c1 := min(win.Width, int(math.Ceil(xs[i+1]-0.5))-win.ColOff)
			for c := c0; c < c1; c++ {
				row[c] = true
			}
		}
	}
}

// burnEdges marks every pixel whose interior a ring segment passes through.
// A segment lying on a grid line covers no pixel area and burns nothing; the
// pixels on its inner side are already burned by burnInterior.
func (p *pixelPolygon) burnEdges(burn []bool, win Window) {
	for _, e := range p.edges {
		ylo, yhi := math.Min(e.y0, e.y1), math.Max(e.y0, e.y1)

		var rStart, rEnd int
		if ylo == yhi {
			if ylo == math.Floor(ylo) {
				continue
			}
			rStart = int(math.Floor(ylo))
			rEnd = rStart
		} else {
			rStart = int(math.Floor(ylo))
			rEnd = int(math.Ceil(yhi)) - 1
		}
		rStart = max(rStart, win.RowOff)
		rEnd = min(rEnd, win.RowEnd()-1)

		for r := rStart; r <= rEnd; r++ {
			var xa, xb float64
			if ylo == yhi {
				xa, xb = e.x0, e.x1
			} else {
				xa = e.xAt(math.Max(ylo, float64(r)))
				xb = e.xAt(math.Min(yhi, float64(r+1)))
			}
			if xa > xb {
				xa, xb = xb, xa
			}

			var cStart, cEnd int
			if xa == xb {
				if xa == math.Floor(xa) {
					continue
				}
				cStart = int(math.Floor(xa))
				cEnd = cStart
			} else {
				cStart = int(math.Floor(xa))
				cEnd = int(math.Ceil(xb)) - 1
			}
			cStart = max(cStart, win.ColOff)
			cEnd = min(cEnd, win.ColEnd()-1)

			row := burn[(r-win.RowOff)*win.Width : (r-win.RowOff+1)*win.Width]
			for c := cStart; c <= cEnd; c++ {
				row[c-win.ColOff] = true
			}
		}
	}
}
