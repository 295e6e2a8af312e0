package extract

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/digital-idiot/SoilMatrix/pkg/raster"
)

// memRaster is a single band-set raster held in memory, row-major per band.
type memRaster struct {
	meta  raster.Metadata
	bands [][]float64
}

// newMemRaster builds a raster whose pixel (row, col) of band b is
// value(b, row, col). Pixel (0,0) has its top-left corner at (0, height).
func newMemRaster(bands, height, width int, dt raster.DataType, value func(b, row, col int) float64) *memRaster {
	m := &memRaster{
		meta: raster.Metadata{
			Driver:    "MEM",
			DataType:  dt,
			Count:     bands,
			Width:     width,
			Height:    height,
			CRS:       "EPSG:4326",
			Transform: raster.GeoTransform{0, 1, 0, float64(height), 0, -1},
		},
	}
	for b := 0; b < bands; b++ {
		data := make([]float64, height*width)
		for r := 0; r < height; r++ {
			for c := 0; c < width; c++ {
				data[r*width+c] = value(b, r, c)
			}
		}
		m.bands = append(m.bands, data)
	}
	return m
}

type memBackend struct {
	sources map[string]*memRaster
	dests   map[string]*memDest

	opened  []*memSource
	views   []*memView
	reads   int
	warpAlg raster.Resampling

	openErr     error
	readErr     error
	createErr   error
	closeErr    error
	describeErr error
}

func newMemBackend() *memBackend {
	return &memBackend{
		sources: make(map[string]*memRaster),
		dests:   make(map[string]*memDest),
	}
}

func (b *memBackend) OpenSource(ctx context.Context, url string) (Source, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	r, ok := b.sources[url]
	if !ok {
		return nil, fmt.Errorf("no such raster: %s", url)
	}
	s := &memSource{backend: b, raster: r}
	b.opened = append(b.opened, s)
	return s, nil
}

func (b *memBackend) CreateDestination(path string, meta raster.Metadata) (Destination, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	d := &memDest{backend: b, meta: meta, desc: make(map[int]string)}
	d.data = make([][]float64, meta.Count)
	d.written = make([]int, meta.Width*meta.Height)
	for i := range d.data {
		d.data[i] = make([]float64, meta.Width*meta.Height)
	}
	b.dests[path] = d
	return d, nil
}

// allClosed reports whether every handle handed out has been closed.
func (b *memBackend) allClosed() bool {
	for _, s := range b.opened {
		if !s.closed {
			return false
		}
	}
	for _, v := range b.views {
		if !v.closed {
			return false
		}
	}
	for _, d := range b.dests {
		if !d.closed {
			return false
		}
	}
	return true
}

type memSource struct {
	backend *memBackend
	raster  *memRaster
	closed  bool
}

func (s *memSource) Metadata() raster.Metadata { return s.raster.meta }

func (s *memSource) Warp(alg raster.Resampling) (View, error) {
	s.backend.warpAlg = alg
	v := &memView{backend: s.backend, raster: s.raster}
	s.backend.views = append(s.backend.views, v)
	return v, nil
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

type memView struct {
	backend *memBackend
	raster  *memRaster
	closed  bool
}

func (v *memView) Metadata() raster.Metadata { return v.raster.meta }

func (v *memView) ProjectAOI(aoi AOI) (orb.MultiPolygon, error) {
	if aoi.CRS != "" && aoi.CRS != v.raster.meta.CRS {
		return nil, errors.New("unsupported crs")
	}
	var out orb.MultiPolygon
	for _, g := range aoi.Geometries {
		switch g := g.(type) {
		case orb.Polygon:
			out = append(out, g)
		case orb.MultiPolygon:
			out = append(out, g...)
		default:
			return nil, fmt.Errorf("unsupported geometry %s", g.GeoJSONType())
		}
	}
	return out, nil
}

func (v *memView) ReadMasked(win raster.Window) (*raster.Block, error) {
	v.backend.reads++
	if v.backend.readErr != nil {
		return nil, v.backend.readErr
	}
	m := v.raster.meta
	if _, ok := m.Bounds().Intersect(win); !ok || win.RowEnd() > m.Height || win.ColEnd() > m.Width {
		return nil, fmt.Errorf("read outside raster: %v", win)
	}

	b := raster.NewBlock(m.Count, win.Height, win.Width)
	for band := 0; band < m.Count; band++ {
		for r := 0; r < win.Height; r++ {
			for c := 0; c < win.Width; c++ {
				val := v.raster.bands[band][(win.RowOff+r)*m.Width+win.ColOff+c]
				i := b.Index(band, r, c)
				b.Data[i] = val
				b.Missing[i] = math.IsNaN(val) || (m.HasNoData && val == m.NoData)
			}
		}
	}
	return b, nil
}

func (v *memView) Close() error {
	v.closed = true
	return nil
}

type memDest struct {
	backend *memBackend
	meta    raster.Metadata
	data    [][]float64
	written []int
	desc    map[int]string
	closed  bool
}

func (d *memDest) WriteBlock(win raster.Window, b *raster.Block) error {
	if b.Bands != d.meta.Count || b.Rows != win.Height || b.Cols != win.Width {
		return fmt.Errorf("block %dx%dx%d does not match %v", b.Bands, b.Rows, b.Cols, win)
	}
	if win.RowOff < 0 || win.ColOff < 0 || win.RowEnd() > d.meta.Height || win.ColEnd() > d.meta.Width {
		return fmt.Errorf("write outside raster: %v", win)
	}
	for band := 0; band < b.Bands; band++ {
		for r := 0; r < b.Rows; r++ {
			for c := 0; c < b.Cols; c++ {
				px := (win.RowOff+r)*d.meta.Width + win.ColOff + c
				d.data[band][px] = b.Data[b.Index(band, r, c)]
				if band == 0 {
					d.written[px]++
				}
			}
		}
	}
	return nil
}

func (d *memDest) SetBandDescription(band int, desc string) error {
	if d.backend.describeErr != nil {
		return d.backend.describeErr
	}
	d.desc[band] = desc
	return nil
}

func (d *memDest) Close() error {
	d.closed = true
	return d.backend.closeErr
}

func (d *memDest) at(band, row, col int) float64 {
	return d.data[band][row*d.meta.Width+col]
}

// recorder is a ProgressReporter capturing every event.
type recorder struct {
	events   []string
	label    string
	total    int
	advanced int
	err      error
}

func (r *recorder) BeginTask(label string) TaskID {
	r.events = append(r.events, "begin")
	r.label = label
	return 7
}

func (r *recorder) SetTotal(id TaskID, total int) {
	r.check(id)
	r.total = total
}

func (r *recorder) Advance(id TaskID, n int) {
	r.check(id)
	r.advanced += n
}

func (r *recorder) Abort(id TaskID, err error) {
	r.check(id)
	r.events = append(r.events, "abort")
	r.err = err
}

func (r *recorder) Complete(id TaskID) {
	r.check(id)
	r.events = append(r.events, "complete")
}

func (r *recorder) check(id TaskID) {
	if id != 7 {
		panic(fmt.Sprintf("unexpected task id %d", id))
	}
}

// branchCounter is a TileObserver counting tiles per branch.
type branchCounter map[Branch]int

func (c branchCounter) ObserveTile(service string, b Branch) {
	c[b]++
}
