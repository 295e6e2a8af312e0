package gdalio

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"

	"github.com/digital-idiot/SoilMatrix/pkg/extract"
	"github.com/digital-idiot/SoilMatrix/pkg/raster"
)

// GDAL mask flags
const (
	gmfAllValid = 0x01
	gmfNoData   = 0x08
)

type source struct {
	ds   *godal.Dataset
	meta raster.Metadata
	cfg  []string
	log  *slog.Logger
}

func (s *source) Metadata() raster.Metadata {
	return s.meta
}

// Warp builds a warped VRT in /vsimem/ that keeps the source CRS.
func (s *source) Warp(alg raster.Resampling) (extract.View, error) {
	name := "/vsimem/" + uuid.NewString() + ".vrt"
	switches := []string{"-of", "VRT", "-r", warpResampling(alg)}

	ds, err := s.ds.Warp(name, switches, godal.ConfigOption(s.cfg...))
	if err != nil {
		return nil, err
	}

	meta, err := readMetadata(ds)
	if err != nil {
		ds.Close()
		godal.VSIUnlink(name)
		return nil, err
	}
	s.log.Debug("warped source", "vrt", name, "resampling", alg)

	return &view{ds: ds, name: name, meta: meta}, nil
}

func (s *source) Close() error {
	return s.ds.Close()
}

type view struct {
	ds   *godal.Dataset
	name string
	meta raster.Metadata
}

func (v *view) Metadata() raster.Metadata {
	return v.meta
}

// ReadMasked reads every band of win as float64. Samples equal to the band
// nodata value, or zero in a per-band mask, are missing.
func (v *view) ReadMasked(win raster.Window) (*raster.Block, error) {
	bands := v.ds.Bands()
	b := raster.NewBlock(len(bands), win.Height, win.Width)
	n := win.Height * win.Width

	var mask []byte
	for i, band := range bands {
		data := b.Band(i)
		if err := band.Read(win.ColOff, win.RowOff, data, win.Width, win.Height); err != nil {
			return nil, fmt.Errorf("read band %d: %w", i+1, err)
		}
		missing := b.Missing[i*n : (i+1)*n]

		if nd, ok := band.NoData(); ok {
			ndNaN := math.IsNaN(nd)
			for j, s := range data {
				if s == nd || (ndNaN && math.IsNaN(s)) {
					missing[j] = true
				}
			}
		}

		if band.MaskFlags()&(gmfAllValid|gmfNoData) != 0 {
			continue
		}
		if mask == nil {
			mask = make([]byte, n)
		}
		if err := band.MaskBand().Read(win.ColOff, win.RowOff, mask, win.Width, win.Height); err != nil {
			return nil, fmt.Errorf("read mask of band %d: %w", i+1, err)
		}
		for j, m := range mask {
			if m == 0 {
				missing[j] = true
			}
		}
	}
	return b, nil
}

func (v *view) Close() error {
	err := v.ds.Close()
	if uerr := godal.VSIUnlink(v.name); uerr != nil && err == nil {
		err = fmt.Errorf("remove %s: %w", v.name, uerr)
	}
	return err
}

type destination struct {
	ds *godal.Dataset
}

func (d *destination) WriteBlock(win raster.Window, b *raster.Block) error {
	bands := d.ds.Bands()
	if b.Bands != len(bands) || b.Rows != win.Height || b.Cols != win.Width {
		return fmt.Errorf("%w: block %dx%dx%d, window %v over %d bands",
			raster.ErrShapeMismatch, b.Bands, b.Rows, b.Cols, win, len(bands))
	}
	for i, band := range bands {
		if err := band.Write(win.ColOff, win.RowOff, b.Band(i), win.Width, win.Height); err != nil {
			return fmt.Errorf("write band %d: %w", i+1, err)
		}
	}
	return nil
}

func (d *destination) SetBandDescription(band int, desc string) error {
	bands := d.ds.Bands()
	if band < 1 || band > len(bands) {
		return fmt.Errorf("band %d out of range 1..%d", band, len(bands))
	}
	return bands[band-1].SetDescription(desc)
}

func (d *destination) Close() error {
	return d.ds.Close()
}
