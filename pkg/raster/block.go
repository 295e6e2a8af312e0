package raster

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a mask does not match a block.
var ErrShapeMismatch = errors.New("raster: shape mismatch")

// Mask is a row-major per-pixel flag, true where the pixel is excluded.
type Mask []bool

// All reports whether every pixel is flagged. An empty mask is all flagged.
func (m Mask) All() bool {
	for _, v := range m {
		if !v {
			return false
		}
	}
	return true
}

// Count returns the number of flagged pixels.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Block holds the samples of one window for every band.
//
// Data and Missing are band-major: band, then row, then column.
type Block struct {
	Bands   int
	Rows    int
	Cols    int
	Data    []float64
	Missing []bool
}

// NewBlock allocates a zeroed block with nothing missing.
func NewBlock(bands, rows, cols int) *Block {
	n := bands * rows * cols
	return &Block{
		Bands:   bands,
		Rows:    rows,
		Cols:    cols,
		Data:    make([]float64, n),
		Missing: make([]bool, n),
	}
}

// FilledBlock allocates a block where every sample is v.
func FilledBlock(bands, rows, cols int, v float64) *Block {
	b := NewBlock(bands, rows, cols)
	for i := range b.Data {
		b.Data[i] = v
	}
	return b
}

// Index returns the offset of a sample in Data.
func (b *Block) Index(band, row, col int) int {
	return (band*b.Rows+row)*b.Cols + col
}

// At returns a sample and whether it is valid.
func (b *Block) At(band, row, col int) (float64, bool) {
	i := b.Index(band, row, col)
	return b.Data[i], !b.Missing[i]
}

// Band returns the samples of one band (0-based), sharing storage.
func (b *Block) Band(band int) []float64 {
	n := b.Rows * b.Cols
	return b.Data[band*n : (band+1)*n]
}

// Composite ORs a per-pixel mask into the missing flags of every band.
func (b *Block) Composite(m Mask) error {
	n := b.Rows * b.Cols
	if len(m) != n {
		return fmt.Errorf("%w: mask has %d pixels, block has %d", ErrShapeMismatch, len(m), n)
	}
	for band := 0; band < b.Bands; band++ {
		missing := b.Missing[band*n : (band+1)*n]
		for i, excluded := range m {
			if excluded {
				missing[i] = true
			}
		}
	}
	return nil
}

// Cast converts every sample to dt.
func (b *Block) Cast(dt DataType) {
	for i, v := range b.Data {
		b.Data[i] = dt.Cast(v)
	}
}

// Divide divides every valid sample by d and casts the result to dt.
func (b *Block) Divide(d float64, dt DataType) {
	for i, v := range b.Data {
		if !b.Missing[i] {
			b.Data[i] = dt.Cast(v / d)
		}
	}
}

// Fill replaces every missing sample with v.
func (b *Block) Fill(v float64) {
	for i, missing := range b.Missing {
		if missing {
			b.Data[i] = v
		}
	}
}
