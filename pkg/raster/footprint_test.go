package raster

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

// testGrid is a 0.25 degree grid anchored at (-180, 90).
var testGrid = GeoTransform{-180, 0.25, 0, 90, 0, -0.25}

// pixelRect returns a world polygon covering rows [r0, r1) and cols [c0, c1)
// of testGrid.
func pixelRect(r0, c0, r1, c1 int) orb.Polygon {
	x0, y0 := testGrid.Apply(float64(c0), float64(r0))
	x1, y1 := testGrid.Apply(float64(c1), float64(r1))
	return orb.Polygon{orb.Ring{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}}
}

func TestFootprintWindow(t *testing.T) {
	fp, err := NewFootprint(orb.MultiPolygon{pixelRect(20, 10, 22, 12)}, testGrid)
	if err != nil {
		t.Fatalf("NewFootprint: %v", err)
	}

	win, err := fp.Window(0, 720, 1440)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if want := (Window{RowOff: 20, ColOff: 10, Height: 2, Width: 2}); win != want {
		t.Errorf("Window(0) = %v, want %v", win, want)
	}

	win, err = fp.Window(0.5, 720, 1440)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if want := (Window{RowOff: 19, ColOff: 9, Height: 4, Width: 4}); win != want {
		t.Errorf("Window(0.5) = %v, want %v", win, want)
	}
}

func TestFootprintWindowClipped(t *testing.T) {
	fp, _ := NewFootprint(orb.MultiPolygon{pixelRect(-5, -5, 3, 4)}, testGrid)
	win, err := fp.Window(0, 720, 1440)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if want := (Window{RowOff: 0, ColOff: 0, Height: 3, Width: 4}); win != want {
		t.Errorf("Window = %v, want %v", win, want)
	}
}

func TestFootprintWindowOutside(t *testing.T) {
	fp, _ := NewFootprint(orb.MultiPolygon{pixelRect(800, 10, 810, 20)}, testGrid)
	if _, err := fp.Window(0, 720, 1440); !errors.Is(err, ErrOutsideRaster) {
		t.Errorf("expected ErrOutsideRaster, got %v", err)
	}

	empty, _ := NewFootprint(nil, testGrid)
	if _, err := empty.Window(0, 720, 1440); !errors.Is(err, ErrEmptyFootprint) {
		t.Errorf("expected ErrEmptyFootprint, got %v", err)
	}
}

func TestFootprintMaskRectangle(t *testing.T) {
	fp, _ := NewFootprint(orb.MultiPolygon{pixelRect(1, 1, 3, 3)}, testGrid)
	mask := fp.Mask(Window{RowOff: 0, ColOff: 0, Height: 4, Width: 4}, false, false)

	want := []bool{
		true, true, true, true,
		true, false, false, true,
		true, false, false, true,
		true, true, true, true,
	}
	assertMask(t, mask, want)

	inverted := fp.Mask(Window{RowOff: 0, ColOff: 0, Height: 4, Width: 4}, false, true)
	for i := range want {
		want[i] = !want[i]
	}
	assertMask(t, inverted, want)
}

func TestFootprintMaskTileOffset(t *testing.T) {
	fp, _ := NewFootprint(orb.MultiPolygon{pixelRect(10, 10, 12, 12)}, testGrid)

	mask := fp.Mask(Window{RowOff: 11, ColOff: 11, Height: 2, Width: 2}, false, false)
	assertMask(t, mask, []bool{false, true, true, true})

	outside := fp.Mask(Window{RowOff: 100, ColOff: 100, Height: 3, Width: 3}, false, false)
	if !outside.All() {
		t.Error("mask of a far tile must exclude every pixel")
	}
}

func TestFootprintMaskTriangle(t *testing.T) {
	// Hypotenuse from (col 4,row 0) to (col 0,row 2).
	x0, y0 := testGrid.Apply(0, 0)
	x1, _ := testGrid.Apply(4, 0)
	_, y2 := testGrid.Apply(0, 2)
	tri := orb.Polygon{orb.Ring{{x0, y0}, {x1, y0}, {x0, y2}, {x0, y0}}}
	fp, _ := NewFootprint(orb.MultiPolygon{tri}, testGrid)

	win := Window{Height: 4, Width: 4}
	assertMask(t, fp.Mask(win, false, false), []bool{
		false, false, false, true,
		false, true, true, true,
		true, true, true, true,
		true, true, true, true,
	})

	assertMask(t, fp.Mask(win, true, false), []bool{
		false, false, false, false,
		false, false, true, true,
		true, true, true, true,
		true, true, true, true,
	})
}

func TestFootprintMaskAllTouched(t *testing.T) {
	x0, y0 := testGrid.Apply(0.8, 0.8)
	x1, y1 := testGrid.Apply(2.2, 2.2)
	sq := orb.Polygon{orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
	fp, _ := NewFootprint(orb.MultiPolygon{sq}, testGrid)

	win := Window{Height: 4, Width: 4}
	if n := 16 - fp.Mask(win, false, false).Count(); n != 1 {
		t.Errorf("center rule: expected 1 pixel inside, got %d", n)
	}
	if n := 16 - fp.Mask(win, true, false).Count(); n != 9 {
		t.Errorf("all touched: expected 9 pixels inside, got %d", n)
	}

	w, err := fp.Window(0.5, 720, 1440)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if want := (Window{Height: 3, Width: 3}); w != want {
		t.Errorf("padded window = %v, want %v", w, want)
	}
}

func TestFootprintMaskAllTouchedGridAligned(t *testing.T) {
	fp, _ := NewFootprint(orb.MultiPolygon{pixelRect(1, 1, 3, 3)}, testGrid)

	// Edges on grid lines touch no pixel outside the rectangle.
	win := Window{Height: 5, Width: 5}
	want := []bool{
		true, true, true, true, true,
		true, false, false, true, true,
		true, false, false, true, true,
		true, true, true, true, true,
		true, true, true, true, true,
	}
	assertMask(t, fp.Mask(win, true, false), want)
	assertMask(t, fp.Mask(win, false, false), want)

	// Shifted by half a pixel every side crosses pixel interiors.
	x0, y0 := testGrid.Apply(1.5, 1.5)
	x1, y1 := testGrid.Apply(3.5, 3.5)
	sq := orb.Polygon{orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
	fp, _ = NewFootprint(orb.MultiPolygon{sq}, testGrid)
	assertMask(t, fp.Mask(win, true, false), []bool{
		true, true, true, true, true,
		true, false, false, false, true,
		true, false, false, false, true,
		true, false, false, false, true,
		true, true, true, true, true,
	})
}

func TestFootprintMaskAllTouchedAlignedHole(t *testing.T) {
	outer := pixelRect(0, 0, 5, 5)
	hole := pixelRect(2, 2, 3, 3)[0]
	fp, _ := NewFootprint(orb.MultiPolygon{{outer[0], hole}}, testGrid)

	mask := fp.Mask(Window{Height: 5, Width: 5}, true, false)
	if !mask[2*5+2] || mask.Count() != 1 {
		t.Errorf("expected only the hole excluded, got %d excluded (hole %v)", mask.Count(), mask[2*5+2])
	}
}

func TestFootprintMaskHole(t *testing.T) {
	outer := pixelRect(0, 0, 5, 5)
	hole := pixelRect(2, 2, 3, 3)[0]
	fp, _ := NewFootprint(orb.MultiPolygon{{outer[0], hole}}, testGrid)

	mask := fp.Mask(Window{Height: 5, Width: 5}, false, false)
	if !mask[2*5+2] {
		t.Error("hole pixel must be excluded")
	}
	if mask.Count() != 1 {
		t.Errorf("expected only the hole excluded, got %d", mask.Count())
	}
}

func TestFootprintMaskMultiPolygon(t *testing.T) {
	fp, _ := NewFootprint(orb.MultiPolygon{
		pixelRect(0, 0, 1, 1),
		pixelRect(3, 3, 4, 4),
	}, testGrid)

	mask := fp.Mask(Window{Height: 4, Width: 4}, false, false)
	if mask[0] || mask[15] {
		t.Error("both polygons must be included")
	}
	if mask.Count() != 14 {
		t.Errorf("expected 14 excluded pixels, got %d", mask.Count())
	}
}

func assertMask(t *testing.T, got Mask, want []bool) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("mask length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v (mask %v)", i, got[i], want[i], got)
			return
		}
	}
}
