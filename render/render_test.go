package render_test

import (
	"testing"

	"github.com/scanlime-collective/roboodyssey/render"
)

func solidColorTable() *render.ColorTable {
	c := render.NewColorTable()
	for color := 0; color < render.NumPatterns; color++ {
		for i := 0; i < render.ScreenTileSize*render.ScreenTileSize; i++ {
			c.Patterns[color*render.ScreenTileSize*render.ScreenTileSize+i] = uint32(color)
		}
	}
	c.CGA = [4]uint32{0x000000, 0x555555, 0xAAAAAA, 0xFFFFFF}
	return c
}

func TestPixel160x192WritesZoomBlockOfSolidColor(t *testing.T) {
	d := render.NewRGBDraw(solidColorTable())
	d.Pixel160x192(10, 10, 5, 0, 0)

	screenX := 2 * 10 * render.Zoom
	screenY := (191 - 10) * render.Zoom
	for zy := 0; zy < render.Zoom; zy++ {
		for zx := 0; zx < render.Zoom; zx++ {
			got := d.Backbuffer[screenX+zx+(zy+screenY)*render.ScreenWidth]
			if got != 5 {
				t.Fatalf("pixel (%d,%d) = %d, want 5", screenX+zx, screenY+zy, got)
			}
		}
	}
}

func TestSpriteDrawsOnlySetBits(t *testing.T) {
	d := render.NewRGBDraw(solidColorTable())
	data := make([]byte, 16)
	data[0] = 0x01 // bit 0 set -> bitx = 6

	d.Sprite(data, 0, 0, 9)

	screenX := 2 * 6 * render.Zoom
	screenY := 191 * render.Zoom
	if got := d.Backbuffer[screenX+(screenY)*render.ScreenWidth]; got != 9 {
		t.Fatalf("expected sprite bit to paint color 9, got %d", got)
	}

	// A neighboring, unset-bit position should remain untouched (zero).
	screenX2 := 2 * 0 * render.Zoom
	if got := d.Backbuffer[screenX2+(screenY)*render.ScreenWidth]; got != 0 {
		t.Fatalf("expected unset sprite bit to leave background, got %d", got)
	}
}

func TestHLineAndVLineRespectOutOfBoundsEnd(t *testing.T) {
	d := render.NewRGBDraw(solidColorTable())
	// end >= 160 must draw nothing at all, per the original's bounds check.
	d.HLine(0, 200, 5, 3)
	for _, v := range d.Backbuffer {
		if v != 0 {
			t.Fatal("HLine with an out-of-range end must not draw anything")
		}
	}

	d.VLine(5, 0, 250, 3)
	for _, v := range d.Backbuffer {
		if v != 0 {
			t.Fatal("VLine with an out-of-range end must not draw anything")
		}
	}
}

func TestExpandCGAFrameSamplesPaletteDirectly(t *testing.T) {
	colors := solidColorTable()
	d := render.NewRGBDraw(colors)

	var frame render.CGAFramebuffer
	// Plane 0, byte 0 holds the leftmost 4 pixels of row 0: set them all
	// to color index 2 (0b10 repeated).
	frame.Bytes[0] = 0xAA

	d.ExpandCGAFrame(&frame)

	if got := d.Backbuffer[0]; got != colors.CGA[2] {
		t.Fatalf("top-left pixel = %#x, want CGA palette entry 2 (%#x)", got, colors.CGA[2])
	}
}
