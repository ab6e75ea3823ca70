// Package render is the pure CPU rasterizer translated code's video
// interrupts draw through: a CGA-resolution framebuffer capture type
// and an RGB backbuffer renderer that expands it through a
// precomputed dithered color table, the same two-stage pipeline the
// original engine's draw.cpp implements.
package render

const (
	// CGAWidth and CGAHeight are the game's native CGA resolution.
	CGAWidth  = 320
	CGAHeight = 200

	// Zoom is the fixed upscale factor from CGA pixels to backbuffer
	// pixels in both dimensions.
	Zoom = 2

	// CGAFramebufferSize is the byte size of one raw CGA framebuffer
	// capture: two interleaved 0x2000-byte bitplanes.
	CGAFramebufferSize = 0x4000

	// ScreenWidth and ScreenHeight are the RGB backbuffer's dimensions.
	ScreenWidth  = CGAWidth * Zoom
	ScreenHeight = CGAHeight * Zoom

	// PlayfieldBlockSize is the edge length, in game pixels, of one
	// playfield super-tile; ScreenTileSize is its zoomed edge length
	// in backbuffer pixels, and also the edge length of one pattern in
	// the color table.
	PlayfieldBlockSize = 16
	ScreenTileSize     = PlayfieldBlockSize * Zoom

	// NumPatterns is the number of dithered fill patterns the color
	// table carries, one per 4-bit CGA/EGA color index the game uses.
	NumPatterns = 0x100

	// patternArea is the number of backbuffer pixels one pattern
	// occupies.
	patternArea = ScreenTileSize * ScreenTileSize
)

// CGAFramebuffer is a raw capture of the game's CGA video memory at
// the moment translated code called into the video interrupt: two
// interleaved bitplanes of 4-pixels-per-byte, 2-bit color indices.
type CGAFramebuffer struct {
	Bytes [CGAFramebufferSize]byte
}

// ColorTable holds the host-supplied palette and dithered fill
// patterns that RGBDraw samples from. The host populates Patterns
// once at startup from its own asset pipeline (the original engine
// receives these as raw pixel data over its JS binding); this package
// only ever reads them.
type ColorTable struct {
	// CGA is the direct 4-entry CGA palette, used when expanding a
	// captured CGAFramebuffer to RGB.
	CGA [4]uint32

	// Patterns is NumPatterns square tiles of ScreenTileSize edge
	// length, laid out consecutively: Patterns[color*patternArea:][y*ScreenTileSize+x].
	Patterns []uint32
}

// NewColorTable allocates a ColorTable with its pattern storage sized
// and ready for the host to fill in.
func NewColorTable() *ColorTable {
	return &ColorTable{Patterns: make([]uint32, NumPatterns*patternArea)}
}

func (c *ColorTable) pattern(color uint8) []uint32 {
	off := int(color) * patternArea
	return c.Patterns[off : off+patternArea]
}

// RGBDraw is the backbuffer rasterizer: every drawing primitive
// translated code's video interrupt uses bottoms out here.
type RGBDraw struct {
	Backbuffer []uint32
	Colors     *ColorTable
}

// NewRGBDraw allocates a cleared (transparent black) backbuffer bound
// to colors.
func NewRGBDraw(colors *ColorTable) *RGBDraw {
	return &RGBDraw{
		Backbuffer: make([]uint32, ScreenWidth*ScreenHeight),
		Colors:     colors,
	}
}

// Clear resets the backbuffer to transparent black.
func (d *RGBDraw) Clear() {
	for i := range d.Backbuffer {
		d.Backbuffer[i] = 0
	}
}

// Pixel160x192 plots one pixel of a 160x192 logical screen (the
// game's low-res coordinate space) by doubling it horizontally into
// two adjacent 320-wide columns, each sampled with its own anchor so
// a run of same-colored pixels continues one seamless dither pattern.
func (d *RGBDraw) Pixel160x192(x, y int, color uint8, anchorX, anchorY int) {
	d.Pixel320x192(2*x, y, color, 2*anchorX, anchorY)
	d.Pixel320x192(2*x+1, y, color, 2*anchorX+1, anchorY)
}

// Pixel320x192 plots one pixel of a 320x192 logical screen, sampling
// a zoom*zoom block from the color table's dithered pattern for color
// at an offset derived from (anchorX, anchorY) so adjacent calls tile
// seamlessly instead of restarting the pattern at every pixel.
func (d *RGBDraw) Pixel320x192(x, y int, color uint8, anchorX, anchorY int) {
	if x < 0 || x >= 320 || y < 0 || y >= 192 {
		return
	}

	const tileSize = ScreenTileSize
	const zoom = Zoom

	screenX := x * zoom
	screenY := (191 - y) * zoom

	pattern := d.Colors.pattern(color)
	patternX := anchorX * zoom
	patternY := tileSize - (1+anchorY)*zoom

	for zy := 0; zy < zoom; zy++ {
		for zx := 0; zx < zoom; zx++ {
			px := mod(patternX+zx, tileSize)
			py := mod(patternY+zy, tileSize)
			rgb := pattern[px+py*tileSize]
			d.Backbuffer[screenX+zx+(zy+screenY)*ScreenWidth] = rgb
		}
	}
}

func mod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}

// Sprite draws a 16-byte, 7-bit-wide monochrome bitmap at (x, y) in
// the 160x192 coordinate space, one color throughout.
func (d *RGBDraw) Sprite(data []byte, x, y uint8, color uint8) {
	for byteIndex := 0; byteIndex < 16 && byteIndex < len(data); byteIndex++ {
		b := data[byteIndex]
		for bitIndex := 0; bitIndex < 7; bitIndex++ {
			if (b>>uint(bitIndex))&1 == 0 {
				continue
			}
			bitX := 6 - bitIndex
			d.Pixel160x192(int(x)+bitX, int(y)+byteIndex, color, bitX, byteIndex)
		}
	}
}

// Playfield draws a 30-byte bitmap representing a 10x6 grid of
// super-tiles, each byte packing four 2x4 sub-tile bits; each set bit
// draws foreground's pattern, each clear bit background's.
func (d *RGBDraw) Playfield(data []byte, foreground, background uint8) {
	const tileSize = ScreenTileSize

	for byteIndex := 0; byteIndex < 30 && byteIndex < len(data); byteIndex++ {
		b := data[byteIndex]
		for bitIndex := 0; bitIndex < 8; bitIndex++ {
			patternID := background
			if (b>>uint(bitIndex))&1 != 0 {
				patternID = foreground
			}
			pattern := d.Colors.pattern(patternID)

			tileX := (byteIndex%10)*2 + (bitIndex >> 2)
			tileY := (byteIndex/10)*4 + (bitIndex & 3)
			screenX := tileX * tileSize
			screenY := tileY * tileSize

			for y := 0; y < tileSize; y++ {
				destRow := d.Backbuffer[screenX+(screenY+y)*ScreenWidth:]
				patternRow := pattern[y*tileSize:]
				for x := 0; x < tileSize; x++ {
					destRow[x] = patternRow[x]
				}
			}
		}
	}
}

// Text style selectors for RGBDraw.Text.
const (
	TextSmall = 0
	TextBig   = 1
)

// ColorWireCold is the palette index used for small monochrome text,
// matching the color the original engine's wire-cold state draws with.
const ColorWireCold = 1

// Text draws a NUL-terminated string using an 8-row bitmap font.
// fontData must point 0x280 bytes into the font block, the same
// already-biased pointer convention the translated engine's video
// interrupt passes in (biased by character 0 not being present in the
// font, and by the font being stored bottom line first).
func (d *RGBDraw) Text(text string, fontData []byte, x, y uint8, color uint8, style uint8) {
	const fontStart = -0x280

	zoom := 1
	if style == TextBig {
		zoom = 2
	}
	newlineX := x
	cx, cy := int(x), int(y)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == 0 {
			break
		}
		if c == 0x0D {
			cx = int(newlineX)
			cy -= 9 * zoom
			continue
		}
		if c < 0x20 || c >= 0x80 {
			continue
		}
		if cx >= 160 || cy >= 192-8 {
			continue
		}

		fontOff := fontStart + int(c) - 0x20
		for line := 0; line < 8; line++ {
			idx := fontOff + line*0x60
			if idx < 0 || idx >= len(fontData) {
				continue
			}
			b := fontData[idx]
			for bit := 0; bit < 8; bit++ {
				if (b<<uint(bit))&0x80 == 0 {
					continue
				}
				if style == TextBig {
					d.Pixel160x192(cx+bit-1, cy-line*2+14, color, bit, line*2)
					d.Pixel160x192(cx+bit-1, cy-line*2+15, color, bit, line*2+1)
				} else {
					d.Pixel320x192(2*(cx&^1)+bit, cy-line+7, ColorWireCold, bit, line)
				}
			}
		}
		cx += 4 * zoom
	}
}

// VLine draws an inclusive vertical line in the 160x192 coordinate
// space.
func (d *RGBDraw) VLine(x, y1, y2 uint8, color uint8) {
	start, end := int(y1), int(y2)
	if start > end {
		start, end = end, start
	}
	if end >= 192 {
		return
	}
	for i := 0; i <= end-start; i++ {
		d.Pixel160x192(int(x), start+i, color, 0, i)
	}
}

// HLine draws an inclusive horizontal line in the 160x192 coordinate
// space.
func (d *RGBDraw) HLine(x1, x2 uint8, y uint8, color uint8) {
	start, end := int(x1), int(x2)
	if start > end {
		start, end = end, start
	}
	if end >= 160 {
		return
	}
	for i := 0; i <= end-start; i++ {
		d.Pixel160x192(start+i, int(y), color, i, 0)
	}
}

// ExpandCGAFrame expands a captured CGA framebuffer into d's
// backbuffer: two interleaved bitplanes, 4 pixels per byte, 2-bit
// color indices sampled straight through the color table's CGA
// palette (not the dithered patterns — the captured frame is already
// rendered CGA output, not a logical draw call).
func (d *RGBDraw) ExpandCGAFrame(frame *CGAFramebuffer) {
	for plane := 0; plane < 2; plane++ {
		for y := 0; y < CGAHeight/2; y++ {
			rgbLine := d.Backbuffer[(y*2+plane)*ScreenWidth*Zoom:]

			for x := 0; x < CGAWidth; x++ {
				byteOff := 0x2000*plane + (x+CGAWidth*y)/4
				bit := 3 - (x % 4)
				color := 3 & (frame.Bytes[byteOff] >> uint(bit*2))
				rgb := d.Colors.CGA[color]

				for zy := 0; zy < Zoom; zy++ {
					for zx := 0; zx < Zoom; zx++ {
						rgbLine[zx+zy*ScreenWidth] = rgb
					}
				}
				rgbLine = rgbLine[Zoom:]
			}
		}
	}
}
