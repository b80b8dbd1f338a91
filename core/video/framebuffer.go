// Package video implements the PPU: the scanline/mode state machine, OAM
// sprite selection, and scanline rendering into a 160x144 framebuffer.
package video

const (
	Width  = 160
	Height = 144
	Size   = Width * Height
)

// Color is a packed RGBA color, 0xRRGGBBAA.
type Color uint32

// Palette is one set of 4 shades, indexed by a 2-bit color id (0 lightest).
type Palette [4]Color

// Palettes is the set of pre-defined 4-entry color palettes the host can
// cycle through (spec §6 cycle_palette).
var Palettes = []Palette{
	{0xFFFFFFFF, 0x989898FF, 0x4C4C4CFF, 0x000000FF}, // classic grayscale
	{0x9BBC0FFF, 0x8BAC0FFF, 0x306230FF, 0x0F380FFF}, // classic green
	{0xE0F8CFFF, 0x86C06CFF, 0x306850FF, 0x071821FF}, // muted teal
	{0xFFE9C5FF, 0xD89A6CFF, 0x8C4843FF, 0x2B1A2FFF}, // sepia
}

// FrameBuffer holds one rendered 160x144 frame.
type FrameBuffer struct {
	pixels [Size]Color
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (f *FrameBuffer) SetPixel(x, y int, c Color) {
	f.pixels[y*Width+x] = c
}

func (f *FrameBuffer) Pixel(x, y int) Color {
	return f.pixels[y*Width+x]
}

// Pixels returns the raw pixel slice; callers must not mutate it across a
// frame boundary since the PPU writes into the same backing array.
func (f *FrameBuffer) Pixels() []Color {
	return f.pixels[:]
}
