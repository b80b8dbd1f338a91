package video

import (
	"testing"

	"github.com/outrun8bit/pocketcore/core/addr"
)

func newEnabledGPU() *GPU {
	g := NewGPU()
	g.Write(addr.LCDC, 0x91) // display + BG/window enabled, unsigned tile map
	return g
}

func TestModeSequencePerLine(t *testing.T) {
	g := newEnabledGPU()

	if g.mode != OamScan {
		t.Fatalf("mode = %v; want OamScan at line start", g.mode)
	}
	g.Tick(oamScanCycles)
	if g.mode != Drawing {
		t.Fatalf("mode = %v; want Drawing after OAM scan", g.mode)
	}
	g.Tick(drawingCycles)
	if g.mode != HBlank {
		t.Fatalf("mode = %v; want HBlank after drawing", g.mode)
	}
	g.Tick(hblankCycles)
	if g.mode != OamScan || g.ly != 1 {
		t.Fatalf("mode=%v ly=%d; want OamScan at line 1", g.mode, g.ly)
	}
}

func TestVBlankFiresOnceAtLine144(t *testing.T) {
	g := newEnabledGPU()
	var fired []addr.Interrupt
	g.IRQHandler = func(i addr.Interrupt) { fired = append(fired, i) }

	for line := 0; line < 144; line++ {
		g.Tick(lineCycles)
	}

	if g.mode != VBlank {
		t.Fatalf("mode = %v; want VBlank", g.mode)
	}
	count := 0
	for _, i := range fired {
		if i == addr.VBlankInterrupt {
			count++
		}
	}
	if count != 1 {
		t.Errorf("VBlank interrupt fired %d times; want 1", count)
	}
}

func TestLYCInterruptFiresOnMatch(t *testing.T) {
	g := newEnabledGPU()
	g.Write(addr.STAT, 0x40) // enable LYC=LY STAT source
	g.Write(addr.LYC, 2)

	var fired int
	g.IRQHandler = func(i addr.Interrupt) {
		if i == addr.LCDSTATInterrupt {
			fired++
		}
	}

	for line := 0; line < 3; line++ {
		g.Tick(lineCycles)
	}
	if fired == 0 {
		t.Error("expected a STAT interrupt when LY reached LYC")
	}
}

func TestVRAMLockedDuringDrawing(t *testing.T) {
	g := newEnabledGPU()
	g.Write(0x8000, 0xAB) // writable during OamScan
	g.Tick(oamScanCycles) // now in Drawing
	g.Write(0x8000, 0xCD) // should be dropped
	g.Tick(drawingCycles) // now HBlank, VRAM readable again
	if got := g.Read(0x8000); got != 0xAB {
		t.Errorf("VRAM should be locked during Drawing, got 0x%02X, want 0xAB", got)
	}
}

func TestOAMLockedDuringOamScanAndDrawing(t *testing.T) {
	g := newEnabledGPU()
	if got := g.Read(addr.OAMStart); got != 0xFF {
		t.Errorf("OAM should read 0xFF while locked during OamScan, got 0x%02X", got)
	}
	g.WriteOAMDMA(0, 0x42) // DMA bypasses the lock
	g.Tick(oamScanCycles)  // now Drawing, OAM still locked
	if got := g.Read(addr.OAMStart); got != 0xFF {
		t.Errorf("OAM should still read 0xFF during Drawing, got 0x%02X", got)
	}
	g.Tick(drawingCycles) // now HBlank, OAM unlocked
	if got := g.Read(addr.OAMStart); got != 0x42 {
		t.Errorf("OAM should read back the DMA'd byte once unlocked, got 0x%02X", got)
	}
}

func TestBackgroundRendersKnownTile(t *testing.T) {
	g := newEnabledGPU()
	g.Write(addr.BGP, 0b11_10_01_00) // color ids 0,1,2,3 map to shades 0,1,2,3

	// Tile 0 at $8000: a single row with color id 3 (both bitplane bits set)
	// in every pixel, row 0.
	g.Write(0x8000, 0xFF) // low bitplane byte for row 0
	g.Write(0x8001, 0xFF) // high bitplane byte for row 0
	// Tile map entry 0 (at $9800) already defaults to tile 0.

	g.Tick(oamScanCycles)
	g.Tick(drawingCycles)

	want := Palettes[0][3]
	if got := g.FrameBuffer().Pixel(0, 0); got != want {
		t.Errorf("pixel (0,0) = 0x%08X; want 0x%08X (shade for color id 3)", got, want)
	}
}

func TestSpriteOrderingPrefersLowerXThenOAMIndex(t *testing.T) {
	g := newEnabledGPU()
	g.Write(addr.LCDC, 0x93) // display+BG+objects enabled
	g.Write(addr.OBP0, 0b11_10_01_00)

	// Tile 1 row 0 is all color id 1, tile 2 row 0 is all color id 2.
	g.Write(0x8010, 0xFF)
	g.Write(0x8021, 0xFF)

	// Two sprites overlapping the same scanline, sprite 1 further left.
	writeSprite(g, 0, 16, 20, 1, 0) // OAM index 0: X=20-8=12
	writeSprite(g, 1, 16, 16, 2, 0) // OAM index 1: X=16-8=8, should draw first

	g.selectSprites()
	if g.spriteCount != 2 {
		t.Fatalf("spriteCount = %d; want 2", g.spriteCount)
	}

	g.Tick(oamScanCycles)
	g.Tick(drawingCycles)

	// Screen x 12-15 is covered by both sprites; the lower-X sprite 1 wins
	// even though it comes later in OAM.
	if got, want := g.FrameBuffer().Pixel(12, 0), Palettes[0][2]; got != want {
		t.Errorf("pixel (12,0) = 0x%08X; want 0x%08X (lower-X sprite drawn on top)", got, want)
	}
}

func writeSprite(g *GPU, index int, y, x, tile, flags uint8) {
	base := index * 4
	g.oam[base] = y
	g.oam[base+1] = x
	g.oam[base+2] = tile
	g.oam[base+3] = flags
}
