package video

import (
	"sort"

	"github.com/outrun8bit/pocketcore/core/addr"
	"github.com/outrun8bit/pocketcore/core/bit"
)

// Mode is the PPU's current rendering stage, matching STAT bits 1:0.
type Mode uint8

const (
	HBlank Mode = 0
	VBlank Mode = 1
	OamScan Mode = 2
	Drawing Mode = 3
)

const (
	oamScanCycles = 80
	drawingCycles = 172
	hblankCycles  = 204
	lineCycles    = oamScanCycles + drawingCycles + hblankCycles // 456
	linesPerFrame = 154
)

// LCDC bit positions.
const (
	lcdcBGWindowEnable = 0
	lcdcObjEnable      = 1
	lcdcObjSize        = 2
	lcdcBGTileMap      = 3
	lcdcTileData       = 4
	lcdcWindowEnable   = 5
	lcdcWindowTileMap  = 6
	lcdcDisplayEnable  = 7
)

// STAT source-enable bit positions.
const (
	statHBlankIRQ = 3
	statOAMIRQ    = 4
	statVBlankIRQ = 5
	statLYCIRQ    = 6
)

// GPU is the pixel processing unit: it owns VRAM, OAM, and the LCD registers,
// advances the scanline/mode state machine in lock-step with CPU T-cycles,
// and renders each scanline into a FrameBuffer.
type GPU struct {
	vram [8192]byte
	oam  [160]byte

	lcdc, stat, scy, scx, lyc, bgp, obp0, obp1, wy, wx byte
	ly                                                 int
	mode                                               Mode
	cycles                                             int
	windowLine                                         int

	fb          *FrameBuffer
	bgColorID   [Width]uint8
	sprites     [10]Sprite
	spriteCount int

	frameReady  bool
	paletteIdx  int

	// IRQHandler requests the named interrupt; wired to the owning MMU.
	IRQHandler func(addr.Interrupt)
}

func NewGPU() *GPU {
	g := &GPU{fb: NewFrameBuffer(), mode: OamScan}
	g.selectSprites()
	return g
}

func (g *GPU) FrameBuffer() *FrameBuffer { return g.fb }

// TakeFrameReady reports whether a frame completed since the last call, and
// clears the flag.
func (g *GPU) TakeFrameReady() bool {
	ready := g.frameReady
	g.frameReady = false
	return ready
}

// CyclePalette rotates to the next of the four pre-defined color palettes.
func (g *GPU) CyclePalette() {
	g.paletteIdx = (g.paletteIdx + 1) % len(Palettes)
}

func (g *GPU) activePalette() Palette {
	return Palettes[g.paletteIdx]
}

func (g *GPU) lcdEnabled() bool { return bit.IsSet(lcdcDisplayEnable, g.lcdc) }

// Tick advances the PPU by cycles T-cycles, running the mode state machine
// to completion (it may cross several mode transitions in one call). The
// cycle accumulator is decremented, never reset, on each transition.
func (g *GPU) Tick(cycles int) {
	if !g.lcdEnabled() {
		return
	}

	g.cycles += cycles
	for {
		switch g.mode {
		case OamScan:
			if g.cycles < oamScanCycles {
				return
			}
			g.cycles -= oamScanCycles
			g.mode = Drawing
		case Drawing:
			if g.cycles < drawingCycles {
				return
			}
			g.cycles -= drawingCycles
			g.renderScanline()
			g.mode = HBlank
			if bit.IsSet(statHBlankIRQ, g.stat) {
				g.requestSTAT()
			}
		case HBlank:
			if g.cycles < hblankCycles {
				return
			}
			g.cycles -= hblankCycles
			g.setLY(g.ly + 1)

			if g.ly == 144 {
				g.mode = VBlank
				g.windowLine = 0
				g.frameReady = true
				if g.IRQHandler != nil {
					g.IRQHandler(addr.VBlankInterrupt)
				}
				if bit.IsSet(statVBlankIRQ, g.stat) {
					g.requestSTAT()
				}
			} else {
				g.mode = OamScan
				g.selectSprites()
				if bit.IsSet(statOAMIRQ, g.stat) {
					g.requestSTAT()
				}
			}
		case VBlank:
			if g.cycles < lineCycles {
				return
			}
			g.cycles -= lineCycles
			if g.ly == linesPerFrame-1 {
				g.setLY(0)
				g.mode = OamScan
				g.selectSprites()
				if bit.IsSet(statOAMIRQ, g.stat) {
					g.requestSTAT()
				}
			} else {
				g.setLY(g.ly + 1)
			}
		}
	}
}

func (g *GPU) setLY(line int) {
	g.ly = line
	if g.ly == int(g.lyc) && bit.IsSet(statLYCIRQ, g.stat) {
		g.requestSTAT()
	}
}

func (g *GPU) requestSTAT() {
	if g.IRQHandler != nil {
		g.IRQHandler(addr.LCDSTATInterrupt)
	}
}

func (g *GPU) statValue() byte {
	v := (g.stat & 0x78) | 0x80
	if g.ly == int(g.lyc) {
		v |= 0x04
	}
	if g.lcdEnabled() {
		v |= byte(g.mode) & 0x03
	}
	return v
}

// Read services the PPU register block and the VRAM/OAM address ranges,
// returning 0xFF where the bus is locked per spec §4.3/Invariants.
func (g *GPU) Read(address uint16) byte {
	switch address {
	case addr.LCDC:
		return g.lcdc
	case addr.STAT:
		return g.statValue()
	case addr.SCY:
		return g.scy
	case addr.SCX:
		return g.scx
	case addr.LY:
		if !g.lcdEnabled() {
			return 0
		}
		return byte(g.ly)
	case addr.LYC:
		return g.lyc
	case addr.BGP:
		return g.bgp
	case addr.OBP0:
		return g.obp0
	case addr.OBP1:
		return g.obp1
	case addr.WY:
		return g.wy
	case addr.WX:
		return g.wx
	}

	switch {
	case address >= 0x8000 && address <= 0x9FFF:
		if g.lcdEnabled() && g.mode == Drawing {
			return 0xFF
		}
		return g.vram[address-0x8000]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		if g.lcdEnabled() && (g.mode == OamScan || g.mode == Drawing) {
			return 0xFF
		}
		return g.oam[address-addr.OAMStart]
	}
	return 0xFF
}

func (g *GPU) Write(address uint16, value byte) {
	switch address {
	case addr.LCDC:
		g.setLCDC(value)
		return
	case addr.STAT:
		g.stat = value & 0x78
		return
	case addr.SCY:
		g.scy = value
		return
	case addr.SCX:
		g.scx = value
		return
	case addr.LY:
		return // read-only
	case addr.LYC:
		g.lyc = value
		if g.ly == int(g.lyc) && bit.IsSet(statLYCIRQ, g.stat) {
			g.requestSTAT()
		}
		return
	case addr.BGP:
		g.bgp = value
		return
	case addr.OBP0:
		g.obp0 = value
		return
	case addr.OBP1:
		g.obp1 = value
		return
	case addr.WY:
		g.wy = value
		return
	case addr.WX:
		g.wx = value
		return
	}

	switch {
	case address >= 0x8000 && address <= 0x9FFF:
		if g.lcdEnabled() && g.mode == Drawing {
			return
		}
		g.vram[address-0x8000] = value
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		if g.lcdEnabled() && (g.mode == OamScan || g.mode == Drawing) {
			return
		}
		g.oam[address-addr.OAMStart] = value
	}
}

// WriteOAMDMA writes directly into OAM bypassing the PPU lock, used by the
// MMU's $FF46 DMA transfer (spec §4.2: the DMA destination write is not
// subject to PPU locking).
func (g *GPU) WriteOAMDMA(index int, value byte) {
	g.oam[index] = value
}

func (g *GPU) setLCDC(value byte) {
	wasEnabled := g.lcdEnabled()
	g.lcdc = value
	nowEnabled := bit.IsSet(lcdcDisplayEnable, value)

	if wasEnabled && !nowEnabled {
		g.ly = 0
		g.mode = HBlank
		g.cycles = 0
	} else if !wasEnabled && nowEnabled {
		g.mode = OamScan
		g.cycles = 0
		g.selectSprites()
	}
}

func (g *GPU) renderScanline() {
	g.drawBackgroundAndWindow()
	g.drawSprites()
}

func (g *GPU) drawBackgroundAndWindow() {
	palette := g.activePalette()
	bgWindowEnabled := bit.IsSet(lcdcBGWindowEnable, g.lcdc)
	windowActiveThisLine := bgWindowEnabled && bit.IsSet(lcdcWindowEnable, g.lcdc) && int(g.wy) <= g.ly
	windowDrawnSomewhere := false

	for x := 0; x < Width; x++ {
		if !bgWindowEnabled {
			color0 := g.bgp & 0x03
			g.fb.SetPixel(x, g.ly, palette[color0])
			g.bgColorID[x] = 0
			continue
		}

		useWindow := windowActiveThisLine && x >= int(g.wx)-7
		var mapX, mapY int
		var useUnsignedMap bool
		if useWindow {
			windowDrawnSomewhere = true
			mapY = g.windowLine
			mapX = x - (int(g.wx) - 7)
			useUnsignedMap = !bit.IsSet(lcdcWindowTileMap, g.lcdc)
		} else {
			mapY = (g.ly + int(g.scy)) & 0xFF
			mapX = (x + int(g.scx)) & 0xFF
			useUnsignedMap = !bit.IsSet(lcdcBGTileMap, g.lcdc)
		}

		tileMapBase := uint16(0x9C00)
		if useUnsignedMap {
			tileMapBase = 0x9800
		}
		tileRow := mapY / 8
		tileCol := mapX / 8
		tileIndex := g.vram[tileMapBase-0x8000+uint16(tileRow*32+tileCol)]

		var tileDataIdx int
		if bit.IsSet(lcdcTileData, g.lcdc) {
			tileDataIdx = int(tileIndex) * 16
		} else {
			tileDataIdx = 0x9000 - 0x8000 + int(int8(tileIndex))*16
		}

		rowOffset := (mapY % 8) * 2
		b1 := g.vram[tileDataIdx+rowOffset]
		b2 := g.vram[tileDataIdx+rowOffset+1]
		bitIdx := 7 - uint8(mapX%8)
		lo := (b1 >> bitIdx) & 1
		hi := (b2 >> bitIdx) & 1
		colorID := (hi << 1) | lo

		shade := (g.bgp >> (colorID * 2)) & 0x03
		g.fb.SetPixel(x, g.ly, palette[shade])
		g.bgColorID[x] = colorID
	}

	if windowDrawnSomewhere {
		g.windowLine++
	}
}

func (g *GPU) drawSprites() {
	if !bit.IsSet(lcdcObjEnable, g.lcdc) {
		return
	}

	height := 8
	if bit.IsSet(lcdcObjSize, g.lcdc) {
		height = 16
	}

	ordered := make([]Sprite, g.spriteCount)
	copy(ordered, g.sprites[:g.spriteCount])
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].X != ordered[j].X {
			return ordered[i].X < ordered[j].X
		}
		return ordered[i].OAMIndex < ordered[j].OAMIndex
	})

	palette := g.activePalette()
	var occupied [Width]bool

	for _, s := range ordered {
		row := g.ly - (int(s.Y) - 16)
		if s.FlipY {
			row = height - 1 - row
		}

		tileIdx := s.TileIndex
		if height == 16 {
			tileIdx &= 0xFE
			if row >= 8 {
				tileIdx++
				row -= 8
			}
		}

		vramIdx := int(tileIdx)*16 + row*2
		b1 := g.vram[vramIdx]
		b2 := g.vram[vramIdx+1]

		for px := 0; px < 8; px++ {
			screenX := int(s.X) - 8 + px
			if screenX < 0 || screenX >= Width || occupied[screenX] {
				continue
			}

			bitIdx := px
			if !s.FlipX {
				bitIdx = 7 - px
			}
			lo := (b1 >> uint(bitIdx)) & 1
			hi := (b2 >> uint(bitIdx)) & 1
			colorID := (hi << 1) | lo
			if colorID == 0 {
				continue
			}
			occupied[screenX] = true

			if s.BehindBG && g.bgColorID[screenX] != 0 {
				continue
			}

			obp := g.obp0
			if s.PaletteOBP1 {
				obp = g.obp1
			}
			shade := (obp >> (colorID * 2)) & 0x03
			g.fb.SetPixel(screenX, g.ly, palette[shade])
		}
	}
}
