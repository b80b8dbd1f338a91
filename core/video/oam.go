package video

import "github.com/outrun8bit/pocketcore/core/bit"

// Sprite is one of the up to 10 OAM entries selected for the current
// scanline, carrying both the raw OAM bytes and its parsed attribute flags.
type Sprite struct {
	Y, X      uint8
	TileIndex uint8
	Flags     uint8
	OAMIndex  int

	PaletteOBP1 bool
	FlipX       bool
	FlipY       bool
	BehindBG    bool
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// selectSprites scans all 40 OAM entries in order and keeps the first 10
// whose vertical extent includes the current scanline (spec §4.3 OAM-Scan).
func (g *GPU) selectSprites() {
	height := 8
	if bit.IsSet(2, g.lcdc) {
		height = 16
	}

	g.spriteCount = 0
	for i := 0; i < 40 && g.spriteCount < 10; i++ {
		base := i * 4
		y := int(g.oam[base]) - 16
		if g.ly < y || g.ly >= y+height {
			continue
		}

		s := &g.sprites[g.spriteCount]
		s.Y = g.oam[base]
		s.X = g.oam[base+1]
		s.TileIndex = g.oam[base+2]
		s.Flags = g.oam[base+3]
		s.OAMIndex = i
		s.parseFlags()
		g.spriteCount++
	}
}
