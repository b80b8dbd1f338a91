// Package addr names the memory-mapped I/O register addresses and interrupt
// bit assignments shared across the core.
package addr

// PPU registers.
const (
	LCDC uint16 = 0xFF40 // LCD control
	STAT uint16 = 0xFF41 // LCD status
	SCY  uint16 = 0xFF42 // Scroll Y
	SCX  uint16 = 0xFF43 // Scroll X
	LY   uint16 = 0xFF44 // Current scanline (read-only)
	LYC  uint16 = 0xFF45 // LY compare
	DMA  uint16 = 0xFF46 // OAM DMA source
	BGP  uint16 = 0xFF47 // Background palette
	OBP0 uint16 = 0xFF48 // Object palette 0
	OBP1 uint16 = 0xFF49 // Object palette 1
	WY   uint16 = 0xFF4A // Window Y
	WX   uint16 = 0xFF4B // Window X
)

// APU registers.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR13 uint16 = 0xFF13
	NR14 uint16 = 0xFF14

	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR33 uint16 = 0xFF1D
	NR34 uint16 = 0xFF1E

	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23

	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// OAM range.
const (
	OAMStart uint16 = 0xFE00
	OAMEnd   uint16 = 0xFE9F
)

// Tile data / tile map bases.
const (
	TileData0 uint16 = 0x8000 // unsigned tile addressing
	TileData2 uint16 = 0x9000 // signed tile addressing base

	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

// Interrupt registers.
const (
	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// Joypad register.
const (
	P1 uint16 = 0xFF00
)

// Serial registers.
const (
	SB uint16 = 0xFF01
	SC uint16 = 0xFF02
)

// Timer registers.
const (
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// Interrupt is one of the five interrupt sources, as a bitmask over IE/IF.
type Interrupt uint8

const (
	VBlankInterrupt  Interrupt = 1 << 0
	LCDSTATInterrupt Interrupt = 1 << 1
	TimerInterrupt   Interrupt = 1 << 2
	SerialInterrupt  Interrupt = 1 << 3
	JoypadInterrupt  Interrupt = 1 << 4
)

// Vector is the fixed dispatch address for each interrupt bit, in priority order.
var Vector = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}
