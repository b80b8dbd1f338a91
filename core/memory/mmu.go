package memory

import (
	"time"

	"github.com/outrun8bit/pocketcore/core/addr"
	"github.com/outrun8bit/pocketcore/core/audio"
	"github.com/outrun8bit/pocketcore/core/serial"
	"github.com/outrun8bit/pocketcore/core/video"
)

// InterruptRouter is the subset of CPU behavior the MMU needs: requesting an
// interrupt on behalf of a peripheral, and servicing the two registers (IF,
// IE) that live in the CPU itself rather than behind any address-mapped
// device.
type InterruptRouter interface {
	RequestInterrupt(i addr.Interrupt)
	ReadIO(address uint16) (uint8, bool)
	WriteIO(address uint16, value uint8) bool
}

const (
	wramStart  = 0xC000
	wramEnd    = 0xDFFF
	echoStart  = 0xE000
	echoEnd    = 0xFDFF
	hramStart  = 0xFF80
	hramEnd    = 0xFFFE
	unusedOAMEnd = 0xFEFF
)

// MMU is the system bus: it decodes every address in $0000-$FFFF, routing it
// to the cartridge's MBC, work RAM, the PPU, the APU, the timer, the
// joypad, the serial stub, or back to the CPU's own IF/IE registers.
type MMU struct {
	mbc  MBC
	gpu  *video.GPU
	apu  *audio.APU
	tmr  *Timer
	pad  *Joypad
	ser  *serial.LogSink
	cpu  InterruptRouter

	wram [0x2000]byte
	hram [0x7F]byte

	dmaSource uint16
}

// NewMBCFor builds the MBC variant named by the cartridge's header,
// injecting clock for MBC3's real-time-clock wall-clock catch-up.
func NewMBCFor(cart *Cartridge, clock func() time.Time) MBC {
	switch cart.Kind() {
	case MBC1Kind:
		return NewMBC1(cart.Data(), cart.HasBattery(), cart.RAMBytes())
	case MBC2Kind:
		return NewMBC2(cart.Data(), cart.HasBattery())
	case MBC3Kind:
		return NewMBC3(cart.Data(), cart.RAMBytes(), cart.HasBattery(), cart.HasRTC(), clock)
	case MBC5Kind:
		return NewMBC5(cart.Data(), cart.HasBattery(), cart.HasRumble(), cart.RAMBytes())
	default:
		return NewNoMBC(cart.Data())
	}
}

// NewMMU wires every peripheral together and binds their interrupt
// callbacks to router, which is always the CPU in production.
func NewMMU(mbc MBC, gpu *video.GPU, apu *audio.APU, tmr *Timer, pad *Joypad, ser *serial.LogSink, router InterruptRouter) *MMU {
	m := &MMU{mbc: mbc, gpu: gpu, apu: apu, tmr: tmr, pad: pad, ser: ser, cpu: router}

	gpu.IRQHandler = router.RequestInterrupt
	tmr.IRQHandler = func() { router.RequestInterrupt(addr.TimerInterrupt) }
	pad.IRQHandler = func() { router.RequestInterrupt(addr.JoypadInterrupt) }

	return m
}

// Read implements the cpu.Bus interface.
func (m *MMU) Read(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		return m.mbc.Read(address)
	case address >= 0x8000 && address <= 0x9FFF:
		return m.gpu.Read(address)
	case address >= 0xA000 && address <= 0xBFFF:
		return m.mbc.Read(address)
	case address >= wramStart && address <= wramEnd:
		return m.wram[address-wramStart]
	case address >= echoStart && address <= echoEnd:
		return m.wram[address-echoStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return m.gpu.Read(address)
	case address > addr.OAMEnd && address <= unusedOAMEnd:
		return 0xFF
	case address == addr.P1:
		return m.pad.Read()
	case address == addr.SB || address == addr.SC:
		return m.ser.Read(address)
	case address >= addr.DIV && address <= addr.TAC:
		return m.tmr.Read(address)
	case address == addr.IF:
		v, _ := m.cpu.ReadIO(address)
		return v
	case address == addr.DMA:
		return uint8(m.dmaSource >> 8)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.apu.Read(address)
	case address >= addr.LCDC && address <= addr.WX:
		return m.gpu.Read(address)
	case address >= hramStart && address <= hramEnd:
		return m.hram[address-hramStart]
	case address == addr.IE:
		v, _ := m.cpu.ReadIO(address)
		return v
	default:
		return 0xFF
	}
}

// Write implements the cpu.Bus interface.
func (m *MMU) Write(address uint16, value uint8) {
	switch {
	case address <= 0x7FFF:
		m.mbc.Write(address, value)
	case address >= 0x8000 && address <= 0x9FFF:
		m.gpu.Write(address, value)
	case address >= 0xA000 && address <= 0xBFFF:
		m.mbc.Write(address, value)
	case address >= wramStart && address <= wramEnd:
		m.wram[address-wramStart] = value
	case address >= echoStart && address <= echoEnd:
		m.wram[address-echoStart] = value
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		m.gpu.Write(address, value)
	case address > addr.OAMEnd && address <= unusedOAMEnd:
		// unusable region, writes are inert
	case address == addr.P1:
		m.pad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.ser.Write(address, value)
	case address >= addr.DIV && address <= addr.TAC:
		m.tmr.Write(address, value)
	case address == addr.IF:
		m.cpu.WriteIO(address, value)
	case address == addr.DMA:
		m.startDMA(value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.apu.Write(address, value)
	case address >= addr.LCDC && address <= addr.WX:
		m.gpu.Write(address, value)
	case address >= hramStart && address <= hramEnd:
		m.hram[address-hramStart] = value
	case address == addr.IE:
		m.cpu.WriteIO(address, value)
	}
}

// startDMA begins a 160-byte OAM DMA transfer from value*0x100. Real
// hardware spreads this over 160 M-cycles and blocks most bus access while
// it runs; this core copies it synchronously, which is observationally
// equivalent for any program that waits for the transfer before reading OAM.
func (m *MMU) startDMA(value uint8) {
	m.dmaSource = uint16(value) << 8
	for i := 0; i < 160; i++ {
		b := m.dmaSourceRead(m.dmaSource + uint16(i))
		m.gpu.WriteOAMDMA(i, b)
	}
}

// dmaSourceRead reads the DMA source byte directly, bypassing the PPU's
// VRAM/OAM bus lock: the lock models CPU contention with the PPU's own
// fetcher, not the DMA unit's separate bus access.
func (m *MMU) dmaSourceRead(address uint16) uint8 {
	switch {
	case address <= 0x7FFF || (address >= 0xA000 && address <= 0xBFFF):
		return m.mbc.Read(address)
	case address >= wramStart && address <= wramEnd:
		return m.wram[address-wramStart]
	case address >= echoStart && address <= echoEnd:
		return m.wram[address-echoStart]
	default:
		return m.Read(address)
	}
}

// MBC returns the cartridge's bank controller, for save-battery plumbing.
func (m *MMU) MBC() MBC { return m.mbc }

// Tick advances every peripheral by the same T-cycle count the CPU just
// consumed, keeping the whole system in lockstep.
func (m *MMU) Tick(cycles int) {
	m.gpu.Tick(cycles)
	m.tmr.Tick(cycles)
	m.apu.Tick(cycles)
	m.ser.Tick(cycles)
}
