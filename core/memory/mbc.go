package memory

import "time"

// MBC is the interface every memory bank controller variant implements. The
// five variants are a closed set (spec §9 "Polymorphism"); this interface is
// the tagged-union boundary, dispatch through it is cold code relative to the
// CPU's per-cycle hot path.
type MBC interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)

	// Snapshot returns the battery-backed persistence payload: external RAM
	// bytes, and for RTC variants the wall-clock timestamp plus RTC bytes.
	Snapshot() []byte
	// Restore loads a previously captured Snapshot. A short buffer is
	// tolerated: whatever fits is copied, fields the buffer does not reach
	// keep their current values, and Restore never fails.
	Restore(data []byte)
}

// ---- RomOnly -----------------------------------------------------------

// NoMBC backs cartridges with no banking hardware: ROM is mapped directly,
// writes to the ROM region are ignored, and there is no external RAM.
type NoMBC struct {
	rom []uint8
}

func NewNoMBC(rom []uint8) *NoMBC {
	return &NoMBC{rom: rom}
}

func (m *NoMBC) Read(address uint16) uint8 {
	if int(address) < len(m.rom) {
		return m.rom[address]
	}
	return 0xFF
}

func (m *NoMBC) Write(address uint16, value uint8) {}
func (m *NoMBC) Snapshot() []byte                  { return nil }
func (m *NoMBC) Restore(data []byte)               {}

// ---- MBC1 ---------------------------------------------------------------

// MBC1 supports up to 125 switchable 16KiB ROM banks and up to 4 switchable
// 8KiB RAM banks, with a banking-mode bit that decides whether the two extra
// bank-select bits widen the ROM bank or select the RAM bank.
type MBC1 struct {
	rom []uint8
	ram []uint8

	ramEnabled  bool
	romBankLow  uint8 // low 5 bits, written directly, 0 promoted to 1
	bankHighBit uint8 // 2 extra bits, meaning depends on bankingMode
	bankingMode uint8 // 0 = ROM banking, 1 = RAM banking

	romBankCount uint8
	ramBankCount uint8
	hasBattery   bool
}

func NewMBC1(rom []uint8, hasBattery bool, ramBytes int) *MBC1 {
	banks := len(rom) / 0x4000
	if banks < 1 {
		banks = 1
	}
	return &MBC1{
		rom:          rom,
		ram:          make([]uint8, ramBytes),
		romBankLow:   1,
		romBankCount: uint8(banks),
		ramBankCount: uint8(max(ramBytes/0x2000, 1)),
		hasBattery:   hasBattery,
	}
}

func (m *MBC1) romBank() uint8 {
	bank := m.romBankLow
	if m.bankingMode == 0 {
		bank |= m.bankHighBit << 5
	}
	if m.romBankCount > 0 {
		bank %= m.romBankCount
	}
	if bank == 0 {
		bank = 1
	}
	return bank
}

func (m *MBC1) ramBank() uint8 {
	if m.bankingMode == 1 {
		return m.bankHighBit
	}
	return 0
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		offset := uint32(m.romBank())*0x4000 + uint32(address-0x4000)
		if int(offset) >= len(m.rom) {
			return 0xFF
		}
		return m.rom[offset]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := (uint32(m.ramBank())*0x2000 + uint32(address-0xA000)) % uint32(len(m.ram))
		return m.ram[offset]
	}
	return 0xFF
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBankLow = bank
	case address <= 0x5FFF:
		m.bankHighBit = value & 0x03
	case address <= 0x7FFF:
		m.bankingMode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		offset := (uint32(m.ramBank())*0x2000 + uint32(address-0xA000)) % uint32(len(m.ram))
		m.ram[offset] = value
	}
}

func (m *MBC1) Snapshot() []byte {
	if !m.hasBattery {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) Restore(data []byte) {
	n := copy(m.ram, data)
	_ = n
}

// ---- MBC2 -----------------------------------------------------------------

// MBC2 has built-in 512x4-bit RAM; RAM-enable and ROM-bank selection share
// the $0000-$3FFF write region, distinguished by bit 8 of the address.
type MBC2 struct {
	rom []uint8
	ram [512]uint8 // only the low nibble of each entry is meaningful

	romBank      uint8
	ramEnabled   bool
	romBankCount uint8
	hasBattery   bool
}

func NewMBC2(rom []uint8, hasBattery bool) *MBC2 {
	banks := len(rom) / 0x4000
	if banks < 1 {
		banks = 1
	}
	return &MBC2{rom: rom, romBank: 1, romBankCount: uint8(banks), hasBattery: hasBattery}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		bank := m.romBank
		if m.romBankCount > 0 {
			bank %= m.romBankCount
		}
		if bank == 0 {
			bank = 1
		}
		offset := uint32(bank)*0x4000 + uint32(address-0x4000)
		if int(offset) >= len(m.rom) {
			return 0xFF
		}
		return m.rom[offset]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[int(address-0xA000)%512] | 0xF0
	}
	return 0xFF
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
		} else {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[int(address-0xA000)%512] = value & 0x0F
	}
}

func (m *MBC2) Snapshot() []byte {
	if !m.hasBattery {
		return nil
	}
	out := make([]byte, 512)
	for i, v := range m.ram {
		out[i] = v & 0x0F
	}
	return out
}

func (m *MBC2) Restore(data []byte) {
	n := copy(m.ram[:], data)
	for i := 0; i < n; i++ {
		m.ram[i] &= 0x0F
	}
}

// ---- MBC3 -----------------------------------------------------------------

// rtcHalt is DH bit 6 (timer halt) and rtcDayCarry is DH bit 7 (day overflow,
// latched until software clears it).
const (
	rtcHalt     = 0x40
	rtcDayCarry = 0x80
)

// MBC3 adds a battery-backed real-time clock alongside standard ROM/RAM
// banking. The RTC does not tick per CPU cycle; it is lazily advanced from
// the wall-clock delta (original_source/mmu.rs `update_rtc`) whenever a
// working register is touched.
type MBC3 struct {
	rom []uint8
	ram []uint8

	ramRTCEnabled bool
	romBank       uint8
	ramBank       uint8 // 0-3 when RAM selected
	rtcSelect     uint8 // 0x08-0x0C when an RTC register is selected, 0 otherwise
	selectingRTC  bool

	rtc           [5]uint8 // S, M, H, DL, DH
	rtcLatched    [5]uint8
	latchArmed    bool
	lastTimestamp int64

	romBankCount uint8
	hasBattery   bool
	hasRTC       bool
	clock        func() time.Time
}

func NewMBC3(rom []uint8, ramBytes int, hasBattery, hasRTC bool, clock func() time.Time) *MBC3 {
	if clock == nil {
		clock = time.Now
	}
	banks := len(rom) / 0x4000
	if banks < 1 {
		banks = 1
	}
	return &MBC3{
		rom:           rom,
		ram:           make([]uint8, ramBytes),
		romBank:       1,
		romBankCount:  uint8(banks),
		hasBattery:    hasBattery,
		hasRTC:        hasRTC,
		clock:         clock,
		lastTimestamp: clock().Unix(),
	}
}

func (m *MBC3) advanceRTC() {
	if !m.hasRTC {
		return
	}
	now := m.clock().Unix()
	elapsed := now - m.lastTimestamp
	if elapsed <= 0 {
		return
	}
	if m.rtc[4]&rtcHalt != 0 {
		m.lastTimestamp = now
		return
	}

	seconds := uint64(m.rtc[0]) + uint64(elapsed)
	minutes := uint64(m.rtc[1]) + seconds/60
	seconds %= 60
	hours := uint64(m.rtc[2]) + minutes/60
	minutes %= 60
	days := uint64(m.rtc[4]&0x01)<<8 | uint64(m.rtc[3])
	days += hours / 24
	hours %= 24

	m.rtc[0] = uint8(seconds)
	m.rtc[1] = uint8(minutes)
	m.rtc[2] = uint8(hours)
	m.rtc[3] = uint8(days & 0xFF)
	m.rtc[4] &^= 0x01
	if days&0x100 != 0 {
		m.rtc[4] |= 0x01
	}
	if days > 511 {
		m.rtc[4] |= rtcDayCarry
	}
	m.lastTimestamp = now
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		bank := m.romBank
		if m.romBankCount > 0 {
			bank %= m.romBankCount
		}
		if bank == 0 {
			bank = 1
		}
		offset := uint32(bank)*0x4000 + uint32(address-0x4000)
		if int(offset) >= len(m.rom) {
			return 0xFF
		}
		return m.rom[offset]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramRTCEnabled {
			return 0xFF
		}
		if m.selectingRTC {
			return m.rtcLatched[m.rtcSelect-0x08]
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		offset := (uint32(m.ramBank)*0x2000 + uint32(address-0xA000)) % uint32(len(m.ram))
		return m.ram[offset]
	}
	return 0xFF
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramRTCEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address <= 0x5FFF:
		if value <= 0x03 {
			m.ramBank = value
			m.selectingRTC = false
		} else if value >= 0x08 && value <= 0x0C {
			m.rtcSelect = value
			m.selectingRTC = true
		}
	case address <= 0x7FFF:
		if value == 0x00 {
			m.latchArmed = true
		} else if value == 0x01 && m.latchArmed {
			m.advanceRTC()
			m.rtcLatched = m.rtc
			m.latchArmed = false
		} else {
			m.latchArmed = false
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramRTCEnabled {
			return
		}
		if m.selectingRTC {
			idx := m.rtcSelect - 0x08
			m.rtc[idx] = value
			if idx == 4 && value&rtcHalt == 0 {
				m.advanceRTC()
			}
			return
		}
		if len(m.ram) == 0 {
			return
		}
		offset := (uint32(m.ramBank)*0x2000 + uint32(address-0xA000)) % uint32(len(m.ram))
		m.ram[offset] = value
	}
}

func (m *MBC3) Snapshot() []byte {
	if !m.hasBattery {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	if !m.hasRTC {
		return out
	}
	m.advanceRTC()
	ts := uint64(m.lastTimestamp)
	var tsBytes [8]byte
	for i := 0; i < 8; i++ {
		tsBytes[i] = byte(ts >> (8 * i))
	}
	out = append(out, tsBytes[:]...)
	out = append(out, m.rtc[:]...)
	return out
}

func (m *MBC3) Restore(data []byte) {
	n := copy(m.ram, data)
	if !m.hasRTC || n >= len(data) {
		return
	}
	rest := data[n:]
	if len(rest) < 8 {
		return
	}
	var ts uint64
	for i := 0; i < 8; i++ {
		ts |= uint64(rest[i]) << (8 * i)
	}
	m.lastTimestamp = int64(ts)
	rest = rest[8:]
	copy(m.rtc[:], rest)
	m.rtcLatched = m.rtc
}

// ---- MBC5 -----------------------------------------------------------------

// MBC5 supports a full 9-bit ROM bank number (up to 512 banks) with no
// zero-promotion quirk, and up to 16 RAM banks.
type MBC5 struct {
	rom []uint8
	ram []uint8

	ramEnabled bool
	romBank    uint16 // 9 bits
	ramBank    uint8  // 4 bits

	romBankCount uint16
	hasBattery   bool
	hasRumble    bool
}

func NewMBC5(rom []uint8, hasBattery, hasRumble bool, ramBytes int) *MBC5 {
	banks := len(rom) / 0x4000
	if banks < 1 {
		banks = 1
	}
	return &MBC5{
		rom:          rom,
		ram:          make([]uint8, ramBytes),
		romBank:      1,
		romBankCount: uint16(banks),
		hasBattery:   hasBattery,
		hasRumble:    hasRumble,
	}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		bank := m.romBank
		if m.romBankCount > 0 {
			bank %= m.romBankCount
		}
		offset := uint32(bank)*0x4000 + uint32(address-0x4000)
		if int(offset) >= len(m.rom) {
			return 0xFF
		}
		return m.rom[offset]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := (uint32(m.ramBank)*0x2000 + uint32(address-0xA000)) % uint32(len(m.ram))
		return m.ram[offset]
	}
	return 0xFF
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x2FFF:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case address <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		offset := (uint32(m.ramBank)*0x2000 + uint32(address-0xA000)) % uint32(len(m.ram))
		m.ram[offset] = value
	}
}

func (m *MBC5) Snapshot() []byte {
	if !m.hasBattery {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC5) Restore(data []byte) {
	copy(m.ram, data)
}

