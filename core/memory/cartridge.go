package memory

import (
	"fmt"
	"strings"
	"unicode"
)

// Header field offsets, per the DMG cartridge header layout.
const (
	titleAddress         = 0x0134
	titleLength          = 16
	cartridgeTypeAddress = 0x0147
	romSizeAddress       = 0x0148
	ramSizeAddress       = 0x0149
)

// MBCKind identifies which of the five supported memory bank controller
// variants a cartridge uses.
type MBCKind uint8

const (
	RomOnly MBCKind = iota
	MBC1Kind
	MBC2Kind
	MBC3Kind
	MBC5Kind
)

// ramSizeBytes maps the RAM-size header code to a byte count.
var ramSizeBytes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Cartridge holds the immutable ROM bytes and header-derived metadata. Once
// constructed it never changes: the MBC built on top owns all mutable
// banking/RAM state.
type Cartridge struct {
	data []byte

	title    string
	typeCode uint8
	romSize  uint8
	ramSize  uint8

	kind       MBCKind
	hasBattery bool
	hasRTC     bool
	hasRumble  bool
	ramBytes   int
}

// NewCartridge creates an empty cartridge, useful for running the core with
// no ROM inserted (e.g. for debugging/tests of peripherals in isolation).
func NewCartridge() *Cartridge {
	return &Cartridge{data: make([]byte, 0x8000), kind: RomOnly}
}

// NewCartridgeFromBytes parses a raw ROM image into a Cartridge. It fails if
// the image is too short to contain a header or if the cartridge type code
// does not map to one of the five supported MBC variants.
func NewCartridgeFromBytes(data []byte) (*Cartridge, error) {
	if len(data) < 0x0150 {
		return nil, fmt.Errorf("cartridge: ROM is %d bytes, too short to contain a header", len(data))
	}

	c := &Cartridge{
		data:     make([]byte, len(data)),
		title:    cleanTitle(data[titleAddress : titleAddress+titleLength]),
		typeCode: data[cartridgeTypeAddress],
		romSize:  data[romSizeAddress],
		ramSize:  data[ramSizeAddress],
	}
	copy(c.data, data)

	kind, hasBattery, hasRTC, hasRumble, err := classify(c.typeCode)
	if err != nil {
		return nil, err
	}
	c.kind = kind
	c.hasBattery = hasBattery
	c.hasRTC = hasRTC
	c.hasRumble = hasRumble
	c.ramBytes = ramSizeBytes[c.ramSize]
	if kind == MBC2Kind {
		c.ramBytes = 512 // built-in 512x4-bit RAM, sized in nibbles
	}

	return c, nil
}

// classify maps a cartridge-type header byte to an MBC variant and its
// battery/RTC/rumble features, per the well-known DMG header table.
func classify(typeCode uint8) (kind MBCKind, hasBattery, hasRTC, hasRumble bool, err error) {
	switch typeCode {
	case 0x00, 0x08, 0x09:
		kind = RomOnly
	case 0x01, 0x02, 0x03:
		kind = MBC1Kind
	case 0x05, 0x06:
		kind = MBC2Kind
	case 0x0F, 0x10:
		kind = MBC3Kind
		hasRTC = true
	case 0x11, 0x12, 0x13:
		kind = MBC3Kind
	case 0x19, 0x1A, 0x1B:
		kind = MBC5Kind
	case 0x1C, 0x1D, 0x1E:
		kind = MBC5Kind
		hasRumble = true
	default:
		return 0, false, false, false, fmt.Errorf("cartridge: unsupported cartridge type code 0x%02X", typeCode)
	}

	switch typeCode {
	case 0x03, 0x06, 0x09, 0x0D, 0x0F, 0x10, 0x13, 0x1B, 0x1E, 0x22, 0xFF:
		hasBattery = true
	}

	return kind, hasBattery, hasRTC, hasRumble, nil
}

func (c *Cartridge) Data() []byte       { return c.data }
func (c *Cartridge) Title() string      { return c.title }
func (c *Cartridge) TypeCode() uint8    { return c.typeCode }
func (c *Cartridge) Kind() MBCKind      { return c.kind }
func (c *Cartridge) HasBattery() bool   { return c.hasBattery }
func (c *Cartridge) HasRTC() bool       { return c.hasRTC }
func (c *Cartridge) HasRumble() bool    { return c.hasRumble }
func (c *Cartridge) RAMBytes() int      { return c.ramBytes }
func (c *Cartridge) ROMSizeCode() uint8 { return c.romSize }

// cleanTitle converts a raw, NUL-padded title field into a printable string.
func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		switch {
		case r == 0:
			continue
		case !unicode.IsPrint(r):
			r = '?'
		}
		runes = append(runes, r)
	}
	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(untitled)"
	}
	return title
}
