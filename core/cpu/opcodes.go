package cpu

import "github.com/outrun8bit/pocketcore/core/bit"

// getR8/setR8 dispatch the 3-bit register field shared by LD r,r', the ALU
// A,r block, and (via opcodes_cb.go) every CB-prefixed operation. Index 6
// denotes (HL), routed through the bus instead of a register.
func (c *CPU) getR8(idx uint8) uint8 {
	switch idx {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return c.memory.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) setR8(idx uint8, value uint8) {
	switch idx {
	case 0:
		c.b = value
	case 1:
		c.c = value
	case 2:
		c.d = value
	case 3:
		c.e = value
	case 4:
		c.h = value
	case 5:
		c.l = value
	case 6:
		c.memory.Write(c.getHL(), value)
	default:
		c.a = value
	}
}

// regPtr returns a pointer to the plain register named by idx, or nil for
// idx==6 ((HL)), which callers must special-case through getR8/setR8.
func (c *CPU) regPtr(idx uint8) *uint8 {
	switch idx {
	case 0:
		return &c.b
	case 1:
		return &c.c
	case 2:
		return &c.d
	case 3:
		return &c.e
	case 4:
		return &c.h
	case 5:
		return &c.l
	case 7:
		return &c.a
	default:
		return nil
	}
}

func (c *CPU) getR16(idx uint8) uint16 {
	switch idx {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	default:
		return c.sp
	}
}

func (c *CPU) setR16(idx uint8, value uint16) {
	switch idx {
	case 0:
		c.setBC(value)
	case 1:
		c.setDE(value)
	case 2:
		c.setHL(value)
	default:
		c.sp = value
	}
}

// getR16Push/setR16Push use the AF-not-SP variant of the 2-bit register
// field, as used by PUSH/POP.
func (c *CPU) getR16Push(idx uint8) uint16 {
	switch idx {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	default:
		return c.getAF()
	}
}

func (c *CPU) setR16Push(idx uint8, value uint16) {
	switch idx {
	case 0:
		c.setBC(value)
	case 1:
		c.setDE(value)
	case 2:
		c.setHL(value)
	default:
		c.setAF(value)
	}
}

func (c *CPU) condition(idx uint8) bool {
	switch idx {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}

// execOp implements every non-CB opcode. LD r,r' (0x40-0x7F, minus HALT)
// and ALU A,r (0x80-0xBF) are decoded by bit-field, since both blocks are
// the same operation repeated uniformly over the 8 source registers; every
// other opcode is matched explicitly.
func execOp(c *CPU, opcode uint8) int {
	if opcode >= 0x40 && opcode <= 0x7F {
		if opcode == 0x76 {
			c.halted = true
			return 4
		}
		dst := (opcode >> 3) & 0x07
		src := opcode & 0x07
		value := c.getR8(src)
		c.setR8(dst, value)
		if dst == 6 || src == 6 {
			return 8
		}
		return 4
	}

	if opcode >= 0x80 && opcode <= 0xBF {
		src := opcode & 0x07
		value := c.getR8(src)
		switch (opcode >> 3) & 0x07 {
		case 0:
			c.addToA(value)
		case 1:
			c.adc(value)
		case 2:
			c.sub(value)
		case 3:
			c.sbc(value)
		case 4:
			c.and(value)
		case 5:
			c.xor(value)
		case 6:
			c.or(value)
		case 7:
			c.cp(value)
		}
		if src == 6 {
			return 8
		}
		return 4
	}

	switch opcode {
	case 0x00:
		return 4
	case 0x01, 0x11, 0x21, 0x31:
		c.setR16((opcode>>4)&0x03, c.readImmediateWord())
		return 12
	case 0x02:
		c.memory.Write(c.getBC(), c.a)
		return 8
	case 0x12:
		c.memory.Write(c.getDE(), c.a)
		return 8
	case 0x0A:
		c.a = c.memory.Read(c.getBC())
		return 8
	case 0x1A:
		c.a = c.memory.Read(c.getDE())
		return 8
	case 0x22:
		hl := c.getHL()
		c.memory.Write(hl, c.a)
		c.setHL(hl + 1)
		return 8
	case 0x32:
		hl := c.getHL()
		c.memory.Write(hl, c.a)
		c.setHL(hl - 1)
		return 8
	case 0x2A:
		hl := c.getHL()
		c.a = c.memory.Read(hl)
		c.setHL(hl + 1)
		return 8
	case 0x3A:
		hl := c.getHL()
		c.a = c.memory.Read(hl)
		c.setHL(hl - 1)
		return 8
	case 0x03, 0x13, 0x23, 0x33:
		idx := (opcode >> 4) & 0x03
		c.setR16(idx, c.getR16(idx)+1)
		return 8
	case 0x0B, 0x1B, 0x2B, 0x3B:
		idx := (opcode >> 4) & 0x03
		c.setR16(idx, c.getR16(idx)-1)
		return 8
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C:
		return c.incR8((opcode >> 3) & 0x07)
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D:
		return c.decR8((opcode >> 3) & 0x07)
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		idx := (opcode >> 3) & 0x07
		c.setR8(idx, c.readImmediate())
		if idx == 6 {
			return 12
		}
		return 8
	case 0x07:
		c.rlca()
		return 4
	case 0x0F:
		c.rrca()
		return 4
	case 0x17:
		c.rla()
		return 4
	case 0x1F:
		c.rra()
		return 4
	case 0x08:
		address := c.readImmediateWord()
		c.memory.Write(address, bit.Low(c.sp))
		c.memory.Write(address+1, bit.High(c.sp))
		return 20
	case 0x09, 0x19, 0x29, 0x39:
		c.addToHL(c.getR16((opcode >> 4) & 0x03))
		return 8
	case 0x10:
		c.readImmediate() // STOP's second byte, conventionally 0x00
		return 4
	case 0x18:
		c.jr()
		return 12
	case 0x20, 0x28, 0x30, 0x38:
		offset := int8(c.readImmediate())
		if !c.condition((opcode >> 3) & 0x03) {
			return 8
		}
		c.pc = uint16(int32(c.pc) + int32(offset))
		return 12
	case 0x27:
		c.daa()
		return 4
	case 0x2F:
		c.a = ^c.a
		c.setFlag(subFlag)
		c.setFlag(halfCarryFlag)
		return 4
	case 0x37:
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlag(carryFlag)
		return 4
	case 0x3F:
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
		return 4
	case 0xC0, 0xC8, 0xD0, 0xD8:
		if !c.condition((opcode >> 3) & 0x03) {
			return 8
		}
		c.pc = c.popStack()
		return 20
	case 0xC9:
		c.pc = c.popStack()
		return 16
	case 0xD9:
		c.pc = c.popStack()
		c.ime = true
		return 16
	case 0xC1, 0xD1, 0xE1, 0xF1:
		c.setR16Push((opcode>>4)&0x03, c.popStack())
		return 12
	case 0xC5, 0xD5, 0xE5, 0xF5:
		c.pushStack(c.getR16Push((opcode >> 4) & 0x03))
		return 16
	case 0xC2, 0xCA, 0xD2, 0xDA:
		target := c.readImmediateWord()
		if !c.condition((opcode >> 3) & 0x03) {
			return 12
		}
		c.pc = target
		return 16
	case 0xC3:
		c.pc = c.readImmediateWord()
		return 16
	case 0xE9:
		c.pc = c.getHL()
		return 4
	case 0xC4, 0xCC, 0xD4, 0xDC:
		target := c.readImmediateWord()
		if !c.condition((opcode >> 3) & 0x03) {
			return 12
		}
		c.pushStack(c.pc)
		c.pc = target
		return 24
	case 0xCD:
		target := c.readImmediateWord()
		c.pushStack(c.pc)
		c.pc = target
		return 24
	case 0xC6:
		c.addToA(c.readImmediate())
		return 8
	case 0xCE:
		c.adc(c.readImmediate())
		return 8
	case 0xD6:
		c.sub(c.readImmediate())
		return 8
	case 0xDE:
		c.sbc(c.readImmediate())
		return 8
	case 0xE6:
		c.and(c.readImmediate())
		return 8
	case 0xEE:
		c.xor(c.readImmediate())
		return 8
	case 0xF6:
		c.or(c.readImmediate())
		return 8
	case 0xFE:
		c.cp(c.readImmediate())
		return 8
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		c.pushStack(c.pc)
		c.pc = uint16(opcode & 0x38)
		return 16
	case 0xE0:
		c.memory.Write(0xFF00+uint16(c.readImmediate()), c.a)
		return 12
	case 0xF0:
		c.a = c.memory.Read(0xFF00 + uint16(c.readImmediate()))
		return 12
	case 0xE2:
		c.memory.Write(0xFF00+uint16(c.c), c.a)
		return 8
	case 0xF2:
		c.a = c.memory.Read(0xFF00 + uint16(c.c))
		return 8
	case 0xE8:
		c.sp = c.addSPSigned()
		c.resetFlag(zeroFlag)
		return 16
	case 0xEA:
		c.memory.Write(c.readImmediateWord(), c.a)
		return 16
	case 0xFA:
		c.a = c.memory.Read(c.readImmediateWord())
		return 16
	case 0xF3:
		c.ime = false
		c.imePending = false
		return 4
	case 0xFB:
		c.imePending = true
		return 4
	case 0xF8:
		c.setHL(c.addSPSigned())
		c.resetFlag(zeroFlag)
		return 12
	case 0xF9:
		c.sp = c.getHL()
		return 8
	default:
		panic(unimplementedMessage(opcode))
	}
}

func (c *CPU) incR8(idx uint8) int {
	value := c.getR8(idx)
	c.inc(&value)
	c.setR8(idx, value)
	if idx == 6 {
		return 12
	}
	return 4
}

func (c *CPU) decR8(idx uint8) int {
	value := c.getR8(idx)
	c.dec(&value)
	c.setR8(idx, value)
	if idx == 6 {
		return 12
	}
	return 4
}
