// Package cpu implements the Sharp LR35902 instruction set: the register
// file, flag handling, the fetch-decode-execute loop, and interrupt
// dispatch.
package cpu

import (
	"fmt"

	"github.com/outrun8bit/pocketcore/core/addr"
	"github.com/outrun8bit/pocketcore/core/bit"
)

// Flag is one of the 4 flags held in the high nibble of F; the low nibble is
// always 0.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Bus is the memory-mapped address space the CPU executes against: the MMU
// in production, a flat byte slice in tests.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU holds the full Sharp LR35902 register file and drives execution one
// instruction (or one interrupt dispatch) at a time via Step.
type CPU struct {
	a, b, c, d, e, f, h, l uint8
	sp, pc                 uint16

	memory Bus

	ime        bool // interrupt master enable
	imePending bool // EI takes effect after the *next* instruction
	halted     bool

	ie, ifReg uint8

	currentOpcode uint8
}

// New returns a CPU wired to bus, with registers set to their documented
// post-boot-ROM values (as if the DMG boot ROM had already run).
func New(bus Bus) *CPU {
	return &CPU{
		memory: bus,
		a:      0x01, f: 0xB0,
		b: 0x00, c: 0x13,
		d: 0x00, e: 0xD8,
		h: 0x01, l: 0x4D,
		sp: 0xFFFE,
		pc: 0x0100,
	}
}

// AttachBus wires the CPU to its memory bus after construction, breaking the
// cyclic dependency between the CPU and the MMU (the MMU's constructor
// needs the CPU as its interrupt router before the bus it will serve exists).
func (c *CPU) AttachBus(bus Bus) { c.memory = bus }

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f) }
func (c *CPU) getBC() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) getDE() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) getHL() uint16 { return bit.Combine(c.h, c.l) }

func (c *CPU) setAF(v uint16) { c.a = bit.High(v); c.f = bit.Low(v) & 0xF0 }
func (c *CPU) setBC(v uint16) { c.b = bit.High(v); c.c = bit.Low(v) }
func (c *CPU) setDE(v uint16) { c.d = bit.High(v); c.e = bit.Low(v) }
func (c *CPU) setHL(v uint16) { c.h = bit.High(v); c.l = bit.Low(v) }

func (c *CPU) setFlag(flag Flag)   { c.f |= uint8(flag) }
func (c *CPU) resetFlag(flag Flag) { c.f &^= uint8(flag) }
func (c *CPU) isSetFlag(flag Flag) bool { return c.f&uint8(flag) != 0 }

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) readImmediate() uint8 {
	v := c.memory.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// RequestInterrupt sets the given interrupt's bit in IF; called by
// peripherals (timer, PPU, joypad, serial) via their IRQHandler callbacks.
func (c *CPU) RequestInterrupt(i addr.Interrupt) {
	c.ifReg |= uint8(i)
}

// ReadIO services the two interrupt registers; the MMU routes $FF0F/$FFFF
// here and everything else to the rest of the address space.
func (c *CPU) ReadIO(address uint16) (uint8, bool) {
	switch address {
	case addr.IF:
		return c.ifReg | 0xE0, true
	case addr.IE:
		return c.ie, true
	}
	return 0, false
}

func (c *CPU) WriteIO(address uint16, value uint8) bool {
	switch address {
	case addr.IF:
		c.ifReg = value & 0x1F
		return true
	case addr.IE:
		c.ie = value
		return true
	}
	return false
}

// Step executes exactly one of: the interrupt dispatch sequence, a single
// halted no-op, or one full instruction; it returns the T-cycles consumed.
func (c *CPU) Step() int {
	// imeBefore is the value IME held before any pending EI takes effect this
	// step: the dispatch check below must use it, not the post-update value,
	// so the instruction right after EI always runs before the interrupt it
	// just unmasked can preempt it.
	imeBefore := c.ime

	if c.imePending {
		c.imePending = false
		c.ime = true
	}

	if pending := c.ie & c.ifReg & 0x1F; pending != 0 {
		if c.halted {
			c.halted = false
		}
		if imeBefore {
			return c.dispatchInterrupt(pending)
		}
	}

	if c.halted {
		return 4
	}

	c.currentOpcode = c.readImmediate()
	return c.execute(c.currentOpcode)
}

// dispatchInterrupt services the lowest-numbered pending, enabled interrupt:
// pushes PC, jumps to its fixed vector, clears IME and its IF bit, and
// consumes 20 T-cycles.
func (c *CPU) dispatchInterrupt(pending uint8) int {
	for i := 0; i < 5; i++ {
		if pending&(1<<i) == 0 {
			continue
		}
		c.ime = false
		c.ifReg &^= 1 << i
		c.pushStack(c.pc)
		c.pc = addr.Vector[i]
		return 20
	}
	panic("dispatchInterrupt called with no pending interrupt")
}

func (c *CPU) execute(opcode uint8) int {
	if opcode == 0xCB {
		return c.executeCB(c.readImmediate())
	}
	return execOp(c, opcode)
}

func unimplementedMessage(opcode uint8) string {
	return fmt.Sprintf("unimplemented opcode 0x%02X", opcode)
}
