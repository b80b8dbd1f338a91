package cpu

import "github.com/outrun8bit/pocketcore/core/bit"

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.memory.Write(c.sp, bit.High(value))
	c.sp--
	c.memory.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.memory.Read(c.sp)
	c.sp++
	high := c.memory.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	halfCarry := (*r & 0x0F) == 0x0F
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, halfCarry)
}

func (c *CPU) dec(r *uint8) {
	halfCarry := (*r & 0x0F) == 0x00
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, halfCarry)
}

// rlca/rla/rrca/rra are the non-CB accumulator rotates: they always clear Z.
func (c *CPU) rlca() {
	value := c.a
	carry := value > 0x7F
	c.a = (value << 1) | (value >> 7)
	c.f = 0
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) rla() {
	value := c.a
	carryIn := c.flagToBit(carryFlag)
	carryOut := value > 0x7F
	c.a = (value << 1) | carryIn
	c.f = 0
	c.setFlagToCondition(carryFlag, carryOut)
}

func (c *CPU) rrca() {
	value := c.a
	carry := value&1 == 1
	c.a = (value >> 1) | ((value & 1) << 7)
	c.f = 0
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) rra() {
	value := c.a
	carryIn := c.flagToBit(carryFlag) << 7
	carryOut := value&1 == 1
	c.a = (value >> 1) | carryIn
	c.f = 0
	c.setFlagToCondition(carryFlag, carryOut)
}

// rlc/rl/rrc/rr/sla/sra/srl/swap are the CB-prefixed rotate/shift variants:
// Z reflects the result, unlike their accumulator-only counterparts.
func (c *CPU) rlc(r *uint8) {
	carry := *r > 0x7F
	*r = (*r << 1) | (*r >> 7)
	c.setResultFlags(*r, carry)
}

func (c *CPU) rl(r *uint8) {
	carryIn := c.flagToBit(carryFlag)
	carryOut := *r > 0x7F
	*r = (*r << 1) | carryIn
	c.setResultFlags(*r, carryOut)
}

func (c *CPU) rrc(r *uint8) {
	carry := *r&1 == 1
	*r = (*r >> 1) | ((*r & 1) << 7)
	c.setResultFlags(*r, carry)
}

func (c *CPU) rr(r *uint8) {
	carryIn := c.flagToBit(carryFlag) << 7
	carryOut := *r&1 == 1
	*r = (*r >> 1) | carryIn
	c.setResultFlags(*r, carryOut)
}

func (c *CPU) sla(r *uint8) {
	carry := *r > 0x7F
	*r <<= 1
	c.setResultFlags(*r, carry)
}

func (c *CPU) sra(r *uint8) {
	carry := *r&1 == 1
	top := *r & 0x80
	*r = (*r >> 1) | top
	c.setResultFlags(*r, carry)
}

func (c *CPU) srl(r *uint8) {
	carry := *r&1 == 1
	*r >>= 1
	c.setResultFlags(*r, carry)
}

func (c *CPU) swap(r *uint8) {
	*r = (*r << 4) | (*r >> 4)
	c.f = 0
	c.setFlagToCondition(zeroFlag, *r == 0)
}

func (c *CPU) setResultFlags(result uint8, carry bool) {
	c.f = 0
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) bitTest(index uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	c.f = 0
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value) > 0xFF)
	c.a = result
}

func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a + value + carry

	c.f = 0
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value)+uint16(carry) > 0xFF)
	c.a = result
}

func (c *CPU) sub(value uint8) {
	a := c.a
	c.a = a - value

	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (a&0xF) < (value&0xF))
}

func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := int(a) - int(value) - int(carry)
	c.a = uint8(result)

	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, result < 0)
	c.setFlagToCondition(halfCarryFlag, int(a&0xF)-int(value&0xF)-int(carry) < 0)
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) cp(value uint8) {
	a := c.a
	c.f = 0
	c.setFlagToCondition(zeroFlag, a == value)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (a&0xF) < (value&0xF))
}

func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := hl + value

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0xFFF)+(value&0xFFF) > 0xFFF)
	c.setFlagToCondition(carryFlag, uint32(hl)+uint32(value) > 0xFFFF)
	c.setHL(result)
}

// addSPSigned implements both ADD SP,e8 and LD HL,SP+e8: flags are derived
// from adding the unsigned immediate byte to SP's low byte.
func (c *CPU) addSPSigned() uint16 {
	offset := int8(c.readImmediate())
	result := uint16(int32(c.sp) + int32(offset))

	c.f = 0
	c.setFlagToCondition(halfCarryFlag, (c.sp&0xF)+(uint16(offset)&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, (c.sp&0xFF)+(uint16(offset)&0xFF) > 0xFF)
	return result
}

func (c *CPU) daa() {
	a := c.a
	if !c.isSetFlag(subFlag) {
		if c.isSetFlag(carryFlag) || a > 0x99 {
			a += 0x60
			c.setFlag(carryFlag)
		}
		if c.isSetFlag(halfCarryFlag) || (a&0x0F) > 0x09 {
			a += 0x06
		}
	} else {
		if c.isSetFlag(carryFlag) {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) jr() {
	offset := int8(c.readImmediate())
	c.pc = uint16(int32(c.pc) + int32(offset))
}
