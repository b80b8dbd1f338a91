package cpu

import "github.com/outrun8bit/pocketcore/core/bit"

// executeCB implements the CB-prefixed page. Every opcode decomposes into a
// 2-bit group, a 3-bit sub-operation (rotate/shift kind, or bit index), and
// the same 3-bit register field used by the main page's LD/ALU blocks.
func (c *CPU) executeCB(opcode uint8) int {
	regIdx := opcode & 0x07
	sub := (opcode >> 3) & 0x07
	group := opcode >> 6

	value := c.getR8(regIdx)

	switch group {
	case 0:
		switch sub {
		case 0:
			c.rlc(&value)
		case 1:
			c.rrc(&value)
		case 2:
			c.rl(&value)
		case 3:
			c.rr(&value)
		case 4:
			c.sla(&value)
		case 5:
			c.sra(&value)
		case 6:
			c.swap(&value)
		case 7:
			c.srl(&value)
		}
		c.setR8(regIdx, value)
		if regIdx == 6 {
			return 16
		}
		return 8

	case 1:
		c.bitTest(sub, value)
		if regIdx == 6 {
			return 12
		}
		return 8

	case 2:
		c.setR8(regIdx, bit.Reset(sub, value))
		if regIdx == 6 {
			return 16
		}
		return 8

	default:
		c.setR8(regIdx, bit.Set(sub, value))
		if regIdx == 6 {
			return 16
		}
		return 8
	}
}
