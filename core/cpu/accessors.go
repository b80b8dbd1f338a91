package cpu

// Exported register accessors, used by the VM aggregate and by tests that
// need to set up or assert on CPU state directly.

func (c *CPU) A() uint8  { return c.a }
func (c *CPU) F() uint8  { return c.f }
func (c *CPU) BC() uint16 { return c.getBC() }
func (c *CPU) DE() uint16 { return c.getDE() }
func (c *CPU) HL() uint16 { return c.getHL() }
func (c *CPU) SP() uint16 { return c.sp }
func (c *CPU) PC() uint16 { return c.pc }

func (c *CPU) ZeroFlag() bool      { return c.isSetFlag(zeroFlag) }
func (c *CPU) SubFlag() bool       { return c.isSetFlag(subFlag) }
func (c *CPU) HalfCarryFlag() bool { return c.isSetFlag(halfCarryFlag) }
func (c *CPU) CarryFlag() bool     { return c.isSetFlag(carryFlag) }

func (c *CPU) SetPC(pc uint16) { c.pc = pc }
func (c *CPU) SetSP(sp uint16) { c.sp = sp }
func (c *CPU) SetA(v uint8)    { c.a = v }
func (c *CPU) SetBC(v uint16)  { c.setBC(v) }
func (c *CPU) SetDE(v uint16)  { c.setDE(v) }
func (c *CPU) SetHL(v uint16)  { c.setHL(v) }

// IME reports whether interrupts are currently enabled.
func (c *CPU) IME() bool { return c.ime }

// Halted reports whether the CPU is in the HALT low-power state.
func (c *CPU) Halted() bool { return c.halted }
