package cpu

import (
	"testing"

	"github.com/outrun8bit/pocketcore/core/addr"
)

// flatBus is a flat 64KiB address space, standing in for the MMU in tests
// that only care about the CPU's own behavior.
type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(address uint16) uint8 { return b.mem[address] }
func (b *flatBus) Write(address uint16, value uint8) { b.mem[address] = value }

func newTestCPU(program []uint8) (*CPU, *flatBus) {
	bus := &flatBus{}
	copy(bus.mem[0x0100:], program)
	c := New(bus)
	c.pc = 0x0100
	return c, bus
}

func TestLDRegisterToRegisterDispatch(t *testing.T) {
	// LD B,A (0x47) then LD C,B (0x48)
	c, _ := newTestCPU([]uint8{0x47, 0x48})
	c.a = 0x99
	c.Step()
	if c.b != 0x99 {
		t.Fatalf("B = 0x%02X; want 0x99", c.b)
	}
	c.Step()
	if c.c != 0x99 {
		t.Fatalf("C = 0x%02X; want 0x99", c.c)
	}
}

func TestLDThroughHLIndirect(t *testing.T) {
	// LD (HL),A (0x77); LD B,(HL) (0x46)
	c, bus := newTestCPU([]uint8{0x77, 0x46})
	c.a = 0x55
	c.setHL(0xC000)
	cycles := c.Step()
	if cycles != 8 {
		t.Errorf("LD (HL),A cycles = %d; want 8", cycles)
	}
	if bus.mem[0xC000] != 0x55 {
		t.Fatalf("memory at HL = 0x%02X; want 0x55", bus.mem[0xC000])
	}
	c.Step()
	if c.b != 0x55 {
		t.Fatalf("B = 0x%02X; want 0x55", c.b)
	}
}

func TestALUBlockDispatchCoversAllEightOps(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint8
		a, b    uint8
		wantA   uint8
	}{
		{"ADD A,B", 0x80, 0x01, 0x0F, 0x10},
		{"ADC A,B", 0x88, 0x01, 0x0F, 0x10}, // carry flag cleared by the c.f = 0 below (New seeds F=0xB0, carry set)
		{"SUB B", 0x90, 0x10, 0x01, 0x0F},
		{"SBC A,B", 0x98, 0x10, 0x01, 0x0F},
		{"AND B", 0xA0, 0xFF, 0x0F, 0x0F},
		{"XOR B", 0xA8, 0xFF, 0x0F, 0xF0},
		{"OR B", 0xB0, 0xF0, 0x0F, 0xFF},
		{"CP B", 0xB8, 0x10, 0x10, 0x10}, // CP leaves A untouched
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU([]uint8{tt.opcode})
			c.a, c.b, c.f = tt.a, tt.b, 0
			c.Step()
			if c.a != tt.wantA {
				t.Errorf("A = 0x%02X; want 0x%02X", c.a, tt.wantA)
			}
		})
	}
}

func TestIncDecHalfCarryDirections(t *testing.T) {
	c, _ := newTestCPU([]uint8{0x3C, 0x3D}) // INC A; DEC A
	c.a = 0x0F
	c.Step() // INC A -> 0x10, half-carry set (carry out of bit 3)
	if c.a != 0x10 || !c.HalfCarryFlag() {
		t.Fatalf("INC A: A=0x%02X halfCarry=%v; want 0x10 true", c.a, c.HalfCarryFlag())
	}

	c.a = 0x10
	c.Step() // DEC A -> 0x0F, half-borrow from bit 4
	if c.a != 0x0F || !c.HalfCarryFlag() {
		t.Fatalf("DEC A: A=0x%02X halfCarry=%v; want 0x0F true", c.a, c.HalfCarryFlag())
	}
}

func TestAccumulatorRotateAlwaysClearsZero(t *testing.T) {
	c, _ := newTestCPU([]uint8{0x07}) // RLCA
	c.a = 0x00
	c.Step()
	if c.ZeroFlag() {
		t.Error("RLCA must clear Z even when the result is 0 (unlike the CB-prefixed RLC)")
	}
}

func TestCBRotateReflectsResultInZero(t *testing.T) {
	c, _ := newTestCPU([]uint8{0xCB, 0x00}) // RLC B
	c.b = 0x00
	c.Step()
	if !c.ZeroFlag() {
		t.Error("CB-prefixed RLC B should set Z when the result is 0")
	}
}

func TestDAAAfterBCDAddition(t *testing.T) {
	// 0x15 + 0x27 in BCD should read as 0x42, with no flags left set.
	c, _ := newTestCPU([]uint8{0x80, 0x27}) // ADD A,B; DAA
	c.a, c.b = 0x15, 0x27
	c.Step()
	c.Step()
	if c.a != 0x42 {
		t.Fatalf("A = 0x%02X; want 0x42", c.a)
	}
	if c.ZeroFlag() || c.HalfCarryFlag() || c.CarryFlag() {
		t.Errorf("expected every flag clear after a clean BCD addition, F=0x%02X", c.f)
	}
}

func TestInterruptDispatchPrioritizesLowestBit(t *testing.T) {
	c, bus := newTestCPU(nil)
	c.ime = true
	c.ie = 0xFF
	c.ifReg = uint8(addr.TimerInterrupt) | uint8(addr.VBlankInterrupt)
	c.sp = 0xFFFE
	c.pc = 0x1234

	cycles := c.Step()
	if cycles != 20 {
		t.Errorf("interrupt dispatch cycles = %d; want 20", cycles)
	}
	if c.pc != addr.Vector[0] {
		t.Errorf("pc = 0x%04X; want vector 0x%04X (VBlank, the lowest bit)", c.pc, addr.Vector[0])
	}
	if c.ime {
		t.Error("IME should be cleared on dispatch")
	}
	if c.ifReg&uint8(addr.VBlankInterrupt) != 0 {
		t.Error("the dispatched interrupt's IF bit should be cleared")
	}
	if c.ifReg&uint8(addr.TimerInterrupt) == 0 {
		t.Error("the un-dispatched interrupt's IF bit should remain set")
	}

	pushedPC := uint16(bus.mem[0xFFFC]) | uint16(bus.mem[0xFFFD])<<8
	if pushedPC != 0x1234 {
		t.Errorf("pushed return address = 0x%04X; want 0x1234", pushedPC)
	}
}

func TestHaltWakesOnPendingEvenWithIMEOff(t *testing.T) {
	c, _ := newTestCPU(nil)
	c.halted = true
	c.ime = false
	c.ie = uint8(addr.TimerInterrupt)
	c.ifReg = 0

	if cycles := c.Step(); cycles != 4 {
		t.Fatalf("halted no-op cycles = %d; want 4", cycles)
	}
	if !c.halted {
		t.Fatal("should still be halted with no pending interrupt")
	}

	c.ifReg = uint8(addr.TimerInterrupt)
	c.Step()
	if c.halted {
		t.Error("a pending, enabled interrupt should wake the CPU even with IME disabled")
	}
}

func TestEIDelaysOneInstruction(t *testing.T) {
	c, _ := newTestCPU([]uint8{0xFB, 0x00, 0x00}) // EI; NOP; NOP
	c.ime = false
	c.Step() // EI: ime stays false until after the next instruction
	if c.ime {
		t.Fatal("IME should not be set immediately after EI")
	}
	c.Step() // NOP: imePending now applies
	if !c.ime {
		t.Error("IME should be set after the instruction following EI")
	}
}

func TestEIDelayedEnableDoesNotPreemptTheFollowingInstruction(t *testing.T) {
	// EI; INC B; INC B, with a timer interrupt already pending and enabled.
	// The instruction right after EI must still run before the interrupt
	// EI just unmasked gets a chance to dispatch.
	c, _ := newTestCPU([]uint8{0xFB, 0x04, 0x04})
	c.ime = false
	c.ie = uint8(addr.TimerInterrupt)
	c.ifReg = uint8(addr.TimerInterrupt)

	c.Step() // EI
	c.Step() // INC B must execute here, not the interrupt dispatch
	if c.b != 1 {
		t.Fatalf("B = %d; want 1 (the instruction after EI should not be preempted)", c.b)
	}
	if c.pc != 0x0102 {
		t.Fatalf("pc = 0x%04X; want 0x0102 (no interrupt dispatch happened yet)", c.pc)
	}

	c.Step() // now IME is set and the pending interrupt may dispatch
	if c.pc == 0x0103 {
		t.Fatal("the now-unmasked interrupt should dispatch instead of executing the second INC B")
	}
}
