package pocketcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outrun8bit/pocketcore/core/addr"
	"github.com/outrun8bit/pocketcore/core/memory"
)

// buildROM constructs a minimal cartridge image of size bytes, stamped with
// a header that classifies as typeCode/romSizeCode/ramSizeCode, and with
// program copied in starting at the standard $0100 entry point.
func buildROM(size int, typeCode, romSizeCode, ramSizeCode uint8, program []byte) []byte {
	rom := make([]byte, size)
	copy(rom[0x0100:], program)
	rom[0x0147] = typeCode
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	return rom
}

func newTestVM(t *testing.T, rom []byte) *VM {
	t.Helper()
	cart, err := memory.NewCartridgeFromBytes(rom)
	require.NoError(t, err)
	return New(cart, 44100, nil)
}

// Scenario 1: LD A,0x42; LD B,0x00; ADD A,B; DAA leaves A=0x42 with every
// flag clear.
func TestScenarioCPUArithmeticAndDAA(t *testing.T) {
	program := []byte{0x3E, 0x42, 0x06, 0x00, 0x80, 0x27}
	rom := buildROM(0x8000, 0x00, 0x00, 0x00, program)
	vm := newTestVM(t, rom)

	for i := 0; i < 4; i++ {
		vm.Step()
	}

	c := vm.CPU()
	require.Equal(t, uint8(0x42), c.A())
	require.False(t, c.ZeroFlag())
	require.False(t, c.SubFlag())
	require.False(t, c.HalfCarryFlag())
	require.False(t, c.CarryFlag())
}

// Scenario 2: with the LCD enabled, stepping for exactly one frame's worth of
// T-cycles (70224) reports frame_ready exactly once and LY has cycled
// through every line back to 0.
func TestScenarioFullFrameTiming(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00, nil) // all-zero program: a field of NOPs
	vm := newTestVM(t, rom)
	vm.MMU().Write(addr.LCDC, 0x91)

	const cyclesPerFrame = 70224
	total := 0
	frameReadyCount := 0
	maxLY := 0
	for total < cyclesPerFrame {
		total += vm.Step()
		if vm.FrameReady() {
			frameReadyCount++
		}
		if ly := int(vm.MMU().Read(addr.LY)); ly > maxLY {
			maxLY = ly
		}
	}

	require.Equal(t, cyclesPerFrame, total, "NOPs are 4 cycles each, dividing the frame evenly")
	require.Equal(t, 1, frameReadyCount)
	require.Equal(t, 153, maxLY, "LY should reach the last line (153) before wrapping")
	require.Equal(t, uint8(0), vm.MMU().Read(addr.LY), "LY wraps back to 0 at the end of the frame")
}

// Scenario 3: selecting MBC1 ROM bank 5 makes $4000-$7FFF read that bank's
// data.
func TestScenarioMBC1BankSwitch(t *testing.T) {
	const romSize = 128 * 1024 // 8 banks of 16KiB
	rom := make([]byte, romSize)
	for bank := 0; bank < romSize/0x4000; bank++ {
		for i := 0; i < 0x4000; i++ {
			rom[bank*0x4000+i] = uint8(bank)
		}
	}
	rom[0x0147] = 0x01 // MBC1, no RAM/battery
	rom[0x0148] = 0x02 // 128KiB, 8 banks
	rom[0x0149] = 0x00

	vm := newTestVM(t, rom)

	vm.MMU().Write(0x0000, 0x0A) // RAM enable, irrelevant here but harmless
	vm.MMU().Write(0x2000, 0x05) // select ROM bank 5

	require.Equal(t, uint8(5), vm.MMU().Read(0x4000))
}

// Scenario 6: a save-battery snapshot taken from one VM restores external RAM
// byte-for-byte into a second VM instance of the same cartridge.
func TestScenarioSaveRestoreRoundTrip(t *testing.T) {
	const romSize = 128 * 1024
	rom := buildROM(romSize, 0x03, 0x02, 0x02, nil) // MBC1+RAM+BATTERY, 8KiB RAM

	vmA := newTestVM(t, rom)
	vmA.MMU().Write(0x0000, 0x0A) // enable external RAM

	for i := uint16(0); i < 0x2000; i++ {
		var b uint8
		if i%2 == 0 {
			b = 0x5A
		} else {
			b = 0xA5
		}
		vmA.MMU().Write(0xA000+i, b)
	}

	saved := vmA.SnapshotBattery()
	require.NotEmpty(t, saved)

	vmB := newTestVM(t, rom)
	vmB.RestoreBattery(saved)
	vmB.MMU().Write(0x0000, 0x0A)

	for i := uint16(0); i < 0x2000; i++ {
		require.Equal(t, vmA.MMU().Read(0xA000+i), vmB.MMU().Read(0xA000+i), "offset %d", i)
	}
}

func TestNewFromFileRejectsMissingROM(t *testing.T) {
	_, err := NewFromFile("/nonexistent/path/does/not/exist.gb", 44100)
	require.Error(t, err)
}

func TestJoypadPressReleaseThroughMMU(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00, nil)
	vm := newTestVM(t, rom)

	vm.MMU().Write(addr.P1, 0x20) // select d-pad group
	require.Equal(t, uint8(0xEF), vm.MMU().Read(addr.P1), "released reads as all 1s")

	vm.Press(memory.ButtonRight)
	require.Equal(t, uint8(0xEE), vm.MMU().Read(addr.P1))

	vm.Release(memory.ButtonRight)
	require.Equal(t, uint8(0xEF), vm.MMU().Read(addr.P1))
}
