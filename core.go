// Package pocketcore implements a Game Boy (Sharp LR35902) emulator core:
// CPU, MMU/MBCs, PPU, APU, timer and joypad. It exposes a single host-facing
// VM that a terminal, SDL2, or headless frontend drives one step at a time.
package pocketcore

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/outrun8bit/pocketcore/core/addr"
	"github.com/outrun8bit/pocketcore/core/audio"
	"github.com/outrun8bit/pocketcore/core/cpu"
	"github.com/outrun8bit/pocketcore/core/memory"
	"github.com/outrun8bit/pocketcore/core/serial"
	"github.com/outrun8bit/pocketcore/core/timing"
	"github.com/outrun8bit/pocketcore/core/video"
)

// VM is the root struct and entry point for running the emulation: it owns
// the CPU and every peripheral, and advances them in lockstep one CPU action
// at a time.
type VM struct {
	cpu  *cpu.CPU
	mmu  *memory.MMU
	gpu  *video.GPU
	apu  *audio.APU
	tmr  *memory.Timer
	pad  *memory.Joypad
	cart *memory.Cartridge
}

// New constructs a VM from an already-parsed cartridge, targeting
// hostSampleRate for audio output. clock, if non-nil, overrides the RTC's
// wall-clock source (used by tests; production callers should pass nil to
// get time.Now).
func New(cart *memory.Cartridge, hostSampleRate int, clock func() time.Time) *VM {
	gpu := video.NewGPU()
	apu := audio.New(hostSampleRate)
	tmr := memory.NewTimer()
	pad := memory.NewJoypad()

	c := cpu.New(nil)
	ser := serial.NewLogSink(func() { c.RequestInterrupt(addr.SerialInterrupt) })
	mbc := memory.NewMBCFor(cart, clock)
	mmu := memory.NewMMU(mbc, gpu, apu, tmr, pad, ser, c)
	c.AttachBus(mmu)

	slog.Debug("VM constructed", "title", cart.Title(), "kind", cart.Kind(), "hasBattery", cart.HasBattery())

	return &VM{cpu: c, mmu: mmu, gpu: gpu, apu: apu, tmr: tmr, pad: pad, cart: cart}
}

// NewFromFile reads path as a raw ROM image and constructs a VM from it.
func NewFromFile(path string, hostSampleRate int) (*VM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pocketcore: reading ROM file: %w", err)
	}

	cart, err := memory.NewCartridgeFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("pocketcore: loading cartridge: %w", err)
	}

	return New(cart, hostSampleRate, nil), nil
}

// Step advances the VM by exactly one CPU action (one interrupt dispatch, one
// halted no-op, or one instruction) and ticks every peripheral by the same
// T-cycle count, per spec's single-threaded, strictly-sequenced model.
func (vm *VM) Step() int {
	cycles := vm.cpu.Step()
	vm.mmu.Tick(cycles)
	return cycles
}

// RunUntilFrame steps the VM until a full frame has been rendered, returning
// the total T-cycles consumed (always a multiple of the per-instruction
// granularity, not necessarily exactly CyclesPerFrame).
func (vm *VM) RunUntilFrame() int {
	total := 0
	for {
		total += vm.Step()
		if vm.gpu.TakeFrameReady() {
			return total
		}
		if total > timing.CyclesPerFrame*2 {
			// A disabled LCD never reaches VBlank; bail out rather than spin
			// forever so a headless driver can still make progress.
			return total
		}
	}
}

// Press registers button as newly pressed.
func (vm *VM) Press(b memory.Button) { vm.pad.Press(b) }

// Release registers button as released.
func (vm *VM) Release(b memory.Button) { vm.pad.Release(b) }

// FrameBuffer returns the most recently rendered frame. Callers should check
// FrameReady (or use RunUntilFrame) to know when a new frame has landed.
func (vm *VM) FrameBuffer() *video.FrameBuffer { return vm.gpu.FrameBuffer() }

// FrameReady reports whether a frame completed since the last call, clearing
// the flag (mirrors GPU.TakeFrameReady for callers stepping manually).
func (vm *VM) FrameReady() bool { return vm.gpu.TakeFrameReady() }

// DrainAudio pulls up to n interleaved [L,R,...] stereo samples from the APU.
func (vm *VM) DrainAudio(n int) []float32 { return vm.apu.DrainSamples(n) }

// ChannelWaveform returns the buffered raw samples for channel index (0-3),
// for a host debug overlay.
func (vm *VM) ChannelWaveform(index int) []float32 { return vm.apu.ChannelWaveform(index) }

// CyclePalette rotates the PPU to the next of the 4 pre-defined palettes.
func (vm *VM) CyclePalette() { vm.gpu.CyclePalette() }

// SnapshotBattery returns the battery-backed save payload (external RAM,
// plus RTC timestamp and registers for MBC3+RTC cartridges), or nil if the
// cartridge has no battery.
func (vm *VM) SnapshotBattery() []byte {
	return vm.mmu.MBC().Snapshot()
}

// RestoreBattery loads a previously captured SnapshotBattery payload. A short
// buffer is tolerated: whatever fits is copied, and Restore never fails.
func (vm *VM) RestoreBattery(data []byte) {
	vm.mmu.MBC().Restore(data)
}

// CPU exposes the CPU for tests and debug tooling that need direct register
// access.
func (vm *VM) CPU() *cpu.CPU { return vm.cpu }

// Cartridge returns the loaded cartridge's metadata.
func (vm *VM) Cartridge() *memory.Cartridge { return vm.cart }

// MMU exposes the system bus directly, for debug tooling and tests that need
// to read or write arbitrary addresses.
func (vm *VM) MMU() *memory.MMU { return vm.mmu }
