//go:build sdl2

package sdl2

import "github.com/outrun8bit/pocketcore"

// DebugWindow is a placeholder for a tile/OAM/waveform viewer window, a named
// external collaborator the core itself never renders (it only produces the
// data: framebuffer, per-channel waveform rings). Kept minimal since the
// spec places the debug overlay's rendering out of scope.
type DebugWindow struct {
	visible bool
}

func NewDebugWindow() *DebugWindow {
	return &DebugWindow{}
}

// Update would refresh the debug window's contents from vm; currently a
// no-op until a visualization is wired up.
func (d *DebugWindow) Update(vm *pocketcore.VM) {}

func (d *DebugWindow) Close() {}
