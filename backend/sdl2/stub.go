//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/outrun8bit/pocketcore"
)

// Backend is a stub for builds without the "sdl2" tag: the real backend
// requires the SDL2 development libraries, which most builds don't have
// installed.
type Backend struct{}

// New returns an error directing the caller to rebuild with -tags sdl2.
func New(vm *pocketcore.VM, sampleRate int) (*Backend, error) {
	return nil, fmt.Errorf("sdl2: backend not available - build with -tags sdl2 and install SDL2 development libraries")
}

func (b *Backend) Run() error {
	return fmt.Errorf("sdl2: backend not available")
}
