//go:build sdl2

// Package sdl2 is an alternative host backend using SDL2 bindings: a
// hardware-accelerated window plus an audio device draining the VM's sample
// queue. Building it requires the SDL2 development libraries installed,
// which is why it sits behind the "sdl2" build tag rather than being part of
// the default build.
package sdl2

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/outrun8bit/pocketcore"
	"github.com/outrun8bit/pocketcore/core/memory"
	"github.com/outrun8bit/pocketcore/core/timing"
	"github.com/outrun8bit/pocketcore/core/video"
)

const (
	pixelScale  = 4
	audioFormat = sdl.AUDIO_F32SYS
)

var keyBindings = map[sdl.Keycode]memory.Button{
	sdl.K_UP:    memory.ButtonUp,
	sdl.K_DOWN:  memory.ButtonDown,
	sdl.K_LEFT:  memory.ButtonLeft,
	sdl.K_RIGHT: memory.ButtonRight,
	sdl.K_z:     memory.ButtonA,
	sdl.K_x:     memory.ButtonB,
	sdl.K_a:     memory.ButtonSelect,
	sdl.K_s:     memory.ButtonStart,
}

// Backend drives a VM inside an SDL2 window, with an SDL audio device
// draining the VM's stereo sample queue and a debug tile/OAM viewer window.
type Backend struct {
	vm          *pocketcore.VM
	window      *sdl.Window
	renderer    *sdl.Renderer
	texture     *sdl.Texture
	audioDevice sdl.AudioDeviceID
	running     bool
	debugWindow *DebugWindow
	limiter     timing.Limiter
}

// New constructs an SDL2 backend for vm, with sampleRate audio playback.
func New(vm *pocketcore.VM, sampleRate int) (*Backend, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl2: initializing SDL: %w", err)
	}

	window, err := sdl.CreateWindow(
		"pocketcore",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		video.Width*pixelScale, video.Height*pixelScale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: creating window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: creating renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING, video.Width, video.Height)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: creating texture: %w", err)
	}

	b := &Backend{
		vm: vm, window: window, renderer: renderer, texture: texture,
		debugWindow: NewDebugWindow(), limiter: timing.NewTickerLimiter(),
	}

	want := &sdl.AudioSpec{Freq: int32(sampleRate), Format: audioFormat, Channels: 2, Samples: 1024}
	device, err := sdl.OpenAudioDevice("", false, want, nil, 0)
	if err != nil {
		slog.Warn("sdl2: audio device unavailable, running silent", "error", err)
	} else {
		b.audioDevice = device
		sdl.PauseAudioDevice(device, false)
	}

	return b, nil
}

// Run steps the VM one frame at a time until the window is closed.
func (b *Backend) Run() error {
	defer b.close()
	b.running = true

	for b.running {
		b.pollEvents()
		b.vm.RunUntilFrame()
		b.renderFrame()
		b.queueAudio()
		b.limiter.WaitForNextFrame()
	}
	return nil
}

func (b *Backend) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			b.running = false
		case *sdl.KeyboardEvent:
			btn, ok := keyBindings[e.Keysym.Sym]
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				b.vm.Press(btn)
			} else if e.Type == sdl.KEYUP {
				b.vm.Release(btn)
			}
		}
	}
}

func (b *Backend) renderFrame() {
	fb := b.vm.FrameBuffer()
	pixels := make([]byte, video.Size*4)
	for i, c := range fb.Pixels() {
		pixels[i*4+0] = byte(c >> 24)
		pixels[i*4+1] = byte(c >> 16)
		pixels[i*4+2] = byte(c >> 8)
		pixels[i*4+3] = byte(c)
	}
	b.texture.Update(nil, pixels, video.Width*4)
	b.renderer.Clear()
	b.renderer.Copy(b.texture, nil, nil)
	b.renderer.Present()

	if b.debugWindow != nil {
		b.debugWindow.Update(b.vm)
	}
}

func (b *Backend) queueAudio() {
	if b.audioDevice == 0 {
		return
	}
	samples := b.vm.DrainAudio(2048)
	if len(samples) == 0 {
		return
	}
	bytes := make([]byte, len(samples)*4)
	for i, s := range samples {
		bits := math.Float32bits(s)
		bytes[i*4+0] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}
	sdl.QueueAudio(b.audioDevice, bytes)
}

func (b *Backend) close() {
	if t, ok := b.limiter.(*timing.TickerLimiter); ok {
		t.Stop()
	}
	if b.audioDevice != 0 {
		sdl.CloseAudioDevice(b.audioDevice)
	}
	if b.debugWindow != nil {
		b.debugWindow.Close()
	}
	b.texture.Destroy()
	b.renderer.Destroy()
	b.window.Destroy()
	sdl.Quit()
}
