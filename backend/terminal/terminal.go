// Package terminal renders the VM's framebuffer into a tcell terminal
// screen and reads keyboard events into joypad presses/releases. It is the
// default host loop for cmd/pocketcore.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/outrun8bit/pocketcore"
	"github.com/outrun8bit/pocketcore/core/memory"
	"github.com/outrun8bit/pocketcore/core/timing"
	"github.com/outrun8bit/pocketcore/core/video"
)

const (
	scaleX = 2 // terminal cells are taller than wide; double the horizontal scale
	scaleY = 1
)

// shadeChars renders the 4 palette shades, darkest last.
var shadeChars = []rune{'█', '▓', '▒', '░'}

var keyBindings = map[tcell.Key]memory.Button{
	tcell.KeyUp:    memory.ButtonUp,
	tcell.KeyDown:  memory.ButtonDown,
	tcell.KeyLeft:  memory.ButtonLeft,
	tcell.KeyRight: memory.ButtonRight,
}

var runeBindings = map[rune]memory.Button{
	'z': memory.ButtonA,
	'x': memory.ButtonB,
	'a': memory.ButtonSelect,
	's': memory.ButtonStart,
}

// Renderer drives a VM inside a tcell terminal screen until the user quits.
type Renderer struct {
	screen  tcell.Screen
	vm      *pocketcore.VM
	limiter timing.Limiter
	running bool
}

// New initializes the terminal screen for vm.
func New(vm *pocketcore.VM) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: initializing screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: initializing screen: %w", err)
	}

	return &Renderer{screen: screen, vm: vm, limiter: timing.NewAdaptiveLimiter(), running: true}, nil
}

// Run steps the VM one frame at a time, rendering and handling input, until
// the user presses Escape or sends SIGINT/SIGTERM.
func (r *Renderer) Run() error {
	defer func() {
		slog.Info("terminal backend stopping")
		r.screen.Fini()
	}()

	r.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	r.screen.Clear()

	go r.handleInput()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for r.running {
		select {
		case <-signals:
			r.running = false
			slog.Info("received signal to stop")
			return nil
		default:
			r.vm.RunUntilFrame()
			r.render()
			r.screen.Show()
			r.limiter.WaitForNextFrame()
		}
	}

	return nil
}

func (r *Renderer) handleInput() {
	for r.running {
		ev := r.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape {
				r.running = false
				return
			}
			if ev.Key() == tcell.KeyCtrlP {
				r.vm.CyclePalette()
				continue
			}
			if b, ok := keyBindings[ev.Key()]; ok {
				r.vm.Press(b)
				continue
			}
			if b, ok := runeBindings[ev.Rune()]; ok {
				r.vm.Press(b)
			}
		case *tcell.EventResize:
			r.screen.Sync()
		}
	}
}

func (r *Renderer) render() {
	fb := r.vm.FrameBuffer()

	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			c := fb.Pixel(x, y)
			shade := shadeIndex(c)
			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			char := shadeChars[shade]

			screenX := x * scaleX
			screenY := y * scaleY
			for sx := 0; sx < scaleX; sx++ {
				r.screen.SetContent(screenX+sx, screenY, char, nil, style)
			}
		}
	}
}

// shadeIndex maps a packed RGBA color to one of the 4 terminal shade
// characters by luminance, darkest last.
func shadeIndex(c video.Color) int {
	r := (c >> 24) & 0xFF
	shade := 3 - int(r)/64
	if shade < 0 {
		shade = 0
	}
	if shade > 3 {
		shade = 3
	}
	return shade
}
