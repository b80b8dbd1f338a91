// Command pocketcore runs a Game Boy ROM in a terminal (default) or SDL2
// window.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/outrun8bit/pocketcore"
	"github.com/outrun8bit/pocketcore/backend/sdl2"
	"github.com/outrun8bit/pocketcore/backend/terminal"
)

func main() {
	app := cli.NewApp()
	app.Name = "pocketcore"
	app.Description = "A Game Boy emulator core"
	app.Usage = "pocketcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "backend",
			Value: "terminal",
			Usage: "Host backend: terminal or sdl2",
		},
		cli.IntFlag{
			Name:  "sample-rate",
			Value: 44100,
			Usage: "Audio sample rate in Hz",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("pocketcore exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	sampleRate := c.Int("sample-rate")
	vm, err := pocketcore.NewFromFile(romPath, sampleRate)
	if err != nil {
		return err
	}

	switch c.String("backend") {
	case "sdl2":
		backend, err := sdl2.New(vm, sampleRate)
		if err != nil {
			return err
		}
		return backend.Run()
	default:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("stdout is not a terminal; pass --backend sdl2 or redirect to an interactive TTY")
		}
		renderer, err := terminal.New(vm)
		if err != nil {
			return err
		}
		return renderer.Run()
	}
}
