// Package serial implements the stub serial port used for test-ROM output.
// Link-cable networking semantics are out of scope (spec Non-goals); the
// only behavior preserved is the well-known "write 0x81 to SC to print SB"
// convention used by hardware test suites.
package serial

import (
	"log/slog"

	"github.com/outrun8bit/pocketcore/core/addr"
)

// LogSink is a minimal serial device: writing the byte 0x81 to SC appends the
// byte currently held in SB to a line buffer (logged as one line when a
// newline, carriage return or NUL arrives), then clears the transfer-start
// bit and requests the Serial interrupt. Any other write is inert.
type LogSink struct {
	irqHandler func()
	sb, sc     byte
	line       []byte
	logger     *slog.Logger
}

// NewLogSink creates a new logging serial device. irq is invoked whenever a
// transfer completes and should be wired to request the Serial interrupt.
func NewLogSink(irq func()) *LogSink {
	return &LogSink{
		irqHandler: irq,
		sc:         0x00,
		logger:     slog.Default(),
	}
}

func (s *LogSink) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		if value == 0x81 {
			s.emit(s.sb)
			s.sc = s.sc &^ 0x80
			if s.irqHandler != nil {
				s.irqHandler()
			}
		}
	}
}

func (s *LogSink) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc | 0x7E
	default:
		return 0xFF
	}
}

// Tick is a no-op: the stub completes transfers synchronously on write.
func (s *LogSink) Tick(cycles int) {}

func (s *LogSink) Reset() {
	s.sb, s.sc = 0, 0
	s.line = s.line[:0]
}

func (s *LogSink) emit(b byte) {
	if b == '\n' || b == '\r' || b == 0 {
		if len(s.line) > 0 {
			s.logger.Info("serial", "line", string(s.line))
			s.line = s.line[:0]
		}
		return
	}
	s.line = append(s.line, b)
}
