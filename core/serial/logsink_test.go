package serial

import (
	"testing"

	"github.com/outrun8bit/pocketcore/core/addr"
)

func TestWriteByteTriggersTransferAndInterrupt(t *testing.T) {
	fired := 0
	s := NewLogSink(func() { fired++ })

	s.Write(addr.SB, 'A')
	s.Write(addr.SC, 0x81)

	if fired != 1 {
		t.Fatalf("irqHandler called %d times; want 1", fired)
	}
	if got := s.Read(addr.SC); got&0x80 != 0 {
		t.Errorf("transfer-start bit should clear after completion, SC=0x%02X", got)
	}
}

func TestNonTransferWriteIsInert(t *testing.T) {
	fired := 0
	s := NewLogSink(func() { fired++ })

	s.Write(addr.SC, 0x01)
	if fired != 0 {
		t.Error("writing SC without the transfer-start bit should not fire the interrupt")
	}
}

func TestLineBufferFlushesOnNewline(t *testing.T) {
	s := NewLogSink(nil)
	for _, b := range []byte("hi") {
		s.sb = b
		s.Write(addr.SC, 0x81)
	}
	if len(s.line) != 2 {
		t.Fatalf("line buffer = %q; want 2 bytes before a flush", s.line)
	}
	s.sb = '\n'
	s.Write(addr.SC, 0x81)
	if len(s.line) != 0 {
		t.Errorf("line buffer should reset after a newline flush, got %q", s.line)
	}
}

func TestResetClearsState(t *testing.T) {
	s := NewLogSink(nil)
	s.sb = 'x'
	s.Write(addr.SC, 0x81)
	s.Reset()
	if s.sb != 0 || s.sc != 0 {
		t.Errorf("Reset should zero sb/sc, got sb=0x%02X sc=0x%02X", s.sb, s.sc)
	}
}
