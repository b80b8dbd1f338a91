package audio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outrun8bit/pocketcore/core/addr"
)

// Scenario 5: a pulse channel with a 512-cycle period advances its duty step
// exactly twice over 1024 T-cycles, and its u4 output is non-constant across
// that span (the duty pattern toggles the output on and off).
func TestChannel2DutyStepAdvancesWithPeriod(t *testing.T) {
	ch := &Channel{period: 0x780, duty: 0b10, volume: 0xF}
	require.Equal(t, 512, squarePeriodCycles(ch.period))

	before := ch.dutyStep
	outputs := make(map[uint8]bool)
	remaining := 1024
	const chunk = 64
	for remaining > 0 {
		step := chunk
		if step > remaining {
			step = remaining
		}
		outputs[stepSquare(ch, step)] = true
		remaining -= step
	}

	require.Equal(t, uint8(2), (ch.dutyStep-before)&0x7)
	require.Len(t, outputs, 2, "duty pattern 0b10 toggles the output across this span")
}

// Same scenario driven end to end through register writes, confirming the
// trigger/power-gating path feeds the same duty timer and that the APU's
// visualization ring buffer observes a non-constant waveform.
func TestChannel2TriggerThroughRegistersProducesWaveform(t *testing.T) {
	a := New(44100)
	a.Write(addr.NR52, 0x80) // power on
	a.Write(addr.NR21, 0b10<<6)
	a.Write(addr.NR22, 0xF0) // volume 0xF, envelope pace 0 (no sweep over this span)
	a.Write(addr.NR23, 0x80) // freq low byte of 0x780
	a.Write(addr.NR24, 0x87) // trigger, freq high bits, length disabled

	require.True(t, a.ch[1].enabled)
	require.True(t, a.ch[1].dacEnabled)

	a.Tick(1024)

	wave := a.ChannelWaveform(1)
	require.NotEmpty(t, wave)

	distinct := map[float32]bool{}
	for _, s := range wave {
		distinct[s] = true
	}
	require.Greater(t, len(distinct), 1, "channel 2's contribution should not be constant over this span")
}

func TestEnvelopeRampsVolumeOverFrameSequencerSteps(t *testing.T) {
	a := New(44100)
	a.Write(addr.NR52, 0x80)
	a.Write(addr.NR11, 0)
	a.Write(addr.NR12, 0b0000_1011) // volume 0, envelope up, pace 3
	a.Write(addr.NR13, 0x00)
	a.Write(addr.NR14, 0x87) // trigger, freq high 7

	require.Equal(t, uint8(0), a.ch[0].volume)

	// The envelope ticks on step 7 of each 8-step sequencer cycle, and pace 3
	// raises the volume once every 3 envelope ticks: run 3 full cycles.
	for i := 0; i < 3; i++ {
		a.Tick(cyclesPerStep * 8)
	}

	require.Greater(t, a.ch[0].volume, uint8(0))
}

func TestLengthCounterDisablesChannelAtZero(t *testing.T) {
	a := New(44100)
	a.Write(addr.NR52, 0x80)
	a.Write(addr.NR21, 63) // length load: 64-63 = 1 remaining step
	a.Write(addr.NR22, 0xF0)
	a.Write(addr.NR23, 0x00)
	a.Write(addr.NR24, 0b1100_0111) // trigger + length enable

	require.True(t, a.ch[1].enabled)

	// One length-clocking tick (every other frame-sequencer step) should
	// exhaust the 1 remaining step and disable the channel.
	a.Tick(cyclesPerStep * 2)

	require.False(t, a.ch[1].enabled)
}

func TestWaveChannelReadsRAMNibbles(t *testing.T) {
	a := New(44100)
	a.Write(addr.NR52, 0x80)
	a.Write(addr.WaveRAMStart, 0xAB)
	a.Write(addr.NR30, 0x80) // DAC on
	a.Write(addr.NR32, 0b0010_0000)
	a.Write(addr.NR33, 0x00)
	a.Write(addr.NR34, 0x87)

	require.Equal(t, uint8(0xA), a.readWaveNibble(0))
	require.Equal(t, uint8(0xB), a.readWaveNibble(1))
}
