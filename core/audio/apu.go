// Package audio implements the 4-channel DMG Audio Processing Unit: pulse,
// wave and noise generators driven by a 512 Hz frame sequencer, resampled
// and mixed to a host-rate stereo stream through a one-pole high-pass filter.
package audio

import (
	"math"

	"github.com/outrun8bit/pocketcore/core/addr"
	"github.com/outrun8bit/pocketcore/core/bit"
	"github.com/outrun8bit/pocketcore/core/timing"
)

const cyclesPerStep = 8192 // 4.194304 MHz / 512 Hz
const waveRAMSize = 16

// APU is the Audio Processing Unit: four channels, a frame sequencer, and a
// resampling/mixing stage that feeds a bounded stereo sample queue.
type APU struct {
	enabled bool
	ch      [4]Channel

	volLeft, volRight uint8 // NR50 bits 6-4 / 2-0, 0-7

	waveRAM [waveRAMSize]uint8

	step   int // frame sequencer step, 0-7
	cycles int // T-cycles accumulated since the last sequencer step

	cyclesPerSample   float64
	cycleAccumulator  float64
	hpfAlpha          float32
	hpfCapLeft        float32
	hpfCapRight       float32
	lastRawLeft       float32
	lastRawRight      float32

	queue     *SampleQueue
	waveforms [4]waveformBuffer

	NR10, NR11, NR12, NR13, NR14 uint8
	NR21, NR22, NR23, NR24       uint8
	NR30, NR31, NR32, NR33, NR34 uint8
	NR41, NR42, NR43, NR44       uint8
	NR50, NR51, NR52             uint8
}

// New creates an APU resampling to hostSampleRate, with a one-pole high-pass
// filter at a fixed ~20 Hz cutoff (spec'd to remove DC bias from the mix).
func New(hostSampleRate int) *APU {
	if hostSampleRate <= 0 {
		hostSampleRate = 44100
	}
	a := &APU{queue: newSampleQueue()}
	a.cyclesPerSample = float64(timing.CPUFrequency) / float64(hostSampleRate)

	const cutoffHz = 20.0
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / float64(hostSampleRate)
	a.hpfAlpha = float32(rc / (rc + dt))
	return a
}

// Tick advances the APU by cycles T-cycles: generators, frame sequencer, and
// resampled mix emission all run in lockstep with the CPU.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.stepGenerators(cycles)

	a.cycles += cycles
	for a.cycles >= cyclesPerStep {
		a.cycles -= cyclesPerStep
		a.tickSequence()
	}
}

// stepGenerators advances every channel's waveform position, records each
// channel's raw pre-mix sample for visualization, resamples at the host
// rate, and pushes mixed frames into the output queue.
func (a *APU) stepGenerators(cycles int) {
	for cycles > 0 {
		// Advance at most up to the next output sample, so each emitted
		// frame reflects the channel outputs at that point in time.
		chunk := int(math.Ceil(a.cyclesPerSample - a.cycleAccumulator))
		if chunk < 1 {
			chunk = 1
		}
		if chunk > cycles {
			chunk = cycles
		}
		cycles -= chunk

		var outputs [4]uint8
		for i := range a.ch {
			ch := &a.ch[i]
			if !ch.enabled || !ch.dacEnabled {
				continue
			}
			switch i {
			case 0, 1:
				outputs[i] = stepSquare(ch, chunk)
			case 2:
				outputs[i] = a.stepWave(ch, chunk)
			case 3:
				outputs[i] = stepNoise(ch, chunk)
			}
		}

		a.cycleAccumulator += float64(chunk)
		for a.cycleAccumulator >= a.cyclesPerSample {
			a.cycleAccumulator -= a.cyclesPerSample
			a.emitSample(outputs)
		}
	}
}

// emitSample mixes the four channels' last raw outputs down to one stereo
// frame per spec §4.4: panning mask, 1/4 scale, one-pole high-pass, master
// volume, clamp, enqueue.
func (a *APU) emitSample(outputs [4]uint8) {
	var rawLeft, rawRight float32
	for i, u4 := range outputs {
		signed := (float32(u4) / 7.5) - 1.0
		a.waveforms[i].push(signed)

		if !a.enabled || !a.ch[i].enabled || !a.ch[i].dacEnabled {
			continue
		}
		if a.ch[i].left {
			rawLeft += signed
		}
		if a.ch[i].right {
			rawRight += signed
		}
	}

	rawLeft /= 4.0
	rawRight /= 4.0

	filteredLeft := a.hpfAlpha * (a.hpfCapLeft + rawLeft - a.lastRawLeft)
	a.hpfCapLeft = filteredLeft
	a.lastRawLeft = rawLeft

	filteredRight := a.hpfAlpha * (a.hpfCapRight + rawRight - a.lastRawRight)
	a.hpfCapRight = filteredRight
	a.lastRawRight = rawRight

	left := clamp1(filteredLeft * (float32(a.volLeft) + 1) / 8.0)
	right := clamp1(filteredRight * (float32(a.volRight) + 1) / 8.0)

	a.queue.push(left, right)
}

func clamp1(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// DrainSamples pulls up to n stereo frames, interleaved [L,R,L,R,...].
func (a *APU) DrainSamples(n int) []float32 {
	return a.queue.Drain(n)
}

// ChannelWaveform returns the buffered raw output samples for channel index
// (0-3), oldest first, for host-side visualization.
func (a *APU) ChannelWaveform(index int) []float32 {
	if index < 0 || index > 3 {
		return nil
	}
	return a.waveforms[index].Snapshot()
}

func (a *APU) readWaveNibble(index uint8) uint8 {
	byteIdx := index >> 1
	value := a.waveRAM[byteIdx]
	a.ch[2].waveSample = value
	if index&1 == 0 {
		return value >> 4
	}
	return value & 0x0F
}

func (a *APU) tickSequence() {
	switch a.step {
	case 0, 4:
		a.tickLength()
	case 2, 6:
		a.tickLength()
		a.tickSweep()
	case 7:
		a.tickEnvelope()
	}
	a.step = (a.step + 1) % 8
}

func (a *APU) tickLength() {
	for i := range a.ch {
		ch := &a.ch[i]
		if ch.lengthEnable && ch.length > 0 {
			ch.length--
			if ch.length == 0 {
				ch.enabled = false
			}
		}
	}
}

func (a *APU) tickSweep() {
	ch := &a.ch[0]
	if !ch.sweepEnabled {
		return
	}

	ch.sweepTimer--
	if ch.sweepTimer > 0 {
		return
	}

	ch.sweepTimer = ch.sweepPeriod
	if ch.sweepTimer == 0 {
		ch.sweepTimer = 8
	}
	if ch.sweepPeriod == 0 {
		return
	}

	newFreq, overflow := ch.checkSweepOverflow()
	if overflow {
		ch.enabled = false
		return
	}
	if ch.sweepDown {
		ch.sweepNegUsed = true
	}
	if ch.sweepStep == 0 {
		return
	}

	ch.shadowFreq = newFreq
	ch.period = newFreq
	a.NR14 = (a.NR14 & 0b1111_1000) | uint8((newFreq>>8)&0b111)
	a.NR13 = uint8(newFreq)

	if _, overflow := ch.checkSweepOverflow(); overflow {
		ch.enabled = false
	}
}

func (a *APU) tickEnvelope() {
	for _, idx := range [3]int{0, 1, 3} {
		ch := &a.ch[idx]
		if !ch.dacEnabled || ch.envelopeLatched {
			continue
		}

		pace := ch.envelopePace
		if pace == 0 {
			pace = 8
		}
		if ch.envelopeCounter == 0 {
			ch.envelopeCounter = pace
		}
		ch.envelopeCounter--
		if ch.envelopeCounter > 0 {
			continue
		}

		if ch.envelopeUp {
			if ch.volume < 15 {
				ch.volume++
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
			}
		} else {
			if ch.volume > 0 {
				ch.volume--
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
			}
		}
	}
}

func (a *APU) waveRAMLocked() bool {
	return a.enabled && a.ch[2].enabled
}

// Read returns the register value at address, masked so unused/write-only
// bits read as 1 per the canonical register table.
func (a *APU) Read(address uint16) byte {
	switch address {
	case addr.NR10:
		return a.NR10 | 0b1000_0000
	case addr.NR11:
		return a.NR11 | 0b0011_1111
	case addr.NR12:
		return a.NR12
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.NR14 | 0b1011_1111
	case addr.NR21:
		return a.NR21 | 0b0011_1111
	case addr.NR22:
		return a.NR22
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.NR24 | 0b1011_1111
	case addr.NR30:
		return a.NR30 | 0b0111_1111
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.NR32 | 0b1001_1111
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.NR34 | 0b1011_1111
	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.NR42
	case addr.NR43:
		return a.NR43
	case addr.NR44:
		return a.NR44 | 0b1011_1111
	case addr.NR50:
		return a.NR50
	case addr.NR51:
		return a.NR51
	case addr.NR52:
		status := uint8(0b0111_0000)
		if a.enabled {
			status = bit.Set(7, status)
		}
		for i := range a.ch {
			if a.ch[i].enabled {
				status = bit.Set(uint8(i), status)
			}
		}
		return status
	}

	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		if a.waveRAMLocked() {
			return 0xFF
		}
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	return 0xFF
}

// Write stores to the register at address and re-derives all channel state
// from the raw register bytes.
func (a *APU) Write(address uint16, value byte) {
	isWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if !a.enabled && address != addr.NR52 && !isWaveRAM {
		return
	}

	switch address {
	case addr.NR10:
		a.NR10 = value
	case addr.NR11:
		a.NR11 = value
		a.ch[0].length = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR12:
		a.NR12 = value
		a.reloadEnvelope(&a.ch[0], value)
	case addr.NR13:
		a.NR13 = value
	case addr.NR14:
		a.NR14 = value
	case addr.NR21:
		a.NR21 = value
		a.ch[1].length = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR22:
		a.NR22 = value
		a.reloadEnvelope(&a.ch[1], value)
	case addr.NR23:
		a.NR23 = value
	case addr.NR24:
		a.NR24 = value
	case addr.NR30:
		a.NR30 = value
	case addr.NR31:
		a.NR31 = value
		a.ch[2].length = 256 - uint16(value)
	case addr.NR32:
		a.NR32 = value
	case addr.NR33:
		a.NR33 = value
	case addr.NR34:
		a.NR34 = value
	case addr.NR41:
		a.NR41 = value
		a.ch[3].length = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR42:
		a.NR42 = value
		a.reloadEnvelope(&a.ch[3], value)
	case addr.NR43:
		a.NR43 = value
	case addr.NR44:
		a.NR44 = value
	case addr.NR50:
		a.NR50 = value
	case addr.NR51:
		a.NR51 = value
	case addr.NR52:
		a.NR52 = value
	}

	if isWaveRAM {
		offset := address - addr.WaveRAMStart
		if a.waveRAMLocked() {
			idx := a.ch[2].waveIndex >> 1
			a.waveRAM[idx] = value
			a.ch[2].waveSample = value
		} else {
			a.waveRAM[offset] = value
		}
	}

	a.applyRegisters()
}

func (a *APU) reloadEnvelope(ch *Channel, nrx2 uint8) {
	pace := bit.ExtractBits(nrx2, 2, 0)
	if pace == 0 {
		ch.envelopeCounter = 8
	} else {
		ch.envelopeCounter = pace
	}
	ch.envelopeLatched = false
}

// applyRegisters re-derives every piece of channel state from the raw
// register bytes; called after any register write, per spec §4.4's
// register-driven trigger/panning/envelope model.
func (a *APU) applyRegisters() {
	a.enabled = bit.IsSet(7, a.NR52)
	if !a.enabled {
		a.NR10, a.NR11, a.NR12, a.NR13, a.NR14 = 0, 0, 0, 0, 0
		a.NR21, a.NR22, a.NR23, a.NR24 = 0, 0, 0, 0
		a.NR30, a.NR31, a.NR32, a.NR33, a.NR34 = 0, 0, 0, 0, 0
		a.NR41, a.NR42, a.NR43, a.NR44 = 0, 0, 0, 0
		a.NR50, a.NR51 = 0, 0
		for i := range a.ch {
			a.ch[i].enabled = false
		}
		a.step = 0
	}

	for i := range a.ch {
		a.ch[i].left = bit.IsSet(uint8(i), a.NR51)
		a.ch[i].right = bit.IsSet(uint8(i+4), a.NR51)
	}
	a.volLeft = bit.ExtractBits(a.NR50, 6, 4)
	a.volRight = bit.ExtractBits(a.NR50, 2, 0)

	a.applySquare(0, a.NR10, a.NR11, a.NR12, a.NR13, a.NR14)
	a.applySquare(1, 0, a.NR21, a.NR22, a.NR23, a.NR24)
	a.applyWave()
	a.applyNoise()

	for i := range a.ch {
		if !a.ch[i].dacEnabled {
			a.ch[i].enabled = false
		}
	}
}

// applySquare updates channel idx (0 or 1) from its NRx0-NRx4 registers.
// nr_x0 is only meaningful (sweep) for channel 0; pass 0 for channel 1.
func (a *APU) applySquare(idx int, nrX0, nrX1, nrX2, nrX3, nrX4 uint8) {
	ch := &a.ch[idx]

	if idx == 0 {
		prevSweepDown := ch.sweepDown
		ch.sweepPeriod = bit.ExtractBits(nrX0, 6, 4)
		ch.sweepDown = bit.IsSet(3, nrX0)
		ch.sweepStep = bit.ExtractBits(nrX0, 2, 0)
		if !ch.sweepDown && prevSweepDown && ch.sweepNegUsed && (ch.sweepPeriod > 0 || ch.sweepStep > 0) {
			ch.enabled = false
		}
	}

	ch.duty = bit.ExtractBits(nrX1, 7, 6)
	ch.volume = bit.ExtractBits(nrX2, 7, 4)
	ch.envelopeUp = bit.IsSet(3, nrX2)
	ch.envelopePace = bit.ExtractBits(nrX2, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp
	ch.period = bit.Combine(nrX4&0b111, nrX3)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, nrX4)
	ch.lengthEnable = bit.IsSet(6, nrX4)
	if triggered {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.envelopeLatched = false
		if ch.envelopePace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = ch.envelopePace
		}
		ch.dutyStep = 0
		ch.freqTimer = squarePeriodCycles(ch.period)

		if idx == 0 {
			ch.sweepEnabled = ch.sweepPeriod > 0 || ch.sweepStep > 0
			ch.sweepTimer = ch.sweepPeriod
			if ch.sweepTimer == 0 {
				ch.sweepTimer = 8
			}
			ch.shadowFreq = ch.period
			ch.sweepNegUsed = false
			if ch.sweepStep != 0 {
				if ch.sweepDown {
					ch.sweepNegUsed = true
				}
				if _, overflow := ch.calculateSweepFrequency(); overflow {
					ch.enabled = false
				}
			}
		}

		if idx == 0 {
			a.NR14 = bit.Reset(7, a.NR14)
		} else {
			a.NR24 = bit.Reset(7, a.NR24)
		}
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, idx)
}

func (a *APU) applyWave() {
	ch := &a.ch[2]
	ch.dacEnabled = bit.IsSet(7, a.NR30)
	ch.volume = bit.ExtractBits(a.NR32, 6, 5)
	ch.period = bit.Combine(a.NR34&0b111, a.NR33)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, a.NR34)
	ch.lengthEnable = bit.IsSet(6, a.NR34)
	if triggered {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.freqTimer = wavePeriodCycles(ch.period)
		ch.waveIndex = 0
		ch.waveSample = a.waveRAM[0]
		a.NR34 = bit.Reset(7, a.NR34)
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 256, 2)
}

func (a *APU) applyNoise() {
	ch := &a.ch[3]
	ch.shift = bit.ExtractBits(a.NR43, 7, 4)
	ch.use7bitLFSR = bit.IsSet(3, a.NR43)
	ch.divider = bit.ExtractBits(a.NR43, 2, 0)
	ch.volume = bit.ExtractBits(a.NR42, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.NR42)
	ch.envelopePace = bit.ExtractBits(a.NR42, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.length
	triggered := bit.IsSet(7, a.NR44)
	ch.lengthEnable = bit.IsSet(6, a.NR44)
	if triggered {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.envelopeLatched = false
		if ch.envelopePace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = ch.envelopePace
		}
		ch.lfsr = 0xFFFF
		ch.noiseTimer = noisePeriodCycles(ch)
		a.NR44 = bit.Reset(7, a.NR44)
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 3)
}

// handleLengthEnableTransition reproduces the obscure length-clocking edge
// cases around enabling length and triggering mid-sequencer-step; see
// https://gbdev.io/pandocs/Audio_details.html#obscure-behavior.
func (a *APU) handleLengthEnableTransition(prevEnabled bool, lengthBefore uint16, triggered bool, maxLength uint16, idx int) {
	ch := &a.ch[idx]
	lengthWasZero := lengthBefore == 0
	clockOnEnable := !prevEnabled && ch.lengthEnable && a.step%2 == 1 && lengthBefore > 0

	if triggered && (lengthWasZero || (clockOnEnable && lengthBefore == 1)) {
		ch.length = maxLength
	}

	if !ch.lengthEnable {
		return
	}

	forceClock := lengthWasZero && triggered && ch.length > 0
	if !forceClock && prevEnabled {
		return
	}

	if a.step%2 == 1 && ch.length > 0 {
		ch.length--
		if ch.length == 0 {
			ch.enabled = false
		}
	}
}
