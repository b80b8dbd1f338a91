package audio

// Channel is one of the four DMG sound generators. Not every field applies
// to every channel; each is commented with which channel(s) use it.
type Channel struct {
	enabled bool
	left    bool // panning: audible on the left mix (NR51)
	right   bool // panning: audible on the right mix (NR51)

	duty   uint8  // square (ch1-2): duty pattern select, 0-3
	length uint16 // all: current length counter
	volume uint8  // square/noise: current envelope volume, 0-15; wave: output-level code 0-3

	sweepPeriod  uint8  // ch1 only: NR10 bits 6-4
	sweepDown    bool   // ch1 only: NR10 bit 3
	sweepStep    uint8  // ch1 only: NR10 bits 2-0
	sweepEnabled bool
	sweepTimer   uint8
	shadowFreq   uint16
	sweepNegUsed bool

	envelopePace    uint8 // square/noise: NRx2 bits 2-0
	envelopeUp      bool  // square/noise: NRx2 bit 3
	envelopeCounter uint8
	envelopeLatched bool

	period       uint16 // square/wave: 11-bit frequency register
	lengthEnable bool
	freqTimer    int
	dutyStep     uint8
	waveIndex    uint8
	waveSample   uint8
	noiseTimer   int

	lfsr        uint16 // ch4 only
	use7bitLFSR bool
	shift       uint8
	divider     uint8

	dacEnabled bool
}

// calculateSweepFrequency returns the sweep target and whether it overflows,
// or the unchanged shadow frequency and no overflow when shift is 0 (the
// overflow check is skipped in that case).
func (ch *Channel) calculateSweepFrequency() (newFreq uint16, overflow bool) {
	if ch.sweepStep == 0 {
		return ch.shadowFreq, false
	}
	return ch.checkSweepOverflow()
}

func (ch *Channel) checkSweepOverflow() (newFreq uint16, overflow bool) {
	delta := ch.shadowFreq >> ch.sweepStep
	if ch.sweepDown {
		if delta > ch.shadowFreq {
			newFreq = 0
		} else {
			newFreq = ch.shadowFreq - delta
		}
	} else {
		newFreq = ch.shadowFreq + delta
	}
	return newFreq, newFreq > 2047
}

var dutyPatterns = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var noiseDividers = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

func squarePeriodCycles(period uint16) int {
	remaining := 2048 - int(period&0x7FF)
	if remaining <= 0 {
		return 0
	}
	return remaining * 4
}

func wavePeriodCycles(period uint16) int {
	remaining := 2048 - int(period&0x7FF)
	if remaining <= 0 {
		return 0
	}
	return remaining * 2
}

func noisePeriodCycles(ch *Channel) int {
	div := noiseDividers[ch.divider&0x7]
	period := div << ch.shift
	if period <= 0 {
		return 0
	}
	return period
}

// stepSquare advances a pulse channel's duty timer by cycles T-cycles and
// returns its current output as a u4 value (0-15), 0 when the duty bit is
// off or the channel has no volume.
func stepSquare(ch *Channel, cycles int) uint8 {
	period := squarePeriodCycles(ch.period)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}

	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.dutyStep = (ch.dutyStep + 1) & 0x7
	}

	if dutyPatterns[ch.duty&0x3][ch.dutyStep] == 0 {
		return 0
	}
	return ch.volume
}

func (a *APU) stepWave(ch *Channel, cycles int) uint8 {
	period := wavePeriodCycles(ch.period)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}

	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.waveIndex = (ch.waveIndex + 1) & 0x1F
	}

	nibble := a.readWaveNibble(ch.waveIndex)
	switch ch.volume & 0b11 {
	case 0:
		return 0
	case 1:
		return nibble
	case 2:
		return nibble >> 1
	case 3:
		return nibble >> 2
	default:
		return nibble
	}
}

func stepNoise(ch *Channel, cycles int) uint8 {
	period := noisePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.lfsr == 0 {
		ch.lfsr = 0x7FFF
	}
	if ch.noiseTimer <= 0 {
		ch.noiseTimer = period
	}

	ch.noiseTimer -= cycles
	for ch.noiseTimer <= 0 {
		ch.noiseTimer += period
		xorBit := (ch.lfsr & 1) ^ ((ch.lfsr >> 1) & 1)
		ch.lfsr = (ch.lfsr >> 1) | (xorBit << 14)
		if ch.use7bitLFSR {
			ch.lfsr = (ch.lfsr &^ (1 << 6)) | (xorBit << 6)
		}
	}

	if ch.lfsr&1 != 0 {
		return 0
	}
	return ch.volume
}
