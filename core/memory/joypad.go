package memory

import "github.com/outrun8bit/pocketcore/core/bit"

// Button is one of the eight physical buttons.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// Joypad models the single $FF00 register: two mutually selectable 4-bit
// groups (d-pad, buttons), active-low on both the selection bits and the
// button bits.
type Joypad struct {
	buttons uint8 // low 4 bits: A,B,Select,Start; 1 = released
	dpad    uint8 // low 4 bits: Right,Left,Up,Down; 1 = released
	select_ uint8 // raw bits 4-5 as last written (0 = group selected)

	// IRQHandler is invoked when a button transitions released->pressed
	// while its group is selected.
	IRQHandler func()
}

func NewJoypad() *Joypad {
	return &Joypad{buttons: 0x0F, dpad: 0x0F, select_: 0x30}
}

// Read returns the register value: bits 6-7 always 1, bits 4-5 the
// selection as last written, bits 0-3 the selected group(s) ANDed together.
func (j *Joypad) Read() uint8 {
	result := uint8(0xC0) | (j.select_ & 0x30)

	dpadSelected := !bit.IsSet(4, j.select_)
	buttonsSelected := !bit.IsSet(5, j.select_)

	switch {
	case dpadSelected && buttonsSelected:
		result |= j.dpad & j.buttons & 0x0F
	case dpadSelected:
		result |= j.dpad & 0x0F
	case buttonsSelected:
		result |= j.buttons & 0x0F
	default:
		result |= 0x0F
	}
	return result
}

// Write updates the group-selection bits (4-5); the rest of the register is
// read-only.
func (j *Joypad) Write(value uint8) {
	j.select_ = value & 0x30
}

func (j *Joypad) Press(b Button) {
	wasSelected, wasReleased := j.groupAndState(b)
	j.setBit(b, false)
	if wasSelected && wasReleased && j.IRQHandler != nil {
		j.IRQHandler()
	}
}

func (j *Joypad) Release(b Button) {
	j.setBit(b, true)
}

// groupAndState reports whether b's group is currently selected and whether
// b currently reads as released, before any mutation.
func (j *Joypad) groupAndState(b Button) (selected, released bool) {
	if isDpad(b) {
		return !bit.IsSet(4, j.select_), bit.IsSet(uint8(b), j.dpad)
	}
	return !bit.IsSet(5, j.select_), bit.IsSet(uint8(b)-4, j.buttons)
}

func (j *Joypad) setBit(b Button, released bool) {
	if isDpad(b) {
		j.dpad = bit.SetTo(uint8(b), j.dpad, released)
		return
	}
	j.buttons = bit.SetTo(uint8(b)-4, j.buttons, released)
}

func isDpad(b Button) bool { return b <= ButtonDown }
