package memory

import "testing"

func TestJoypadGroupSelection(t *testing.T) {
	j := NewJoypad()

	j.Write(0x10) // bit4 set (d-pad deselected), bit5 clear (buttons selected)
	j.Press(ButtonA)
	if got := j.Read(); got&0x01 != 0 {
		t.Errorf("A pressed with buttons group selected should read bit 0 low, got 0x%02X", got)
	}

	j.Write(0x20) // select d-pad group
	if got := j.Read(); got&0x0F != 0x0F {
		t.Errorf("no d-pad button pressed should read all 4 low bits high, got 0x%02X", got)
	}
}

func TestJoypadPressFiresInterruptOnlyWhenGroupSelected(t *testing.T) {
	j := NewJoypad()
	fired := 0
	j.IRQHandler = func() { fired++ }

	j.Write(0x10) // d-pad deselected, buttons selected
	j.Press(ButtonUp)
	if fired != 0 {
		t.Errorf("pressing a d-pad button while its group is deselected should not fire, fired=%d", fired)
	}

	j.Release(ButtonUp)
	j.Write(0x20) // d-pad selected
	j.Press(ButtonUp)
	if fired != 1 {
		t.Errorf("expected exactly one interrupt after pressing a newly-selected group's button, fired=%d", fired)
	}
}

func TestJoypadReleasedIsOnesAtReset(t *testing.T) {
	j := NewJoypad()
	if got := j.Read(); got&0x0F != 0x0F {
		t.Errorf("all buttons should read released at reset, got 0x%02X", got)
	}
}
