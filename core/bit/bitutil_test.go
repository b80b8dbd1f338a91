package bit

import "testing"

func TestCombineAndSplit(t *testing.T) {
	v := Combine(0x12, 0x34)
	if v != 0x1234 {
		t.Fatalf("Combine(0x12, 0x34) = 0x%04X; want 0x1234", v)
	}
	if High(v) != 0x12 || Low(v) != 0x34 {
		t.Fatalf("High/Low(0x1234) = 0x%02X/0x%02X; want 0x12/0x34", High(v), Low(v))
	}
}

func TestSetResetSetTo(t *testing.T) {
	var v uint8 = 0
	v = Set(3, v)
	if !IsSet(3, v) {
		t.Fatalf("bit 3 should be set after Set, got 0x%02X", v)
	}
	v = Reset(3, v)
	if IsSet(3, v) {
		t.Fatalf("bit 3 should be clear after Reset, got 0x%02X", v)
	}
	v = SetTo(5, v, true)
	if !IsSet(5, v) {
		t.Fatalf("SetTo(true) should set bit 5, got 0x%02X", v)
	}
	v = SetTo(5, v, false)
	if IsSet(5, v) {
		t.Fatalf("SetTo(false) should clear bit 5, got 0x%02X", v)
	}
}

func TestIsSet16(t *testing.T) {
	if !IsSet16(15, 0x8000) {
		t.Error("bit 15 of 0x8000 should be set")
	}
	if IsSet16(0, 0x8000) {
		t.Error("bit 0 of 0x8000 should be clear")
	}
}

func TestExtractBits(t *testing.T) {
	// 0b1011_0100, extract bits [5:2] -> 0b1101
	if got := ExtractBits(0b1011_0100, 5, 2); got != 0b1101 {
		t.Errorf("ExtractBits = 0b%04b; want 0b1101", got)
	}
}
