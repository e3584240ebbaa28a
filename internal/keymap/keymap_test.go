package keymap

import "testing"

func TestDefaultUSLowercase(t *testing.T) {
	k := DefaultUS()
	seq, ok := k.Sequence('a')
	if !ok {
		t.Fatal("expected a mapping for 'a'")
	}
	if len(seq) != 2 {
		t.Fatalf("expected press+release for a plain letter, got %d reports", len(seq))
	}
	if seq[0][2] != 4 {
		t.Fatalf("press report usage id = %d, want 4 (HID 'a')", seq[0][2])
	}
	if !seq[1].IsReset() {
		t.Fatal("final report for a plain letter should be the reset report")
	}
}

func TestDefaultUSUppercaseHoldsShiftThroughout(t *testing.T) {
	k := DefaultUS()
	seq, ok := k.Sequence('A')
	if !ok {
		t.Fatal("expected a mapping for 'A'")
	}
	if len(seq) != 4 {
		t.Fatalf("expected 4 reports (press shift, press key, release key, release shift), got %d", len(seq))
	}
	if seq[0][0] != 1<<1 {
		t.Fatalf("first report should set LeftShift bit, got modifiers=%08b", seq[0][0])
	}
	// Key release (3rd report) must still hold shift.
	if seq[2][0] != 1<<1 {
		t.Fatal("shift should still be held when the key itself releases")
	}
	if !seq[3].IsReset() {
		t.Fatal("final report should be the reset report")
	}
}

func TestBaseInheritance(t *testing.T) {
	base := DefaultUS()
	child := &Keymap{Name: "child", Base: base, Mappings: nil}
	seq, ok := child.Sequence('b')
	if !ok {
		t.Fatal("child keymap should inherit 'b' from base")
	}
	if seq[0][2] != 5 {
		t.Fatalf("press report usage id = %d, want 5 (HID 'b')", seq[0][2])
	}
}

func TestUnsupportedCharacter(t *testing.T) {
	k := DefaultUS()
	if _, ok := k.Sequence('!'); ok {
		t.Fatal("'!' should have no mapping in the default keymap")
	}
}
