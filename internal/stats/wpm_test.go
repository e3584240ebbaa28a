package stats

import "testing"

func TestRegisterKeyCountsOnlyTypingRelevantCodes(t *testing.T) {
	w := NewWPMCounter(3, 10)
	w.RegisterKey(30) // 'a'
	w.RegisterKey(42) // left shift, excluded
	w.RegisterKey(57) // space, relevant
	w.Next()

	// 2 relevant presses in one 3s slot: wpm = 2*60/(5*1*3) = 8
	if got := w.MaxWPM(); got != 8 {
		t.Fatalf("expected max wpm 8, got %d", got)
	}
}

func TestWPMZeroBeforeAnySlot(t *testing.T) {
	w := NewWPMCounter(3, 10)
	if got := w.WPM(); got != 0 {
		t.Fatalf("expected 0 wpm with no filled slots, got %d", got)
	}
}

func TestMaxWPMTracksHighestSlot(t *testing.T) {
	w := NewWPMCounter(3, 10)
	for i := 0; i < 6; i++ {
		w.RegisterKey(30)
	}
	w.Next() // slot 0: 6 presses -> wpm = 6*60/(5*1*3) = 24

	w.RegisterKey(30)
	w.Next() // slot 1: sum=7, filled=2 -> wpm = 7*60/(5*2*3) = 14

	if w.MaxWPM() != 24 {
		t.Fatalf("expected max wpm to stay at 24, got %d", w.MaxWPM())
	}
}

func TestRingRotatesAfterFillingAllSlots(t *testing.T) {
	w := NewWPMCounter(3, 2)
	w.RegisterKey(30)
	w.Next() // slot0 = 1
	w.RegisterKey(30)
	w.RegisterKey(30)
	w.Next() // slot1 = 2, filled=2, sum=3
	w.Next() // slot0 overwritten with 0, filled still 2, sum=2

	if len(w.slots) != 2 {
		t.Fatalf("ring should never exceed numSlots, got %d slots", len(w.slots))
	}
}

func TestIsTypingRelevantRanges(t *testing.T) {
	relevant := []uint16{2, 13, 16, 27, 28, 30, 41, 43, 53, 57}
	for _, c := range relevant {
		if !isTypingRelevant(c) {
			t.Errorf("code %d should be typing-relevant", c)
		}
	}
	notRelevant := []uint16{0, 1, 14, 15, 29, 42, 54, 58, 100}
	for _, c := range notRelevant {
		if isTypingRelevant(c) {
			t.Errorf("code %d should not be typing-relevant", c)
		}
	}
}
