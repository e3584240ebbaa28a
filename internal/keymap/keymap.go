package keymap

import (
	"fmt"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/charonerr"
	"github.com/ddrcode/charon/internal/hidstate"
)

// Keymap is a partial map from character to a sequence of HID reports —
// typically press-modifier, press-key, release-key, release-modifier.
// A keymap may declare a base keymap whose mappings are inherited for
// characters it does not itself define.
type Keymap struct {
	Name     string
	Base     *Keymap
	Mappings map[rune][]bus.HidReport
}

// Sequence looks up the report sequence for c, falling back to the base
// keymap if this keymap has no entry for it.
func (k *Keymap) Sequence(c rune) ([]bus.HidReport, bool) {
	if k == nil {
		return nil, false
	}
	if seq, ok := k.Mappings[c]; ok {
		return seq, true
	}
	if k.Base != nil {
		return k.Base.Sequence(c)
	}
	return nil, false
}

// charToHIDSeq returns the ordered HID usage ids a character requires —
// an optional leading left-shift followed by the base key. Only ASCII
// letters, digits and space are supported; anything else is
// ErrUnsupported.
func charToHIDSeq(c rune) ([]byte, error) {
	var seq []byte
	upper := false
	if c >= 'A' && c <= 'Z' {
		upper = true
		c = c - 'A' + 'a'
	}
	var code byte
	switch {
	case c >= 'a' && c <= 'z':
		code = byte(c-'a') + 4
	case c >= '1' && c <= '9':
		code = byte(c-'1') + 0x1e
	case c == '0':
		code = 0x27
	case c == ' ':
		code = 0x2c
	default:
		return nil, fmt.Errorf("keymap: no sequence for char %q: %w", c, charonerr.ErrUnsupported)
	}
	if upper {
		seq = append(seq, UsageLeftShift)
	}
	seq = append(seq, code)
	return seq, nil
}

// buildReportSequence turns an ordered list of HID usage ids into the
// press-in-order / release-in-reverse-order report sequence an
// isolated keypress produces: every key in the sequence is pressed in
// turn (each press emitting a report), then every key is released in
// reverse order (each release also emitting a report).
func buildReportSequence(codes []byte) []bus.HidReport {
	var s hidstate.State
	reports := make([]bus.HidReport, 0, len(codes)*2)
	for _, c := range codes {
		s.Press(c)
		reports = append(reports, s.Report())
	}
	for i := len(codes) - 1; i >= 0; i-- {
		s.Release(codes[i])
		reports = append(reports, s.Report())
	}
	return reports
}

// DefaultUS builds the built-in "en_us" keymap covering ASCII letters,
// digits and space. Richer layouts are expected to be supplied via
// keymaps_dir (see config), with DefaultUS as their base.
func DefaultUS() *Keymap {
	k := &Keymap{Name: "en_us", Mappings: make(map[rune][]bus.HidReport)}
	chars := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	for _, c := range chars {
		codes, err := charToHIDSeq(c)
		if err != nil {
			continue
		}
		k.Mappings[c] = buildReportSequence(codes)
	}
	return k
}
