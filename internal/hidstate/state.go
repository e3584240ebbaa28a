// Package hidstate tracks the logical keyboard state used to build an
// 8-byte HID boot report: a modifier bitmask plus an ordered list of up
// to six pressed non-modifier usage ids. Shared by the Key→Report
// processor (internal/pipeline) and the default keymap builder
// (internal/keymap) so both compose reports identically.
package hidstate

import "github.com/ddrcode/charon/internal/bus"

// ModifierLow and ModifierHigh bound the HID usage id range reserved
// for modifier keys (LCtrl=0xE0 .. RMeta=0xE7), matching the
// bit 0 LCtrl ... bit 7 RMeta bitmask layout.
const (
	ModifierLow  = 0xE0
	ModifierHigh = 0xE7
	maxKeys      = 6
)

// IsModifier reports whether a HID usage id denotes a modifier key.
func IsModifier(usage byte) bool {
	return usage >= ModifierLow && usage <= ModifierHigh
}

// ModifierBit returns the single bit a modifier usage id contributes to
// byte 0 of the report. Returns 0 for a non-modifier usage id.
func ModifierBit(usage byte) byte {
	if !IsModifier(usage) {
		return 0
	}
	return 1 << (usage - ModifierLow)
}

// State is the mutable logical keyboard state. The zero value is the
// released-everything state.
type State struct {
	Modifiers byte
	Keys      []byte // insertion order, up to 6, no duplicates
}

// Press applies a key-down for the given HID usage id. Returns true if
// it changed the state (a repeat of an already-pressed non-modifier, or
// a full key list, is a no-op).
func (s *State) Press(usage byte) bool {
	if IsModifier(usage) {
		bit := ModifierBit(usage)
		if s.Modifiers&bit != 0 {
			return false
		}
		s.Modifiers |= bit
		return true
	}
	for _, k := range s.Keys {
		if k == usage {
			return false
		}
	}
	if len(s.Keys) >= maxKeys {
		return false
	}
	s.Keys = append(s.Keys, usage)
	return true
}

// Release applies a key-up for the given HID usage id. Returns true if
// it changed the state.
func (s *State) Release(usage byte) bool {
	if IsModifier(usage) {
		bit := ModifierBit(usage)
		if s.Modifiers&bit == 0 {
			return false
		}
		s.Modifiers &^= bit
		return true
	}
	for i, k := range s.Keys {
		if k == usage {
			s.Keys = append(s.Keys[:i], s.Keys[i+1:]...)
			return true
		}
	}
	return false
}

// Report renders the current state as an 8-byte HID boot report.
func (s *State) Report() bus.HidReport {
	var r bus.HidReport
	r[0] = s.Modifiers
	for i, k := range s.Keys {
		if i >= maxKeys {
			break
		}
		r[2+i] = k
	}
	return r
}

// Reset clears all modifiers and keys, so Report returns the all-zero
// report.
func (s *State) Reset() {
	s.Modifiers = 0
	s.Keys = nil
}
