package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/charonerr"
	"github.com/ddrcode/charon/internal/hidstate"
	"github.com/ddrcode/charon/internal/keymap"
)

// KeyShortcut is a (modifier mask, HID usage id) pair, encoded in TOML
// as a string of the form "[Ctrl|Shift|Alt|Meta+]...Key". Equality with
// an incoming HidReport means "the 8-byte report that would represent
// pressing exactly that chord".
type KeyShortcut struct {
	Modifiers byte
	Key       byte
	raw       string
}

// ParseShortcut parses strings like "Ctrl+Q", "F7", "Ctrl+Shift+Alt+Meta+A".
// Modifier names are matched case-insensitively; "Cmd" and "Super" are
// accepted as aliases for "Meta". Unqualified modifier names ("Ctrl")
// are treated as their left-hand variant, matching the common case
// where a shortcut does not care which side the chord was pressed on.
func ParseShortcut(s string) (KeyShortcut, error) {
	parts := strings.Split(s, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return KeyShortcut{}, fmt.Errorf("config: empty shortcut key in %q: %w", s, charonerr.ErrConfiguration)
	}

	keyName := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	usage, ok := keymap.KeyNameToHID[keyName]
	if !ok {
		return KeyShortcut{}, fmt.Errorf("config: unknown shortcut key %q in %q: %w", keyName, s, charonerr.ErrConfiguration)
	}

	var mods byte
	for _, tok := range parts[:len(parts)-1] {
		switch strings.ToUpper(strings.TrimSpace(tok)) {
		case "CTRL", "CONTROL":
			mods |= hidstate.ModifierBit(keymap.UsageLeftCtrl)
		case "SHIFT":
			mods |= hidstate.ModifierBit(keymap.UsageLeftShift)
		case "ALT":
			mods |= hidstate.ModifierBit(keymap.UsageLeftAlt)
		case "META", "CMD", "SUPER":
			mods |= hidstate.ModifierBit(keymap.UsageLeftMeta)
		default:
			return KeyShortcut{}, fmt.Errorf("config: unknown modifier %q in %q: %w", tok, s, charonerr.ErrConfiguration)
		}
	}

	return KeyShortcut{Modifiers: mods, Key: usage, raw: s}, nil
}

// Report is the canonical 8-byte HID report this shortcut represents:
// the modifier byte, then the key's usage id as the sole occupied key
// slot.
func (s KeyShortcut) Report() bus.HidReport {
	var r bus.HidReport
	r[0] = s.Modifiers
	r[2] = s.Key
	return r
}

// Matches reports whether an observed report is exactly this shortcut's
// chord — no extra modifiers, no extra keys.
func (s KeyShortcut) Matches(r bus.HidReport) bool {
	return r == s.Report()
}

func (s KeyShortcut) String() string {
	if s.raw != "" {
		return s.raw
	}
	return "0x" + strconv.FormatUint(uint64(s.Modifiers), 16) + "+0x" + strconv.FormatUint(uint64(s.Key), 16)
}

// UnmarshalText implements encoding.TextUnmarshaler so
// github.com/BurntSushi/toml can decode a bare TOML string directly
// into a KeyShortcut field.
func (s *KeyShortcut) UnmarshalText(text []byte) error {
	parsed, err := ParseShortcut(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for round-tripping a
// loaded config back out to TOML (e.g. a future "dump effective
// config" diagnostic).
func (s KeyShortcut) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
