package keymap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/charonerr"
)

// fileFormat is the on-disk shape of a keymap file under keymaps_dir:
// each character maps to an ordered list of HID key names (resolved via
// KeyNameToHID and the modifier usage constants), in the order they
// should be pressed; the typist presses them in that order and releases
// them in reverse, exactly as DefaultUS's built-in entries do.
type fileFormat struct {
	Name     string              `toml:"name"`
	Base     string              `toml:"base"`
	Mappings map[string][]string `toml:"mappings"`
}

// Load reads "<dir>/<name>.toml" and resolves it against base (which
// may be nil for a root keymap). The on-disk shape is name+base+mappings,
// expressed in this repository's TOML convention rather than introducing
// a second serialization library for keymap files alone.
func Load(dir, name string, base *Keymap) (*Keymap, error) {
	path := filepath.Join(dir, name+".toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keymap: read %s: %w", path, charonerr.ErrConfiguration)
	}

	var ff fileFormat
	if _, err := toml.Decode(string(data), &ff); err != nil {
		return nil, fmt.Errorf("keymap: parse %s: %w", path, charonerr.ErrConfiguration)
	}

	k := &Keymap{Name: ff.Name, Base: base, Mappings: make(map[rune][]bus.HidReport, len(ff.Mappings))}
	if k.Name == "" {
		k.Name = name
	}

	for key, names := range ff.Mappings {
		r := []rune(key)
		if len(r) != 1 {
			return nil, fmt.Errorf("keymap: %s: mapping key %q is not a single character: %w", path, key, charonerr.ErrConfiguration)
		}
		codes := make([]byte, 0, len(names))
		for _, n := range names {
			usage, ok := resolveUsageName(n)
			if !ok {
				return nil, fmt.Errorf("keymap: %s: unknown key name %q: %w", path, n, charonerr.ErrConfiguration)
			}
			codes = append(codes, usage)
		}
		k.Mappings[r[0]] = buildReportSequence(codes)
	}

	return k, nil
}

func resolveUsageName(name string) (byte, bool) {
	switch name {
	case "LeftShift", "Shift":
		return UsageLeftShift, true
	case "RightShift":
		return UsageRightShift, true
	case "LeftCtrl", "Ctrl":
		return UsageLeftCtrl, true
	case "RightCtrl":
		return UsageRightCtrl, true
	case "LeftAlt", "Alt":
		return UsageLeftAlt, true
	case "RightAlt":
		return UsageRightAlt, true
	case "LeftMeta", "Meta":
		return UsageLeftMeta, true
	case "RightMeta":
		return UsageRightMeta, true
	}
	if usage, ok := KeyNameToHID[name]; ok {
		return usage, true
	}
	return 0, false
}
