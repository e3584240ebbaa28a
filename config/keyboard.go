package config

import (
	"fmt"

	"github.com/ddrcode/charon/internal/charonerr"
)

// SelectorKind discriminates the keyboard selector's closed set of
// variants: auto | Path | Name | OneOf | Use.
type SelectorKind int

const (
	SelectorAuto SelectorKind = iota
	SelectorPath
	SelectorName
	SelectorOneOf
	SelectorUse
)

// KeyboardSelector resolves which /dev/input device(s) a key scanner
// should open. Encoded in TOML either as the bare string "auto", or as
// a single-key table such as { Path = "/dev/input/event3" }.
type KeyboardSelector struct {
	Kind  SelectorKind
	Path  string
	Name  string
	OneOf []string
	Use   string
}

// UnmarshalTOML implements github.com/BurntSushi/toml's Unmarshaler
// interface, receiving the already-decoded TOML value: either a bare
// string ("auto") or a map with exactly one of the recognised keys.
func (k *KeyboardSelector) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		if v != "auto" {
			return fmt.Errorf("config: keyboard selector string must be \"auto\", got %q: %w", v, charonerr.ErrConfiguration)
		}
		*k = KeyboardSelector{Kind: SelectorAuto}
		return nil

	case map[string]interface{}:
		if path, ok := v["Path"]; ok {
			s, ok := path.(string)
			if !ok {
				return fmt.Errorf("config: keyboard selector Path must be a string: %w", charonerr.ErrConfiguration)
			}
			*k = KeyboardSelector{Kind: SelectorPath, Path: s}
			return nil
		}
		if name, ok := v["Name"]; ok {
			s, ok := name.(string)
			if !ok {
				return fmt.Errorf("config: keyboard selector Name must be a string: %w", charonerr.ErrConfiguration)
			}
			*k = KeyboardSelector{Kind: SelectorName, Name: s}
			return nil
		}
		if oneOf, ok := v["OneOf"]; ok {
			list, ok := oneOf.([]interface{})
			if !ok {
				return fmt.Errorf("config: keyboard selector OneOf must be a list: %w", charonerr.ErrConfiguration)
			}
			names := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("config: keyboard selector OneOf entries must be strings: %w", charonerr.ErrConfiguration)
				}
				names = append(names, s)
			}
			*k = KeyboardSelector{Kind: SelectorOneOf, OneOf: names}
			return nil
		}
		if use, ok := v["Use"]; ok {
			s, ok := use.(string)
			if !ok {
				return fmt.Errorf("config: keyboard selector Use must be a string: %w", charonerr.ErrConfiguration)
			}
			*k = KeyboardSelector{Kind: SelectorUse, Use: s}
			return nil
		}
		return fmt.Errorf("config: keyboard selector table has none of Path/Name/OneOf/Use: %w", charonerr.ErrConfiguration)

	default:
		return fmt.Errorf("config: keyboard selector must be a string or table: %w", charonerr.ErrConfiguration)
	}
}

func (k KeyboardSelector) String() string {
	switch k.Kind {
	case SelectorPath:
		return "Path(" + k.Path + ")"
	case SelectorName:
		return "Name(" + k.Name + ")"
	case SelectorOneOf:
		return fmt.Sprintf("OneOf(%v)", k.OneOf)
	case SelectorUse:
		return "Use(" + k.Use + ")"
	default:
		return "auto"
	}
}

// DeviceEntry names one physical device within a KeyboardGroup. Optional
// devices that are absent at startup are skipped rather than failing
// the group.
type DeviceEntry struct {
	Name     string `toml:"name"`
	Alias    string `toml:"alias"`
	Optional bool   `toml:"optional"`
}

// KeyboardGroup is one named entry in the top-level `keyboards` map —
// a set of devices sharing a raw-HID monitoring flag, selected via
// `keyboard = { Use = "<alias>" }`.
type KeyboardGroup struct {
	VendorID      string        `toml:"vendor_id"`
	ProductID     string        `toml:"product_id"`
	RawHIDEnabled bool          `toml:"raw_hid_enabled"`
	Devices       []DeviceEntry `toml:"devices"`
}

// PerKeyboardConfigs expands this config into one (actor name, Config)
// pair per physical device, or a single ("KeyScanner", this config) pair
// for the simple non-Use case: when the selector is Use(alias), one
// scanner is spawned per device in that group, named after the
// device's alias, each with its own config clone whose selector is
// rewritten to Name(<device name>).
func (c *Config) PerKeyboardConfigs() ([]NamedConfig, error) {
	if c.Keyboard.Kind != SelectorUse {
		clone := *c
		return []NamedConfig{{ActorName: "KeyScanner", Config: &clone}}, nil
	}

	group, ok := c.Keyboards[c.Keyboard.Use]
	if !ok {
		return nil, fmt.Errorf("config: keyboards has no group %q referenced by keyboard.Use: %w", c.Keyboard.Use, charonerr.ErrConfiguration)
	}

	out := make([]NamedConfig, 0, len(group.Devices))
	for _, dev := range group.Devices {
		clone := *c
		clone.Keyboard = KeyboardSelector{Kind: SelectorName, Name: dev.Name}
		name := dev.Alias
		if name == "" {
			name = dev.Name
		}
		out = append(out, NamedConfig{ActorName: name, Config: &clone, Optional: dev.Optional})
	}
	return out, nil
}

// NamedConfig pairs a per-device config with the actor name the
// supervisor should register its key scanner under.
type NamedConfig struct {
	ActorName string
	Config    *Config
	Optional  bool
}
