// Package config loads and validates the daemon's TOML configuration
// file: one struct field per option, defaults assigned one field per
// line in SetDefaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ddrcode/charon/internal/charonerr"
)

// Config is the full set of recognised daemon options. All fields are
// optional in the file; Default fills in every field's documented
// default.
type Config struct {
	Keyboard KeyboardSelector `toml:"keyboard"`
	Keyboards map[string]KeyboardGroup `toml:"keyboards"`

	HidKeyboard    string `toml:"hid_keyboard"`
	TypingInterval int    `toml:"typing_interval"`
	ServerSocket   string `toml:"server_socket"`
	ChannelSize    int    `toml:"channel_size"`

	QuitShortcut       KeyShortcut `toml:"quit_shortcut"`
	ToggleModeShortcut KeyShortcut `toml:"toggle_mode_shortcut"`
	AwakeHostShortcut  KeyShortcut `toml:"awake_host_shortcut"`

	HostMACAddress string `toml:"host_mac_address"`
	EnableTelemetry bool  `toml:"enable_telemetry"`
	TelemetryAddr   string `toml:"telemetry_addr"`

	TimeToSleep  int    `toml:"time_to_sleep"`
	SleepScript  string `toml:"sleep_script"`
	AwakeScript  string `toml:"awake_script"`

	StatsFile            string `toml:"stats_file"`
	StatsSaveInterval     int    `toml:"stats_save_interval"`
	StatsWPMSlotDuration  int    `toml:"stats_wpm_slot_duration"`
	StatsWPMSlotCount     int    `toml:"stats_wpm_slot_count"`

	KeymapsDir string `toml:"keymaps_dir"`
	HostKeymap string `toml:"host_keymap"`

	QMKDevicePath string `toml:"qmk_device_path"`
}

// Default returns a Config with every field set to its documented
// default value.
func Default() *Config {
	c := &Config{}
	SetDefaults(c)
	return c
}

// SetDefaults assigns every field's documented default onto an existing
// Config. It is meant to be called on a zero-value struct before
// selectively overlaying a parsed file; already-set fields are not
// preserved.
func SetDefaults(c *Config) {
	c.Keyboard = KeyboardSelector{Kind: SelectorAuto}
	c.Keyboards = map[string]KeyboardGroup{}

	c.HidKeyboard = "/dev/hidg0"
	c.TypingInterval = 20
	c.ServerSocket = "/tmp/charon.sock"
	c.ChannelSize = 128

	c.QuitShortcut = mustShortcut("Ctrl+Q")
	c.ToggleModeShortcut = mustShortcut("F7")
	c.AwakeHostShortcut = mustShortcut("F8")

	c.HostMACAddress = ""
	c.EnableTelemetry = false
	c.TelemetryAddr = "127.0.0.1:8089"

	c.TimeToSleep = 900
	c.SleepScript = ""
	c.AwakeScript = ""

	c.StatsFile = "/var/lib/charon/stats.json"
	c.StatsSaveInterval = 60
	c.StatsWPMSlotDuration = 3
	c.StatsWPMSlotCount = 10

	c.KeymapsDir = ""
	c.HostKeymap = "en_us"

	c.QMKDevicePath = ""
}

func mustShortcut(s string) KeyShortcut {
	sc, err := ParseShortcut(s)
	if err != nil {
		panic(fmt.Sprintf("config: invalid built-in default shortcut %q: %v", s, err))
	}
	return sc
}

// ConfigDir returns ${XDG_CONFIG_HOME}/charon, falling back to
// ~/.config/charon when XDG_CONFIG_HOME is unset, per the XDG base
// directory convention.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "charon")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "charon")
	}
	return filepath.Join(home, ".config", "charon")
}

// DefaultPath is ${XDG_CONFIG_HOME}/charon/charon.toml.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "charon.toml")
}

// Load reads and decodes path. If the file does not exist, it returns
// defaults, a nil error and usedDefaults = true (the caller logs a
// warning).
func Load(path string) (cfg *Config, usedDefaults bool, err error) {
	cfg = Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("config: read %s: %w", path, charonerr.ErrConfiguration)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, false, fmt.Errorf("config: parse %s: %w", path, charonerr.ErrConfiguration)
	}

	return cfg, false, nil
}
