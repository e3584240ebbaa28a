// Package keymap holds the evdev-code -> HID-usage-id table and the
// character -> HID-report-sequence keymap used for text injection.
package keymap

import "strconv"

// EvdevToHID maps a Linux evdev key code (linux/input-event-codes.h
// KEY_*) to its USB HID boot-protocol usage id.
var EvdevToHID = map[uint16]uint16{
	// number row
	2: 30, 3: 31, 4: 32, 5: 33, 6: 34, 7: 35, 8: 36, 9: 37, 10: 38, 11: 39,
	12: 45, 13: 46, // minus, equal
	14: 42, // backspace
	15: 43, // tab
	// letters (evdev code -> HID usage 4..29)
	16: 20, 17: 26, 18: 8, 19: 21, 20: 23, 21: 28, 22: 24, 23: 12, 24: 18,
	25: 19, 26: 47, 27: 48,
	28: 40, // enter
	29: 224, // left ctrl
	30: 4, 31: 22, 32: 7, 33: 9, 34: 10, 35: 11, 36: 13, 37: 14, 38: 15,
	39: 51, 40: 52, 41: 53, // semicolon, apostrophe, grave
	42: 225, // left shift
	43: 49, // backslash
	44: 29, 45: 27, 46: 6, 47: 25, 48: 5, 49: 17, 50: 16,
	51: 54, 52: 55, 53: 56, // comma, dot, slash
	54: 229, // right shift
	55: 85,  // kp asterisk
	56: 226, // left alt
	57: 44,  // space
	58: 57,  // capslock
	59: 58, 60: 59, 61: 60, 62: 61, 63: 62, 64: 63, 65: 64, 66: 65, 67: 66,
	68: 67, // F1-F10
	69: 83, // numlock
	70: 71, // scrolllock
	71: 95, 72: 96, 73: 97, 74: 86, 75: 92, 76: 93, 77: 94, 78: 87,
	79: 89, 80: 90, 81: 91, 82: 98, 83: 99, // keypad
	87: 68, 88: 69, // F11, F12
	96:  88,  // kp enter
	97:  228, // right ctrl
	98:  84,  // kp slash
	100: 230, // right alt
	102: 74,  // home
	103: 82,  // up
	104: 75,  // page up
	105: 80,  // left
	106: 79,  // right
	107: 77,  // end
	108: 81,  // down
	109: 78,  // page down
	110: 73,  // insert
	111: 76,  // delete
	113: 127, // mute
	114: 129, // volume down
	115: 128, // volume up
	119: 72,  // pause
	125: 227, // left meta
	126: 231, // right meta
}

// Modifier HID usage ids, named for the shortcut parser and the
// shortcut-config mapping, expressed directly as their HID usage ids
// (0xE0..0xE7) since hidstate derives the bitmask from the usage id.
const (
	UsageLeftCtrl   byte = 0xE0
	UsageLeftShift  byte = 0xE1
	UsageLeftAlt    byte = 0xE2
	UsageLeftMeta   byte = 0xE3
	UsageRightCtrl  byte = 0xE4
	UsageRightShift byte = 0xE5
	UsageRightAlt   byte = 0xE6
	UsageRightMeta  byte = 0xE7
)

// KeyNameToHID resolves the bare-key half of a shortcut string (the
// token after the last '+') to a HID usage id. Covers letters, digits,
// the function row and a handful of named keys — the set a shortcut is
// realistically bound to.
var KeyNameToHID = func() map[string]byte {
	m := map[string]byte{
		"ESC": 41, "ESCAPE": 41,
		"TAB": 43, "ENTER": 40, "RETURN": 40, "SPACE": 44,
		"BACKSPACE": 42, "DELETE": 76, "INSERT": 73,
		"HOME": 74, "END": 77, "PAGEUP": 75, "PAGEDOWN": 78,
		"UP": 82, "DOWN": 81, "LEFT": 80, "RIGHT": 79,
		"CAPSLOCK": 57,
	}
	for i := 0; i < 26; i++ {
		m[string(rune('A'+i))] = byte(4 + i)
	}
	m["0"] = 39
	for i := 1; i <= 9; i++ {
		m[string(rune('0'+i))] = byte(0x1e + i - 1)
	}
	for i := 1; i <= 12; i++ {
		var code byte
		if i <= 10 {
			code = byte(58 + i - 1)
		} else {
			code = byte(68 + i - 11)
		}
		m["F"+strconv.Itoa(i)] = code
	}
	return m
}()
