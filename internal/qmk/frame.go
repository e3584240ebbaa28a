package qmk

import (
	"encoding/binary"
	"fmt"

	"github.com/ddrcode/charon/internal/bus"
)

// Message id discriminators, byte 0 of every frame.
const (
	msgEcho        = 0x01
	msgLayerChange = 0x02
	msgKeyEvent    = 0x03
	msgModeChange  = 0x04
	msgToggleMode  = 0x05
)

// parseFrame decodes a raw firmware frame into the core's opaque
// QMKEvent shape. Charon only routes this payload — it stays opaque to
// the daemon apart from routing; Data is a human-readable rendering of
// the frame for whatever consumes the Monitoring topic, not a
// re-interpreted domain value.
func parseFrame(buf [frameSize]byte) bus.QMKEvent {
	switch buf[0] {
	case msgEcho:
		return bus.QMKEvent{Kind: "Echo", Data: fmt.Sprintf("% x", buf)}
	case msgLayerChange:
		return bus.QMKEvent{Kind: "LayerChange", Data: fmt.Sprintf("layer=%d", buf[1])}
	case msgKeyEvent:
		keycode := binary.LittleEndian.Uint16(buf[1:3])
		pressed := buf[3] == 1
		row, col := buf[4], buf[5]
		return bus.QMKEvent{
			Kind: "KeyEvent",
			Data: fmt.Sprintf("keycode=%d pressed=%t row=%d col=%d", keycode, pressed, row, col),
		}
	case msgModeChange:
		return bus.QMKEvent{Kind: "ModeChange", Data: fmt.Sprintf("mode=%d", buf[1])}
	case msgToggleMode:
		return bus.QMKEvent{Kind: "ToggleMode"}
	default:
		return bus.QMKEvent{Kind: "Unknown", Data: fmt.Sprintf("id=0x%02x", buf[0])}
	}
}
