package pipeline

import (
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/hidstate"
	"github.com/ddrcode/charon/internal/keymap"
	"github.com/ddrcode/charon/internal/logger"
)

// KeyReportProcessor is the mandatory, stateful first stage: it holds
// the current logical keyboard state and emits a fresh HidReport after
// every key event.
type KeyReportProcessor struct {
	state hidstate.State
	log   logger.Logger
}

func NewKeyReportProcessor(log logger.Logger) *KeyReportProcessor {
	return &KeyReportProcessor{log: log}
}

// Process implements Processor. Unknown evdev codes are logged and
// dropped; non-key events pass through unchanged.
func (p *KeyReportProcessor) Process(env bus.Envelope) []bus.Event {
	switch env.Payload.Kind {
	case bus.KindKeyPress:
		usage, ok := keymap.EvdevToHID[env.Payload.EvdevCode]
		if !ok {
			p.log.Warning("pipeline: no HID usage id for evdev code %d, dropping", env.Payload.EvdevCode)
			return nil
		}
		p.state.Press(byte(usage))
		return []bus.Event{bus.NewHidReport(p.state.Report())}

	case bus.KindKeyRelease:
		usage, ok := keymap.EvdevToHID[env.Payload.EvdevCode]
		if !ok {
			p.log.Warning("pipeline: no HID usage id for evdev code %d, dropping", env.Payload.EvdevCode)
			return nil
		}
		p.state.Release(byte(usage))
		return []bus.Event{bus.NewHidReport(p.state.Report())}

	default:
		return []bus.Event{env.Payload}
	}
}
