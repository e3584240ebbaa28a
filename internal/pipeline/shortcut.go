package pipeline

import (
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/state"
	"github.com/ddrcode/charon/internal/wol"
)

// ShortcutProcessor is the mandatory second stage: stateless with
// respect to key state, reads the configured shortcuts from the shared
// config and the shared mode on every HidReport.
type ShortcutProcessor struct {
	handle   *state.Handle
	requestStop func()
	log      logger.Logger
	mac      [6]byte
	hasMAC   bool
}

// NewShortcutProcessor builds the processor. requestStop is invoked
// each time the quit shortcut matches, to begin supervisor shutdown.
func NewShortcutProcessor(handle *state.Handle, requestStop func(), log logger.Logger) *ShortcutProcessor {
	p := &ShortcutProcessor{handle: handle, requestStop: requestStop, log: log}
	if macStr := handle.Config().HostMACAddress; macStr != "" {
		if mac, err := wol.ParseMAC(macStr); err == nil {
			p.mac = mac
			p.hasMAC = true
		} else {
			log.Warning("pipeline: invalid host_mac_address %q: %v", macStr, err)
		}
	}
	return p
}

var resetReport = bus.NewHidReport(bus.HidReport{})

// Process implements Processor. Non-HidReport events pass through
// unchanged; shortcut matches never reach the host regardless of mode.
func (p *ShortcutProcessor) Process(env bus.Envelope) []bus.Event {
	if env.Payload.Kind != bus.KindHidReport {
		return []bus.Event{env.Payload}
	}
	report := env.Payload.Report
	cfg := p.handle.Config()

	switch {
	case cfg.QuitShortcut.Matches(report):
		p.requestStop()
		return []bus.Event{resetReport}

	case cfg.ToggleModeShortcut.Matches(report):
		newMode := p.handle.ToggleMode()
		// The Key→Report processor's internal state is intentionally
		// left untouched here: only the output is reset via a zero
		// report. Physically-held modifiers across the toggle can
		// therefore produce one spurious report on the next press.
		return []bus.Event{bus.ModeChange(newMode), resetReport}

	case cfg.AwakeHostShortcut.Matches(report):
		if p.hasMAC {
			mac := p.mac
			go func() {
				if err := wol.Send(mac); err != nil {
					p.log.Warning("pipeline: wake-on-LAN send failed: %v", err)
				}
			}()
		} else {
			p.log.Warning("pipeline: awake-host shortcut pressed but no host_mac_address configured")
		}
		return []bus.Event{resetReport}

	default:
		if p.handle.Mode() == bus.PassThrough {
			return []bus.Event{env.Payload}
		}
		return nil
	}
}
