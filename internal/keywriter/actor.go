package keywriter

import (
	"context"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// Actor is the sole writer of the HID gadget device. It must subscribe
// with a generously-sized inbox (>= 512) since it is the single point
// every producer of HidReport funnels through.
type Actor struct {
	name   string
	dev    Device
	broker *bus.Broker
	log    logger.Logger

	prevSender string
	haveSender bool
}

// NewActor builds a key writer over an already-open device.
func NewActor(name string, dev Device, broker *bus.Broker, log logger.Logger) *Actor {
	return &Actor{name: name, dev: dev, broker: broker, log: log}
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) HandleEvent(ctx context.Context, env bus.Envelope) error {
	switch env.Payload.Kind {
	case bus.KindHidReport:
		a.send(ctx, env, env.Payload.Report)
	case bus.KindModeChange:
		a.reset()
	}
	return nil
}

// send applies the sender-switch-reset rule: a reset report is written
// first whenever the producing actor changes, so a modifier left held
// by the previous sender cannot bleed into the new one. A successful
// write of the caller's own report (not the reset that may precede it)
// is announced as ReportSent, correlated back to the envelope that
// carried it, so the telemetry actor can measure press-to-sink latency.
func (a *Actor) send(ctx context.Context, cause bus.Envelope, report bus.HidReport) {
	if !a.haveSender || a.prevSender != cause.Sender {
		a.reset()
		a.prevSender = cause.Sender
		a.haveSender = true
	}
	if err := a.dev.WriteReport(report); err != nil {
		a.log.Error("keywriter: write report: %v", err)
		return
	}
	if a.broker == nil {
		return
	}
	a.broker.Publish(ctx, cause.Reply(a.name, bus.ReportSent()))
}

func (a *Actor) reset() {
	if err := a.dev.WriteReport(bus.HidReport{}); err != nil {
		a.log.Error("keywriter: write reset report: %v", err)
	}
}

// OnShutdown writes a final reset report so the host never sees a
// stuck key after the daemon exits.
func (a *Actor) OnShutdown(_ context.Context) {
	a.reset()
}
