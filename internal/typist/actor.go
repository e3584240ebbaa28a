// Package typist synthesises HID reports from a character stream,
// injecting text one key at a time at a fixed inter-report delay:
// press-in-order, release-in-reverse-order per character, with
// delete-after-send only on normal completion.
package typist

import (
	"context"
	"os"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/keymap"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/state"
)

// Actor injects SendText/SendFile requests as HID reports, checking the
// shared mode before every report so a mode flip to PassThrough aborts
// the remaining sequence.
type Actor struct {
	name     string
	broker   *bus.Broker
	handle   *state.Handle
	km       *keymap.Keymap
	interval time.Duration
	log      logger.Logger
}

// NewActor builds a typist publishing through broker as name, looking
// up characters in km, spaced interval apart.
func NewActor(name string, broker *bus.Broker, handle *state.Handle, km *keymap.Keymap, interval time.Duration, log logger.Logger) *Actor {
	return &Actor{name: name, broker: broker, handle: handle, km: km, interval: interval, log: log}
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) HandleEvent(ctx context.Context, env bus.Envelope) error {
	switch env.Payload.Kind {
	case bus.KindSendText:
		a.sendText(ctx, env.ID, env.Payload.Text)
	case bus.KindSendFile:
		a.sendFile(ctx, env.ID, env.Payload.Path, env.Payload.DeleteAfter)
	}
	return nil
}

func (a *Actor) sendText(ctx context.Context, correlationID, text string) {
	if aborted := a.typeString(ctx, text); aborted {
		return
	}
	a.publishTextSent(ctx, correlationID)
}

func (a *Actor) publishTextSent(ctx context.Context, correlationID string) {
	env := bus.NewEnvelope(a.name, bus.TextSent())
	env.CorrelationID = correlationID
	a.broker.Publish(ctx, env)
}

func (a *Actor) sendFile(ctx context.Context, correlationID, path string, deleteAfter bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		a.log.Error("typist: read %s: %v", path, err)
		return
	}

	if aborted := a.typeString(ctx, string(data)); aborted {
		return
	}

	if deleteAfter {
		if err := os.Remove(path); err != nil {
			a.log.Warning("typist: delete %s after send: %v", path, err)
		}
	}

	a.publishTextSent(ctx, correlationID)
}

// typeString emits every character's report sequence, checking the
// shared mode before each report. It returns true if a mode flip to
// PassThrough aborted the sequence, in which case a final all-zero
// release report has been published if the last report sent held any
// key. It also returns true, publishing nothing more, when ctx is done.
func (a *Actor) typeString(ctx context.Context, s string) bool {
	var lastReport bus.HidReport

	for _, c := range s {
		seq, ok := a.km.Sequence(c)
		if !ok {
			a.log.Warning("typist: no keymap entry for %q, skipping", c)
			continue
		}

		for _, report := range seq {
			if a.handle.Mode() == bus.PassThrough {
				if lastReport != (bus.HidReport{}) {
					a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.NewHidReport(bus.HidReport{})))
				}
				return true
			}

			a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.NewHidReport(report)))
			lastReport = report

			select {
			case <-ctx.Done():
				return true
			case <-time.After(a.interval):
			}
		}
	}
	return false
}
