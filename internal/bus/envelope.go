package bus

import (
	"time"

	"github.com/google/uuid"
)

// Envelope is every message on the bus: a stable unique id, a wall-clock
// timestamp in nanoseconds, the producing actor's name, the payload, and
// an optional correlation id pointing at a causing envelope. Immutable
// after publication.
type Envelope struct {
	ID            string
	TimestampNs   int64
	Sender        string
	Payload       Event
	CorrelationID string // empty means "none"
}

// NewEnvelope stamps a fresh id and timestamp for a payload produced by
// sender.
func NewEnvelope(sender string, payload Event) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		TimestampNs: time.Now().UnixNano(),
		Sender:      sender,
		Payload:     payload,
	}
}

// Reply builds a new envelope from sender, correlated to this
// envelope's id — used by actors that emit a causally-linked follow-up
// (e.g. the key writer's ReportSent, the pipeline's KeyOutput events
// derived from a KeyInput envelope).
func (e Envelope) Reply(sender string, payload Event) Envelope {
	env := NewEnvelope(sender, payload)
	env.CorrelationID = e.ID
	return env
}

// Topic is a convenience accessor for EventTopic(e.Payload).
func (e Envelope) Topic() Topic {
	return EventTopic(e.Payload)
}
