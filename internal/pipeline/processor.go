// Package pipeline implements the ordered processor chain that turns
// KeyInput events into KeyOutput events and intercepts system
// shortcuts.
package pipeline

import "github.com/ddrcode/charon/internal/bus"

// Processor is a function from an event to a sequence of output events
// (possibly empty, possibly expanded). A processor may also request the
// chain stop forwarding the original event (e.g. a shortcut match is
// never forwarded to the next stage).
type Processor interface {
	// Process handles one envelope and returns the events it wants to
	// emit in its place. Returning an empty slice suppresses the event.
	Process(env bus.Envelope) []bus.Event
}

// Chain runs an ordered list of processors: each output of one stage is
// fed into the next, and the tail's outputs are what the pipeline
// publishes.
type Chain struct {
	stages []Processor
}

// NewChain builds a chain from the mandatory processors in order:
// Key→Report, then System-shortcut.
func NewChain(stages ...Processor) *Chain {
	return &Chain{stages: stages}
}

// Run feeds one input envelope through every stage in order, returning
// the final stage's output events. An event that reduces to an empty
// slice at any stage propagates no further (the chain short-circuits
// rather than feeding a zero-length batch as a single "no event" marker
// into the next stage, since there would be nothing to feed).
func (c *Chain) Run(env bus.Envelope, sender string) []bus.Event {
	current := []bus.Envelope{env}
	for _, stage := range c.stages {
		var next []bus.Envelope
		for _, e := range current {
			outs := stage.Process(e)
			for _, out := range outs {
				// Downstream stages see a synthetic envelope carrying
				// the new payload under the chain's sender name, with
				// the ID and correlation id of the envelope that
				// produced it, so e.g. the key
				// writer's sender-switch-reset logic still sees a
				// single coherent producer per chain run.
				next = append(next, bus.Envelope{
					ID:            e.ID,
					TimestampNs:   e.TimestampNs,
					Sender:        sender,
					Payload:       out,
					CorrelationID: e.CorrelationID,
				})
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	events := make([]bus.Event, len(current))
	for i, e := range current {
		events[i] = e.Payload
	}
	return events
}
