// Package actor defines the small lifecycle contract shared by every
// concrete actor type and the cooperative runtime loop that drives it:
// a per-actor select loop awaiting {next envelope, next tick deadline,
// cancellation} with a stop-and-drain timer rearm, generalized into a
// reusable driver over a small capability set (handle_event, tick,
// on_shutdown, init) so each actor's task can hold the concrete type
// and avoid any ambient dynamic dispatch in the hot path.
package actor

import (
	"context"
	"time"

	"github.com/ddrcode/charon/internal/bus"
)

// Envelope is the unit of delivery handed to EventHandler.HandleEvent.
type Envelope = bus.Envelope

// Actor is the minimal identity every concrete actor must provide. The
// optional lifecycle hooks below are detected with type assertions
// rather than being part of this interface, so an actor that has no use
// for e.g. Tick need not implement it.
type Actor interface {
	Name() string
}

// Initializer actors run Init before the runtime starts delivering
// events or ticks to them. Init runs on the actor's own goroutine; the
// supervisor starts every actor at once and does not wait for any Init
// to return, so Init calls of different actors run concurrently and in
// no fixed order.
type Initializer interface {
	Init(ctx context.Context) error
}

// EventHandler actors process one envelope at a time, never
// re-entering themselves.
type EventHandler interface {
	HandleEvent(ctx context.Context, env Envelope) error
}

// Ticker actors integrate custom timers with the runtime loop. Tick is
// invoked once right after Init to obtain the first deadline, and again
// every time a previously returned deadline elapses. The returned
// duration is the time until the next desired tick; a non-positive
// duration disables ticking for the rest of the actor's run, since the
// runtime re-arms its timer only from Tick's own return value.
type Ticker interface {
	Tick(ctx context.Context) (next time.Duration, err error)
}

// Shutdowner actors run OnShutdown after the runtime loop exits, before
// the actor's goroutine returns.
type Shutdowner interface {
	OnShutdown(ctx context.Context)
}
