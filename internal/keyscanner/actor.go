package keyscanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ddrcode/charon/config"
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// readDeadline bounds each blocking ReadOne call so the actor loop stays
// responsive to ModeChange envelopes between kernel events, following a
// SetReadDeadline idiom.
const readDeadline = 150 * time.Millisecond

// deadliner is implemented by *evdev.InputDevice's underlying file; kept
// as a narrow interface so the fake device in tests need not support it.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Actor owns one evdev keyboard device end to end: kernel event
// translation and the grab/ungrab state machine.
type Actor struct {
	name   string
	broker *bus.Broker
	log    logger.Logger

	sel config.KeyboardSelector
	dev Device

	grabbed bool
	pressed map[uint16]struct{}

	pendingTarget bus.Mode
	hasPending    bool
}

// NewActor builds a key scanner bound to the device selected by sel. The
// device itself is opened in Init, not here, so construction never
// touches the filesystem.
func NewActor(name string, broker *bus.Broker, sel config.KeyboardSelector, log logger.Logger) *Actor {
	return &Actor{
		name:    name,
		broker:  broker,
		log:     log,
		sel:     sel,
		pressed: make(map[uint16]struct{}),
	}
}

func (a *Actor) Name() string { return a.name }

// Init opens and resolves the device, then grabs it immediately if the
// daemon starts in PassThrough.
func (a *Actor) Init(ctx context.Context) error {
	dev, err := Resolve(a.sel)
	if err != nil {
		return err
	}
	a.dev = dev
	a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.KeyboardAttached(dev.Name())))

	if startMode(ctx) == bus.PassThrough {
		a.applyGrab(bus.PassThrough)
	}
	return nil
}

// startMode is a seam kept for symmetry with the rest of the actor set;
// the key scanner always starts in PassThrough, so this is not
// currently configurable.
func startMode(_ context.Context) bus.Mode { return bus.PassThrough }

// Tick performs one bounded-deadline read attempt and translates
// whatever kernel event it produced, if any.
func (a *Actor) Tick(ctx context.Context) (time.Duration, error) {
	if dl, ok := a.dev.(deadliner); ok {
		_ = dl.SetReadDeadline(time.Now().Add(readDeadline))
	}

	ev, err := a.dev.ReadOne()
	if err != nil {
		if isTimeout(err) {
			return time.Millisecond, nil
		}
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("keyscanner %s: device disconnected: %w", a.name, err)
		}
		a.log.Warning("keyscanner %s: read error: %v", a.name, err)
		return readDeadline, nil
	}

	a.handleKernelEvent(ctx, ev)
	return time.Millisecond, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func (a *Actor) handleKernelEvent(ctx context.Context, ev KernelEvent) {
	switch ev.Type {
	case evTypeSyn, evTypeMsc:
		return
	case evTypeKey:
		// fallthrough to value dispatch below
	default:
		return
	}

	switch ev.Value {
	case 1, 2: // press, auto-repeat
		a.pressed[ev.Code] = struct{}{}
		a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.KeyPress(ev.Code, a.dev.Name())))
	case 0: // release
		delete(a.pressed, ev.Code)
		a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.KeyRelease(ev.Code, a.dev.Name())))
		a.maybeApplyPending(ctx)
	default:
		a.log.Warning("keyscanner %s: unhandled key event value %d", a.name, ev.Value)
	}
}

// maybeApplyPending applies a deferred grab/ungrab immediately after a
// release empties the pressed set.
func (a *Actor) maybeApplyPending(ctx context.Context) {
	if !a.hasPending || len(a.pressed) != 0 {
		return
	}
	target := a.pendingTarget
	a.hasPending = false
	a.applyGrab(target)
}

// HandleEvent reacts to ModeChange: apply the grab transition
// immediately if no keys are held, else defer it.
func (a *Actor) HandleEvent(_ context.Context, env bus.Envelope) error {
	if env.Payload.Kind != bus.KindModeChange {
		return nil
	}
	if len(a.pressed) == 0 {
		a.applyGrab(env.Payload.NewMode)
		a.hasPending = false
		return nil
	}
	a.pendingTarget = env.Payload.NewMode
	a.hasPending = true
	return nil
}

// applyGrab synchronously grabs (PassThrough) or releases (InApp) the
// device, logging but not failing on error — a grab failure leaves the
// flag off and is retried on the next mode transition.
func (a *Actor) applyGrab(m bus.Mode) {
	switch m {
	case bus.PassThrough:
		if a.grabbed {
			return
		}
		if err := a.dev.Grab(); err != nil {
			a.log.Error("keyscanner %s: grab failed: %v", a.name, err)
			return
		}
		a.grabbed = true
	case bus.InApp:
		if !a.grabbed {
			return
		}
		if err := a.dev.Release(); err != nil {
			a.log.Error("keyscanner %s: release failed: %v", a.name, err)
			return
		}
		a.grabbed = false
	}
}

// OnShutdown releases the grab whenever the device holds one, whatever
// mode change may still be pending, and closes the device so a blocked
// ReadOne unblocks.
func (a *Actor) OnShutdown(_ context.Context) {
	if a.dev == nil {
		return
	}
	if a.grabbed {
		if err := a.dev.Release(); err != nil {
			a.log.Warning("keyscanner %s: release on shutdown: %v", a.name, err)
		}
	}
	if err := a.dev.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		a.log.Warning("keyscanner %s: close on shutdown: %v", a.name, err)
	}
}
