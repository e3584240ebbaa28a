package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// Run drives a single actor until ctx is cancelled or its inbox closes.
// It performs Init (if any), then loops awaiting whichever of {next
// envelope, next tick deadline, cancellation} is ready, dispatching to
// HandleEvent or Tick, and finally runs OnShutdown (if any) before
// returning.
//
// A HandleEvent error is logged and the actor continues, but a Tick
// error is fatal: it terminates the loop and is returned to the
// caller, exactly like an Init error or a recovered panic, so the
// supervisor can record the death and halt the rest of the system — a
// key-interception process must fail fast rather than leave the device
// in a grabbed state.
func Run(ctx context.Context, log logger.Logger, a Actor, sub *bus.Subscription) (err error) {
	name := a.Name()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("actor %s panicked: %v", name, r)
		}
		if s, ok := a.(Shutdowner); ok {
			s.OnShutdown(ctx)
		}
	}()

	if init, ok := a.(Initializer); ok {
		if ierr := init.Init(ctx); ierr != nil {
			return fmt.Errorf("actor %s: init: %w", name, ierr)
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	rearm := func(d time.Duration) {
		if timer != nil {
			timer.Stop()
			select {
			case <-timer.C:
			default:
			}
		}
		if d <= 0 {
			timer = nil
			timerC = nil
			return
		}
		timer = time.NewTimer(d)
		timerC = timer.C
	}

	ticker, hasTicker := a.(Ticker)
	if hasTicker {
		d, terr := ticker.Tick(ctx)
		if terr != nil {
			return fmt.Errorf("actor %s: initial tick: %w", name, terr)
		}
		rearm(d)
	}

	handler, hasHandler := a.(EventHandler)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case env, ok := <-sub.Inbox:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return nil
			}
			if hasHandler {
				if herr := handler.HandleEvent(ctx, env); herr != nil {
					log.Warning("actor %s: handle_event: %v", name, herr)
				}
			}

		case <-timerC:
			if hasTicker {
				d, terr := ticker.Tick(ctx)
				if terr != nil {
					return fmt.Errorf("actor %s: tick: %w", name, terr)
				}
				rearm(d)
			}
		}
	}
}
