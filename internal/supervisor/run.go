package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/ddrcode/charon/internal/actor"
	"github.com/ddrcode/charon/internal/bus"
)

// Run drives every registered actor until parent is cancelled, a quit
// shortcut calls RequestShutdown, or a non-optional actor fails. It
// blocks until every actor has observed cancellation or shutdownGrace
// elapses, whichever comes first, then closes the HID gadget device
// and returns the first fatal actor error, if any.
func (s *Supervisor) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	defer cancel()

	var wg sync.WaitGroup
	for _, r := range s.regs {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runOne(ctx, cancel, r)
		}()
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		s.log.Warning("supervisor: shutdown grace period (%s) elapsed; some actors may not have stopped cleanly", shutdownGrace)
	}

	if err := s.gadget.Close(); err != nil {
		s.log.Warning("supervisor: close hid gadget: %v", err)
	}

	return s.firstErr
}

// subscribe registers r's inbox with the broker, using its configured
// inboxSize if any (the key writer needs a generous one to absorb
// bursts without blocking its publisher).
func (s *Supervisor) subscribe(ctx context.Context, r registration) *bus.Subscription {
	if r.inboxSize > 0 {
		return s.broker.SubscribeBuffered(ctx, r.inboxSize, r.topics...)
	}
	return s.broker.Subscribe(ctx, r.topics...)
}

func (s *Supervisor) runOne(ctx context.Context, cancel context.CancelFunc, r registration) {
	sub := s.subscribe(ctx, r)
	if err := actor.Run(ctx, s.log, r.actor, sub); err != nil {
		if r.optional {
			s.log.Warning("supervisor: optional actor %s stopped: %v", r.actor.Name(), err)
			return
		}
		s.log.Error("supervisor: actor %s failed: %v", r.actor.Name(), err)
		s.recordErr(err)
		cancel()
	}
}
