package qmk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// readDeadline mirrors the key scanner's bounded-read idiom so this
// actor's loop stays responsive to Exit/shutdown between firmware
// frames.
const readDeadline = 150 * time.Millisecond

// Actor is a thin, stateless pass-through: it has no processing logic
// of its own, existing only so the Monitoring topic has a real
// producer.
type Actor struct {
	name   string
	broker *bus.Broker
	log    logger.Logger

	path string
	dev  Device
}

// NewActor builds a QMK monitoring actor bound to the device at path.
// An empty path means no monitoring link is configured; Init then skips
// opening a device and Tick returns 0 on its first call, so it is never
// re-armed, the same idiom as the power
// manager's optional scripts.
func NewActor(name string, broker *bus.Broker, path string, log logger.Logger) *Actor {
	return &Actor{name: name, broker: broker, path: path, log: log}
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) Init(context.Context) error {
	if a.path == "" {
		return nil
	}
	dev, err := Open(a.path)
	if err != nil {
		return fmt.Errorf("qmk: open %s: %w", a.path, err)
	}
	a.dev = dev
	return nil
}

// Tick performs one bounded-deadline read and republishes whatever
// frame it produced, if any.
func (a *Actor) Tick(ctx context.Context) (time.Duration, error) {
	if a.dev == nil {
		return 0, nil
	}

	if err := a.dev.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		a.log.Debug("qmk %s: set read deadline: %v", a.name, err)
	}

	buf, err := a.dev.ReadFrame()
	if err != nil {
		if isTimeout(err) {
			return time.Millisecond, nil
		}
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("qmk %s: device disconnected: %w", a.name, err)
		}
		a.log.Warning("qmk %s: read error: %v", a.name, err)
		return readDeadline, nil
	}

	a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.NewQMKEvent(parseFrame(buf))))
	return time.Millisecond, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func (a *Actor) OnShutdown(_ context.Context) {
	if a.dev == nil {
		return
	}
	if err := a.dev.Close(); err != nil {
		a.log.Warning("qmk %s: close on shutdown: %v", a.name, err)
	}
}
