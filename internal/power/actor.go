// Package power implements the idle-timer power manager: an inactivity
// deadline that runs a sleep script when crossed and an awake script on
// the next keypress. run_script is idempotent — a script only runs on
// an actual asleep/awake transition.
package power

import (
	"context"
	"os/exec"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// Actor tracks last-activity time and fires the configured sleep/awake
// scripts on transition.
type Actor struct {
	name   string
	broker *bus.Broker
	log    logger.Logger

	timeToSleep time.Duration
	sleepScript string
	awakeScript string

	lastActivity time.Time
	asleep       bool
}

// NewActor builds a power manager that sleeps after timeToSleep of
// inactivity, running sleepScript/awakeScript (either may be empty, in
// which case the corresponding transition never fires a script).
func NewActor(name string, broker *bus.Broker, timeToSleep time.Duration, sleepScript, awakeScript string, log logger.Logger) *Actor {
	return &Actor{
		name:        name,
		broker:      broker,
		log:         log,
		timeToSleep: timeToSleep,
		sleepScript: sleepScript,
		awakeScript: awakeScript,
	}
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) Init(context.Context) error {
	a.lastActivity = time.Now()
	return nil
}

// Tick fires time_to_sleep after the last activity: a periodic tick
// fires time_to_sleep - elapsed after the last activity.
func (a *Actor) Tick(ctx context.Context) (time.Duration, error) {
	elapsed := time.Since(a.lastActivity)
	if elapsed < a.timeToSleep {
		return a.timeToSleep - elapsed, nil
	}

	if !a.asleep && a.runScript(a.sleepScript, "sleep") {
		a.asleep = true
		a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.Sleep()))
	}
	return a.timeToSleep, nil
}

func (a *Actor) HandleEvent(ctx context.Context, env bus.Envelope) error {
	if env.Payload.Kind != bus.KindKeyPress {
		return nil
	}

	if a.asleep && a.runScript(a.awakeScript, "awake") {
		a.asleep = false
		a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.WakeUp()))
	}
	a.lastActivity = time.Now()
	return nil
}

// runScript executes path as a child process with no inherited stdio,
// returning true iff it exited zero. An empty path is a configured
// no-op transition.
func (a *Actor) runScript(path, label string) bool {
	if path == "" {
		return false
	}
	cmd := exec.Command(path)
	if err := cmd.Run(); err != nil {
		a.log.Warning("power: %s script failed: %v", label, err)
		return false
	}
	return true
}
