// Package supervisor owns every actor's lifecycle: construction,
// registration, bounded-grace-period shutdown, and the per-keyboard-
// group fan-out over a fixed, known-in-advance actor registry.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ddrcode/charon/config"
	"github.com/ddrcode/charon/internal/actor"
	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/ipc"
	"github.com/ddrcode/charon/internal/keymap"
	"github.com/ddrcode/charon/internal/keywriter"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/pipeline"
	"github.com/ddrcode/charon/internal/power"
	"github.com/ddrcode/charon/internal/qmk"
	"github.com/ddrcode/charon/internal/state"
	"github.com/ddrcode/charon/internal/stats"
	"github.com/ddrcode/charon/internal/telemetry"
	"github.com/ddrcode/charon/internal/typist"
)

// shutdownGrace bounds how long Run waits for every actor to observe
// cancellation before giving up.
const shutdownGrace = 2 * time.Second

// telemetryPushInterval is how often the telemetry actor broadcasts a
// snapshot to connected clients when enabled.
const telemetryPushInterval = 2 * time.Second

// registration pairs one actor with the topics its inbox should
// receive and whether its failure should bring the whole daemon down.
type registration struct {
	actor     actor.Actor
	topics    []bus.Topic
	inboxSize int
	optional  bool
}

// Supervisor owns every actor plus the shared broker/state/config they
// coordinate through.
type Supervisor struct {
	cfg    *config.Config
	broker *bus.Broker
	handle *state.Handle
	log    logger.Logger

	gadget keywriter.Device

	regs []registration

	cancel   context.CancelFunc
	errOnce  sync.Once
	firstErr error
}

// New constructs every actor in the daemon and wires them to a fresh
// broker/shared-state handle. It fails only on a mandatory device or
// config problem.
func New(cfg *config.Config, log logger.Logger) (*Supervisor, error) {
	broker := bus.NewBroker(cfg.ChannelSize)
	handle := state.New(cfg)

	gadget, err := keywriter.OpenGadget(cfg.HidKeyboard)
	if err != nil {
		return nil, fmt.Errorf("supervisor: open hid gadget %s: %w", cfg.HidKeyboard, err)
	}

	s := &Supervisor{
		cfg:    cfg,
		broker: broker,
		handle: handle,
		log:    log,
		gadget: gadget,
	}

	km := loadKeymap(cfg, log)

	keyReport := pipeline.NewKeyReportProcessor(log)
	shortcut := pipeline.NewShortcutProcessor(handle, s.RequestShutdown, log)
	chain := pipeline.NewChain(keyReport, shortcut)
	pipelineActor := pipeline.NewActor("Pipeline", broker, chain)
	s.register(pipelineActor, 0, false, bus.KeyInput)

	keywriterActor := keywriter.NewActor("KeyWriter", gadget, broker, log)
	s.register(keywriterActor, 512, false, bus.KeyOutput, bus.System)

	typistActor := typist.NewActor("Typist", broker, handle, km,
		time.Duration(cfg.TypingInterval)*time.Millisecond, log)
	s.register(typistActor, 0, false, bus.TextInput)

	ipcServer := ipc.NewServer(cfg.ServerSocket, broker, handle, log)
	s.register(ipcServer, 0, false)

	statsActor := stats.NewActor("TypingStats", broker, cfg.StatsFile,
		uint64(cfg.StatsWPMSlotDuration), cfg.StatsWPMSlotCount, uint64(cfg.StatsSaveInterval), log)
	s.register(statsActor, 0, false, bus.KeyInput)

	powerActor := power.NewActor("PowerManager", broker,
		time.Duration(cfg.TimeToSleep)*time.Second, cfg.SleepScript, cfg.AwakeScript, log)
	s.register(powerActor, 0, false, bus.KeyInput)

	telemetryActor := telemetry.NewActor("Telemetry", cfg.TelemetryAddr, cfg.EnableTelemetry, telemetryPushInterval, log)
	s.register(telemetryActor, 0, false, bus.KeyOutput, bus.Telemetry)

	qmkActor := qmk.NewActor("QMK", broker, cfg.QMKDevicePath, log)
	s.register(qmkActor, 0, false)

	if err := s.spawnKeyboards(cfg, log); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Supervisor) register(a actor.Actor, inboxSize int, optional bool, topics ...bus.Topic) {
	s.regs = append(s.regs, registration{actor: a, topics: topics, inboxSize: inboxSize, optional: optional})
}

// loadKeymap builds the default US keymap and, if a custom one is
// configured, loads it on top with the default as its base. A load failure is logged
// and the default is used unchanged, since a broken custom keymap must
// not prevent the daemon from starting — only the key scanner/writer's
// device errors are fatal.
func loadKeymap(cfg *config.Config, log logger.Logger) *keymap.Keymap {
	base := keymap.DefaultUS()
	if cfg.KeymapsDir == "" || cfg.HostKeymap == "" || cfg.HostKeymap == "en_us" {
		return base
	}
	km, err := keymap.Load(cfg.KeymapsDir, cfg.HostKeymap, base)
	if err != nil {
		log.Warning("supervisor: load keymap %s/%s: %v, falling back to en_us", cfg.KeymapsDir, cfg.HostKeymap, err)
		return base
	}
	return km
}

// RequestShutdown begins graceful shutdown; safe to call from any
// actor's goroutine (the shortcut processor's quit-shortcut match and
// the signal handler in cmd/charon call it) and safe to call before Run, or more than
// once, since it is backed by context.CancelFunc's own idempotence.
func (s *Supervisor) RequestShutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Supervisor) recordErr(err error) {
	s.errOnce.Do(func() { s.firstErr = err })
}
