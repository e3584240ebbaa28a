package stats

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// snapshot is the on-disk shape persisted to the stats file: `{ total, max_wpm }`.
type snapshot struct {
	Total  uint64 `json:"total"`
	MaxWPM uint16 `json:"max_wpm"`
}

// Actor maintains the lifetime keypress count and rolling WPM counter,
// publishing CurrentStats every WPM period and persisting a snapshot
// every save interval.
type Actor struct {
	name   string
	broker *bus.Broker
	log    logger.Logger

	wpm        *WPMCounter
	total      uint64
	statsFile  string
	wpmPeriod  time.Duration
	saveEvery  time.Duration
	nextWPM    time.Time
	nextSave   time.Time
}

// NewActor builds a typing-stats actor. wpmPeriodSecs/numSlots configure
// the rolling WPM window; saveIntervalSecs configures how often the
// snapshot file is rewritten.
func NewActor(name string, broker *bus.Broker, statsFile string, wpmPeriodSecs uint64, numSlots int, saveIntervalSecs uint64, log logger.Logger) *Actor {
	return &Actor{
		name:      name,
		broker:    broker,
		log:       log,
		wpm:       NewWPMCounter(wpmPeriodSecs, numSlots),
		statsFile: statsFile,
		wpmPeriod: time.Duration(wpmPeriodSecs) * time.Second,
		saveEvery: time.Duration(saveIntervalSecs) * time.Second,
	}
}

func (a *Actor) Name() string { return a.name }

// Init restores total/max_wpm from the snapshot file if present.
func (a *Actor) Init(context.Context) error {
	if s, ok := a.loadSnapshot(); ok {
		a.total = s.Total
		a.wpm.SetMaxWPM(s.MaxWPM)
	}
	now := time.Now()
	a.nextWPM = now.Add(a.wpmPeriod)
	a.nextSave = now.Add(a.saveEvery)
	return nil
}

func (a *Actor) loadSnapshot() (snapshot, bool) {
	data, err := os.ReadFile(a.statsFile)
	if err != nil {
		if !os.IsNotExist(err) {
			a.log.Warning("stats: read %s: %v", a.statsFile, err)
		}
		return snapshot{}, false
	}
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		a.log.Warning("stats: parse %s: %v", a.statsFile, err)
		return snapshot{}, false
	}
	return s, true
}

func (a *Actor) saveSnapshot() {
	s := snapshot{Total: a.total, MaxWPM: a.wpm.MaxWPM()}
	data, err := json.Marshal(s)
	if err != nil {
		a.log.Error("stats: marshal snapshot: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.statsFile), 0o700); err != nil {
		a.log.Error("stats: create stats directory: %v", err)
		return
	}
	if err := os.WriteFile(a.statsFile, data, 0o600); err != nil {
		a.log.Error("stats: write %s: %v", a.statsFile, err)
	}
}

func (a *Actor) HandleEvent(_ context.Context, env bus.Envelope) error {
	if env.Payload.Kind != bus.KindKeyPress {
		return nil
	}
	a.wpm.RegisterKey(env.Payload.EvdevCode)
	a.total++
	return nil
}

// Tick fires the next of {WPM rotation, snapshot save} whichever comes
// first, performing both if they coincide, and returns the duration
// until whichever is now soonest.
func (a *Actor) Tick(ctx context.Context) (time.Duration, error) {
	now := time.Now()

	if !now.Before(a.nextWPM) {
		wpm := a.wpm.Next()
		a.broker.Publish(ctx, bus.NewEnvelope(a.name, bus.NewCurrentStats(bus.CurrentStats{
			Total:  a.total,
			WPM:    wpm,
			MaxWPM: a.wpm.MaxWPM(),
		})))
		a.nextWPM = now.Add(a.wpmPeriod)
	}

	if !now.Before(a.nextSave) {
		a.saveSnapshot()
		a.nextSave = now.Add(a.saveEvery)
	}

	next := a.nextWPM.Sub(now)
	if d := a.nextSave.Sub(now); d < next {
		next = d
	}
	if next <= 0 {
		return time.Millisecond, nil
	}
	return next, nil
}

// OnShutdown persists a final snapshot so a restart resumes from an
// accurate total/max_wpm.
func (a *Actor) OnShutdown(context.Context) {
	a.saveSnapshot()
}
