// Package telemetry implements the optional periodic metrics push: a
// press-to-sink latency histogram plus a lifetime report counter,
// pushed over a websocket to any subscribed dashboard client. The
// daemon only produces this feed; the dashboard that consumes it is an
// external collaborator whose contract is the JSON shape pushed by
// Snapshot.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
)

// Actor aggregates ReportSent latency and pushes a snapshot to every
// connected client once per pushInterval. It is a no-op beyond counting
// while enabled is false, so the supervisor can register it
// unconditionally; enable_telemetry gates behaviour, not wiring.
type Actor struct {
	name   string
	log    logger.Logger
	addr   string
	enabled bool

	pushInterval time.Duration

	hub      *hub
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	hist    *Histogram
	total   *Counter
	pending map[string]time.Time // envelope id -> KeyOutput publish time
}

// pendingTTL bounds how long an unmatched KeyOutput publish is kept in
// the pending map, so a report that is dropped before reaching the key
// writer (e.g. mode flipped mid-flight) cannot leak memory forever.
const pendingTTL = 5 * time.Second

// NewActor builds a telemetry actor. When enabled is false, Init skips
// starting the HTTP listener entirely.
func NewActor(name string, addr string, enabled bool, pushInterval time.Duration, log logger.Logger) *Actor {
	return &Actor{
		name:         name,
		log:          log,
		addr:         addr,
		enabled:      enabled,
		pushInterval: pushInterval,
		hist:         NewHistogram(),
		total:        NewCounter(),
		pending:      make(map[string]time.Time),
	}
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) Init(context.Context) error {
	if !a.enabled {
		return nil
	}

	a.hub = newHub(a.log)
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", a.hub.handle)
	a.server = &http.Server{Addr: a.addr, Handler: mux}

	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("telemetry: listen %s: %w", a.addr, err)
	}
	a.listener = ln
	go func() {
		if err := a.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.log.Error("telemetry: serve: %v", err)
		}
	}()
	a.log.Info("telemetry: listening on %s", ln.Addr())
	return nil
}

// Addr returns the actual listening address, useful when addr was
// configured as "host:0" and the kernel assigned an ephemeral port.
// Returns "" before Init or when telemetry is disabled.
func (a *Actor) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// HandleEvent watches both ends of a press-to-sink round trip: a
// HidReport's own envelope marks the start, and the key writer's
// ReportSent carries the same id as CorrelationID marking the end,
// since every emitted event carries a fresh envelope id that later
// ties a report back to the press that produced it.
func (a *Actor) HandleEvent(_ context.Context, env bus.Envelope) error {
	switch env.Payload.Kind {
	case bus.KindHidReport:
		a.mu.Lock()
		a.pending[env.ID] = time.Now()
		a.mu.Unlock()

	case bus.KindReportSent:
		a.mu.Lock()
		a.total.Inc()
		if start, ok := a.pending[env.CorrelationID]; ok {
			delete(a.pending, env.CorrelationID)
			a.hist.Observe(time.Since(start))
		}
		a.mu.Unlock()
	}
	return nil
}

// Tick fires every pushInterval: it broadcasts the current snapshot to
// connected clients and reaps stale pending entries. When telemetry is
// disabled it returns a non-positive duration so the runtime never
// re-arms it.
func (a *Actor) Tick(context.Context) (time.Duration, error) {
	if !a.enabled {
		return 0, nil
	}

	a.mu.Lock()
	now := time.Now()
	for id, t := range a.pending {
		if now.Sub(t) > pendingTTL {
			delete(a.pending, id)
		}
	}
	snap := struct {
		Total   uint64   `json:"total_reports"`
		Latency Snapshot `json:"latency_us"`
	}{Total: a.total.Value(), Latency: a.hist.Snapshot()}
	a.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return a.pushInterval, fmt.Errorf("telemetry: marshal snapshot: %w", err)
	}
	a.hub.broadcast(data)
	return a.pushInterval, nil
}

func (a *Actor) OnShutdown(ctx context.Context) {
	if !a.enabled {
		return
	}
	if a.hub != nil {
		a.hub.closeAll(ctx)
	}
	if a.server != nil {
		_ = a.server.Close()
	}
}
