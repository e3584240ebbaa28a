package telemetry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ddrcode/charon/internal/logger"
)

// Connection-management constants adapted from websocket/server.go's
// WebSocketServer, narrowed to telemetry's much smaller, one-directional
// (server-to-client push only) traffic.
const (
	readBufferSize  = 512
	writeBufferSize = 4096
	pongWait        = 60 * time.Second
	pingInterval    = 20 * time.Second
	writeTimeout    = 5 * time.Second
)

// hub tracks connected telemetry clients and fans a snapshot out to all
// of them. Grounded on websocket/server.go's upgrader + mutex-guarded
// client set + per-connection ping goroutine, stripped of everything
// specific to bidirectional request/response framing since telemetry
// clients never send anything the daemon acts on.
type hub struct {
	log      logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(log logger.Logger) *hub {
	return &hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("telemetry: upgrade: %v", err)
		return
	}

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.log.Debug("telemetry: set read deadline: %v", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// A client never sends anything meaningful; this goroutine's only
	// job is to notice the connection closing so pongWait deadlines keep
	// advancing and the read error unregisters the client.
	go h.readUntilClosed(conn)
	go h.pingLoop(conn)
}

func (h *hub) readUntilClosed(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *hub) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
			return
		}
	}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// broadcast pushes payload (already JSON-marshalled) to every connected
// client, dropping any that fail to write (they will be cleaned up by
// their own readUntilClosed goroutine).
func (h *hub) broadcast(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			h.log.Debug("telemetry: set write deadline: %v", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("telemetry: write to client: %v", err)
		}
	}
}

func (h *hub) closeAll(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}
