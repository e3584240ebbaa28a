// Package ipc exposes the daemon's control and monitoring plane: a
// Unix-domain stream socket where each connection becomes a client
// session actor that forwards lines to and from the bus. The socket
// setup follows the usual Unix-socket idiom: MkdirAll 0700, stale-socket
// RemoveAll, Chmod 0600, accept loop with transient-error retry,
// stopOnce-guarded OnShutdown.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/state"
)

const idleTimeout = 30 * time.Second

// Session is the per-connection actor: it sends the current mode on
// connect, republishes every line it reads as an envelope, and forwards
// every envelope it is subscribed to back out as a line.
type Session struct {
	id     string
	conn   net.Conn
	broker *bus.Broker
	handle *state.Handle
	log    logger.Logger
}

func newSession(id string, conn net.Conn, broker *bus.Broker, handle *state.Handle, log logger.Logger) *Session {
	return &Session{id: id, conn: conn, broker: broker, handle: handle, log: log}
}

// Run drives the session until the socket closes or ctx is cancelled.
// It owns the connection: it closes it on return.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sub := s.broker.Subscribe(sctx, bus.System, bus.Stats, bus.Monitoring, bus.Keyboard)

	if err := s.writeLine(bus.NewEnvelope(s.id, bus.ModeChange(s.handle.Mode()))); err != nil {
		s.log.Debug("ipc session %s: initial write failed: %v", s.id, err)
		return
	}

	lines := make(chan string, 64)
	readErrs := make(chan error, 1)
	go s.readLoop(sctx, lines, readErrs)

	for {
		select {
		case <-ctx.Done():
			return

		case line, ok := <-lines:
			if !ok {
				return
			}
			s.handleLine(ctx, line)

		case err := <-readErrs:
			if err != nil && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("ipc session %s: read error: %v", s.id, err)
			}
			return

		case env := <-sub.Inbox:
			if err := s.writeLine(env); err != nil {
				s.log.Debug("ipc session %s: write error: %v", s.id, err)
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context, lines chan<- string, errs chan<- error) {
	reader := bufio.NewReader(s.conn)
	for {
		// No read deadline: sessions are long-lived and may sit idle
		// while only forwarding bus envelopes outward. Cancellation
		// unblocks this Read when the caller closes the connection.
		line, err := reader.ReadString('\n')
		if line != "" {
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case errs <- err:
			case <-ctx.Done():
			}
			close(lines)
			return
		}
	}
}

// handleLine parses one inbound line as an envelope and republishes it
// on the bus, preserving its original sender string. Unknown payload
// variants and malformed lines are dropped with a logged warning,
// never a disconnect.
func (s *Session) handleLine(ctx context.Context, line string) {
	var env bus.Envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		s.log.Warning("ipc session %s: dropping malformed line: %v", s.id, err)
		return
	}
	s.broker.Publish(ctx, env)
}

func (s *Session) writeLine(env bus.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ipc: marshal envelope: %w", err)
	}
	data = append(data, '\n')
	_ = s.conn.SetWriteDeadline(time.Now().Add(idleTimeout))
	_, err = s.conn.Write(data)
	return err
}
