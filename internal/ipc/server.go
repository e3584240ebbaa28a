package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/logger"
	"github.com/ddrcode/charon/internal/state"
)

// Server listens on a Unix-domain stream socket and spawns one Session
// per accepted connection.
type Server struct {
	path     string
	broker   *bus.Broker
	handle   *state.Handle
	log      logger.Logger
	listener net.Listener

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer builds an IPC server bound to path, forwarding envelopes to
// and from broker and reporting handle's mode to newly-connected
// clients.
func NewServer(path string, broker *bus.Broker, handle *state.Handle, log logger.Logger) *Server {
	return &Server{path: path, broker: broker, handle: handle, log: log}
}

func (s *Server) Name() string { return "IPCServer" }

// Init binds the listening socket (default path /tmp/charon.sock):
// MkdirAll the parent directory, remove any stale socket file, then
// Chmod the new one to 0600.
func (s *Server) Init(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("ipc server requires a socket path")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ipc: create socket directory: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("ipc: remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("ipc: listen on %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("ipc: chmod socket: %w", err)
	}
	s.listener = ln

	go s.acceptLoop(ctx)
	s.log.Info("ipc: listening on %s", s.path)
	return nil
}

// HandleEvent exists only so the supervisor can register the server
// alongside every other actor; the server has no bus-driven behaviour
// of its own (every Session subscribes independently).
func (s *Server) HandleEvent(context.Context, bus.Envelope) error { return nil }

func (s *Server) acceptLoop(ctx context.Context) {
	nextID := 0
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if isTransientAcceptError(err) {
				s.log.Warning("ipc: transient accept error: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			s.log.Error("ipc: accept error: %v", err)
			return
		}

		nextID++
		id := fmt.Sprintf("IPCSession%d", nextID)
		sess := newSession(id, conn, s.broker, s.handle, s.log)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.Run(ctx)
		}()
	}
}

func isTransientAcceptError(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.EINTR)
}

// OnShutdown closes the listener and the socket file, then waits for
// every in-flight session to observe ctx cancellation and return.
func (s *Server) OnShutdown(ctx context.Context) {
	s.stopOnce.Do(func() {
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if s.path != "" {
			if err := os.RemoveAll(s.path); err != nil && !os.IsNotExist(err) {
				s.log.Debug("ipc: remove socket on shutdown: %v", err)
			}
		}
	})
	s.wg.Wait()
}
