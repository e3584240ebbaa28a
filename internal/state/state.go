// Package state holds the process-wide shared mode/config handle: the
// single piece of memory actors touch outside message passing. Readers
// never block each other; a writer briefly excludes readers.
package state

import (
	"sync"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/config"
)

// Handle is the single source of truth for the current mode, plus
// read-only access to the immutable config loaded at startup. The
// shortcut processor is the only writer.
type Handle struct {
	mu   sync.RWMutex
	mode bus.Mode
	cfg  *config.Config
}

// New builds a handle starting in PassThrough.
func New(cfg *config.Config) *Handle {
	return &Handle{mode: bus.PassThrough, cfg: cfg}
}

// Mode returns the current mode under a read lock.
func (h *Handle) Mode() bus.Mode {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mode
}

// SetMode overwrites the current mode and returns the previous value.
func (h *Handle) SetMode(m bus.Mode) bus.Mode {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.mode
	h.mode = m
	return prev
}

// ToggleMode flips PassThrough<->InApp atomically and returns the new
// mode.
func (h *Handle) ToggleMode() bus.Mode {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = h.mode.Toggle()
	return h.mode
}

// Config returns the immutable configuration loaded at startup. The
// config value itself is never mutated after Load, so no lock is needed
// to read its fields; the pointer is only guarded here for symmetry and
// future-proofing against a config-reload feature.
func (h *Handle) Config() *config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}
