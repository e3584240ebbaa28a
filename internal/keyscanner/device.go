// Package keyscanner owns one evdev input device per physical
// keyboard: translating kernel key events into KeyPress/KeyRelease and
// running the grab/ungrab state machine that exclusively captures the
// device from the kernel while held.
package keyscanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/ddrcode/charon/config"
	"github.com/ddrcode/charon/internal/charonerr"
)

// KernelEvent is the subset of an evdev input_event the scanner cares
// about.
type KernelEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// evTypeKey, evTypeSyn and evTypeMsc mirror the Linux kernel's event
// type constants (linux/input.h) that the scanner must distinguish; the
// gvalkov/golang-evdev package exposes EV_KEY/EV_SYN/EV_MSC too, but we
// keep copies here so device.go has no hard dependency on which
// constant names a given version of the library exports.
const (
	evTypeSyn = 0
	evTypeKey = 1
	evTypeMsc = 4
)

// Device abstracts the single evdev device a scanner owns, so tests can
// substitute a fake without a real /dev/input node.
type Device interface {
	Grab() error
	Release() error
	ReadOne() (KernelEvent, error)
	Close() error
	Name() string
}

type evdevDevice struct {
	dev *evdev.InputDevice
}

func (d *evdevDevice) Grab() error    { return d.dev.Grab() }
func (d *evdevDevice) Release() error { return d.dev.Release() }
func (d *evdevDevice) Close() error   { return d.dev.File.Close() }
func (d *evdevDevice) Name() string   { return d.dev.Name }

// SetReadDeadline lets the actor bound each blocking ReadOne call; it
// makes *evdevDevice satisfy the deadliner interface in actor.go.
func (d *evdevDevice) SetReadDeadline(t time.Time) error {
	return d.dev.File.SetReadDeadline(t)
}

func (d *evdevDevice) ReadOne() (KernelEvent, error) {
	ev, err := d.dev.ReadOne()
	if err != nil {
		return KernelEvent{}, err
	}
	return KernelEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value}, nil
}

// Resolve opens the device named by sel, following this resolution
// order: explicit path -> direct; by-id name ->
// /dev/input/by-id/<name>; list of names -> first that exists; auto ->
// scan /dev/input/by-id/ for entries ending in "-event-kbd".
func Resolve(sel config.KeyboardSelector) (Device, error) {
	switch sel.Kind {
	case config.SelectorPath:
		return openPath(sel.Path)

	case config.SelectorName:
		return openPath(filepath.Join("/dev/input/by-id", sel.Name))

	case config.SelectorOneOf:
		for _, name := range sel.OneOf {
			path := filepath.Join("/dev/input/by-id", name)
			if _, err := os.Lstat(path); err == nil {
				return openPath(path)
			}
		}
		return nil, fmt.Errorf("keyscanner: none of the configured OneOf devices exist: %w", charonerr.ErrDevice)

	case config.SelectorAuto:
		entries, err := os.ReadDir("/dev/input/by-id")
		if err != nil {
			return nil, fmt.Errorf("keyscanner: scanning /dev/input/by-id: %w", charonerr.ErrDevice)
		}
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), "-event-kbd") {
				return openPath(filepath.Join("/dev/input/by-id", entry.Name()))
			}
		}
		return nil, fmt.Errorf("keyscanner: no *-event-kbd device found under /dev/input/by-id: %w", charonerr.ErrDevice)

	default:
		return nil, fmt.Errorf("keyscanner: unresolvable keyboard selector %v: %w", sel, charonerr.ErrDevice)
	}
}

func openPath(path string) (Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keyscanner: open %s: %w", path, charonerr.ErrDevice)
	}
	return &evdevDevice{dev: dev}, nil
}
