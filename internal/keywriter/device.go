// Package keywriter owns the HID gadget character device and writes
// the 8-byte USB HID boot-protocol reports that reach the host, using
// the `os.OpenFile("/dev/hidg0", os.O_APPEND|os.O_WRONLY, 0600)` +
// `file.Write(report)` idiom and a send_report/reset pair.
package keywriter

import (
	"fmt"
	"os"

	"github.com/ddrcode/charon/internal/bus"
	"github.com/ddrcode/charon/internal/charonerr"
)

// Device is the single 8-byte-report sink a key writer owns; narrowed
// to an interface so tests can substitute an in-memory recorder.
type Device interface {
	WriteReport(r bus.HidReport) error
	Close() error
}

type gadgetDevice struct {
	f *os.File
}

// OpenGadget opens the HID gadget character device (typically
// /dev/hidg0) for append-only writes, matching the kernel's
// one-write-per-report contract.
func OpenGadget(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("keywriter: open %s: %w", path, charonerr.ErrDevice)
	}
	return &gadgetDevice{f: f}, nil
}

func (d *gadgetDevice) WriteReport(r bus.HidReport) error {
	_, err := d.f.Write(r[:])
	return err
}

func (d *gadgetDevice) Close() error { return d.f.Close() }
