// Package qmk implements the thin pass-through actor that reads
// fixed-size raw-HID frames from the embedded firmware's secondary link
// and republishes them on the Monitoring topic untouched. The
// firmware's raw-HID protocol is treated as an external contract: only
// the event shape it delivers is part of the daemon's surface, so this
// package does not interpret frame contents beyond exposing them as
// QMKEvent.
package qmk

import (
	"os"
	"time"
)

// frameSize matches QMK's raw HID report size
// (https://docs.qmk.fm/features/rawhid#basic-configuration).
const frameSize = 32

// Device abstracts the firmware's monitoring link so tests can supply a
// fake without a real hidraw character device.
type Device interface {
	ReadFrame() ([frameSize]byte, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// fileDevice is a Device backed by a character device path (typically
// /dev/hidrawN), grounded on rosmo-go-hidproxy's plain os.File idiom for
// talking to a fixed-report-size HID node.
type fileDevice struct {
	f *os.File
}

// Open opens path for reading raw firmware frames.
func Open(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &fileDevice{f: f}, nil
}

func (d *fileDevice) ReadFrame() ([frameSize]byte, error) {
	var buf [frameSize]byte
	_, err := d.f.Read(buf[:])
	return buf, err
}

func (d *fileDevice) SetReadDeadline(t time.Time) error {
	return d.f.SetReadDeadline(t)
}

func (d *fileDevice) Close() error {
	return d.f.Close()
}
