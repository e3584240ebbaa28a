// Package charonerr defines the error kinds named in the daemon's
// propagation policy: configuration errors abort startup, device errors
// are fatal to the owning actor, protocol/serialisation/unsupported
// errors are logged and the actor continues.
package charonerr

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", ErrDevice) at the call
// site and use errors.Is to classify a returned error.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDevice        = errors.New("device error")
	ErrProtocol      = errors.New("protocol error")
	ErrSerialisation = errors.New("serialisation error")
	ErrUnsupported   = errors.New("unsupported")
)

// Fatal reports whether an error of this kind should terminate the
// actor that raised it (and, for the key scanner and key writer, the
// whole process).
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDevice)
}
