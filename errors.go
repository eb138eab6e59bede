package seriallink

import (
	"errors"
	"fmt"
)

// Error kinds reported by a Link. Every failure recorded in LastError
// matches exactly one of them with errors.Is.
var (
	ErrNotOpen               = errors.New("link is not open")
	ErrConfigurationRejected = errors.New("configuration rejected")
	ErrTransportFailure      = errors.New("transport failure")
)

// Predefined transport errors
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrReadOnly         = errors.New("serial port is open read-only")
	ErrUnsupported      = errors.New("setting not supported by transport")
)

// LinkError describes a failed link operation.
type LinkError struct {
	Port  string // port name at the time of the failure
	Op    string // operation or setting, e.g. "open", "set baud rate"
	Value string // attempted value, empty when not applicable
	Kind  error  // one of ErrNotOpen, ErrConfigurationRejected, ErrTransportFailure
	Err   error  // underlying transport error, may be nil
}

func (e *LinkError) Error() string {
	var msg string
	if e.Port != "" {
		msg = e.Port + ": "
	}
	switch {
	case e.Kind == ErrNotOpen:
		msg += "port is not open"
	case e.Value != "":
		msg += fmt.Sprintf("failed to %s: %s", e.Op, e.Value)
	default:
		msg += "failed to " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the transport cause to errors.Is.
func (e *LinkError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
