package bus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var (
	// ErrServiceUnavailable is returned when the destination has no owner
	// on the bus, or went away while a call was in flight.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTransport is returned for any other failure of the bus connection.
	ErrTransport = errors.New("bus transport failure")
)

// D-Bus error names that mean the peer is not (or no longer) there.
var unavailableErrorNames = map[string]bool{
	"org.freedesktop.DBus.Error.ServiceUnknown": true,
	"org.freedesktop.DBus.Error.NameHasNoOwner": true,
	"org.freedesktop.DBus.Error.UnknownObject":  true,
	"org.freedesktop.DBus.Error.UnknownMethod":  true,
	"org.freedesktop.DBus.Error.NoReply":        true,
}

// classify wraps err in ErrServiceUnavailable or ErrTransport.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrTransport) {
		return err
	}
	if unavailableErrorNames[errorName(err)] {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func errorName(err error) string {
	var e dbus.Error
	if errors.As(err, &e) {
		return e.Name
	}
	var pe *dbus.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Name
	}
	return ""
}
