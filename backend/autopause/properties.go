package autopause

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

const (
	MediaPlayerPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	MediaPlayerInterface = "org.mpris.MediaPlayer2"
	PlayerInterface      = "org.mpris.MediaPlayer2.Player"

	IdentityProperty       = "Identity"
	PlaybackStatusProperty = "PlaybackStatus"
)

var (
	ErrMalformedNotification = errors.New("malformed notification")

	ErrPropertyMissing = fmt.Errorf("%w: property missing", ErrMalformedNotification)
	ErrPropertyType    = fmt.Errorf("%w: unexpected property type", ErrMalformedNotification)
)

// Properties is the changed-properties map of a PropertiesChanged signal.
type Properties map[string]dbus.Variant

// String returns the named property as a string. A missing property yields
// ErrPropertyMissing, one of another type ErrPropertyType.
func (p Properties) String(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPropertyMissing, name)
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has signature %q", ErrPropertyType, name, v.Signature().String())
	}
	return s, nil
}

// PlaybackStatus returns the MPRIS PlaybackStatus property.
func (p Properties) PlaybackStatus() (types.PlaybackStatus, error) {
	s, err := p.String(PlaybackStatusProperty)
	if err != nil {
		return "", err
	}
	return types.PlaybackStatus(s), nil
}

func variantString(v dbus.Variant) (string, error) {
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("%w: got signature %q", ErrPropertyType, v.Signature().String())
	}
	return s, nil
}
