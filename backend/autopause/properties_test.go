package autopause

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties_PlaybackStatus(t *testing.T) {
	status, err := statusChange("Playing").PlaybackStatus()
	require.NoError(t, err)
	assert.Equal(t, types.PlaybackStatusPlaying, status)
}

func TestProperties_MissingVersusWrongType(t *testing.T) {
	props := Properties{
		"Volume":               dbus.MakeVariant(0.5),
		PlaybackStatusProperty: dbus.MakeVariant(int32(1)),
	}

	_, err := props.String("Metadata")
	assert.ErrorIs(t, err, ErrPropertyMissing)
	assert.NotErrorIs(t, err, ErrPropertyType)
	assert.ErrorIs(t, err, ErrMalformedNotification)

	_, err = props.PlaybackStatus()
	assert.ErrorIs(t, err, ErrPropertyType)
	assert.NotErrorIs(t, err, ErrPropertyMissing)
	assert.ErrorIs(t, err, ErrMalformedNotification)
}

func TestProperties_NilMap(t *testing.T) {
	var props Properties
	_, err := props.PlaybackStatus()
	assert.ErrorIs(t, err, ErrPropertyMissing)
}

func TestVariantString(t *testing.T) {
	s, err := variantString(dbus.MakeVariant("Spotify"))
	require.NoError(t, err)
	assert.Equal(t, "Spotify", s)

	_, err = variantString(dbus.Variant{})
	assert.ErrorIs(t, err, ErrPropertyType)
}
