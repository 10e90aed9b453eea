package autopause

import (
	"github.com/dweymouth/autopause/backend/bus"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/mock"
)

const (
	spotifyBusName = "org.mpris.MediaPlayer2.spotify"
	spotifyOwner   = ":1.42"
	foreignSender  = ":1.77"
)

var spotify = Target{BusName: spotifyBusName, Identity: "Spotify"}

type mockCaller struct {
	mock.Mock
}

func (m *mockCaller) Call(dest string, path dbus.ObjectPath, method string, args ...any) error {
	ret := m.Called(dest, path, method)
	return ret.Error(0)
}

func (m *mockCaller) GetProperty(dest string, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	ret := m.Called(dest, path, iface, prop)
	return ret.Get(0).(dbus.Variant), ret.Error(1)
}

func (m *mockCaller) NameOwner(name string) (string, error) {
	ret := m.Called(name)
	return ret.String(0), ret.Error(1)
}

func (m *mockCaller) onNameOwner(owner string, err error) *mock.Call {
	return m.On("NameOwner", spotifyBusName).Return(owner, err)
}

func (m *mockCaller) onIdentity(sender, identity string) *mock.Call {
	return m.On("GetProperty", sender, MediaPlayerPath, MediaPlayerInterface, IdentityProperty).
		Return(dbus.MakeVariant(identity), nil)
}

func (m *mockCaller) onTargetStatus(status string) *mock.Call {
	return m.On("GetProperty", spotifyOwner, MediaPlayerPath, PlayerInterface, PlaybackStatusProperty).
		Return(dbus.MakeVariant(status), nil)
}

func (m *mockCaller) onTargetCall(method string, err error) *mock.Call {
	return m.On("Call", spotifyOwner, MediaPlayerPath, PlayerInterface+"."+method).Return(err)
}

func (m *mockCaller) targetCalls(method string) int {
	n := 0
	for _, c := range m.Calls {
		if c.Method == "Call" && c.Arguments.String(2) == PlayerInterface+"."+method {
			n++
		}
	}
	return n
}

func statusChange(status string) Properties {
	return Properties{PlaybackStatusProperty: dbus.MakeVariant(status)}
}

type recordingSubscriber struct {
	matches []string
	fail    error
}

func (r *recordingSubscriber) Subscribe(m bus.Match, _ bus.Handler) error {
	if r.fail != nil {
		return r.fail
	}
	r.matches = append(r.matches, m.Interface+"."+m.Member)
	return nil
}
