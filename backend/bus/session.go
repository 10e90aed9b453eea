// Package bus wraps the D-Bus session bus connection: signal subscription,
// synchronous method calls and property reads, and the single event loop
// that delivers signals to their handlers one at a time.
package bus

import (
	"context"
	"fmt"

	"github.com/dweymouth/autopause/backend/logging"
	"github.com/godbus/dbus/v5"
)

const (
	DBusName            = "org.freedesktop.DBus"
	DBusPath            = dbus.ObjectPath("/org/freedesktop/DBus")
	DBusInterface       = "org.freedesktop.DBus"
	PropertiesInterface = "org.freedesktop.DBus.Properties"

	NameOwnerChangedMember  = "NameOwnerChanged"
	NameLostMember          = "NameLost"
	PropertiesChangedMember = "PropertiesChanged"

	signalBufferSize = 64
	taskBufferSize   = 8
)

// Handler is called on the event loop for every signal matching its subscription.
type Handler func(ctx context.Context, sig *dbus.Signal)

// Match selects broadcast signals. Empty fields match anything.
type Match struct {
	Interface string
	Member    string
	Path      dbus.ObjectPath
	Sender    string
	Arg0      string
}

func (m Match) key() string {
	return m.Interface + "." + m.Member
}

func (m Match) options() []dbus.MatchOption {
	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(m.Interface),
		dbus.WithMatchMember(m.Member),
	}
	if m.Path != "" {
		opts = append(opts, dbus.WithMatchObjectPath(m.Path))
	}
	if m.Sender != "" {
		opts = append(opts, dbus.WithMatchSender(m.Sender))
	}
	if m.Arg0 != "" {
		opts = append(opts, dbus.WithMatchArg(0, m.Arg0))
	}
	return opts
}

// Session is a connection to the session bus plus the dispatch table of its event loop.
// Subscribe must be called before Run; handlers and posted tasks only ever
// run on the goroutine executing Run.
type Session struct {
	conn     *dbus.Conn
	signals  chan *dbus.Signal
	tasks    chan func(context.Context)
	handlers map[string][]Handler
}

var _ Caller = (*Session)(nil)

func newSession(conn *dbus.Conn) *Session {
	return &Session{
		conn:     conn,
		signals:  make(chan *dbus.Signal, signalBufferSize),
		tasks:    make(chan func(context.Context), taskBufferSize),
		handlers: make(map[string][]Handler),
	}
}

// Connect opens a connection to the session bus.
func Connect(ctx context.Context) (*Session, error) {
	log := logging.FromContext(ctx)

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connect session bus: %w", ErrTransport, err)
	}

	s := newSession(conn)
	conn.Signal(s.signals)
	log.Debug().Strs("names", conn.Names()).Msg("bus: connected to session bus")
	return s, nil
}

// Subscribe adds a match rule on the bus and registers h for signals matching it.
func (s *Session) Subscribe(m Match, h Handler) error {
	if err := s.conn.AddMatchSignal(m.options()...); err != nil {
		return classify(err)
	}
	s.register(m, h)
	return nil
}

func (s *Session) register(m Match, h Handler) {
	k := m.key()
	s.handlers[k] = append(s.handlers[k], h)
}

// Call invokes a method and waits for the reply.
func (s *Session) Call(dest string, path dbus.ObjectPath, method string, args ...any) error {
	return classify(s.conn.Object(dest, path).Call(method, 0, args...).Err)
}

// GetProperty reads iface.prop through org.freedesktop.DBus.Properties.Get.
func (s *Session) GetProperty(dest string, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	v, err := s.conn.Object(dest, path).GetProperty(iface + "." + prop)
	return v, classify(err)
}

// NameOwner returns the unique connection name currently owning a well-known name.
func (s *Session) NameOwner(name string) (string, error) {
	var owner string
	err := s.conn.BusObject().Call(DBusInterface+".GetNameOwner", 0, name).Store(&owner)
	if err != nil {
		return "", classify(err)
	}
	return owner, nil
}

// Post queues task to run on the event loop between signals.
// It returns false if ctx ends before the task could be queued.
func (s *Session) Post(ctx context.Context, task func(context.Context)) bool {
	select {
	case s.tasks <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run is the event loop. It handles one signal or task at a time, in arrival order,
// until ctx is cancelled or the connection drops.
func (s *Session) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	log.Debug().Int("subscriptions", len(s.handlers)).Msg("bus: event loop started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("bus: event loop stopped")
			return nil
		case task := <-s.tasks:
			task(ctx)
		case sig, ok := <-s.signals:
			if !ok {
				return fmt.Errorf("%w: signal channel closed", ErrTransport)
			}
			s.dispatch(ctx, sig)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, sig *dbus.Signal) {
	if sig == nil {
		return
	}
	for _, h := range s.handlers[sig.Name] {
		h(ctx, sig)
	}
}

// Close releases the bus connection.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	s.conn.RemoveSignal(s.signals)
	err := s.conn.Close()
	s.conn = nil
	return err
}
