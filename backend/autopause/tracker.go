package autopause

import (
	"context"
	"errors"

	"github.com/dweymouth/autopause/backend/bus"
	"github.com/dweymouth/autopause/backend/logging"
	"github.com/godbus/dbus/v5"
)

// Target identifies the player that gets paused and resumed.
type Target struct {
	// Well-known bus name, e.g. org.mpris.MediaPlayer2.spotify
	BusName string
	// Value of the org.mpris.MediaPlayer2 Identity property.
	Identity string
}

// TargetHandle holds the target's control and properties interfaces,
// bound to the unique connection name that owned the target's bus name
// when it was probed.
type TargetHandle struct {
	Owner      string
	Player     *bus.Object
	Properties *bus.PropertiesObject
}

// Subscriber registers signal handlers on the bus event loop.
type Subscriber interface {
	Subscribe(m bus.Match, h bus.Handler) error
}

// Tracker follows the ownership of the target's bus name.
// The target is considered running exactly when a handle is bound.
// Not safe for concurrent use; all methods are called from the event loop.
type Tracker struct {
	caller bus.Caller
	target Target
	handle *TargetHandle
}

// NewTracker returns a tracker for target. Call Probe to bind it.
func NewTracker(caller bus.Caller, target Target) *Tracker {
	return &Tracker{caller: caller, target: target}
}

// Target returns the player currently being tracked.
func (t *Tracker) Target() Target {
	return t.target
}

// Running reports whether the target currently owns its bus name.
func (t *Tracker) Running() bool {
	return t.handle != nil
}

// Handle returns the bound target handle, or nil if the target is not running.
func (t *Tracker) Handle() *TargetHandle {
	return t.handle
}

// Probe binds the target handle to the current owner of the target's bus name.
// A target that is not running is an expected condition and only cleared, not reported.
func (t *Tracker) Probe(ctx context.Context) {
	log := logging.FromContext(ctx)

	owner, err := t.caller.NameOwner(t.target.BusName)
	if err != nil {
		t.handle = nil
		if errors.Is(err, bus.ErrServiceUnavailable) {
			log.Info().Str("name", t.target.BusName).Msg("tracker: target not running")
		} else {
			log.Warn().Err(err).Str("name", t.target.BusName).Msg("tracker: failed to probe target")
		}
		return
	}

	t.handle = &TargetHandle{
		Owner:      owner,
		Player:     bus.NewObject(t.caller, owner, MediaPlayerPath, PlayerInterface),
		Properties: bus.NewPropertiesObject(t.caller, owner, MediaPlayerPath),
	}
	log.Info().Str("name", t.target.BusName).Str("owner", owner).Msg("tracker: target running")
}

// OnNameOwnerChanged re-probes whenever the target's bus name changes hands,
// which covers the target starting, restarting and exiting.
func (t *Tracker) OnNameOwnerChanged(ctx context.Context, name, oldOwner, newOwner string) {
	if name != t.target.BusName {
		return
	}
	log := logging.FromContext(ctx)
	switch {
	case newOwner == "":
		log.Info().Str("old_owner", oldOwner).Msg("tracker: target exited")
	case oldOwner == "":
		log.Info().Str("new_owner", newOwner).Msg("tracker: target started")
	default:
		log.Info().Str("old_owner", oldOwner).Str("new_owner", newOwner).Msg("tracker: target changed owner")
	}
	t.Probe(ctx)
}

// OnNameLost drops the target handle. Safe to call when nothing is bound.
func (t *Tracker) OnNameLost(ctx context.Context, name string) {
	if name != t.target.BusName {
		return
	}
	logging.FromContext(ctx).Info().Str("name", name).Msg("tracker: target exited")
	t.handle = nil
}

// Retarget switches to a different target player and probes for it.
func (t *Tracker) Retarget(ctx context.Context, target Target) {
	logging.FromContext(ctx).Info().
		Str("name", target.BusName).
		Str("identity", target.Identity).
		Msg("tracker: switching target")
	t.target = target
	t.handle = nil
	t.Probe(ctx)
}

// Subscribe registers the tracker's handlers for the bus's name ownership signals.
func (t *Tracker) Subscribe(s Subscriber) error {
	if err := s.Subscribe(bus.Match{
		Interface: bus.DBusInterface,
		Member:    bus.NameOwnerChangedMember,
		Path:      bus.DBusPath,
		Sender:    bus.DBusName,
	}, t.handleNameOwnerChanged); err != nil {
		return err
	}
	return s.Subscribe(bus.Match{
		Interface: bus.DBusInterface,
		Member:    bus.NameLostMember,
		Path:      bus.DBusPath,
		Sender:    bus.DBusName,
	}, t.handleNameLost)
}

func (t *Tracker) handleNameOwnerChanged(ctx context.Context, sig *dbus.Signal) {
	var name, oldOwner, newOwner string
	if err := dbus.Store(sig.Body, &name, &oldOwner, &newOwner); err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("tracker: malformed NameOwnerChanged")
		return
	}
	t.OnNameOwnerChanged(ctx, name, oldOwner, newOwner)
}

func (t *Tracker) handleNameLost(ctx context.Context, sig *dbus.Signal) {
	var name string
	if err := dbus.Store(sig.Body, &name); err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("tracker: malformed NameLost")
		return
	}
	t.OnNameLost(ctx, name)
}
