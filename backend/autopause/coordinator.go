// Package autopause pauses a target media player while any other MPRIS player
// is playing, and resumes it afterwards if it was playing when it got paused.
package autopause

import (
	"context"

	"github.com/dweymouth/autopause/backend/bus"
	"github.com/dweymouth/autopause/backend/logging"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

// Coordinator reacts to PropertiesChanged signals from every media player on the bus.
// Not safe for concurrent use; all methods are called from the event loop.
type Coordinator struct {
	caller  bus.Caller
	tracker *Tracker

	// whether the target was playing when it was last paused by us
	wasPlaying bool
}

// NewCoordinator returns a coordinator acting on the target tracked by tracker.
func NewCoordinator(caller bus.Caller, tracker *Tracker) *Coordinator {
	return &Coordinator{caller: caller, tracker: tracker}
}

// WasPlaying reports whether the last pause issued by the coordinator
// interrupted actual playback.
func (c *Coordinator) WasPlaying() bool {
	return c.wasPlaying
}

// Reset forgets whether the target was playing.
func (c *Coordinator) Reset() {
	c.wasPlaying = false
}

// OnPropertiesChanged handles a property change broadcast by sender.
func (c *Coordinator) OnPropertiesChanged(ctx context.Context, sender, iface string, changed Properties) {
	log := logging.FromContext(ctx)

	if !c.tracker.Running() {
		log.Debug().Msg("coordinator: nothing to do, target is not running")
		return
	}

	status, err := changed.PlaybackStatus()
	if err != nil {
		log.Debug().Err(err).Str("sender", sender).Str("interface", iface).Msg("coordinator: ignoring properties change")
		return
	}

	log.Debug().
		Str("sender", sender).
		Str("interface", iface).
		Str("playback_status", string(status)).
		Msg("coordinator: properties changed")

	// Stopped is let through on purpose: a foreign stop resumes the target just like a pause.
	switch status {
	case types.PlaybackStatusPlaying, types.PlaybackStatusPaused, types.PlaybackStatusStopped:
	default:
		return
	}

	isTarget, err := c.isTarget(sender)
	if err != nil {
		log.Warn().Err(err).Str("sender", sender).Msg("coordinator: failed to resolve sender identity")
		return
	}
	if isTarget {
		log.Debug().Str("sender", sender).Msg("coordinator: ignoring change from target")
		return
	}

	c.Decide(ctx, status)
}

// isTarget reports whether sender is the target player itself.
func (c *Coordinator) isTarget(sender string) (bool, error) {
	if h := c.tracker.Handle(); h != nil && h.Owner == sender {
		return true, nil
	}
	v, err := c.caller.GetProperty(sender, MediaPlayerPath, MediaPlayerInterface, IdentityProperty)
	if err != nil {
		return false, err
	}
	identity, err := variantString(v)
	if err != nil {
		return false, err
	}
	return identity == c.tracker.Target().Identity, nil
}

// Decide pauses or resumes the target in response to a foreign player's status.
func (c *Coordinator) Decide(ctx context.Context, foreign types.PlaybackStatus) {
	log := logging.FromContext(ctx)

	h := c.tracker.Handle()
	if h == nil {
		return
	}

	switch {
	case foreign == types.PlaybackStatusPlaying:
		v, err := h.Properties.Get(PlayerInterface, PlaybackStatusProperty)
		if err != nil {
			log.Warn().Err(err).Msg("coordinator: failed to read target playback status")
			return
		}
		current, err := variantString(v)
		if err != nil {
			log.Warn().Err(err).Msg("coordinator: failed to read target playback status")
			return
		}
		wasPlaying := types.PlaybackStatus(current) == types.PlaybackStatusPlaying

		log.Info().Bool("was_playing", wasPlaying).Msg("coordinator: pausing target")
		if err := h.Player.Call("Pause"); err != nil {
			log.Warn().Err(err).Msg("coordinator: failed to pause target")
			return
		}
		c.wasPlaying = wasPlaying

	case c.wasPlaying && (foreign == types.PlaybackStatusPaused || foreign == types.PlaybackStatusStopped):
		log.Info().Msg("coordinator: resuming target")
		if err := h.Player.Call("Play"); err != nil {
			log.Warn().Err(err).Msg("coordinator: failed to resume target")
		}

	default:
		log.Debug().Str("playback_status", string(foreign)).Msg("coordinator: nothing to do")
	}
}

// Subscribe registers the coordinator's handler for PropertiesChanged on the MPRIS object path.
func (c *Coordinator) Subscribe(s Subscriber) error {
	return s.Subscribe(bus.Match{
		Interface: bus.PropertiesInterface,
		Member:    bus.PropertiesChangedMember,
		Path:      MediaPlayerPath,
	}, c.handlePropertiesChanged)
}

func (c *Coordinator) handlePropertiesChanged(ctx context.Context, sig *dbus.Signal) {
	var (
		iface       string
		changed     map[string]dbus.Variant
		invalidated []string
	)
	if err := dbus.Store(sig.Body, &iface, &changed, &invalidated); err != nil {
		logging.FromContext(ctx).Debug().Err(err).Str("sender", sig.Sender).Msg("coordinator: malformed PropertiesChanged")
		return
	}
	c.OnPropertiesChanged(ctx, sig.Sender, iface, Properties(changed))
}
