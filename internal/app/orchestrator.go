package app

import (
	"context"
	"errors"

	"github.com/akarpov/mediactl/internal/core"
	"github.com/akarpov/mediactl/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession    = errors.New("session not bound to a controller")
	ErrUnknownController = errors.New("unknown controller")
	ErrNoMainController  = errors.New("no active controller")
)

// StateNotifier fans aggregate changes out to watchers. Implemented by
// the websocket watcher hub; the orchestrator stays transport-free.
type StateNotifier interface {
	NotifyStateChanged(id domain.ControllerID, state domain.PlaybackState, audible bool)
	NotifyMainChanged(id domain.ControllerID, active bool)
}

// Orchestrator routes element notifications and control commands between
// the transport adapters and the controller core.
type Orchestrator struct {
	Sessions *Sessions
	Media    *core.Service
	Notifier StateNotifier
}

func NewOrchestrator(sessions *Sessions, media *core.Service, notifier StateNotifier) *Orchestrator {
	o := &Orchestrator{Sessions: sessions, Media: media, Notifier: notifier}
	if notifier != nil {
		media.OnMainControllerChanged(func(c *core.Controller) {
			if c == nil {
				notifier.NotifyMainChanged("", false)
				return
			}
			notifier.NotifyMainChanged(c.ID(), true)
		})
	}
	return o
}

// Attach binds a reporting session to its controller, creating the
// controller on first use and wiring its change fan-out exactly once.
// The returned generation must be handed back to Release by the
// connection's own cleanup.
func (o *Orchestrator) Attach(sid SessionID, id domain.ControllerID, cancel context.CancelFunc) uint64 {
	c, created := o.Media.GetOrCreateController(id)
	if created && o.Notifier != nil {
		o.watch(c)
	}
	return o.Sessions.Bind(sid, id, cancel)
}

func (o *Orchestrator) watch(c *core.Controller) {
	id := c.ID()
	c.OnStateChanged(func(s domain.PlaybackState) {
		o.Notifier.NotifyStateChanged(id, s, c.IsAudible())
	})
	c.OnAudibleChanged(func(audible bool) {
		o.Notifier.NotifyStateChanged(id, c.PlaybackState(), audible)
	})
}

// Detach unbinds a session. The controller and its bookkeeping survive;
// a reconnecting context picks up where it left off.
func (o *Orchestrator) Detach(sid SessionID) {
	o.Sessions.Unbind(sid)
}

// Release is Detach for connection-driven cleanup: it only acts if the
// session is still bound to the generation the connection was given, so
// an old socket dying after a reconnect leaves the new binding alone.
func (o *Orchestrator) Release(sid SessionID, gen uint64) {
	o.Sessions.Release(sid, gen)
}

// OnMediaEvent applies one element lifecycle event reported over a bound
// session.
func (o *Orchestrator) OnMediaEvent(sid SessionID, el domain.ElementID, ev domain.MediaEvent) error {
	c, err := o.controllerOf(sid)
	if err != nil {
		return err
	}
	c.NotifyEvent(el, ev)
	return nil
}

// OnAudibleChanged applies an element audibility report.
func (o *Orchestrator) OnAudibleChanged(sid SessionID, el domain.ElementID, audible bool) error {
	c, err := o.controllerOf(sid)
	if err != nil {
		return err
	}
	c.NotifyAudibleChanged(el, audible)
	return nil
}

func (o *Orchestrator) controllerOf(sid SessionID) (*core.Controller, error) {
	id, ok := o.Sessions.ControllerOf(sid)
	if !ok {
		log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Msg("event from unbound session")
		return nil, ErrUnknownSession
	}
	c, ok := o.Media.GetController(id)
	if !ok {
		return nil, ErrUnknownController
	}
	return c, nil
}

// Command issues a direct play/pause/stop on one controller.
func (o *Orchestrator) Command(id domain.ControllerID, cmd string) error {
	c, ok := o.Media.GetController(id)
	if !ok {
		return ErrUnknownController
	}
	return o.apply(c, cmd)
}

// CommandMain routes a command to the main (most recently activated)
// controller, the way a media key would.
func (o *Orchestrator) CommandMain(cmd string) error {
	c := o.Media.MainController()
	if c == nil {
		return ErrNoMainController
	}
	return o.apply(c, cmd)
}

func (o *Orchestrator) apply(c *core.Controller, cmd string) error {
	switch cmd {
	case "play":
		c.Play()
	case "pause":
		c.Pause()
	case "stop":
		c.Stop()
	default:
		return errors.New("unknown command: " + cmd)
	}
	log.Info().Str("module", "app.orch").Str("controller", string(c.ID())).Str("cmd", cmd).Msg("command applied")
	return nil
}
