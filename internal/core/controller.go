package core

import (
	"sync"

	"github.com/akarpov/mediactl/internal/domain"
	"github.com/rs/zerolog/log"
)

// Controller aggregates the playback state of one controllable group.
// Every controlled element reports its lifecycle and audible transitions
// here; the controller derives a single authoritative PlaybackState and
// audible flag from the latest report of each element.
//
// The aggregate is "playing if any": one playing element among ten paused
// ones keeps the controller in PlaybackPlaying. Only counts matter for the
// state, so started/stopped and played/paused are tracked as counters; the
// element handle is only needed to remember last-reported audibility.
//
// All methods are safe for concurrent use. Callbacks and registry
// notifications fire outside the internal lock, so observers may call back
// into the controller.
type Controller struct {
	id       domain.ControllerID
	registry ActiveControllerRegistry

	mu           sync.RWMutex
	mediaCount   int
	playingCount int
	audible      map[domain.ElementID]bool
	state        domain.PlaybackState
	isAudible    bool

	onStateChanged   []func(domain.PlaybackState)
	onAudibleChanged []func(bool)
}

// NewController creates a controller with the given identity. The registry
// may be nil for controllers that never need activation tracking (tests).
// Identity uniqueness is the caller's responsibility.
func NewController(id domain.ControllerID, registry ActiveControllerRegistry) *Controller {
	return &Controller{
		id:       id,
		registry: registry,
		audible:  make(map[domain.ElementID]bool),
	}
}

func (c *Controller) ID() domain.ControllerID { return c.id }

func (c *Controller) ControlledMediaCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mediaCount
}

func (c *Controller) PlaybackState() domain.PlaybackState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) IsAudible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isAudible
}

// OnStateChanged registers a callback invoked whenever the aggregate
// playback state actually changes.
func (c *Controller) OnStateChanged(cb func(domain.PlaybackState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChanged = append(c.onStateChanged, cb)
}

// OnAudibleChanged registers a callback invoked whenever the aggregate
// audible flag actually changes.
func (c *Controller) OnAudibleChanged(cb func(bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudibleChanged = append(c.onAudibleChanged, cb)
}

// NotifyEvent dispatches one element lifecycle event. It exists so
// transports can forward a decoded event without a switch of their own.
func (c *Controller) NotifyEvent(el domain.ElementID, ev domain.MediaEvent) {
	switch ev {
	case domain.MediaStarted:
		c.NotifyStarted(el)
	case domain.MediaStopped:
		c.NotifyStopped(el)
	case domain.MediaPlayed:
		c.NotifyPlayed(el)
	case domain.MediaPaused:
		c.NotifyPaused(el)
	default:
		log.Warn().Str("module", "core.controller").Str("id", string(c.id)).Int("event", int(ev)).Msg("unknown media event")
	}
}

// NotifyStarted records a new controlled element. The first element
// (0->1) announces activation to the registry. Duplicate starts for the
// same handle count as independent increments; the caller pairs every
// start with exactly one eventual stop.
func (c *Controller) NotifyStarted(el domain.ElementID) {
	c.mu.Lock()
	c.mediaCount++
	first := c.mediaCount == 1
	n := c.setStateLocked(c.deducedStateLocked())
	c.mu.Unlock()

	if first && c.registry != nil {
		c.registry.RegisterActiveController(c)
	}
	n.fire()
	log.Debug().Str("module", "core.controller").Str("id", string(c.id)).Str("element", string(el)).Msg("media started")
}

// NotifyStopped records that an element ended participation. The count
// never goes below zero; a stop without a matching start is clamped to a
// no-op. Dropping to zero announces deactivation and forces the aggregate
// to Stopped, clearing any stale playing contribution.
func (c *Controller) NotifyStopped(el domain.ElementID) {
	c.mu.Lock()
	last := false
	if c.mediaCount > 0 {
		c.mediaCount--
		last = c.mediaCount == 0
	}
	delete(c.audible, el)
	if last {
		c.playingCount = 0
	}
	n := c.setStateLocked(c.deducedStateLocked())
	c.mu.Unlock()

	if last && c.registry != nil {
		c.registry.UnregisterActiveController(c)
	}
	n.fire()
	log.Debug().Str("module", "core.controller").Str("id", string(c.id)).Str("element", string(el)).Msg("media stopped")
}

// NotifyPlayed records that an element transitioned to actively playing.
func (c *Controller) NotifyPlayed(el domain.ElementID) {
	c.mu.Lock()
	c.playingCount++
	n := c.setStateLocked(c.deducedStateLocked())
	c.mu.Unlock()
	n.fire()
	log.Debug().Str("module", "core.controller").Str("id", string(c.id)).Str("element", string(el)).Msg("media played")
}

// NotifyPaused records that a previously playing element paused. Clamped
// at zero for unmatched pauses.
func (c *Controller) NotifyPaused(el domain.ElementID) {
	c.mu.Lock()
	if c.playingCount > 0 {
		c.playingCount--
	}
	n := c.setStateLocked(c.deducedStateLocked())
	c.mu.Unlock()
	n.fire()
	log.Debug().Str("module", "core.controller").Str("id", string(c.id)).Str("element", string(el)).Msg("media paused")
}

// NotifyAudibleChanged records the last-reported audible flag of one
// element. The flag contributes to the aggregate only while the controller
// is playing, but it is always recorded so it can take effect later
// without re-notification.
func (c *Controller) NotifyAudibleChanged(el domain.ElementID, audible bool) {
	c.mu.Lock()
	if audible {
		c.audible[el] = true
	} else {
		delete(c.audible, el)
	}
	n := c.setStateLocked(c.state)
	c.mu.Unlock()
	n.fire()
}

// Play sets the aggregate state to Playing directly, e.g. from a user
// action. Element bookkeeping is untouched; a later element event
// re-derives the state from the counts.
func (c *Controller) Play() {
	c.command(domain.PlaybackPlaying)
}

// Pause sets the aggregate state to Paused directly.
func (c *Controller) Pause() {
	c.command(domain.PlaybackPaused)
}

// Stop is an immediate, authoritative reset: the aggregate becomes
// Stopped and all per-element playing/audible bookkeeping is cleared.
// Element events arriving afterwards are new information and apply
// normally.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.playingCount = 0
	clear(c.audible)
	n := c.setStateLocked(domain.PlaybackStopped)
	c.mu.Unlock()
	n.fire()
	log.Info().Str("module", "core.controller").Str("id", string(c.id)).Msg("stopped by command")
}

func (c *Controller) command(s domain.PlaybackState) {
	c.mu.Lock()
	n := c.setStateLocked(s)
	c.mu.Unlock()
	n.fire()
}

// deducedStateLocked derives the aggregate state from the current counts:
// no controlled media means Stopped, any playing element means Playing,
// otherwise Paused.
func (c *Controller) deducedStateLocked() domain.PlaybackState {
	switch {
	case c.mediaCount == 0:
		return domain.PlaybackStopped
	case c.playingCount > 0:
		return domain.PlaybackPlaying
	default:
		return domain.PlaybackPaused
	}
}

// stateChange carries the observer notifications produced by a mutation,
// to be fired after the lock is released.
type stateChange struct {
	state      domain.PlaybackState
	stateCbs   []func(domain.PlaybackState)
	audible    bool
	audibleCbs []func(bool)
}

func (n stateChange) fire() {
	for _, cb := range n.stateCbs {
		cb(n.state)
	}
	for _, cb := range n.audibleCbs {
		cb(n.audible)
	}
}

// setStateLocked applies the new state and recomputes audibility. The
// audible flag can only hold while the aggregate is playing.
func (c *Controller) setStateLocked(s domain.PlaybackState) stateChange {
	var n stateChange
	if s != c.state {
		c.state = s
		n.state = s
		n.stateCbs = c.onStateChanged
	}
	audible := s == domain.PlaybackPlaying && len(c.audible) > 0
	if audible != c.isAudible {
		c.isAudible = audible
		n.audible = audible
		n.audibleCbs = c.onAudibleChanged
	}
	return n
}

// Info returns a consistent snapshot for API responses.
func (c *Controller) Info(active bool) ControllerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ControllerInfo{
		ID:         c.id,
		MediaCount: c.mediaCount,
		State:      c.state,
		Audible:    c.isAudible,
		Active:     active,
	}
}
