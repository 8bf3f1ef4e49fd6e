package core

import (
	"sync"

	"github.com/akarpov/mediactl/internal/domain"
	"github.com/rs/zerolog/log"
)

// Service is the process-wide registry of controllers. It owns every
// controller created through it and tracks which of them are active,
// i.e. currently control at least one media element. The most recently
// activated controller is the main controller; commands issued without an
// explicit target (media keys, the /api/media surface) go to it.
//
// There is deliberately no package-level instance; cmd/server owns the
// single Service and hands it to whoever needs it.
type Service struct {
	mu          sync.RWMutex
	controllers map[domain.ControllerID]*Controller
	active      map[domain.ControllerID]*Controller
	order       []domain.ControllerID

	onMainChanged []func(*Controller)
}

func NewService() *Service {
	return &Service{
		controllers: make(map[domain.ControllerID]*Controller),
		active:      make(map[domain.ControllerID]*Controller),
	}
}

// GetOrCreateController returns the controller for id, creating it on
// first use. The second return reports whether a new controller was
// created, so callers can wire observers exactly once.
func (s *Service) GetOrCreateController(id domain.ControllerID) (*Controller, bool) {
	s.mu.RLock()
	c, ok := s.controllers[id]
	s.mu.RUnlock()
	if ok {
		return c, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.controllers[id]; ok {
		return c, false
	}
	c = NewController(id, s)
	s.controllers[id] = c
	log.Info().Str("module", "core.service").Str("id", string(id)).Msg("controller created")
	return c, true
}

// GetController returns the controller for id, if it exists.
func (s *Service) GetController(id domain.ControllerID) (*Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.controllers[id]
	return c, ok
}

// DropController releases a controller regardless of its controlled-media
// count; a discarded controller loses its active-tracking state. This is
// the owner's resource-lifetime call, not a state transition.
func (s *Service) DropController(id domain.ControllerID) {
	s.mu.Lock()
	_, owned := s.controllers[id]
	delete(s.controllers, id)
	cbs, main := s.removeActiveLocked(id)
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(main)
	}
	if owned {
		log.Info().Str("module", "core.service").Str("id", string(id)).Msg("controller dropped")
	}
}

// RegisterActiveController marks a controller active. Idempotent per
// identity: re-registering an already-active controller is a no-op, which
// tolerates duplicate notifications from elements racing across the zero
// boundary.
func (s *Service) RegisterActiveController(c *Controller) {
	s.mu.Lock()
	if _, ok := s.active[c.ID()]; ok {
		s.mu.Unlock()
		return
	}
	s.active[c.ID()] = c
	s.order = append(s.order, c.ID())
	cbs := s.onMainChanged
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(c)
	}
	log.Info().Str("module", "core.service").Str("id", string(c.ID())).Msg("controller activated")
}

// UnregisterActiveController removes a controller from the active set.
// Deactivating an already-inactive controller is a no-op. If the main
// controller deactivates, the most recently activated of the remaining
// ones is promoted.
func (s *Service) UnregisterActiveController(c *Controller) {
	s.mu.Lock()
	if _, ok := s.active[c.ID()]; !ok {
		s.mu.Unlock()
		return
	}
	cbs, main := s.removeActiveLocked(c.ID())
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(main)
	}
	log.Info().Str("module", "core.service").Str("id", string(c.ID())).Msg("controller deactivated")
}

// removeActiveLocked drops id from the active set and activation order.
// It returns the main-changed callbacks to fire (nil when the main
// controller did not change) and the new main controller, which is nil
// when no active controller remains.
func (s *Service) removeActiveLocked(id domain.ControllerID) ([]func(*Controller), *Controller) {
	if _, ok := s.active[id]; !ok {
		return nil, nil
	}
	delete(s.active, id)
	wasMain := len(s.order) > 0 && s.order[len(s.order)-1] == id
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if !wasMain {
		return nil, nil
	}
	var main *Controller
	if len(s.order) > 0 {
		main = s.active[s.order[len(s.order)-1]]
	}
	return s.onMainChanged, main
}

// ControllerCount returns the number of currently active controllers.
func (s *Service) ControllerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// MainController returns the most recently activated controller, or nil
// when none is active.
func (s *Service) MainController() *Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil
	}
	return s.active[s.order[len(s.order)-1]]
}

// OnMainControllerChanged registers a callback invoked with the new main
// controller whenever it changes (nil when the last one deactivates).
func (s *Service) OnMainControllerChanged(cb func(*Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMainChanged = append(s.onMainChanged, cb)
}

// List returns a snapshot of all owned controllers.
func (s *Service) List() []ControllerInfo {
	s.mu.RLock()
	ctrls := make([]*Controller, 0, len(s.controllers))
	activeSet := make(map[domain.ControllerID]bool, len(s.active))
	for id := range s.active {
		activeSet[id] = true
	}
	for _, c := range s.controllers {
		ctrls = append(ctrls, c)
	}
	s.mu.RUnlock()

	out := make([]ControllerInfo, 0, len(ctrls))
	for _, c := range ctrls {
		out = append(out, c.Info(activeSet[c.ID()]))
	}
	return out
}

// Info returns the API snapshot for one controller.
func (s *Service) Info(id domain.ControllerID) (ControllerInfo, bool) {
	s.mu.RLock()
	c, ok := s.controllers[id]
	_, active := s.active[id]
	s.mu.RUnlock()
	if !ok {
		return ControllerInfo{}, false
	}
	return c.Info(active), true
}
