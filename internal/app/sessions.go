package app

import (
	"context"
	"sync"

	"github.com/akarpov/mediactl/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionID identifies one transport connection (one reporting context).
type SessionID string

type sessionEntry struct {
	Controller domain.ControllerID
	Cancel     context.CancelFunc
	Gen        uint64
}

// Sessions binds transport session IDs to the controller they report for.
// Session IDs come from a stable client token, so a reconnecting client
// reuses its ID; every binding therefore carries a generation so that a
// dying old connection's cleanup cannot tear down the live new one.
// Owned by the orchestrator; adapters never touch the maps directly.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[SessionID]*sessionEntry
	nextGen  uint64
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[SessionID]*sessionEntry)}
}

// Bind registers a session and returns its generation. A binding that
// replaces an existing one cancels the replaced connection's pumps.
func (s *Sessions) Bind(sid SessionID, ctrl domain.ControllerID, cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	old := s.sessions[sid]
	s.nextGen++
	gen := s.nextGen
	s.sessions[sid] = &sessionEntry{Controller: ctrl, Cancel: cancel, Gen: gen}
	s.mu.Unlock()

	if old != nil && old.Cancel != nil {
		old.Cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Str("controller", string(ctrl)).Uint64("gen", gen).Msg("bound session")
	return gen
}

func (s *Sessions) ControllerOf(sid SessionID) (domain.ControllerID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sid]
	if !ok {
		return "", false
	}
	return e.Controller, true
}

// Unbind removes a session unconditionally, regardless of generation.
// For transport-driven cleanup use Release instead.
func (s *Sessions) Unbind(sid SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("unbound session")
}

// Release cancels and unbinds a session only if gen still matches the
// stored binding. A stale generation (the session was rebound by a
// reconnect) is a no-op.
func (s *Sessions) Release(sid SessionID, gen uint64) bool {
	s.mu.Lock()
	e, ok := s.sessions[sid]
	if !ok || e.Gen != gen {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, sid)
	s.mu.Unlock()

	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Uint64("gen", gen).Msg("released session")
	return true
}
