package mediaws

import (
	"encoding/json"
	"sync"

	"github.com/akarpov/mediactl/internal/app"
	"github.com/akarpov/mediactl/internal/domain"
	"github.com/rs/zerolog/log"
)

// WatcherHub fans controller state changes out to watcher connections.
// It implements app.StateNotifier. A watcher that cannot keep up is
// disconnected rather than allowed to stall the rest.
type WatcherHub struct {
	mu       sync.RWMutex
	watchers map[app.SessionID]*wsConn
}

func NewWatcherHub() *WatcherHub {
	return &WatcherHub{watchers: make(map[app.SessionID]*wsConn)}
}

func (h *WatcherHub) add(sid app.SessionID, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.watchers[sid]; ok {
		old.Close()
	}
	h.watchers[sid] = c
	log.Info().Str("module", "mediaws.hub").Str("sid", string(sid)).Msg("watcher added")
}

// remove drops a watcher only if c is still its registered connection.
// Session IDs repeat across reconnects; an old connection exiting after
// it was replaced must not delete the replacement's registration.
func (h *WatcherHub) remove(sid app.SessionID, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[sid] != c {
		return
	}
	delete(h.watchers, sid)
	log.Info().Str("module", "mediaws.hub").Str("sid", string(sid)).Msg("watcher removed")
}

// WatcherCount reports attached watchers, mostly for tests and /healthz.
func (h *WatcherHub) WatcherCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

func (h *WatcherHub) NotifyStateChanged(id domain.ControllerID, state domain.PlaybackState, audible bool) {
	h.broadcast(struct {
		Type       string               `json:"type"`
		Controller domain.ControllerID  `json:"controller"`
		State      domain.PlaybackState `json:"state"`
		Audible    bool                 `json:"audible"`
	}{
		Type:       "state",
		Controller: id,
		State:      state,
		Audible:    audible,
	})
}

func (h *WatcherHub) NotifyMainChanged(id domain.ControllerID, active bool) {
	msg := struct {
		Type       string               `json:"type"`
		Controller *domain.ControllerID `json:"controller"`
	}{Type: "main"}
	if active {
		msg.Controller = &id
	}
	h.broadcast(msg)
}

func (h *WatcherHub) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "mediaws.hub").Msg("broadcast marshal")
		return
	}

	type droppedWatcher struct {
		sid  app.SessionID
		conn *wsConn
	}

	h.mu.RLock()
	var dropped []droppedWatcher
	for sid, c := range h.watchers {
		if err := c.TrySend(b); err != nil {
			dropped = append(dropped, droppedWatcher{sid: sid, conn: c})
		}
	}
	h.mu.RUnlock()

	for _, d := range dropped {
		h.remove(d.sid, d.conn)
		d.conn.Close()
		log.Warn().Str("module", "mediaws.hub").Str("sid", string(d.sid)).Msg("watcher dropped on backpressure")
	}
}
