// Package mediaws carries the per-element notification streams and the
// watcher event streams over websockets.
package mediaws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/akarpov/mediactl/internal/app"
	"github.com/akarpov/mediactl/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const sendBufSize = 32

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type MediaWSController struct {
	Orch     *app.Orchestrator
	Watchers *WatcherHub
	Limiter  *ConnRateLimiter

	// ReadLimit and PingPeriod come from config; zero values fall back
	// to gorilla's default and 54s respectively.
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewMediaWSController(orch *app.Orchestrator, watchers *WatcherHub, limiter *ConnRateLimiter) *MediaWSController {
	return &MediaWSController{Orch: orch, Watchers: watchers, Limiter: limiter}
}

// HandleMedia upgrades a reporting context's connection. Each connection
// feeds exactly one controller, chosen by the `controller` query param
// and defaulting to the client token, so one tab maps to one controller
// without extra handshake.
func (ctl *MediaWSController) HandleMedia(ctx context.Context, c *gin.Context) {
	sid := app.SessionID(c.GetString("client_token"))
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}
	log.Info().Str("module", "mediaws").Str("sid", string(sid)).Msg("new media WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "mediaws").Msg("ws upgrade")
		return
	}

	ctrlID := domain.ControllerID(c.Query("controller"))
	if ctrlID == "" {
		ctrlID = domain.ControllerID(sid)
	}

	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}
	conn := newWSConn(ws, sendBufSize)
	ctx, cancel := context.WithCancel(ctx)
	gen := ctl.Orch.Attach(sid, ctrlID, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, gen, conn)
}

func (ctl *MediaWSController) handleMessage(sid app.SessionID, c *wsConn, data []byte) {
	var msg struct {
		Type    string `json:"type"`
		Element string `json:"element"`
		Audible bool   `json:"audible"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "mediaws").Msg("bad json")
		sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	el := domain.ElementID(msg.Element)
	var err error
	switch msg.Type {
	case "started":
		err = ctl.Orch.OnMediaEvent(sid, el, domain.MediaStarted)
	case "stopped":
		err = ctl.Orch.OnMediaEvent(sid, el, domain.MediaStopped)
	case "playing":
		err = ctl.Orch.OnMediaEvent(sid, el, domain.MediaPlayed)
	case "paused":
		err = ctl.Orch.OnMediaEvent(sid, el, domain.MediaPaused)
	case "audible":
		err = ctl.Orch.OnAudibleChanged(sid, el, msg.Audible)
	case "ping":
		sendJSON(c, map[string]any{"type": "pong"})
	default:
		log.Warn().Str("module", "mediaws").Str("type", msg.Type).Msg("unknown message")
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "mediaws").Str("sid", string(sid)).Str("type", msg.Type).Msg("event not applied")
	}
}
