package mediaws

import (
	"context"
	"net/http"

	"github.com/akarpov/mediactl/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandleWatch upgrades an observer connection. Watchers only receive:
// every aggregate state change of every controller, plus main-controller
// changes. Inbound frames are read solely to detect the close.
func (ctl *MediaWSController) HandleWatch(ctx context.Context, c *gin.Context) {
	sid := app.SessionID(c.GetString("client_token"))
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}
	log.Info().Str("module", "mediaws").Str("sid", string(sid)).Msg("new watcher WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "mediaws").Msg("ws upgrade")
		return
	}

	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}
	conn := newWSConn(ws, sendBufSize)
	ctl.Watchers.add(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer func() {
			cancel()
			ctl.Watchers.remove(sid, conn)
			conn.Close()
		}()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
