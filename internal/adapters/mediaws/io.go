package mediaws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akarpov/mediactl/internal/app"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeDeadline = 5 * time.Second

func (ctl *MediaWSController) writePump(ctx context.Context, c *wsConn) {
	pingPeriod := ctl.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "mediaws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Info().Err(err).Str("module", "mediaws").Msg("writePump ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "mediaws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "mediaws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "mediaws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *MediaWSController) readPump(ctx context.Context, sid app.SessionID, gen uint64, c *wsConn) {
	defer func() {
		log.Info().Str("module", "mediaws").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Release(sid, gen)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "mediaws").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "mediaws").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleMessage(sid, c, data)
		}
	}
}

func sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "mediaws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
