package http

import (
	"context"

	"github.com/akarpov/mediactl/internal/adapters/mediaws"
	"github.com/akarpov/mediactl/internal/app"
	"github.com/akarpov/mediactl/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware assigns each client a stable token cookie. The
// token doubles as the session ID for websocket bindings.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, ws *mediaws.MediaWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MediaCtlSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", handleHealth(orch))

	api := r.Group("/api")
	api.GET("/controllers", handleListControllers(orch))
	api.GET("/controllers/:id", handleGetController(orch))
	api.POST("/controllers/:id/:cmd", handleControllerCommand(orch))
	api.POST("/media/:cmd", handleMainCommand(orch))

	api.GET("/ws/media", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("media ws endpoint hit")
		ws.HandleMedia(ctx, c)
	})
	api.GET("/ws/watch", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("watch ws endpoint hit")
		ws.HandleWatch(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
