package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/akarpov/mediactl/internal/adapters/http"
	"github.com/akarpov/mediactl/internal/adapters/mediaws"
	"github.com/akarpov/mediactl/internal/app"
	"github.com/akarpov/mediactl/internal/config"
	"github.com/akarpov/mediactl/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// One registry service, injected everywhere; no package-level state.
	media := core.NewService()
	hub := mediaws.NewWatcherHub()
	orch := app.NewOrchestrator(app.NewSessions(), media, hub)
	limiter := mediaws.NewConnRateLimiter(cfg.WSRateLimit, cfg.WSRateInterval)
	ws := mediaws.NewMediaWSController(orch, hub, limiter)
	ws.ReadLimit = cfg.ReadLimit
	ws.PingPeriod = cfg.PingPeriod

	r := router.SetupRouter(ctx, cfg, orch, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("mediactl server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
