package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/roomcast/roomcast/internal/config"
	httpdelivery "github.com/roomcast/roomcast/internal/delivery/http"
	"github.com/roomcast/roomcast/internal/middleware"
	"github.com/roomcast/roomcast/internal/room"
	"github.com/roomcast/roomcast/pkg/logger"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	rooms := room.NewManager(room.Config{
		HistoryCapacity: cfg.HistoryCapacity,
		ReplayLimit:     cfg.HistoryReplayLimit,
		PersistPresence: cfg.HistoryPersistPresence,
		MaxTokens:       cfg.RateLimitMaxTokens,
		RateWindow:      cfg.RateLimitWindow,
		BlockDuration:   cfg.RateLimitBlockDuration,
	}, log)

	handler := httpdelivery.NewHandler(cfg, rooms, log)

	apiLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitAPI), 2*cfg.RateLimitAPI)
	wsLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitWS), 2*cfg.RateLimitWS)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, handler.HandleWebSocket))
	mux.HandleFunc("/api/room/info", middleware.RateLimitFunc(apiLimiter, handler.HandleRoomInfo))
	mux.HandleFunc("/api/room/history", middleware.RateLimitFunc(apiLimiter, handler.HandleRoomHistory))
	mux.HandleFunc("/healthz", handler.HandleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.SecurityHeaders(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	rooms.CloseAll()

	log.Info().Msg("server exited")
}
