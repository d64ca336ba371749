package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/signalbrew/server/internal/config"
	"github.com/signalbrew/server/internal/httpmw"
	"github.com/signalbrew/server/internal/logs"
	"github.com/signalbrew/server/internal/metrics"
	"github.com/signalbrew/server/internal/reaper"
	"github.com/signalbrew/server/internal/room"
	"github.com/signalbrew/server/internal/session"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := logs.New(cfg.LogLevel)
	defer logger.Sync()

	metrics.Init()

	store := room.NewMemoryStore()
	rooms := room.NewService(store, logger, cfg.RoomMaxPeers, cfg.SlugMaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	reaper.Start(ctx, rooms, cfg.RoomTTL, logger)

	cors := httpmw.NewCORS(cfg.AllowedOrigins)
	wsHandler := session.NewHandler(cfg, logger, rooms)

	r := chi.NewRouter()
	r.Use(cors.Middleware)

	r.Get("/health", httpmw.HealthHandler)
	r.Handle(cfg.MetricsRoute, metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httpmw.RESTRateLimit(cfg.RateLimitRPM))
		r.Get("/api/rooms/{id}", httpmw.RoomExistenceHandler(rooms))
		r.Get("/api/ice-servers", httpmw.ICEServersHandler(cfg))
	})

	r.Handle("/ws", httpmw.NewWSUpgradeLimiter(cfg.RateLimitRPM, wsHandler))

	srv := &http.Server{
		Addr:              cfg.BindAddr(),
		Handler:           logs.RequestLogger(logger, r),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", logs.F("addr", cfg.BindAddr()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("bye")
}
