package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/herniaclinic/clinic-chat/internal/auth"
	"github.com/herniaclinic/clinic-chat/internal/autoreply"
	"github.com/herniaclinic/clinic-chat/internal/config"
	"github.com/herniaclinic/clinic-chat/internal/data"
	"github.com/herniaclinic/clinic-chat/internal/db"
	"github.com/herniaclinic/clinic-chat/internal/hub"
	"github.com/herniaclinic/clinic-chat/internal/middleware"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	gdb, err := db.New(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		_ = db.Close(gdb)
	}()

	if cfg.SeedDemoData {
		if err := data.Seed(context.Background(), gdb); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	convs := data.NewConversationsStore(gdb)
	clients := data.NewClientsStore(gdb)
	appts := data.NewAppointmentsStore(gdb)
	schedules := data.NewSchedulesStore(gdb)
	users := data.NewUsersStore(gdb)

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)

	// Small burst so a couple of quick retries still go through.
	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, time.Minute)
	defer limiter.Stop()

	h := hub.New()
	srv := newServer(convs, clients, appts, schedules, users, h, jwtMgr, autoreply.Respond, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("api server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server exit")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	h.Drain()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
