package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "github.com/sabawaheed27/motofix-europe/internal/adapters/http_server"
	"github.com/sabawaheed27/motofix-europe/internal/adapters/observability"
	"github.com/sabawaheed27/motofix-europe/internal/app"
	"github.com/sabawaheed27/motofix-europe/internal/bootstrap"
	"github.com/sabawaheed27/motofix-europe/internal/mapview"
	"github.com/sabawaheed27/motofix-europe/internal/shared"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// backend
	be, err := bootstrap.Open(ctx, cfg, false)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("backend unavailable")
	}
	defer be.Close()
	cache, closeCache := bootstrap.Cache(ctx, cfg)
	defer closeCache()

	// map capability, loaded once for all pages
	maps, err := mapview.NewLoader(cfg.MapsAPIKey).Load(ctx)
	if err != nil && !errors.Is(err, mapview.ErrUnavailable) {
		log.Fatal().Err(err).Msg("map loader failed")
	}

	// services
	session := app.NewSessionService(be.Auth, be.Users)
	unsubscribe := session.Subscribe(func(ev app.SessionEvent) {
		observability.ObserveSession(string(ev.Kind))
		e := log.Info().Str("event", string(ev.Kind))
		if ev.Identity != nil {
			e = e.Str("user", ev.Identity.ID)
		}
		e.Msg("session event")
	})
	defer unsubscribe()

	h := &server.Handlers{
		Search:       app.NewSearchService(be.Shops, cache, cfg.CacheTTL),
		Dashboard:    app.NewDashboardService(be.Shops, cache, cfg.DashboardOwnerOnly),
		Admin:        app.NewAdminService(be.AdminShops, be.AdminUsers, cache),
		Session:      session,
		Maps:         maps,
		SessionTTL:   cfg.SessionTTL,
		TokenContext: be.TokenContext,
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)
	if metricsSrv == nil {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.Backend).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics shutdown")
		}
	}
}
