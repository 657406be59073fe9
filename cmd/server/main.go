package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	router "github.com/dkeye/RelayHax/internal/adapters/http"
	"github.com/dkeye/RelayHax/internal/adapters/proxy"
	"github.com/dkeye/RelayHax/internal/app"
	"github.com/dkeye/RelayHax/internal/config"
	"github.com/dkeye/RelayHax/internal/hax"
	"github.com/dkeye/RelayHax/internal/logger"
)

func toggles(h config.HaxConfig) hax.Toggles {
	return hax.Toggles{
		StripPasswords:    h.StripPasswords,
		ShowMobileGames:   h.ShowMobileGames,
		ShowOtherVersions: h.ShowOtherVersions,
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the logger early so config.Load can use it.
	if err := logger.Init("info"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, loader, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		log.Error().Err(err).Msg("bad log level, keeping info")
	}

	trace, traceFile, err := logger.OpenTrace(cfg.Log.TracePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open trace log")
	}
	defer traceFile.Close()

	reg := app.NewRegistry(toggles(cfg.Hax))
	loader.Watch(func(next *config.Config) {
		reg.ApplyToggles(toggles(next.Hax))
	})

	ctl := proxy.NewController(reg, hax.Options{
		Log:   log.Logger,
		Trace: trace,
		RPC:   hax.NewRPCIntrospector(cfg.Hax.RPCMethods),
	}, cfg.DialTimeout, cfg.ReadLimit)

	r := router.SetupRouter(ctx, cfg, reg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("RelayHax proxy started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	reg.CancelAll()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
