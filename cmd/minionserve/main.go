// minionserve serves the minion combination explorer over HTTP.
//
// Usage:
//
//	minionserve [--config minionview.yaml] [--addr :8080] [--dataset path]
//
// Environment:
//
//	MINIONVIEW_DATASET     dataset location, overrides dataset.location
//	MINIONVIEW_REDIS_ADDR  enables the Redis result cache at this address
//	MINIONVIEW_ADDR        listen address, overrides server.addr
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/minionview/pkg/cache"
	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/explorer"
	"github.com/ruslano69/minionview/pkg/refresh"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	addrOverride := flag.String("addr", "", "listen address override (e.g. :3000)")
	datasetOverride := flag.String("dataset", "", "dataset location override")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("config load failed")
	}
	if *addrOverride != "" {
		cfg.Server.Addr = *addrOverride
	}
	if *datasetOverride != "" {
		cfg.Dataset.Location = *datasetOverride
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("cache setup failed")
	}
	defer rc.Close()

	svc := loadDataset(ctx, cfg, rc)
	defer svc.Store().Close()

	if cfg.Refresh.Enabled() {
		broker, err := refresh.New(cfg.Refresh)
		if err != nil {
			log.Fatal().Err(err).Msg("refresh broker setup failed")
		}
		// the broker is retried until shutdown, with the configured backoff
		retryCfg := cfg.Retry
		retryCfg.MaxAttempts = 0
		listener := refresh.NewListener(broker, svc, retryCfg)
		go func() {
			if err := listener.Run(ctx); err != nil {
				log.Error().Err(err).Msg("refresh listener stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(cfg, svc, rc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Bool("cache", rc != nil).
			Str("refresh", cfg.Refresh.Type).
			Msg("minionserve started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("stopped")
}

// setupLogging switches the global logger to the configured level and format.
func setupLogging(cfg LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// loadDataset performs the first dataset load. A failed load is logged and the
// service starts empty: pages answer 503 with an error bar until a reload
// succeeds.
func loadDataset(ctx context.Context, cfg *Config, c *cache.Cache) *explorer.Service {
	svc := explorer.New(dataset.New(cfg.Dataset), c)
	if err := svc.Reload(ctx); err != nil {
		log.Error().Err(err).Str("location", cfg.Dataset.Location).Msg("dataset load failed, serving without data")
		return svc
	}
	info, _ := svc.Store().Info()
	log.Info().
		Str("type", info.Type).
		Str("location", info.Location).
		Str("checksum", info.Checksum).
		Int64("rows", info.Rows).
		Msg("dataset loaded")
	return svc
}
