package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dmetrikx/goWrestleBot/internal/bot"
	"github.com/Dmetrikx/goWrestleBot/internal/config"
	"github.com/Dmetrikx/goWrestleBot/internal/httpapi"
	"github.com/Dmetrikx/goWrestleBot/internal/logging"
	"github.com/Dmetrikx/goWrestleBot/internal/metrics"
	"github.com/Dmetrikx/goWrestleBot/internal/storage"
	"github.com/Dmetrikx/goWrestleBot/internal/storage/jsonfile"
	"github.com/Dmetrikx/goWrestleBot/internal/storage/redisstore"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("check your environment or .env file: %w", err)
	}

	level, _ := cfg.Level()
	logger := logging.New(os.Stdout, cfg.LogFormat, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	m := metrics.New()
	b, err := bot.NewBot(cfg, logger, store, m)
	if err != nil {
		return fmt.Errorf("error creating bot: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("error starting bot: %w", err)
	}

	var api *httpapi.Server
	if cfg.HTTPPort > 0 {
		api = httpapi.NewServer(cfg.HTTPPort, httpapi.Deps{
			Sessions:  b,
			Ledger:    b.Ledger(),
			Metrics:   m.Handler(),
			Logger:    logger,
			StartedAt: time.Now(),
			Version:   version,

			AllowOrigins: cfg.HTTPAllowOrigins,
		})
		api.Start(ctx)
	}

	logger.InfoContext(ctx, "bot is now running, press CTRL-C to exit")
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if api != nil {
		errs = append(errs, api.Shutdown(shutdownCtx))
	}
	errs = append(errs, b.Close(shutdownCtx))
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		s, err := redisstore.Connect(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := jsonfile.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "using json storage", "dir", cfg.DataDir)
		return s, nil
	}
}
