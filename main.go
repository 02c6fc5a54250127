package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ssakssri/sfsf-connector-api/api"
	"github.com/ssakssri/sfsf-connector-api/pkg/core"
	redisLocal "github.com/ssakssri/sfsf-connector-api/pkg/redis"
	"github.com/ssakssri/sfsf-connector-api/pkg/successfactors"
)

func main() {
	if err := core.LoadEnv(); err != nil {
		log.Printf("env load: %v", err)
	}

	cfg, err := core.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := core.NewLogger(cfg)

	var otelSvc core.OtelService
	if !cfg.Otel.Disable {
		otelSvc, err = core.NewOtelService(ctx, &cfg)
		if err != nil {
			logger.Error("otel init failed, continuing without telemetry", slog.Any("err", err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				otelSvc.Shutdown(shutdownCtx, logger)
			}()
			logger = core.NewLoggerWithOtel(cfg, otelSvc)
		}
	}

	rdb := redisLocal.NewClient(redisLocal.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)

	sfSvc, err := successfactors.New(&cfg.SuccessFactors, successfactors.Options{Logger: logger})
	if err != nil {
		logger.Error("successfactors service init failed", slog.Any("err", err))
		os.Exit(1)
	}

	app, err := buildApp(AppOptions{
		Config:  cfg,
		Logger:  logger,
		Otel:    otelSvc,
		Service: sfSvc,
		RDB:     rdb,
	})
	if err != nil {
		logger.Error("failed to build app", slog.Any("err", err))
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting server", slog.String("addr", addr), slog.String("environment", cfg.Environment))

	if err := runServer(ctx, app, addr); err != nil {
		logger.Error("server error", slog.Any("err", err))
	}
}

type AppOptions struct {
	Config  core.Config
	Logger  *slog.Logger
	Otel    core.OtelService
	Service successfactors.SuccessFactorsService
	RDB     *redis.Client
}

func buildApp(opts AppOptions) (*fiber.App, error) {
	return api.New(&api.Config{
		Otel:    opts.Otel,
		Logger:  opts.Logger,
		Service: opts.Service,
		RDB:     opts.RDB,
		Config:  opts.Config,
	})
}

func runServer(ctx context.Context, app *fiber.App, addr string) error {
	srvErr := make(chan error, 1)

	go func() {
		srvErr <- app.Listen(addr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
