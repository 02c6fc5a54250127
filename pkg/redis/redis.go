package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 2 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	poolTimeout  = 2 * time.Second

	poolSize     = 20
	minIdleConns = 2
)

// Config is the subset of redis.Options this service exposes; the pool
// settings above cover the rest. The instance only holds circuit breaker
// state, so the pool stays small.
type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(c Config, logger *slog.Logger) *redis.Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "redis"),
		slog.String("addr", c.Addr),
		slog.Int("db", c.DB),
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		PoolTimeout:  poolTimeout,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	logger.Info("redis client initialized")

	// Instrumentation failures degrade observability, not availability.
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Warn("redis tracing instrumentation failed", "err", err)
	}
	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		logger.Warn("redis metrics instrumentation failed", "err", err)
	}

	return rdb
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
