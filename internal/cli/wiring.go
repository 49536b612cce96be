package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"levelup-gatekeeper/internal/app"
	"levelup-gatekeeper/internal/config"
	"levelup-gatekeeper/internal/infra/kotoba"
	"levelup-gatekeeper/internal/infra/memory"
	pgstore "levelup-gatekeeper/internal/infra/postgres"
	rediscache "levelup-gatekeeper/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

type progressStore interface {
	app.AttemptLedger
	app.PassedQuizStore
}

// buildStore returns the Postgres store when configured, else an in-memory one.
func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (progressStore, func(), error) {
	if cfg.Postgres.URL == "" {
		log.Warn("postgres not configured, attempts and passes are kept in memory")
		return memory.NewStore(), func() {}, nil
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	return pgstore.NewStore(pool), pool.Close, nil
}

// buildReports returns the throttled report client behind a Redis or in-process cache.
func buildReports(cfg config.Config) (app.ReportFetcher, func()) {
	pause := config.TTLDuration(cfg.Kotoba.Pause, 2*time.Second)
	timeout := config.TTLDuration(cfg.Kotoba.Timeout, 15*time.Second)
	client := kotoba.NewClient(cfg.Kotoba.BaseURL, &http.Client{Timeout: timeout}, kotoba.NewPacer(pause))

	ttl := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)
	if cfg.Redis.Addr == "" {
		return memory.NewReportCache(client, ttl), func() {}
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return rediscache.NewReportCache(redisClient, client, ttl), func() { _ = redisClient.Close() }
}
