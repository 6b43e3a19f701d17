// pkg/db/db.go
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dotdo/pkg/config"
)

// PingTimeout bounds the startup reachability check of each backend.
const PingTimeout = 5 * time.Second

// Postgres opens the custom-domain pool. (nil, nil) means DATABASE_URL is
// unset and the caller should use the in-memory store.
func Postgres(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", Redact(cfg.DatabaseURL), err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping %s: %w", Redact(cfg.DatabaseURL), err)
	}
	log.Infow("postgres ready", "dsn", Redact(cfg.DatabaseURL))
	return pool, nil
}

// Redis opens the session store client. (nil, nil) means REDIS_URL is unset.
func Redis(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", Redact(cfg.RedisURL), err)
	}
	cli := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := cli.Ping(pingCtx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping %s: %w", Redact(cfg.RedisURL), err)
	}
	log.Infow("redis ready", "url", Redact(cfg.RedisURL))
	return cli, nil
}

// Redact masks the password of a URL-form DSN. Anything that is not a
// URL (keyword/value postgres DSNs) is hidden entirely.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
