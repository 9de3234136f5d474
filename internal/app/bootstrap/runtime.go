package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/fairdeal-taxi/internal/bookings"
	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// Postgres bundles the pgx pool with a database/sql view of it.
type Postgres struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Close releases both handles.
func (p *Postgres) Close() {
	if p == nil {
		return
	}
	_ = p.DB.Close()
	p.Pool.Close()
}

// BuildPostgres connects when DATABASE_URL is set; nil means run without a database.
func BuildPostgres(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *Postgres {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return &Postgres{Pool: pool, DB: stdlib.OpenDBFromPool(pool)}
}

// BuildBookingsService stores bookings in Postgres when available, in memory otherwise.
func BuildBookingsService(pg *Postgres, logger *logging.Logger) *bookings.Service {
	if logger == nil {
		logger = logging.Default()
	}
	if pg == nil || pg.Pool == nil {
		logger.Warn("no database configured; bookings kept in memory")
		return bookings.NewService(bookings.NewInMemoryRepository(), logger)
	}
	return bookings.NewService(bookings.NewPostgresRepository(pg.Pool), logger)
}
