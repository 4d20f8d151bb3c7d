package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/queueline/queueline/internal/allocator"
	"github.com/queueline/queueline/internal/appointment"
	"github.com/queueline/queueline/internal/catalog"
	appconfig "github.com/queueline/queueline/internal/config"
	"github.com/queueline/queueline/internal/ledger"
	"github.com/queueline/queueline/pkg/logging"
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
	if ctx == nil {
		ctx = context.Background()
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
		return nil
	}
	return client
}

// Stores bundles the persistence implementations picked by configuration.
// Without a database pool everything runs in memory, which is how local
// development and the test suite operate.
type Stores struct {
	Catalog      catalog.Repository
	Slots        ledger.Store
	Appointments appointment.Repository
	Journal      allocator.JournalStore
}

// BuildStores wires Postgres-backed stores when a pool is available and
// in-memory stores otherwise.
func BuildStores(pool *pgxpool.Pool, logger *logging.Logger) *Stores {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("no database configured, using in-memory stores")
		return &Stores{
			Catalog:      catalog.NewInMemoryRepository(),
			Slots:        ledger.NewInMemoryStore(),
			Appointments: appointment.NewInMemoryRepository(),
			Journal:      allocator.NewMemoryJournal(),
		}
	}
	return &Stores{
		Catalog:      catalog.NewPostgresRepository(pool),
		Slots:        ledger.NewPostgresStore(pool),
		Appointments: appointment.NewPostgresRepository(pool),
		Journal:      allocator.NewPostgresJournal(pool),
	}
}

// BuildCounter selects the central ticket counter backend. Redis is
// preferred, Postgres when a pool exists, in-memory as a last resort.
func BuildCounter(cfg *appconfig.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *logging.Logger) allocator.Counter {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.CounterBackend == "redis" && redisClient != nil {
		return allocator.NewRedisCounter(redisClient)
	}
	if pool != nil {
		return allocator.NewPostgresCounter(pool)
	}
	logger.Warn("no durable counter backend, central ticket numbers reset on restart")
	return allocator.NewMemoryCounter()
}
