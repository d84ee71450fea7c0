package repositories

import (
	"context"
	"time"

	"ezstream/internal/core/ports"
	"ezstream/internal/infrastructure/repositories/memory"
	redisrepo "ezstream/internal/infrastructure/repositories/redis"
	"ezstream/pkg/config"
	"ezstream/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultSessionTTL applies to sessions the vendor returned without an expiry.
const DefaultSessionTTL = 2 * time.Hour

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	keyPrefix   string
	memorySess  *memory.MemorySessionRepository
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory connects to Redis when enabled, retrying the initial
// ping, and falls back to memory repositories when it cannot.
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) *RepositoryFactory {
	factory := &RepositoryFactory{
		useRedis:  cfg.Redis.Enabled,
		keyPrefix: cfg.Redis.KeyPrefix,
		logger:    logger,
	}

	if cfg.Redis.Enabled {
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.Redis.ConnectAttempts
		retryCfg.InitialDelay = 500 * time.Millisecond
		retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warnw("redis not reachable, retrying",
				"attempt", attempt+1,
				"delay", delay,
				"error", err,
			)
		}

		client, err := retry.Do(ctx, retryCfg, func() (*redis.Client, error) {
			return redisrepo.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, logger)
		})
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory
}

// UsingRedis reports whether sessions are stored in Redis.
func (f *RepositoryFactory) UsingRedis() bool {
	return f.useRedis && f.redisClient != nil
}

// CreateSessionRepository creates a session repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateSessionRepository() ports.SessionRepository {
	if f.UsingRedis() {
		return redisrepo.NewRedisSessionRepository(f.redisClient, f.keyPrefix, DefaultSessionTTL)
	}
	if f.memorySess == nil {
		f.memorySess = memory.NewMemorySessionRepository(DefaultSessionTTL)
	}
	return f.memorySess
}

// RedisClient returns the shared client, nil when running on memory.
func (f *RepositoryFactory) RedisClient() redis.UniversalClient {
	if !f.UsingRedis() {
		return nil
	}
	return f.redisClient
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.memorySess != nil {
		f.memorySess.Close()
	}
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.UsingRedis() {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
