package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/pkg/tracing"
	"ezstream/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "ezstream:session:"

type RedisSessionRepository struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

type sessionRecord struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	AreaDomain  string    `json:"area_domain"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewRedisSessionRepository(client redis.UniversalClient, prefix string, defaultTTL time.Duration) *RedisSessionRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSessionRepository{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

var _ ports.SessionRepository = (*RedisSessionRepository)(nil)

func (r *RedisSessionRepository) sessionKey(id domain.SessionID) string {
	return r.prefix + string(id)
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	ctx, span := tracing.TraceSessionStore(ctx, "save", "redis")
	defer span.End()

	ttl := r.defaultTTL
	if !session.ExpiresAt.IsZero() {
		ttl = session.TTL(utils.Now())
		if ttl <= 0 {
			return domain.ErrSessionExpired
		}
	}

	data, err := json.Marshal(sessionRecord{
		ID:          string(session.ID),
		AccessToken: session.AccessToken,
		AreaDomain:  session.AreaDomain,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(session.ID), data, ttl).Err(); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	ctx, span := tracing.TraceSessionStore(ctx, "get", "redis")
	defer span.End()

	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &domain.Session{
		ID:          domain.SessionID(rec.ID),
		AccessToken: rec.AccessToken,
		AreaDomain:  rec.AreaDomain,
		ExpiresAt:   rec.ExpiresAt,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	if err := r.client.Del(ctx, r.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

// Count walks the key space under the prefix with SCAN.
func (r *RedisSessionRepository) Count(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return count, nil
}
