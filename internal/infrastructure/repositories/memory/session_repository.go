package memory

import (
	"context"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/pkg/cache"
	"ezstream/pkg/utils"
)

// MemorySessionRepository keeps sessions in a TTL cache so entries vanish
// when their vendor token expires.
type MemorySessionRepository struct {
	sessions *cache.Cache[*domain.Session]
}

// NewMemorySessionRepository uses defaultTTL for sessions without an expiry.
func NewMemorySessionRepository(defaultTTL time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: cache.New[*domain.Session](defaultTTL),
	}
}

var _ ports.SessionRepository = (*MemorySessionRepository)(nil)

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.Session) error {
	stored := *session
	if session.ExpiresAt.IsZero() {
		r.sessions.Put(string(session.ID), &stored, 0)
		return nil
	}

	ttl := session.TTL(utils.Now())
	if ttl <= 0 {
		return domain.ErrSessionExpired
	}
	r.sessions.Put(string(session.ID), &stored, ttl)
	return nil
}

func (r *MemorySessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	stored, ok := r.sessions.Get(string(id))
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session := *stored
	return &session, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	r.sessions.Delete(string(id))
	return nil
}

func (r *MemorySessionRepository) Count(ctx context.Context) (int, error) {
	return r.sessions.Len(), nil
}

// Close stops the cache janitor.
func (r *MemorySessionRepository) Close() {
	r.sessions.Stop()
}
