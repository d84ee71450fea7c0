package ports

import (
	"context"

	"ezstream/internal/core/domain"
)

// SessionRepository stores authenticated sessions until their vendor token expires.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	Delete(ctx context.Context, id domain.SessionID) error
	Count(ctx context.Context) (int, error)
}

type ProfileStore interface {
	// Save writes the profile; the app secret is kept only when includeSecret is set.
	Save(ctx context.Context, profile domain.Profile, includeSecret bool) error
	// Load applies the keys present in the stored profile on top of base.
	Load(ctx context.Context, base domain.Profile) (domain.Profile, error)
	Path() string
}
