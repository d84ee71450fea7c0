package ports

import (
	"context"

	"ezstream/internal/core/domain"
)

type AuthService interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
}

type StreamService interface {
	// GenerateURL returns the parsed vendor answer. A rejected request is a
	// result with a non-success code, not an error.
	GenerateURL(ctx context.Context, session *domain.Session, req domain.StreamRequest) (*domain.StreamResult, error)
}

type DeviceService interface {
	ListDevices(ctx context.Context, session *domain.Session, pageStart, pageSize int) (*domain.DevicePage, error)
}

type SessionTokenService interface {
	Issue(ctx context.Context, session *domain.Session) (string, error)
	Resolve(ctx context.Context, token string) (*domain.Session, error)
	Revoke(ctx context.Context, token string) error
}
