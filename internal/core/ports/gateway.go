package ports

import (
	"context"
	"time"

	"ezstream/internal/core/domain"
)

// Gateway is the vendor open API. Every call is a single attempt.
type Gateway interface {
	GetAccessToken(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	GetStreamAddress(ctx context.Context, session *domain.Session, req domain.StreamRequest) (*domain.StreamResult, error)
	ListDevices(ctx context.Context, session *domain.Session, pageStart, pageSize int) (*domain.DevicePage, error)
}

type VendorMetrics interface {
	ObserveVendorCall(endpoint, outcome string, duration time.Duration)
}
