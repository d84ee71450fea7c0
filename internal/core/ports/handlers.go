package ports

import (
	"context"

	"ezstream/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by HTTP handlers that mount their own routes.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// EventPublisher delivers status events to whoever is watching. Publish must
// not block the caller on slow subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}
