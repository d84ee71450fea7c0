package services

import (
	"context"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/logger"
	"ezstream/pkg/utils"
	"ezstream/pkg/validation"

	"go.uber.org/zap"
)

type authService struct {
	gateway ports.Gateway
	events  ports.EventPublisher
	logger  *logger.ContextLogger
}

// NewAuthService returns the vendor token flow. events may be nil.
func NewAuthService(gateway ports.Gateway, events ports.EventPublisher, log *zap.Logger) ports.AuthService {
	return &authService{
		gateway: gateway,
		events:  publisherOrNop(events),
		logger:  logger.NewContextLogger(log),
	}
}

func (s *authService) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	creds = domain.NewCredentials(creds.AppKey, creds.AppSecret)
	if creds.AppKey == "" || creds.AppSecret == "" {
		return nil, apperrors.NewInvalidInputError("Please enter both App Key and App Secret")
	}
	if err := validation.ValidateAppKey(creds.AppKey); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateAppSecret(creds.AppSecret); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	publish(ctx, s.events, domain.EventAuthStarted, "", "Authenticating...", nil)
	s.logger.LogInfo(ctx, "requesting access token", zap.String("app_key", utils.MaskSensitive(creds.AppKey, 4)))

	session, err := s.gateway.GetAccessToken(ctx, creds)
	if err != nil {
		s.logger.LogWarn(ctx, "authentication failed", zap.Error(err))
		publish(ctx, s.events, domain.EventAuthFailed, "", "Failed to authenticate: "+apperrors.UserMessage(err), nil)
		return nil, err
	}

	s.logger.LogInfo(ctx, "authenticated",
		zap.String("area_domain", session.AreaDomain),
		zap.Time("expires_at", session.ExpiresAt),
	)
	publish(ctx, s.events, domain.EventAuthSucceeded, session.ID, "Authenticated successfully!", map[string]interface{}{
		"area_domain": session.AreaDomain,
		"expires_at":  session.ExpiresAt,
	})
	return session, nil
}
