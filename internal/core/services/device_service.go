package services

import (
	"context"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/logger"
	"ezstream/pkg/validation"

	"go.uber.org/zap"
)

type deviceService struct {
	gateway ports.Gateway
	logger  *logger.ContextLogger
}

func NewDeviceService(gateway ports.Gateway, log *zap.Logger) ports.DeviceService {
	return &deviceService{
		gateway: gateway,
		logger:  logger.NewContextLogger(log),
	}
}

func (s *deviceService) ListDevices(ctx context.Context, session *domain.Session, pageStart, pageSize int) (*domain.DevicePage, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if pageStart < 0 {
		return nil, apperrors.NewInvalidInputError("page start must not be negative")
	}
	if pageSize == 0 {
		pageSize = domain.DefaultPageSize
	}
	if err := validation.ValidatePageSize(pageSize); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	page, err := s.gateway.ListDevices(ctx, session, pageStart, pageSize)
	if err != nil {
		s.logger.LogWarn(ctx, "device list failed", zap.Error(err))
		return nil, err
	}

	s.logger.LogDebug(ctx, "device list fetched",
		zap.Int("count", len(page.Devices)),
		zap.Int("total", page.Page.Total),
	)
	return page, nil
}
