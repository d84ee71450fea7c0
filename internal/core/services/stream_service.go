package services

import (
	"context"
	"net/http"
	"strings"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/logger"
	"ezstream/pkg/tracing"
	"ezstream/pkg/utils"
	"ezstream/pkg/validation"

	"go.uber.org/zap"
)

type streamService struct {
	gateway ports.Gateway
	events  ports.EventPublisher
	logger  *logger.ContextLogger
}

func NewStreamService(gateway ports.Gateway, events ports.EventPublisher, log *zap.Logger) ports.StreamService {
	return &streamService{
		gateway: gateway,
		events:  publisherOrNop(events),
		logger:  logger.NewContextLogger(log),
	}
}

func (s *streamService) GenerateURL(ctx context.Context, session *domain.Session, req domain.StreamRequest) (*domain.StreamResult, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validateStreamRequest(&req); err != nil {
		return nil, err
	}

	tracing.AddSpanAttributes(ctx,
		tracing.DeviceSerialKey.String(req.DeviceSerial),
		tracing.ChannelKey.Int(req.Channel),
		tracing.ProtocolKey.Int(int(req.Protocol)),
		tracing.QualityKey.Int(int(req.Quality)),
		tracing.StreamTypeKey.String(string(req.Type)),
	)
	publish(ctx, s.events, domain.EventStreamStarted, session.ID, "Generating stream URL...", map[string]interface{}{
		"device_serial": req.DeviceSerial,
		"channel":       req.Channel,
		"type":          req.Type,
	})

	result, err := s.gateway.GetStreamAddress(ctx, session, req)
	if err != nil {
		s.logger.LogWarn(ctx, "stream address request failed",
			zap.String("device_serial", req.DeviceSerial),
			zap.Error(err),
		)
		publish(ctx, s.events, domain.EventStreamFailed, session.ID, "Error: "+apperrors.UserMessage(err), nil)
		return nil, err
	}

	if !result.Success() {
		s.logger.LogWarn(ctx, "stream address rejected",
			zap.String("device_serial", req.DeviceSerial),
			zap.String("vendor_code", result.Code),
			zap.String("vendor_msg", result.Message),
		)
		publish(ctx, s.events, domain.EventStreamFailed, session.ID, "Error "+result.Code+": "+result.Message, map[string]interface{}{
			"code": result.Code,
		})
		return result, nil
	}

	s.logger.LogInfo(ctx, "stream url generated",
		zap.String("device_serial", req.DeviceSerial),
		zap.Int("channel", req.Channel),
		zap.String("protocol", req.Protocol.Name()),
		zap.String("stream_id", result.ID),
	)
	publish(ctx, s.events, domain.EventStreamSucceeded, session.ID, "Stream URL Generated Successfully!", map[string]interface{}{
		"url":         result.URL,
		"id":          result.ID,
		"expire_time": result.ExpireTime,
	})
	return result, nil
}

// requireSession rejects calls that would reach the vendor without a usable token.
func requireSession(session *domain.Session) error {
	if session == nil || session.AccessToken == "" || session.AreaDomain == "" {
		return apperrors.WrapError(domain.ErrNotAuthenticated, apperrors.ErrCodeUnauthorized, "Please authenticate first", http.StatusUnauthorized)
	}
	if !session.Valid(utils.Now()) {
		return apperrors.WrapError(domain.ErrSessionExpired, apperrors.ErrCodeUnauthorized, "Session expired, please authenticate first", http.StatusUnauthorized)
	}
	return nil
}

func validateStreamRequest(req *domain.StreamRequest) error {
	req.DeviceSerial = strings.TrimSpace(req.DeviceSerial)
	if validation.ValidateNonEmptyString(req.DeviceSerial, "device serial") != nil {
		return apperrors.NewInvalidInputError("Please enter device serial number")
	}
	if err := validation.ValidateDeviceSerial(req.DeviceSerial); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateChannel(req.Channel); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if !req.Protocol.Valid() {
		return apperrors.NewInvalidInputError(domain.ErrInvalidProtocol.Error())
	}
	if !req.Quality.Valid() {
		return apperrors.NewInvalidInputError(domain.ErrInvalidQuality.Error())
	}
	if err := validation.ValidateExpireSeconds(req.ExpireSeconds); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}

	streamType, err := domain.ParseStreamType(string(req.Type))
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	req.Type = streamType
	if req.IsPlayback() {
		if err := validation.ValidatePlaybackWindow(req.StartTime, req.StopTime); err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
	}
	return nil
}
