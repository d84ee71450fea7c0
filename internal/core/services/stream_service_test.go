package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ezstream/internal/core/domain"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func testSession() *domain.Session {
	return &domain.Session{
		ID:          "sess-1",
		AccessToken: "at.123",
		AreaDomain:  "https://open.ezvizlife.com",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestStreamService_GenerateURL_Success(t *testing.T) {
	gateway := new(MockGateway)
	events := &recordingPublisher{}
	svc := NewStreamService(gateway, events, zaptest.NewLogger(t))

	session := testSession()
	req := domain.DefaultStreamRequest()
	result := &domain.StreamResult{Code: "200", URL: "https://open.ezviz.com/live/FG3451360.m3u8", ID: "abc", ExpireTime: "2024-05-01 11:00:00"}
	gateway.On("GetStreamAddress", mock.Anything, session, req).Return(result, nil)

	got, err := svc.GenerateURL(context.Background(), session, req)

	require.NoError(t, err)
	assert.True(t, got.Success())
	assert.Equal(t, result.URL, got.URL)
	assert.Equal(t, []domain.EventType{domain.EventStreamStarted, domain.EventStreamSucceeded}, events.types())
	assert.Equal(t, domain.SessionID("sess-1"), events.events[1].SessionID)
	gateway.AssertExpectations(t)
}

func TestStreamService_GenerateURL_RejectedIsAResult(t *testing.T) {
	gateway := new(MockGateway)
	events := &recordingPublisher{}
	svc := NewStreamService(gateway, events, zaptest.NewLogger(t))

	result := &domain.StreamResult{Code: "20007", Message: "The device is offline"}
	gateway.On("GetStreamAddress", mock.Anything, mock.Anything, mock.Anything).Return(result, nil)

	got, err := svc.GenerateURL(context.Background(), testSession(), domain.DefaultStreamRequest())

	require.NoError(t, err)
	assert.False(t, got.Success())
	assert.Equal(t, []domain.EventType{domain.EventStreamStarted, domain.EventStreamFailed}, events.types())
	assert.Equal(t, "Error 20007: The device is offline", events.events[1].Message)
}

func TestStreamService_GenerateURL_TransportError(t *testing.T) {
	gateway := new(MockGateway)
	events := &recordingPublisher{}
	svc := NewStreamService(gateway, events, zaptest.NewLogger(t))

	gateway.On("GetStreamAddress", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewBadGatewayError(errors.New("context deadline exceeded")))

	got, err := svc.GenerateURL(context.Background(), testSession(), domain.DefaultStreamRequest())

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "Error: context deadline exceeded", events.events[1].Message)
}

func TestStreamService_GenerateURL_WithoutSessionNeverReachesVendor(t *testing.T) {
	expired := testSession()
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	tests := []struct {
		name    string
		session *domain.Session
		cause   error
	}{
		{"nil session", nil, domain.ErrNotAuthenticated},
		{"no token", &domain.Session{AreaDomain: "https://open.ezvizlife.com"}, domain.ErrNotAuthenticated},
		{"expired", expired, domain.ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := new(MockGateway)
			svc := NewStreamService(gateway, nil, zaptest.NewLogger(t))

			_, err := svc.GenerateURL(context.Background(), tt.session, domain.DefaultStreamRequest())

			assert.ErrorIs(t, err, tt.cause)
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperrors.ErrCodeUnauthorized, appErr.Code)
			gateway.AssertNotCalled(t, "GetStreamAddress", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStreamService_GenerateURL_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.StreamRequest)
		message string
	}{
		{"empty serial", func(r *domain.StreamRequest) { r.DeviceSerial = "  " }, "Please enter device serial number"},
		{"channel zero", func(r *domain.StreamRequest) { r.Channel = 0 }, "channel number must be at least 1"},
		{"bad protocol", func(r *domain.StreamRequest) { r.Protocol = 9 }, "invalid protocol"},
		{"bad quality", func(r *domain.StreamRequest) { r.Quality = 0 }, "invalid quality"},
		{"expire too short", func(r *domain.StreamRequest) { r.ExpireSeconds = 10 }, "expire time must be at least 30 seconds"},
		{"unknown type", func(r *domain.StreamRequest) { r.Type = "vod" }, "invalid stream type"},
		{
			"playback without window",
			func(r *domain.StreamRequest) { r.Type = domain.StreamTypePlayback },
			"start time is required for playback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := new(MockGateway)
			svc := NewStreamService(gateway, nil, zaptest.NewLogger(t))

			req := domain.DefaultStreamRequest()
			tt.mutate(&req)
			_, err := svc.GenerateURL(context.Background(), testSession(), req)

			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)
			assert.Contains(t, appErr.Message, tt.message)
			gateway.AssertNotCalled(t, "GetStreamAddress", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStreamService_GenerateURL_PlaybackPassesWindow(t *testing.T) {
	gateway := new(MockGateway)
	svc := NewStreamService(gateway, nil, zaptest.NewLogger(t))

	req := domain.DefaultStreamRequest()
	req.DeviceSerial = " FG3451360 "
	req.Type = "playback"
	req.StartTime = "2024-05-01 10:00:00"
	req.StopTime = "2024-05-01 10:30:00"

	gateway.On("GetStreamAddress", mock.Anything, mock.Anything, mock.MatchedBy(func(r domain.StreamRequest) bool {
		fields := r.FormValues()
		return r.DeviceSerial == "FG3451360" &&
			fields["type"] == "2" &&
			fields["startTime"] == "2024-05-01 10:00:00" &&
			fields["stopTime"] == "2024-05-01 10:30:00"
	})).Return(&domain.StreamResult{Code: "200", URL: "ezopen://open.ezviz.com/FG3451360/1.rec"}, nil)

	got, err := svc.GenerateURL(context.Background(), testSession(), req)

	require.NoError(t, err)
	assert.True(t, got.Success())
	gateway.AssertExpectations(t)
}

func TestStreamService_GenerateURL_AnnotatesSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	gateway := new(MockGateway)
	svc := NewStreamService(gateway, nil, zaptest.NewLogger(t))

	req := domain.DefaultStreamRequest()
	req.DeviceSerial = "FG3451360"
	req.Channel = 2
	gateway.On("GetStreamAddress", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.StreamResult{Code: "200", URL: "https://open.ezviz.com/live/FG3451360.m3u8"}, nil)

	ctx, span := tracing.StartSpan(context.Background(), "http.POST")
	_, err := svc.GenerateURL(ctx, testSession(), req)
	span.End()
	require.NoError(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	attrs := map[string]interface{}{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "FG3451360", attrs["device.serial"])
	assert.Equal(t, int64(2), attrs["device.channel"])
	assert.Equal(t, int64(domain.ProtocolHLS), attrs["stream.protocol"])
	assert.Equal(t, "live", attrs["stream.type"])
}
