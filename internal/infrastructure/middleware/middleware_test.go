package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/pkg/errors"
	"ezstream/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubTokens struct {
	sessions map[string]*domain.Session
}

func (s *stubTokens) Issue(context.Context, *domain.Session) (string, error) { return "", nil }

func (s *stubTokens) Resolve(_ context.Context, token string) (*domain.Session, error) {
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, errors.NewUnauthorizedError("Session expired, please authenticate first")
}

func (s *stubTokens) Revoke(context.Context, string) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryMiddleware(zaptest.NewLogger(t).Sugar()))
	router.Use(ErrorHandlerMiddleware(zaptest.NewLogger(t).Sugar()))
	return router
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	session := &domain.Session{ID: "s-1", AccessToken: "at", AreaDomain: "https://open.ezvizlife.com"}
	tokens := &stubTokens{sessions: map[string]*domain.Session{"good": session}}

	router := newTestRouter(t)
	router.GET("/private", AuthMiddleware(tokens), func(c *gin.Context) {
		got, ok := SessionFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"session": got.ID, "token": TokenFromContext(c)})
	})

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Please authenticate first"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "Session expired, please authenticate first"},
		{"valid token", "Bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			if tt.message != "" {
				assert.Equal(t, "UNAUTHORIZED", body["error"])
				assert.Equal(t, tt.message, body["message"])
				return
			}
			assert.Equal(t, "s-1", body["session"])
			assert.Equal(t, "good", body["token"])
		})
	}
}

func TestErrorHandlerMiddleware_AppErrorDetails(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/vendor", func(c *gin.Context) {
		_ = c.Error(errors.NewUpstreamRejectedError("10002", "accessToken expired"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vendor", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "UPSTREAM_REJECTED", body["error"])
	assert.Equal(t, "accessToken expired", body["message"])
	assert.Equal(t, map[string]interface{}{"vendor_code": "10002"}, body["details"])
}

func TestErrorHandlerMiddleware_PlainErrorAndPanic(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/plain", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	for _, path := range []string{"/plain", "/panic"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		body := decodeBody(t, w)
		assert.Equal(t, "INTERNAL_ERROR", body["error"], path)
		assert.Equal(t, "Internal server error", body["message"], path)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), AccessLogMiddleware(zaptest.NewLogger(t)))
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPMetrics struct {
	calls []recordedRequest
}

func (f *fakeHTTPMetrics) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.calls = append(f.calls, recordedRequest{method, route, status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := &fakeHTTPMetrics{}

	router := gin.New()
	router.Use(MetricsMiddleware(metrics))
	router.GET("/devices/:serial", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/devices/FG3451360", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Len(t, metrics.calls, 2)
	assert.Equal(t, recordedRequest{"GET", "/devices/:serial", http.StatusNoContent}, metrics.calls[0])
	assert.Equal(t, recordedRequest{"GET", "", http.StatusNotFound}, metrics.calls[1])
}
