package http

import (
	"net/http"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/internal/infrastructure/middleware"
	"ezstream/internal/presenter"
	"ezstream/pkg/errors"
	"ezstream/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    ports.AuthService
	tokens         ports.SessionTokenService
	requireSession gin.HandlerFunc
}

func NewAuthHandler(authService ports.AuthService, tokens ports.SessionTokenService, requireSession gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		tokens:         tokens,
		requireSession: requireSession,
	}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth", h.Authenticate)

	session := rg.Group("/session", h.requireSession)
	{
		session.GET("", h.GetSession)
		session.DELETE("", h.Logout)
	}
}

type AuthRequest struct {
	AppKey    string `json:"app_key" form:"app_key"`
	AppSecret string `json:"app_secret" form:"app_secret"`
}

type SessionResponse struct {
	SessionID   domain.SessionID `json:"session_id"`
	AreaDomain  string           `json:"area_domain"`
	AccessToken string           `json:"access_token"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	ExpiresIn   int              `json:"expires_in"`
}

func newSessionResponse(s *domain.Session) SessionResponse {
	resp := SessionResponse{
		SessionID:   s.ID,
		AreaDomain:  s.AreaDomain,
		AccessToken: utils.MaskSensitive(s.AccessToken, 4),
		ExpiresIn:   int(s.TTL(utils.Now()) / time.Second),
	}
	if !s.ExpiresAt.IsZero() {
		expires := s.ExpiresAt
		resp.ExpiresAt = &expires
	}
	return resp
}

func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	session, err := h.authService.Authenticate(c.Request.Context(), domain.NewCredentials(req.AppKey, req.AppSecret))
	if err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), session)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"session": newSessionResponse(session),
		"message": presenter.AuthSuccess(session),
	})
}

func (h *AuthHandler) GetSession(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("Please authenticate first"))
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.tokens.Revoke(c.Request.Context(), middleware.TokenFromContext(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
