package http

import (
	stderrors "errors"
	"net/http"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ProfileHandler exposes the saved form state kept in the profile file.
type ProfileHandler struct {
	store ports.ProfileStore
}

func NewProfileHandler(store ports.ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.GetProfile)
	rg.PUT("/profile", h.SaveProfile)
}

type SaveProfileRequest struct {
	domain.Profile
	IncludeSecret bool `json:"include_secret"`
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := h.store.Load(c.Request.Context(), domain.DefaultProfile())
	if err != nil {
		if stderrors.Is(err, domain.ErrProfileNotFound) {
			_ = c.Error(errors.WrapError(err, errors.ErrCodeNotFound, "Configuration file not found", http.StatusNotFound))
			return
		}
		_ = c.Error(errors.WrapError(err, errors.ErrCodeInternal, "Failed to load configuration", http.StatusInternalServerError))
		return
	}

	if c.Query("include_secret") != "true" {
		p.AppSecret = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": p,
		"path":    h.store.Path(),
	})
}

func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	req := SaveProfileRequest{Profile: domain.DefaultProfile()}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.WrapError(err, errors.ErrCodeInvalidInput, "invalid request format", http.StatusBadRequest))
		return
	}
	if !req.Protocol.Valid() {
		_ = c.Error(errors.NewInvalidInputError(domain.ErrInvalidProtocol.Error()))
		return
	}
	if !req.Quality.Valid() {
		_ = c.Error(errors.NewInvalidInputError(domain.ErrInvalidQuality.Error()))
		return
	}

	if err := h.store.Save(c.Request.Context(), req.Profile, req.IncludeSecret); err != nil {
		_ = c.Error(errors.WrapError(err, errors.ErrCodeInternal, "Failed to save configuration", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Configuration saved",
		"path":    h.store.Path(),
	})
}
