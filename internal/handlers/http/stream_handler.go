package http

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/internal/infrastructure/middleware"
	"ezstream/internal/presenter"
	"ezstream/pkg/errors"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	streamService  ports.StreamService
	deviceService  ports.DeviceService
	requireSession gin.HandlerFunc
}

func NewStreamHandler(
	streamService ports.StreamService,
	deviceService ports.DeviceService,
	requireSession gin.HandlerFunc,
) *StreamHandler {
	return &StreamHandler{
		streamService:  streamService,
		deviceService:  deviceService,
		requireSession: requireSession,
	}
}

func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("", h.requireSession)
	{
		api.POST("/stream/url", h.GenerateURL)
		api.GET("/devices", h.ListDevices)
	}
}

// GenerateURL requests a live or playback address. Omitted fields keep the
// form defaults. A vendor rejection is answered with 502 and the rendered
// error; the full vendor response is returned either way.
func (h *StreamHandler) GenerateURL(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("Please authenticate first"))
		return
	}

	req := domain.DefaultStreamRequest()
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		_ = c.Error(errors.WrapError(err, errors.ErrCodeInvalidInput, "invalid request format", http.StatusBadRequest))
		return
	}

	result, err := h.streamService.GenerateURL(c.Request.Context(), session, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	text := presenter.Stream(result)
	if !result.Success() {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   string(errors.ErrCodeUpstreamRejected),
			"message": presenter.StreamError(result),
			"result":  result,
			"text":    text,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    presenter.CopyableURL(result),
		"result": result,
		"text":   text,
	})
}

func (h *StreamHandler) ListDevices(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("Please authenticate first"))
		return
	}

	pageStart, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		_ = c.Error(errors.NewInvalidInputError("page must be a number"))
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		_ = c.Error(errors.NewInvalidInputError("size must be a number"))
		return
	}

	page, err := h.deviceService.ListDevices(c.Request.Context(), session, pageStart, pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}
