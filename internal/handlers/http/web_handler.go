package http

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexHTML []byte

// WebHandler serves the browser form and its status event stream.
type WebHandler struct {
	events http.HandlerFunc
}

func NewWebHandler(events http.HandlerFunc) *WebHandler {
	return &WebHandler{events: events}
}

func (h *WebHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Index)
	if h.events != nil {
		rg.GET("/ws", gin.WrapF(h.events))
	}
}

func (h *WebHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
