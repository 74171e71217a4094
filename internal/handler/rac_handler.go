package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kolaboree-backend/internal/service"
)

type RACHandler struct {
	racService *service.RACService
}

func NewRACHandler(racService *service.RACService) *RACHandler {
	return &RACHandler{
		racService: racService,
	}
}

func (h *RACHandler) ListConnections(c *gin.Context) {
	c.JSON(http.StatusOK, h.racService.Connections(c.Request.Context()))
}

func (h *RACHandler) GetConnection(c *gin.Context) {
	detail, err := h.racService.Connection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *RACHandler) Connect(c *gin.Context) {
	resp, err := h.racService.Connect(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
