package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/service"
)

type AdminHandler struct {
	cloudService *service.CloudService
}

func NewAdminHandler(cloudService *service.CloudService) *AdminHandler {
	return &AdminHandler{
		cloudService: cloudService,
	}
}

func (h *AdminHandler) CreateConnection(c *gin.Context) {
	var req model.CloudConnectionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	conn, err := h.cloudService.CreateConnection(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

func (h *AdminHandler) ListConnections(c *gin.Context) {
	c.JSON(http.StatusOK, h.cloudService.ListConnections())
}

func (h *AdminHandler) GetConnection(c *gin.Context) {
	conn, err := h.cloudService.GetConnection(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *AdminHandler) ConnectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cloudService.Status(c.Param("id")))
}

func (h *AdminHandler) ListNodes(c *gin.Context) {
	nodes, err := h.cloudService.ListNodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (h *AdminHandler) NodeAction(c *gin.Context) {
	resp, err := h.cloudService.NodeAction(c.Request.Context(), c.Param("id"), c.Param("node_id"), c.Param("action"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateNode(c *gin.Context) {
	var req model.NodeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	node, err := h.cloudService.CreateNode(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (h *AdminHandler) DeleteConnection(c *gin.Context) {
	if err := h.cloudService.DeleteConnection(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Success: true, Message: "Cloud connection deleted successfully"})
}

func (h *AdminHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, h.cloudService.Providers())
}
