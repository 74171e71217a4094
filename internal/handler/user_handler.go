package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kolaboree-backend/internal/service"
)

type UserHandler struct {
	workspaceService *service.WorkspaceService
}

func NewUserHandler(workspaceService *service.WorkspaceService) *UserHandler {
	return &UserHandler{
		workspaceService: workspaceService,
	}
}

func (h *UserHandler) MyWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspaceService.MyWorkspaces(c.Request.Context()))
}
