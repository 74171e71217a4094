package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/pkg/utils"
)

func respondError(c *gin.Context, err error) {
	var apiErr *utils.APIError
	if !errors.As(err, &apiErr) {
		apiErr = utils.NewSystemError(err)
	}
	if apiErr.HTTPStatus() >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(apiErr.HTTPStatus(), model.ErrorResponse{
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Code:    3001,
		Message: "Invalid request parameters",
		Details: err.Error(),
	})
}
