package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "kolaboree-backend"

type HealthHandler struct {
	version   string
	startedAt time.Time
	// connections reports the number of live cloud connections.
	connections func() int
}

func NewHealthHandler(version string, connections func() int) *HealthHandler {
	return &HealthHandler{
		version:     version,
		startedAt:   time.Now(),
		connections: connections,
	}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    serviceName,
		"version": h.version,
		"status":  "running",
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service":           serviceName,
		"uptime_seconds":    int(time.Since(h.startedAt).Seconds()),
		"cloud_connections": h.connections(),
	})
}
