package router

import (
	"github.com/gin-gonic/gin"

	"kolaboree-backend/internal/handler"
)

type Handlers struct {
	Admin   *handler.AdminHandler
	User    *handler.UserHandler
	RAC     *handler.RACHandler
	Console *handler.ConsoleHandler
	Health  *handler.HealthHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/", h.Health.Root)
	r.GET("/health", h.Health.Health)

	api := r.Group("/api/v1")
	{
		admin := api.Group("/admin")
		{
			admin.GET("/providers", h.Admin.Providers)

			conns := admin.Group("/cloud_connections")
			conns.POST("", h.Admin.CreateConnection)
			conns.GET("", h.Admin.ListConnections)
			conns.GET("/:id", h.Admin.GetConnection)
			conns.DELETE("/:id", h.Admin.DeleteConnection)
			conns.GET("/:id/status", h.Admin.ConnectionStatus)
			conns.GET("/:id/nodes", h.Admin.ListNodes)
			conns.POST("/:id/nodes", h.Admin.CreateNode)
			conns.POST("/:id/nodes/:node_id/:action", h.Admin.NodeAction)
		}

		user := api.Group("/user")
		{
			user.GET("/my_workspaces", h.User.MyWorkspaces)
		}

		rac := api.Group("/rac")
		{
			rac.GET("/connections", h.RAC.ListConnections)
			rac.GET("/connections/:id", h.RAC.GetConnection)
			rac.POST("/connections/:id/connect", h.RAC.Connect)
		}

		console := api.Group("/console")
		{
			console.GET("/ws", h.Console.Shell)
			console.POST("/test", h.Console.TestConnection)
			console.POST("/test-batch", h.Console.BatchTestConnection)
		}

		api.GET("/health", h.Health.Health)
	}
}
