package models

import (
	"DemoHub/controllers"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register lets every signed-in user list models; writes go through admin.
func Register(g *gin.RouterGroup, admin gin.HandlerFunc, reg *svc.Registry) {
	g.GET("/api/models", controllers.ListModels(reg))
	g.POST("/api/models", admin, controllers.CreateModel(reg))
	g.PUT("/api/models/:id", admin, controllers.UpdateModel(reg))
	g.DELETE("/api/models/:id", admin, controllers.DeleteModel(reg))
}
