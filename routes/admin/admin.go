package admin

import (
	"time"

	"DemoHub/controllers"
	"DemoHub/pkg/cache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register expects the group to already require an admin user.
func Register(g *gin.RouterGroup, db *gorm.DB, store *cache.Cache, statsTTL time.Duration) {
	g.GET("/users", controllers.ListUsers(db))
	g.POST("/users", controllers.CreateUser(db, store))
	g.GET("/users/stats", controllers.UserStats(db, store, statsTTL))
	g.GET("/users/export", controllers.ExportUsers(db))
	g.GET("/users/:id", controllers.GetUser(db))
	g.PUT("/users/:id", controllers.UpdateUser(db, store))
	g.DELETE("/users/:id", controllers.DeleteUser(db, store))
}
