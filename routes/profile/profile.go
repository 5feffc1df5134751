package profile

import (
	"DemoHub/controllers"
	"DemoHub/pkg/cache"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers protected profile routes on supplied router group
// expects the group to already have AuthMiddleware applied
func Register(g *gin.RouterGroup, db *gorm.DB, avatars *svc.AvatarStore, store *cache.Cache) {
	g.GET("/profile", controllers.Profile(db, store))
	g.PUT("/profile", controllers.Profile(db, store))
	g.POST("/profile/avatar", controllers.UploadAvatar(db, avatars))
}
