package auth

import (
	"DemoHub/controllers"
	"DemoHub/pkg/cache"
	"DemoHub/pkg/config"
	"DemoHub/pkg/token"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterPublic registers public auth routes: /register, /login
func RegisterPublic(r *gin.Engine, db *gorm.DB, cfg *config.Config, tm *token.Manager, store *cache.Cache) {
	r.POST("/register", controllers.Register(db, cfg, store))
	r.POST("/login", controllers.Login(db, tm))
}

// RegisterProtected registers protected auth routes: /logout, /me
func RegisterProtected(g *gin.RouterGroup, db *gorm.DB, tm *token.Manager) {
	g.POST("/logout", controllers.Logout(tm))
	g.GET("/me", controllers.Me(db))
}
