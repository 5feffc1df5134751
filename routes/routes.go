package routes

import (
	"log/slog"
	"net/http"

	"DemoHub/controllers"
	"DemoHub/middleware"
	"DemoHub/pkg/cache"
	"DemoHub/pkg/config"
	svc "DemoHub/pkg/services"
	"DemoHub/pkg/token"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	adminRoutes "DemoHub/routes/admin"
	authRoutes "DemoHub/routes/auth"
	chatRoutes "DemoHub/routes/chat"
	completionRoutes "DemoHub/routes/completion"
	modelRoutes "DemoHub/routes/models"
	profileRoutes "DemoHub/routes/profile"
	uploadsRoutes "DemoHub/routes/uploads"
	websocketRoutes "DemoHub/routes/websocket"
)

// Deps is everything the handlers are built from.
type Deps struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Log     *slog.Logger
	Tokens  *token.Manager
	Gateway *svc.Gateway
	Titles  *svc.TitleService
	Cache   *cache.Cache
	Avatars *svc.AvatarStore
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "demo hub backend running"})
	})

	uploadsRoutes.Register(r, d.Avatars.Root())
	websocketRoutes.Register(r, d.DB, controllers.WSDeps{
		Tokens:  d.Tokens,
		Gateway: d.Gateway,
		Titles:  d.Titles,
		Timeout: d.Cfg.StreamTimeout,
		Log:     d.Log,
	})
	authRoutes.RegisterPublic(r, d.DB, d.Cfg, d.Tokens, d.Cache)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Tokens))
	authRoutes.RegisterProtected(protected, d.DB, d.Tokens)
	profileRoutes.Register(protected, d.DB, d.Avatars, d.Cache)
	chatRoutes.Register(protected, d.DB, d.Gateway.Registry())
	completionRoutes.Register(protected, d.DB, d.Gateway, d.Titles, d.Cfg.StreamTimeout, d.Log)

	requireAdmin := middleware.RequireAdmin(d.DB)
	modelRoutes.Register(protected, requireAdmin, d.Gateway.Registry())

	admin := protected.Group("/admin")
	admin.Use(requireAdmin)
	adminRoutes.Register(admin, d.DB, d.Cache, d.Cfg.CacheTTL())
}
