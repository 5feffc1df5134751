package completion

import (
	"log/slog"
	"time"

	"DemoHub/controllers"
	"DemoHub/middleware"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB, gw *svc.Gateway, titles *svc.TitleService, timeout time.Duration, log *slog.Logger) {
	g.POST("/api/chat", middleware.RateLimit(), controllers.ChatStream(db, gw, timeout, log))
	g.POST("/api/chat/title", middleware.RateLimit(), controllers.ChatTitle(titles))
}
