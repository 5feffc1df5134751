package websocket

import (
	"DemoHub/controllers"
	"DemoHub/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(r *gin.Engine, db *gorm.DB, deps controllers.WSDeps) {
	r.GET("/ws/chat", middleware.RateLimit(), controllers.ChatWS(db, deps))
}
