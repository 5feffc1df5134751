package chat

import (
	"DemoHub/controllers"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register expects the group to already have AuthMiddleware applied
func Register(g *gin.RouterGroup, db *gorm.DB, reg *svc.Registry) {
	g.GET("/chats", controllers.ListChats(db))
	g.POST("/chats", controllers.CreateChat(db, reg))
	g.GET("/chats/:id", controllers.GetChat(db))
	g.DELETE("/chats/:id", controllers.DeleteChat(db))
	g.PATCH("/chats/:id/title", controllers.UpdateChatTitle(db))
	g.PATCH("/chats/:id/model", controllers.UpdateChatModel(db, reg))
	g.PUT("/chats/:id/messages", controllers.SaveChatMessages(db))
	g.POST("/chats/:id/messages", controllers.AddMessage(db))
	g.DELETE("/messages/:id", controllers.DeleteMessage(db))
}
