package controllers

import (
	"errors"
	"net/http"
	"strings"

	"DemoHub/middleware"
	"DemoHub/models"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errChatNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "chat not found"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"msg": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
	}
}

// ListChats returns the caller's chats, most recently active first.
// ?with_messages=1 also loads every transcript.
func ListChats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		withMessages := c.Query("with_messages") == "1" || c.Query("with_messages") == "true"

		q := db.Where("user_id = ?", uid).Order("updated_at desc")
		if withMessages {
			q = q.Preload("Messages", orderedMessages)
		}
		var chats []models.Chat
		if err := q.Find(&chats).Error; err != nil {
			chatError(c, err)
			return
		}
		out := make([]gin.H, 0, len(chats))
		for _, ch := range chats {
			out = append(out, chatJSON(ch, withMessages))
		}
		c.JSON(http.StatusOK, out)
	}
}

func GetChat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := findOwnedChat(db, middleware.CurrentUserID(c), c.Param("id"), true)
		if err != nil {
			chatError(c, err)
			return
		}
		c.JSON(http.StatusOK, chatJSON(ch, true))
	}
}

// CreateChat stores an empty chat. A client supplied id is kept so the page
// can navigate before the request returns.
func CreateChat(db *gorm.DB, reg *svc.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ID      string `json:"id"`
			ModelID string `json:"model_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		model, err := reg.Get(c.Request.Context(), body.ModelID)
		if err != nil {
			modelError(c, err)
			return
		}

		id := strings.TrimSpace(body.ID)
		if id == "" {
			if id, err = models.NewChatID(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create chat id"})
				return
			}
		}
		ch := models.Chat{
			ID:      id,
			UserID:  middleware.CurrentUserID(c),
			Title:   models.DefaultChatTitle,
			ModelID: model.ID,
		}
		if err := db.Create(&ch).Error; err != nil {
			chatError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": ch.ID})
	}
}

// updateOwnedChat applies column to the caller's chat; zero rows is a 404.
func updateOwnedChat(c *gin.Context, db *gorm.DB, column string, value string) {
	res := db.Model(&models.Chat{}).
		Where("id = ? AND user_id = ?", c.Param("id"), middleware.CurrentUserID(c)).
		Update(column, value)
	if res.Error != nil {
		chatError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		chatError(c, errChatNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "updated"})
}

func UpdateChatTitle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "title is required"})
			return
		}
		updateOwnedChat(c, db, "title", strings.TrimSpace(body.Title))
	}
}

func UpdateChatModel(db *gorm.DB, reg *svc.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ModelID string `json:"model_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.ModelID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "model_id is required"})
			return
		}
		model, err := reg.Get(c.Request.Context(), body.ModelID)
		if err != nil {
			modelError(c, err)
			return
		}
		updateOwnedChat(c, db, "model_id", model.ID)
	}
}

func DeleteChat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := findOwnedChat(db, middleware.CurrentUserID(c), c.Param("id"), false)
		if err != nil {
			chatError(c, err)
			return
		}
		if err := db.Transaction(func(tx *gorm.DB) error { return deleteChat(tx, ch.ID) }); err != nil {
			chatError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
	}
}

// SaveChatMessages replaces the transcript with the posted messages.
func SaveChatMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Messages []models.UIMessage `json:"messages"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		ch, err := findOwnedChat(db, middleware.CurrentUserID(c), c.Param("id"), false)
		if err != nil {
			chatError(c, err)
			return
		}
		if err := replaceMessages(db, ch.ID, body.Messages); err != nil {
			chatError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "saved", "count": len(body.Messages)})
	}
}

// AddMessage appends one message to the end of the transcript.
func AddMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Message *models.UIMessage `json:"message"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Message == nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "message is required"})
			return
		}
		ch, err := findOwnedChat(db, middleware.CurrentUserID(c), c.Param("id"), false)
		if err != nil {
			chatError(c, err)
			return
		}
		row, err := appendMessage(db, ch.ID, *body.Message)
		if err != nil {
			chatError(c, err)
			return
		}
		c.JSON(http.StatusCreated, row.ToUI())
	}
}

// DeleteMessage only removes messages from chats the caller owns.
func DeleteMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		var msg models.Message
		err := db.Joins("JOIN chats ON chats.id = messages.chat_id").
			Where("messages.id = ? AND chats.user_id = ?", c.Param("id"), uid).
			First(&msg).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"msg": "message not found"})
				return
			}
			chatError(c, err)
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.Message{}, "id = ?", msg.ID).Error; err != nil {
				return err
			}
			return touchChat(tx, msg.ChatID)
		})
		if err != nil {
			chatError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
	}
}
