package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"DemoHub/middleware"
	"DemoHub/models"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatStream streams one assistant reply as server-sent events.
//
//	event: start  {model_id, chat_id}
//	event: delta  {text}
//	event: done   {message}
//	event: error  {error}
//
// With a chatId owned by the caller the request transcript plus the reply
// replaces the stored messages once the stream completes.
func ChatStream(db *gorm.DB, gw *svc.Gateway, timeout time.Duration, log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "chat"))
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		var body struct {
			Messages []models.UIMessage `json:"messages"`
			ModelID  string             `json:"modelId"`
			ChatID   string             `json:"chatId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		history := svc.HistoryFromUI(body.Messages)
		if len(history) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "messages are required"})
			return
		}

		model, err := gw.Resolve(c.Request.Context(), body.ModelID)
		if err != nil {
			if errors.Is(err, svc.ErrModelNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		var chat *models.Chat
		if id := strings.TrimSpace(body.ChatID); id != "" {
			ch, err := findOwnedChat(db, uid, id, false)
			if err != nil {
				chatError(c, err)
				return
			}
			chat = &ch
		}

		release, ok := middleware.TryAcquireUserSlot(uid)
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{"msg": "too many concurrent streams"})
			return
		}
		defer release()

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		c.SSEvent("start", gin.H{"model_id": model.ID, "chat_id": body.ChatID})
		c.Writer.Flush()

		text, err := gw.Stream(ctx, svc.CompletionRequest{Model: model, Messages: history}, func(s string) {
			c.SSEvent("delta", gin.H{"text": s})
			c.Writer.Flush()
		})
		if err != nil {
			if c.Request.Context().Err() != nil {
				// client went away
				return
			}
			msg := "failed to generate reply"
			if errors.Is(err, context.DeadlineExceeded) {
				msg = "reply timed out"
			}
			c.SSEvent("error", gin.H{"error": msg})
			c.Writer.Flush()
			return
		}

		reply := models.TextMessage(uuid.NewString(), models.RoleAssistant, text)
		if chat != nil {
			transcript := append(append([]models.UIMessage(nil), body.Messages...), reply)
			if err := saveTranscript(db, chat.ID, model.ID, transcript); err != nil {
				log.Error("save transcript", slog.String("chat_id", chat.ID), slog.Any("err", err))
			}
		}
		c.SSEvent("done", gin.H{"message": reply})
		c.Writer.Flush()
	}
}

func saveTranscript(db *gorm.DB, chatID, modelID string, msgs []models.UIMessage) error {
	if err := replaceMessages(db, chatID, msgs); err != nil {
		return err
	}
	return db.Model(&models.Chat{}).Where("id = ?", chatID).Update("model_id", modelID).Error
}

// ChatTitle names a chat from its first message.
func ChatTitle(titles *svc.TitleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "text is required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"title": titles.Generate(c.Request.Context(), body.Text)})
	}
}
