package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"DemoHub/middleware"
	"DemoHub/models"
	svc "DemoHub/pkg/services"
	"DemoHub/pkg/token"
	utils "DemoHub/pkg/utills"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const (
	wsReadTimeout   = 60 * time.Second
	wsHistoryLimit  = 20
	wsTitleMaxRunes = 60
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type wsStartPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	ChatID  string `json:"chat_id"`
	ModelID string `json:"model_id"`
}

// WSDeps groups what the socket handler needs besides the database.
type WSDeps struct {
	Tokens  *token.Manager
	Gateway *svc.Gateway
	Titles  *svc.TitleService
	Timeout time.Duration
	Log     *slog.Logger
}

// ChatWS handles WebSocket chat streaming.
// Client protocol (JSON messages):
//
//	-> {type: "start", message: string, chat_id?: string, model_id?: string}
//	<- {type: "user_saved", chat_id: string, message_id: string}
//	<- {type: "delta", data: string}
//	<- {type: "done", ok: true, stopped?: true}
//	<- {type: "error", error: string}
//	-> {type: "stop"}
func ChatWS(db *gorm.DB, deps WSDeps) gin.HandlerFunc {
	log := deps.Log.With(slog.String("component", "ws"))
	return func(c *gin.Context) {
		// Authenticate via ?token=JWT
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		claims, err := deps.Tokens.Parse(tokenStr)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, token.ErrRevoked) {
				msg = "Token has been revoked (logout)"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"msg": msg})
			return
		}
		uid := claims.UserID

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("upgrade failed", slog.Any("err", err))
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1 << 20)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		sendError := func(msg string) {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": msg})
		}

		// one start message per connection
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug("read start", slog.Any("err", err))
			return
		}
		var start wsStartPayload
		if err := json.Unmarshal(raw, &start); err != nil || strings.ToLower(start.Type) != "start" || strings.TrimSpace(start.Message) == "" {
			sendError("invalid start payload")
			return
		}
		text := strings.TrimSpace(start.Message)
		if !middleware.DuplicateGuard(uid, text) {
			sendError("duplicate message")
			return
		}
		// until the user message is stored a failed start must not block a retry
		accepted := false
		defer func() {
			if !accepted {
				middleware.ForgetDuplicate(uid, text)
			}
		}()

		reqCtx := c.Request.Context()
		chat, err := wsChat(reqCtx, db, deps, uid, start, text)
		if err != nil {
			switch {
			case errors.Is(err, errChatNotFound):
				sendError("chat not found")
			case errors.Is(err, svc.ErrModelNotFound):
				sendError("Model not found")
			default:
				log.Error("prepare chat", slog.Any("err", err))
				sendError("failed to prepare chat")
			}
			return
		}
		model, err := deps.Gateway.Resolve(reqCtx, chat.ModelID)
		if err != nil {
			sendError("Model not found")
			return
		}

		release, ok := middleware.TryAcquireUserSlot(uid)
		if !ok {
			sendError("too many concurrent streams")
			return
		}
		defer release()

		history := svc.HistoryFromRows(chat.Messages)
		if len(history) > wsHistoryLimit {
			history = history[len(history)-wsHistoryLimit:]
		}
		history = append(history, svc.ChatMessage{Role: models.RoleUser, Text: text})

		saved, err := appendMessage(db, chat.ID, models.TextMessage(uuid.NewString(), models.RoleUser, text))
		if err != nil {
			sendError("failed to save message")
			return
		}
		accepted = true
		_ = conn.WriteJSON(gin.H{"type": "user_saved", "chat_id": chat.ID, "message_id": saved.ID, "title": chat.Title})

		parentCtx, cancelTimeout := context.WithTimeout(reqCtx, deps.Timeout)
		ctx, cancel := context.WithCancel(parentCtx)
		defer func() {
			cancel()
			cancelTimeout()
		}()

		// reader goroutine listens for {type:"stop"}
		stopCh := make(chan struct{})
		var stopOnce sync.Once
		go func() {
			for {
				if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
					return
				}
				mt, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
					continue
				}
				var obj struct {
					Type string `json:"type"`
				}
				_ = json.Unmarshal(msg, &obj)
				if strings.ToLower(strings.TrimSpace(obj.Type)) == "stop" {
					stopOnce.Do(func() {
						close(stopCh)
						cancel()
					})
					return
				}
			}
		}()

		isStopped := func() bool {
			select {
			case <-stopCh:
				return true
			default:
				return false
			}
		}

		// only text the client was sent is stored
		var shown strings.Builder
		_, err = deps.Gateway.Stream(ctx, svc.CompletionRequest{Model: model, Messages: history}, func(s string) {
			if isStopped() {
				return
			}
			shown.WriteString(s)
			_ = conn.WriteJSON(gin.H{"type": "delta", "data": s})
		})
		stopped := isStopped()
		if err != nil && !stopped {
			log.Warn("stream failed", slog.String("chat_id", chat.ID), slog.Any("err", err))
			sendError("failed to generate reply")
			return
		}

		// a stopped reply is kept as far as it got
		reply := shown.String()
		if strings.TrimSpace(reply) != "" {
			if _, err := appendMessage(db, chat.ID, models.TextMessage(uuid.NewString(), models.RoleAssistant, reply)); err != nil {
				log.Error("save reply", slog.String("chat_id", chat.ID), slog.Any("err", err))
			}
		}

		if stopped {
			_ = conn.WriteJSON(gin.H{"type": "done", "ok": true, "stopped": true})
			return
		}
		_ = conn.WriteJSON(gin.H{"type": "done", "ok": true})
	}
}

// wsChat loads the caller's chat with its history, or creates a titled one.
func wsChat(ctx context.Context, db *gorm.DB, deps WSDeps, uid uint, start wsStartPayload, text string) (models.Chat, error) {
	if id := strings.TrimSpace(start.ChatID); id != "" {
		ch, err := findOwnedChat(db, uid, id, true)
		if err != nil {
			return models.Chat{}, err
		}
		if m := strings.TrimSpace(start.ModelID); m != "" && m != ch.ModelID {
			model, err := deps.Gateway.Resolve(ctx, m)
			if err != nil {
				return models.Chat{}, err
			}
			ch.ModelID = model.ID
			if err := db.Model(&ch).Update("model_id", model.ID).Error; err != nil {
				return models.Chat{}, err
			}
		}
		return ch, nil
	}

	model, err := deps.Gateway.Resolve(ctx, start.ModelID)
	if err != nil {
		return models.Chat{}, err
	}
	id, err := models.NewChatID()
	if err != nil {
		return models.Chat{}, err
	}
	title := utils.TruncateRunes(deps.Titles.Generate(ctx, text), wsTitleMaxRunes)
	if title == "" {
		title = models.DefaultChatTitle
	}
	ch := models.Chat{ID: id, UserID: uid, Title: title, ModelID: model.ID}
	if err := db.Create(&ch).Error; err != nil {
		return models.Chat{}, err
	}
	return ch, nil
}
